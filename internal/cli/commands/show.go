package commands

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leaptest/internal/cli/output"
	"github.com/leapstack-labs/leaptest/pkg/core"
	"github.com/spf13/cobra"
)

// ShowOutput is the JSON form of the show command: the definition plus its
// transitive position in the class dependency graph.
type ShowOutput struct {
	*core.TestClassDefinition
	Upstream   []string `json:"upstream"`
	Downstream []string `json:"downstream"`
}

// NewShowCommand creates the show command.
func NewShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <class>",
		Short: "Show one resolved test class definition",
		Long: `Load the test tree and print the full definition of one class: instance
settings, per-instance properties, data references, methods and declared
dependencies, plus every class it transitively depends on and every class
that transitively depends on it.

The class may be given by qualified name or, when unambiguous, by simple name.`,
		Example: `  # Show a class by qualified name
  leaptest show smoke.LoginTest

  # Show a class by simple name
  leaptest show LoginTest --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0])
		},
	}
}

func runShow(cmd *cobra.Command, name string) error {
	cc := GetCommandContext(cmd)
	r := cc.Renderer

	result, err := runEngine(cmd, cc)
	if err != nil {
		return err
	}

	def, ok := result.Registry.Resolve(name)
	if !ok {
		if result.Registry.IsNonTest(name) {
			return fmt.Errorf("%s is not a test class\nHint: Add the TestClass marker to its descriptor", name)
		}
		return fmt.Errorf("test class not found: %s\nHint: Run 'leaptest list' to see loaded classes", name)
	}

	graph := result.Registry.Graph()
	view := ShowOutput{
		TestClassDefinition: def,
		Upstream:            graph.Upstream(def.QualifiedName),
		Downstream:          graph.Downstream(def.QualifiedName),
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(view)
	case output.ModeMarkdown:
		showMarkdown(r, view)
	default:
		showText(r, view)
	}
	return nil
}

func showText(r *output.Renderer, view ShowOutput) {
	def := view.TestClassDefinition
	styles := r.Styles()
	r.Header(1, def.QualifiedName)

	kv := func(key, value string) {
		r.Printf("  %s %s\n", styles.Bold.Render(key+":"), value)
	}
	for _, f := range definitionFields(def) {
		kv(f[0], f[1])
	}

	if len(def.DataReferences) > 0 {
		r.Header(2, "Data References")
		for _, name := range def.DataReferenceNames() {
			kv(name, def.DataReferences[name])
		}
	}

	if def.UserSuppliedProperties {
		r.Header(2, "Instance Properties")
		r.Table(propertiesTable(def))
	}

	if def.HasMethods() {
		r.Header(2, "Methods")
		r.Table(methodsTable(def))
	}

	if len(def.Dependencies) > 0 {
		r.Header(2, "Dependencies")
		for _, dep := range def.Dependencies {
			r.Println("  " + dep.String())
		}
	}

	if len(view.Upstream) > 0 {
		r.Header(2, "Upstream")
		r.Println("  " + strings.Join(view.Upstream, ", "))
	}
	if len(view.Downstream) > 0 {
		r.Header(2, "Downstream")
		r.Println("  " + strings.Join(view.Downstream, ", "))
	}
}

func showMarkdown(r *output.Renderer, view ShowOutput) {
	def := view.TestClassDefinition
	r.Println(output.FormatHeader(1, def.QualifiedName))
	r.Println()
	for _, f := range definitionFields(def) {
		r.Println(output.FormatKeyValue(f[0], f[1]))
	}
	r.Println()

	if len(def.DataReferences) > 0 {
		r.Println(output.FormatHeader(2, "Data References"))
		r.Println()
		for _, name := range def.DataReferenceNames() {
			r.Println(output.FormatKeyValue(name, "`"+def.DataReferences[name]+"`"))
		}
		r.Println()
	}

	if def.UserSuppliedProperties {
		r.Println(output.FormatHeader(2, "Instance Properties"))
		r.Println()
		r.Table(propertiesTable(def))
		r.Println()
	}

	if def.HasMethods() {
		r.Println(output.FormatHeader(2, "Methods"))
		r.Println()
		r.Table(methodsTable(def))
		r.Println()
	}

	if len(def.Dependencies) > 0 {
		r.Println(output.FormatHeader(2, "Dependencies"))
		r.Println()
		deps := make([]string, 0, len(def.Dependencies))
		for _, dep := range def.Dependencies {
			deps = append(deps, "`"+dep.String()+"`")
		}
		r.Println(output.FormatList(deps))
		r.Println()
	}

	if len(view.Upstream) > 0 {
		r.Println(output.FormatHeader(2, "Upstream"))
		r.Println()
		r.Println(output.FormatList(view.Upstream))
		r.Println()
	}
	if len(view.Downstream) > 0 {
		r.Println(output.FormatHeader(2, "Downstream"))
		r.Println()
		r.Println(output.FormatList(view.Downstream))
		r.Println()
	}
}

func definitionFields(def *core.TestClassDefinition) [][2]string {
	skip := "no"
	if def.Skipped {
		skip = def.SkipCode.String()
	}
	fields := [][2]string{
		{"Constructor", string(def.Constructor)},
		{"Instances", strconv.Itoa(def.InstanceCount)},
		{"Threads per instance", strconv.Itoa(def.InstanceThreadCount)},
		{"Creator threads", strconv.Itoa(def.CreatorThreadCount)},
		{"Skipped", skip},
	}
	if def.Origin != "" {
		fields = append(fields, [2]string{"Origin", def.Origin})
	}
	return fields
}

func propertiesTable(def *core.TestClassDefinition) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Instance", "Properties"})
	for i := 1; i <= def.InstanceCount; i++ {
		props := def.InstanceProperties[i]
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, k+"="+props[k])
		}
		t.AppendRow(table.Row{i, strings.Join(pairs, ", ")})
	}
	return t
}

func methodsTable(def *core.TestClassDefinition) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"#", "Method", "Markers", "Skip"})
	for _, m := range def.Methods {
		skip := ""
		if m.Skipped {
			skip = m.SkipCode.String()
		}
		t.AppendRow(table.Row{m.Ordinal, m.Name, strings.Join(m.Markers, ", "), skip})
	}
	return t
}
