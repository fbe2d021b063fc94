package commands

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/leapstack-labs/leaptest/internal/classpath"
	"github.com/leapstack-labs/leaptest/internal/cli/output"
	"github.com/leapstack-labs/leaptest/internal/engine"
	"github.com/leapstack-labs/leaptest/pkg/core"
	"github.com/spf13/cobra"
)

// LoadOutput is the JSON form of a loading pass.
type LoadOutput struct {
	RunID      string            `json:"run_id"`
	Loaded     int               `json:"loaded"`
	Skipped    int               `json:"skipped"`
	NonTest    int               `json:"non_test"`
	Classes    []LoadedClass     `json:"classes"`
	Unresolved []UnresolvedClass `json:"unresolved"`
	DurationMS int64             `json:"duration_ms"`
	Persisted  bool              `json:"persisted"`
}

// LoadedClass summarizes one registered definition.
type LoadedClass struct {
	Name      string `json:"name"`
	Skipped   bool   `json:"skipped"`
	Instances int    `json:"instances"`
	Methods   int    `json:"methods"`
}

// UnresolvedClass is an artifact that could not be loaded.
type UnresolvedClass struct {
	Name     string `json:"name"`
	Artifact string `json:"artifact"`
	Error    string `json:"error"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load and validate all test classes",
		Long: `Discover test class descriptors, resolve them through the loader scopes,
build their definitions and validate the dependency graph.

Artifacts that cannot be resolved are reported and skipped. Configuration
errors and dependency problems abort the run with a diagnostic.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # Load the test tree
  leaptest load

  # Fail when any artifact could not be resolved
  leaptest load --strict

  # Record the catalog in the state database
  leaptest load --persist`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLoad(cmd, strict)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when any artifact cannot be resolved")

	return cmd
}

func runLoad(cmd *cobra.Command, strict bool) error {
	cc := GetCommandContext(cmd)
	r := cc.Renderer

	result, err := runEngine(cmd, cc)
	if err != nil {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		if err := r.JSON(newLoadOutput(result)); err != nil {
			return err
		}
	case output.ModeMarkdown:
		loadMarkdown(r, result)
	default:
		loadText(r, result)
	}

	if strict && result.HasErrors() {
		return fmt.Errorf("%d artifact(s) could not be loaded", len(result.Errors))
	}
	return nil
}

func newLoadOutput(result *engine.Result) LoadOutput {
	out := LoadOutput{
		RunID:      result.RunID,
		Loaded:     result.Loaded,
		Skipped:    result.Skipped,
		NonTest:    result.NonTest,
		Classes:    []LoadedClass{},
		Unresolved: []UnresolvedClass{},
		DurationMS: result.Duration.Milliseconds(),
		Persisted:  result.Persisted,
	}
	for _, def := range result.Registry.All() {
		out.Classes = append(out.Classes, LoadedClass{
			Name:      def.QualifiedName,
			Skipped:   def.Skipped,
			Instances: def.InstanceCount,
			Methods:   len(def.Methods),
		})
	}
	for _, f := range result.Errors {
		out.Unresolved = append(out.Unresolved, UnresolvedClass{
			Name:     f.Artifact.QualifiedName(),
			Artifact: artifactLocation(f.Artifact),
			Error:    f.Err.Error(),
		})
	}
	return out
}

func loadText(r *output.Renderer, result *engine.Result) {
	r.Header(1, fmt.Sprintf("Test Classes (%d loaded)", result.Loaded))
	for _, def := range result.Registry.All() {
		status, detail := "loaded", pluralize(len(def.Methods), "method")
		if def.Skipped {
			status, detail = "skipped", def.SkipCode.String()
		}
		r.StatusLine(def.QualifiedName, status, detail)
	}
	for _, name := range result.Registry.NonTestNames() {
		r.StatusLine(name, "non-test", "")
	}

	if result.HasErrors() {
		r.Header(2, "Unresolved")
		for _, f := range result.Errors {
			r.StatusLine(f.Artifact.QualifiedName(), "unresolved", artifactLocation(f.Artifact))
		}
	}

	r.Println()
	if result.HasErrors() {
		r.Warning(result.Summary())
	} else {
		r.Success(result.Summary())
	}
	if result.Persisted {
		r.Muted("Catalog recorded as run " + result.RunID)
	}
}

func loadMarkdown(r *output.Renderer, result *engine.Result) {
	r.Println(output.FormatHeader(1, "Load Results"))
	r.Println()
	r.Println(output.FormatKeyValue("Run", result.RunID))
	r.Println(output.FormatKeyValue("Loaded", strconv.Itoa(result.Loaded)))
	r.Println(output.FormatKeyValue("Skipped", strconv.Itoa(result.Skipped)))
	r.Println(output.FormatKeyValue("Non-test", strconv.Itoa(result.NonTest)))
	r.Println(output.FormatKeyValue("Unresolved", strconv.Itoa(len(result.Errors))))
	r.Println(output.FormatKeyValue("Persisted", strconv.FormatBool(result.Persisted)))
	r.Println()

	if defs := result.Registry.All(); len(defs) > 0 {
		r.Println(output.FormatHeader(2, "Test Classes"))
		r.Println()
		for _, def := range defs {
			status := "loaded"
			if def.Skipped {
				status = "skipped"
			}
			r.StatusLine(def.QualifiedName, status, pluralize(len(def.Methods), "method"))
		}
		r.Println()
	}

	if result.HasErrors() {
		r.Println(output.FormatHeader(2, "Unresolved"))
		r.Println()
		for _, f := range result.Errors {
			r.StatusLine(f.Artifact.QualifiedName(), "unresolved", f.Err.Error())
		}
		r.Println()
	}
}

// artifactLocation returns the archive of an archive artifact, or the
// descriptor file a directory artifact is expected at.
func artifactLocation(a core.Artifact) string {
	if a.Kind == core.ContainerArchive {
		return a.ArchivePath()
	}
	rel, err := classpath.DescriptorPath(a.QualifiedName())
	if err != nil {
		return a.Dir
	}
	return filepath.Join(a.Dir, filepath.FromSlash(rel))
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
