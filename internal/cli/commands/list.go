package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leaptest/internal/cli/output"
	"github.com/leapstack-labs/leaptest/pkg/core"
	"github.com/spf13/cobra"
)

// ListOutput is the JSON form of the list command.
type ListOutput struct {
	RunID   string                      `json:"run_id,omitempty"`
	Classes []*core.TestClassDefinition `json:"classes"`
	NonTest []string                    `json:"non_test"`
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var fromCatalog bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List resolved test class definitions",
		Long: `List every registered test class definition with its instance settings,
constructor strategy and method count.

With --from-catalog the definitions of the most recent completed run are
read from the state database instead of loading the test tree.`,
		Example: `  # List definitions
  leaptest list

  # List the definitions recorded by the last persisted run
  leaptest list --from-catalog

  # List definitions as JSON
  leaptest list --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, fromCatalog)
		},
	}

	cmd.Flags().BoolVar(&fromCatalog, "from-catalog", false, "Read definitions from the last persisted run")

	return cmd
}

func runList(cmd *cobra.Command, fromCatalog bool) error {
	cc := GetCommandContext(cmd)
	r := cc.Renderer

	var list ListOutput
	if fromCatalog {
		var err error
		if list, err = listFromCatalog(cc); err != nil {
			return err
		}
	} else {
		result, err := runEngine(cmd, cc)
		if err != nil {
			return err
		}
		list = ListOutput{
			RunID:   result.RunID,
			Classes: result.Registry.All(),
			NonTest: result.Registry.NonTestNames(),
		}
	}
	if list.NonTest == nil {
		list.NonTest = []string{}
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(list)
	}

	r.Header(1, fmt.Sprintf("Test Classes (%d total)", len(list.Classes)))
	if len(list.Classes) == 0 {
		r.Muted("No test classes found.")
		return nil
	}
	r.Table(definitionTable(list.Classes))
	if len(list.NonTest) > 0 {
		r.Muted("Non-test classes: " + strings.Join(list.NonTest, ", "))
	}
	return nil
}

func listFromCatalog(cc *CommandContext) (ListOutput, error) {
	store, err := cc.OpenStore()
	if err != nil {
		return ListOutput{}, err
	}
	defer func() { _ = store.Close() }()

	run, err := store.LatestRun()
	if err != nil {
		return ListOutput{}, err
	}
	if run == nil {
		return ListOutput{}, errors.New("no completed run in the catalog\nHint: Run 'leaptest load --persist' first")
	}

	defs, err := store.ListDefinitions(run.ID)
	if err != nil {
		return ListOutput{}, err
	}
	nonTest, err := store.ListNonTest(run.ID)
	if err != nil {
		return ListOutput{}, err
	}
	return ListOutput{RunID: run.ID, Classes: defs, NonTest: nonTest}, nil
}

func definitionTable(defs []*core.TestClassDefinition) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Class", "Instances", "Threads", "Creators", "Constructor", "Methods", "Skip"})
	for _, def := range defs {
		skip := ""
		if def.Skipped {
			skip = def.SkipCode.String()
		}
		t.AppendRow(table.Row{
			def.QualifiedName,
			def.InstanceCount,
			def.InstanceThreadCount,
			def.CreatorThreadCount,
			string(def.Constructor),
			len(def.Methods),
			skip,
		})
	}
	return t
}
