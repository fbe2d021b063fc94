package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leaptest/internal/cli/output"
	"github.com/leapstack-labs/leaptest/internal/rules"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Table string // Filter by table: class, method
}

// RuleEntry is one primary marker and the markers allowed next to it.
type RuleEntry struct {
	Table      string   `json:"table"`
	Primary    string   `json:"primary"`
	Compatible []string `json:"compatible"`
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules [marker]",
		Short: "Show marker compatibility rules",
		Long: `Show the marker compatibility tables used to validate descriptors.

The primary marker of a class or method is the lexicographically first of
its framework markers. Every other framework marker must be listed as
compatible with the primary, otherwise loading fails.

Tables come from the built-in defaults unless rules.class or rules.method
point at override files.`,
		Example: `  # Show both tables
  leaptest rules

  # Show the method table only
  leaptest rules --table method

  # Show what may accompany TestClass
  leaptest rules TestClass`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			marker := ""
			if len(args) > 0 {
				marker = args[0]
			}
			return runRules(cmd, opts, marker)
		},
	}

	cmd.Flags().StringVar(&opts.Table, "table", "", "Filter by table: class, method")

	return cmd
}

func runRules(cmd *cobra.Command, opts *RulesOptions, marker string) error {
	cc := GetCommandContext(cmd)
	r := cc.Renderer

	store, err := cc.LoadRules()
	if err != nil {
		return err
	}

	var tables []*rules.CompatibilityTable
	switch opts.Table {
	case "":
		tables = []*rules.CompatibilityTable{store.Class, store.Method}
	case rules.ClassTable:
		tables = []*rules.CompatibilityTable{store.Class}
	case rules.MethodTable:
		tables = []*rules.CompatibilityTable{store.Method}
	default:
		return fmt.Errorf("unknown rule table: %s (expected class or method)", opts.Table)
	}

	entries := ruleEntries(tables, marker)
	if marker != "" && len(entries) == 0 {
		return fmt.Errorf("no compatibility rule for marker: %s", marker)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(entries)
	}

	for _, tbl := range tables {
		t := table.NewWriter()
		t.AppendHeader(table.Row{"Primary", "Compatible With"})
		rows := 0
		for _, e := range entries {
			if e.Table != tbl.Name() {
				continue
			}
			compatible := strings.Join(e.Compatible, ", ")
			if compatible == "" {
				compatible = "-"
			}
			t.AppendRow(table.Row{e.Primary, compatible})
			rows++
		}
		if rows == 0 {
			continue
		}
		r.Header(2, cases.Title(language.English).String(tbl.Name())+" markers")
		r.Table(t)
	}
	return nil
}

func ruleEntries(tables []*rules.CompatibilityTable, marker string) []RuleEntry {
	entries := []RuleEntry{}
	for _, tbl := range tables {
		for _, primary := range tbl.Primaries() {
			if marker != "" && primary != marker {
				continue
			}
			entries = append(entries, RuleEntry{
				Table:      tbl.Name(),
				Primary:    primary,
				Compatible: tbl.Compatible(primary),
			})
		}
	}
	return entries
}
