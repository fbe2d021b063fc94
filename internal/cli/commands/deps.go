package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/leaptest/internal/cli/output"
	"github.com/leapstack-labs/leaptest/internal/dag"
	"github.com/spf13/cobra"
)

// DepsOutput is the JSON form of the deps command.
type DepsOutput struct {
	Levels     [][]string          `json:"levels"`
	DependsOn  map[string][]string `json:"depends_on"`
	Classes    int                 `json:"classes"`
	Edges      int                 `json:"edges"`
	Standalone []string            `json:"standalone"`
	Roots      []string            `json:"roots"`
}

// NewDepsCommand creates the deps command.
func NewDepsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "deps",
		Aliases: []string{"dag"},
		Short:   "Show the class dependency graph",
		Long: `Display the class-level dependency graph of all loaded test classes.

Classes are grouped by execution level: every class on a level depends only
on classes from earlier levels, so a level can be scheduled in parallel.
Dependency cycles are rejected during loading and reported as errors.`,
		Example: `  # Show execution levels
  leaptest deps

  # Output as JSON
  leaptest deps --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDeps(cmd)
		},
	}
}

func runDeps(cmd *cobra.Command) error {
	cc := GetCommandContext(cmd)
	r := cc.Renderer

	result, err := runEngine(cmd, cc)
	if err != nil {
		return err
	}

	graph := result.Registry.Graph()
	levels, err := graph.ExecutionLevels()
	if err != nil {
		return fmt.Errorf("failed to compute execution levels: %w", err)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(newDepsOutput(graph, levels))
	case output.ModeMarkdown:
		depsMarkdown(r, graph, levels)
	default:
		depsText(r, graph, levels)
	}
	return nil
}

func newDepsOutput(graph *dag.Graph, levels [][]string) DepsOutput {
	out := DepsOutput{
		Levels:     levels,
		DependsOn:  make(map[string][]string),
		Classes:    graph.NodeCount(),
		Edges:      graph.EdgeCount(),
		Standalone: []string{},
		Roots:      graph.Roots(),
	}
	if out.Roots == nil {
		out.Roots = []string{}
	}
	if out.Levels == nil {
		out.Levels = [][]string{}
	}
	for _, node := range graph.Nodes() {
		parents := graph.Parents(node.ID)
		children := graph.Children(node.ID)
		if len(parents) == 0 && len(children) == 0 {
			out.Standalone = append(out.Standalone, node.ID)
		}
		if len(parents) > 0 {
			out.DependsOn[node.ID] = parents
		}
	}
	return out
}

func depsText(r *output.Renderer, graph *dag.Graph, levels [][]string) {
	r.Header(1, "Dependency Graph")

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Level", "Class", "Depends On"})
	for i, level := range levels {
		for _, id := range level {
			t.AppendRow(table.Row{i, id, strings.Join(graph.Parents(id), ", ")})
		}
	}
	r.Table(t)
	r.Muted(fmt.Sprintf("%d classes, %d dependencies, %d levels", graph.NodeCount(), graph.EdgeCount(), len(levels)))
}

func depsMarkdown(r *output.Renderer, graph *dag.Graph, levels [][]string) {
	r.Println(output.FormatHeader(1, "Dependency Graph"))
	r.Println()

	for i, level := range levels {
		r.Println(output.FormatHeader(2, "Level "+strconv.Itoa(i)))
		r.Println()
		for _, id := range level {
			line := "- " + id
			if parents := graph.Parents(id); len(parents) > 0 {
				line += " (depends on: " + strings.Join(parents, ", ") + ")"
			}
			r.Println(line)
		}
		r.Println()
	}

	r.Println(output.FormatHeader(2, "Summary"))
	r.Println()
	r.Println(output.FormatKeyValue("Total Classes", strconv.Itoa(graph.NodeCount())))
	r.Println(output.FormatKeyValue("Total Dependencies", strconv.Itoa(graph.EdgeCount())))
	r.Println(output.FormatKeyValue("Execution Levels", strconv.Itoa(len(levels))))
	r.Println(output.FormatKeyValue("Roots", strings.Join(graph.Roots(), ", ")))
}
