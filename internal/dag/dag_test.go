package dag

import (
	"reflect"
	"testing"
)

func newGraph(ids ...string) *Graph {
	g := NewGraph()
	for _, id := range ids {
		g.AddNode(id, nil)
	}
	return g
}

func TestGraph_AddNodeAndEdge(t *testing.T) {
	g := newGraph("a", "b", "c")

	if g.NodeCount() != 3 {
		t.Errorf("expected 3 nodes, got %d", g.NodeCount())
	}

	// b depends on a, c depends on b
	if err := g.AddEdge("a", "b"); err != nil {
		t.Errorf("failed to add edge: %v", err)
	}
	if err := g.AddEdge("b", "c"); err != nil {
		t.Errorf("failed to add edge: %v", err)
	}
	// duplicates are ignored
	_ = g.AddEdge("b", "c")

	if g.EdgeCount() != 2 {
		t.Errorf("expected 2 edges, got %d", g.EdgeCount())
	}
}

func TestGraph_AddNode_UpdatesData(t *testing.T) {
	g := NewGraph()
	g.AddNode("a", 1)
	g.AddNode("a", 2)

	n, ok := g.Node("a")
	if !ok || n.Data != 2 {
		t.Errorf("expected data 2, got %v", n)
	}
	if g.NodeCount() != 1 {
		t.Errorf("expected 1 node, got %d", g.NodeCount())
	}
}

func TestGraph_AddEdge_InvalidNodes(t *testing.T) {
	g := newGraph("a")

	if err := g.AddEdge("a", "nonexistent"); err == nil {
		t.Error("expected error for nonexistent child node")
	}
	if err := g.AddEdge("nonexistent", "a"); err == nil {
		t.Error("expected error for nonexistent parent node")
	}
}

func TestGraph_SelfLoopIsCycle(t *testing.T) {
	g := newGraph("a", "b")
	if err := g.AddEdge("a", "a"); err != nil {
		t.Fatalf("self-loop should be recorded: %v", err)
	}
	_ = g.AddEdge("a", "b")

	want := []Edge{{Parent: "a", Child: "a"}}
	if got := g.CycleEdges(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestGraph_ParentsAndChildren(t *testing.T) {
	g := newGraph("a", "b", "c")
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("a", "c")
	_ = g.AddEdge("b", "c")

	if len(g.Parents("c")) != 2 {
		t.Errorf("expected c to have 2 parents, got %v", g.Parents("c"))
	}
	if len(g.Children("a")) != 2 {
		t.Errorf("expected a to have 2 children, got %v", g.Children("a"))
	}
}

func TestGraph_StronglyConnectedComponents(t *testing.T) {
	g := newGraph("a", "b", "c", "d", "e")
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("b", "a")
	_ = g.AddEdge("b", "c")
	_ = g.AddEdge("c", "d")
	_ = g.AddEdge("d", "e")
	_ = g.AddEdge("e", "c")

	want := [][]string{{"a", "b"}, {"c", "d", "e"}}
	if got := g.StronglyConnectedComponents(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestGraph_CycleEdges_TwoNodes(t *testing.T) {
	g := newGraph("A", "B", "C")
	_ = g.AddEdge("A", "B")
	_ = g.AddEdge("B", "A")
	_ = g.AddEdge("C", "A") // A depends on C, not on a cycle

	want := []Edge{
		{Parent: "B", Child: "A"},
		{Parent: "A", Child: "B"},
	}
	got := g.CycleEdges()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if got[0].String() != "A -> B" {
		t.Errorf("unexpected edge string %q", got[0].String())
	}
}

func TestGraph_HasCycle(t *testing.T) {
	g := newGraph("a", "b", "c")
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("b", "c")

	if hasCycle, edges := g.HasCycle(); hasCycle {
		t.Errorf("expected no cycle, but found: %v", edges)
	}

	_ = g.AddEdge("c", "a")
	hasCycle, edges := g.HasCycle()
	if !hasCycle {
		t.Error("expected cycle to be detected")
	}
	if len(edges) != 3 {
		t.Errorf("expected every edge of the cycle, got %v", edges)
	}
}

func TestGraph_TopologicalSort_Diamond(t *testing.T) {
	g := newGraph("a", "b", "c", "d")
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("a", "c")
	_ = g.AddEdge("b", "d")
	_ = g.AddEdge("c", "d")

	sorted, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pos := make(map[string]int)
	for i, n := range sorted {
		pos[n.ID] = i
	}
	if pos["a"] > pos["b"] || pos["a"] > pos["c"] {
		t.Error("a should come before b and c")
	}
	if pos["b"] > pos["d"] || pos["c"] > pos["d"] {
		t.Error("b and c should come before d")
	}
}

func TestGraph_TopologicalSort_WithCycle(t *testing.T) {
	g := newGraph("a", "b")
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("b", "a")

	if _, err := g.TopologicalSort(); err == nil {
		t.Error("expected error for cyclic graph")
	}
	if _, err := g.ExecutionLevels(); err == nil {
		t.Error("expected error for cyclic graph")
	}
}

func TestGraph_ExecutionLevels(t *testing.T) {
	g := newGraph("a", "b", "c", "d", "e")
	_ = g.AddEdge("a", "c")
	_ = g.AddEdge("b", "c")
	_ = g.AddEdge("c", "d")
	_ = g.AddEdge("a", "d")

	levels, err := g.ExecutionLevels()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := [][]string{{"a", "b", "e"}, {"c"}, {"d"}}
	if !reflect.DeepEqual(levels, want) {
		t.Errorf("expected %v, got %v", want, levels)
	}
}

func TestGraph_ExecutionLevels_Empty(t *testing.T) {
	levels, err := NewGraph().ExecutionLevels()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(levels) != 0 {
		t.Errorf("expected no levels, got %v", levels)
	}
}

func TestGraph_UpstreamAndDownstream(t *testing.T) {
	g := newGraph("a", "b", "c", "d")
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("b", "c")
	_ = g.AddEdge("d", "c")

	if got := g.Upstream("c"); !reflect.DeepEqual(got, []string{"a", "b", "d"}) {
		t.Errorf("unexpected upstream %v", got)
	}
	if got := g.Downstream("a"); !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Errorf("unexpected downstream %v", got)
	}
	if got := g.Roots(); !reflect.DeepEqual(got, []string{"a", "d"}) {
		t.Errorf("unexpected roots %v", got)
	}
}

func TestGraph_Nodes_Sorted(t *testing.T) {
	g := newGraph("c", "a", "b")
	var ids []string
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID)
	}
	if !reflect.DeepEqual(ids, []string{"a", "b", "c"}) {
		t.Errorf("unexpected order %v", ids)
	}
}
