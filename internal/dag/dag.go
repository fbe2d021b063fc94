// Package dag provides the dependency graph between test definitions.
// Nodes are class names or "Class#method" identifiers; an edge from parent
// to child means the child depends on the parent. Cycles are allowed in the
// graph so they can be reported, but ordering operations refuse them.
package dag

import (
	"fmt"
	"slices"
	"sort"
)

// Node represents a node in the graph.
type Node struct {
	// ID is the unique identifier (class name or Class#method)
	ID string
	// Data holds the definition the node stands for, if any
	Data any
}

// Edge is a directed edge: Child depends on Parent.
type Edge struct {
	Parent string
	Child  string
}

func (e Edge) String() string {
	return e.Child + " -> " + e.Parent
}

// Graph is a directed dependency graph.
type Graph struct {
	nodes   map[string]*Node
	edges   map[string][]string // parent -> children (dependents)
	parents map[string][]string // child -> parents (dependencies)
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]*Node),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// AddNode adds a node, or replaces the data of an existing one.
func (g *Graph) AddNode(id string, data any) {
	if n, exists := g.nodes[id]; exists {
		n.Data = data
		return
	}
	g.nodes[id] = &Node{ID: id, Data: data}
	g.edges[id] = []string{}
	g.parents[id] = []string{}
}

// AddEdge records that child depends on parent. Self-loops are kept.
func (g *Graph) AddEdge(parentID, childID string) error {
	if _, exists := g.nodes[parentID]; !exists {
		return fmt.Errorf("parent node %q does not exist", parentID)
	}
	if _, exists := g.nodes[childID]; !exists {
		return fmt.Errorf("child node %q does not exist", childID)
	}
	if !slices.Contains(g.edges[parentID], childID) {
		g.edges[parentID] = append(g.edges[parentID], childID)
	}
	if !slices.Contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}
	return nil
}

// Node returns a node by ID.
func (g *Graph) Node(id string) (*Node, bool) {
	node, exists := g.nodes[id]
	return node, exists
}

// Parents returns the dependencies of a node.
func (g *Graph) Parents(id string) []string {
	return g.parents[id]
}

// Children returns the dependents of a node.
func (g *Graph) Children(id string) []string {
	return g.edges[id]
}

// Nodes returns all nodes sorted by ID.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, node := range g.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID < nodes[j].ID
	})
	return nodes
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, children := range g.edges {
		count += len(children)
	}
	return count
}

func (g *Graph) sortedIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StronglyConnectedComponents returns the components of the graph using
// Tarjan's algorithm. Each component is sorted, and components are ordered
// by their first member.
func (g *Graph) StronglyConnectedComponents() [][]string {
	index := 0
	indices := make(map[string]int, len(g.nodes))
	lowlink := make(map[string]int, len(g.nodes))
	onStack := make(map[string]bool, len(g.nodes))
	var stack []string
	var components [][]string

	var connect func(id string)
	connect = func(id string) {
		indices[id] = index
		lowlink[id] = index
		index++
		stack = append(stack, id)
		onStack[id] = true

		for _, child := range g.edges[id] {
			if _, seen := indices[child]; !seen {
				connect(child)
				lowlink[id] = min(lowlink[id], lowlink[child])
			} else if onStack[child] {
				lowlink[id] = min(lowlink[id], indices[child])
			}
		}

		if lowlink[id] != indices[id] {
			return
		}
		var component []string
		for {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[top] = false
			component = append(component, top)
			if top == id {
				break
			}
		}
		sort.Strings(component)
		components = append(components, component)
	}

	for _, id := range g.sortedIDs() {
		if _, seen := indices[id]; !seen {
			connect(id)
		}
	}

	sort.Slice(components, func(i, j int) bool {
		return components[i][0] < components[j][0]
	})
	return components
}

// CycleEdges returns every edge that lies on a cycle: edges between two
// nodes of the same strongly connected component, and self-loops.
// The result is sorted by child, then parent.
func (g *Graph) CycleEdges() []Edge {
	component := make(map[string]int, len(g.nodes))
	for i, c := range g.StronglyConnectedComponents() {
		for _, id := range c {
			component[id] = i
		}
	}

	var out []Edge
	for parent, children := range g.edges {
		for _, child := range children {
			if component[parent] == component[child] {
				out = append(out, Edge{Parent: parent, Child: child})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Child != out[j].Child {
			return out[i].Child < out[j].Child
		}
		return out[i].Parent < out[j].Parent
	})
	return out
}

// HasCycle returns true if the graph contains a cycle, along with the edges on it.
func (g *Graph) HasCycle() (bool, []Edge) {
	edges := g.CycleEdges()
	return len(edges) > 0, edges
}

// TopologicalSort returns nodes in topological order (dependencies before dependents).
// Returns an error if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]*Node, error) {
	if hasCycle, edges := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("cycle detected: %v", edges)
	}

	visited := make(map[string]bool)
	var result []*Node

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, parentID := range g.parents[id] {
			visit(parentID)
		}
		result = append(result, g.nodes[id])
	}

	for _, id := range g.sortedIDs() {
		visit(id)
	}
	return result, nil
}

// ExecutionLevels returns node IDs grouped by level.
// Nodes at level N can run in parallel once level N-1 has completed.
// Level 0 contains nodes with no dependencies.
func (g *Graph) ExecutionLevels() ([][]string, error) {
	if hasCycle, edges := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("cycle detected: %v", edges)
	}

	assigned := make(map[string]int)
	var level func(id string) int
	level = func(id string) int {
		if l, ok := assigned[id]; ok {
			return l
		}
		l := 0
		for _, parentID := range g.parents[id] {
			l = max(l, level(parentID)+1)
		}
		assigned[id] = l
		return l
	}

	maxLevel := -1
	for id := range g.nodes {
		maxLevel = max(maxLevel, level(id))
	}

	levels := make([][]string, maxLevel+1)
	for id, l := range assigned {
		levels[l] = append(levels[l], id)
	}
	for i := range levels {
		sort.Strings(levels[i])
	}
	return levels, nil
}

// Upstream returns every transitive dependency of a node.
func (g *Graph) Upstream(id string) []string {
	seen := make(map[string]bool)
	var walk func(nodeID string)
	walk = func(nodeID string) {
		for _, parentID := range g.parents[nodeID] {
			if !seen[parentID] {
				seen[parentID] = true
				walk(parentID)
			}
		}
	}
	walk(id)
	delete(seen, id)

	result := make([]string, 0, len(seen))
	for nodeID := range seen {
		result = append(result, nodeID)
	}
	sort.Strings(result)
	return result
}

// Downstream returns every transitive dependent of a node.
func (g *Graph) Downstream(id string) []string {
	seen := make(map[string]bool)
	var walk func(nodeID string)
	walk = func(nodeID string) {
		for _, childID := range g.edges[nodeID] {
			if !seen[childID] {
				seen[childID] = true
				walk(childID)
			}
		}
	}
	walk(id)
	delete(seen, id)

	result := make([]string, 0, len(seen))
	for nodeID := range seen {
		result = append(result, nodeID)
	}
	sort.Strings(result)
	return result
}

// Roots returns nodes with no dependencies.
func (g *Graph) Roots() []string {
	var roots []string
	for id := range g.nodes {
		if len(g.parents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	return roots
}
