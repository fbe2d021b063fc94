// Package registry holds the resolved test class definitions of a run.
// It rejects duplicate registrations, remembers classes that were found but
// are not tests, and validates the dependency declarations between
// definitions once loading is complete.
package registry

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/leaptest/internal/dag"
	"github.com/leapstack-labs/leaptest/pkg/core"
)

// Registry maps qualified class names to their definitions.
type Registry struct {
	mu sync.RWMutex

	// byName maps qualified names to definitions: "smoke.LoginTest" → *TestClassDefinition
	byName map[string]*core.TestClassDefinition

	// nonTest tracks classes that were loaded but carry no test marker
	nonTest map[string]struct{}
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{
		byName:  make(map[string]*core.TestClassDefinition),
		nonTest: make(map[string]struct{}),
	}
}

// Register adds a definition under name.
// A name can only be registered once.
func (r *Registry) Register(name string, def *core.TestClassDefinition) error {
	if def == nil {
		return errors.New("registry: nil definition for " + name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; exists {
		return &core.DuplicateDefinitionError{Class: name}
	}
	r.byName[name] = def
	return nil
}

// MarkNonTest records a class that was found but is not a test.
func (r *Registry) MarkNonTest(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nonTest[name] = struct{}{}
}

// IsNonTest reports whether name was recorded as a non-test class.
func (r *Registry) IsNonTest(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.nonTest[name]
	return ok
}

// Get returns the definition registered under name.
func (r *Registry) Get(name string) (*core.TestClassDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byName[name]
	return def, ok
}

// Resolve looks a class up by qualified name, falling back to a unique
// simple-name match ("LoginTest" → "smoke.LoginTest").
func (r *Registry) Resolve(name string) (*core.TestClassDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if def, ok := r.byName[name]; ok {
		return def, true
	}
	var match *core.TestClassDefinition
	for qualified, def := range r.byName {
		if qualified[strings.LastIndex(qualified, ".")+1:] != name {
			continue
		}
		if match != nil {
			return nil, false
		}
		match = def
	}
	return match, match != nil
}

// All returns all registered definitions sorted by name.
func (r *Registry) All() []*core.TestClassDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]*core.TestClassDefinition, 0, len(r.byName))
	for _, def := range r.byName {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool {
		return defs[i].QualifiedName < defs[j].QualifiedName
	})
	return defs
}

// NonTestNames returns the non-test class names, sorted.
func (r *Registry) NonTestNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.nonTest))
	for name := range r.nonTest {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered definitions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// ValidateDependencies checks every dependency declaration of every
// registered definition. A target must be a registered class (or a test
// method of one) or a known non-test class, and no dependency may lie on a
// cycle, including cycles that mix class-level and method-level
// declarations. All problems are returned together in one
// *core.DependencyValidationError.
func (r *Registry) ValidateDependencies() error {
	defs := r.All()

	r.mu.RLock()
	defer r.mu.RUnlock()

	var issues []core.DependencyIssue
	var resolved []core.DependencyRef
	for _, def := range defs {
		for _, ref := range def.Dependencies {
			if !r.resolvable(ref) {
				issues = append(issues, core.DependencyIssue{Kind: core.DependencyUnresolved, Edge: ref})
				continue
			}
			resolved = append(resolved, ref)
		}
	}

	g := orderingGraph(resolved)
	onCycle := make(map[dag.Edge]bool)
	for _, e := range g.CycleEdges() {
		onCycle[e] = true
	}
	for _, ref := range resolved {
		if onCycle[orderingEdge(ref)] {
			issues = append(issues, core.DependencyIssue{Kind: core.DependencyCycle, Edge: ref})
		}
	}

	if len(issues) == 0 {
		return nil
	}
	return &core.DependencyValidationError{Issues: issues}
}

// orderingGraph builds the graph the cycle check runs on. A class X is split
// into a start node and an end node with every referenced method X#m between
// them. Depending on X means following X's end; a class-level declaration of
// X constrains X's start and therefore all of its methods.
func orderingGraph(refs []core.DependencyRef) *dag.Graph {
	g := dag.NewGraph()
	addClass := func(class string) {
		if _, ok := g.Node(classStart(class)); ok {
			return
		}
		g.AddNode(classStart(class), nil)
		g.AddNode(classEnd(class), nil)
		_ = g.AddEdge(classStart(class), classEnd(class))
	}
	addMethod := func(class, method string) {
		id := core.NodeID(class, method)
		if _, ok := g.Node(id); ok {
			return
		}
		g.AddNode(id, nil)
		_ = g.AddEdge(classStart(class), id)
		_ = g.AddEdge(id, classEnd(class))
	}

	for _, ref := range refs {
		addClass(ref.FromClass)
		addClass(ref.ToClass)
		if ref.FromMethod != "" {
			addMethod(ref.FromClass, ref.FromMethod)
		}
		if ref.ToMethod != "" {
			addMethod(ref.ToClass, ref.ToMethod)
		}
	}
	for _, ref := range refs {
		e := orderingEdge(ref)
		// All nodes were added above, so AddEdge cannot fail.
		_ = g.AddEdge(e.Parent, e.Child)
	}
	return g
}

// orderingEdge maps a declared dependency onto the ordering graph: from the
// end of the target to the start of the source.
func orderingEdge(ref core.DependencyRef) dag.Edge {
	parent := classEnd(ref.ToClass)
	if ref.ToMethod != "" {
		parent = ref.Target()
	}
	child := classStart(ref.FromClass)
	if ref.FromMethod != "" {
		child = ref.Source()
	}
	return dag.Edge{Parent: parent, Child: child}
}

func classStart(class string) string { return class + "@start" }
func classEnd(class string) string   { return class + "@end" }

func (r *Registry) resolvable(ref core.DependencyRef) bool {
	def, ok := r.byName[ref.ToClass]
	if ref.ToMethod == "" {
		if ok {
			return true
		}
		_, nonTest := r.nonTest[ref.ToClass]
		return nonTest
	}
	if !ok {
		return false
	}
	_, ok = def.Method(ref.ToMethod)
	return ok
}

// Graph returns the class-level dependency graph of the registered
// definitions. Node data is the *core.TestClassDefinition. Only class to
// class dependencies between registered definitions become edges.
func (r *Registry) Graph() *dag.Graph {
	defs := r.All()
	g := dag.NewGraph()
	for _, def := range defs {
		g.AddNode(def.QualifiedName, def)
	}
	for _, def := range defs {
		for _, ref := range def.Dependencies {
			if ref.FromMethod != "" || ref.ToMethod != "" {
				continue
			}
			if _, ok := g.Node(ref.ToClass); !ok {
				continue
			}
			_ = g.AddEdge(ref.ToClass, ref.FromClass)
		}
	}
	return g
}
