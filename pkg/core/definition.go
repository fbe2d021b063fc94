package core

import "sort"

// TestClassDefinition is the fully resolved metadata for one test class.
// Once registered it is treated as immutable; only the method loader
// populates Methods and Dependencies, during the same load pass.
type TestClassDefinition struct {
	// QualifiedName is the unique registry key (e.g. "smoke.LoginTest")
	QualifiedName string `json:"qualified_name"`
	// Skipped reports whether the class will not execute
	Skipped bool `json:"skipped"`
	// SkipCode records why the class is skipped
	SkipCode SkipCode `json:"skip_code"`
	// Constructor is how instances are built
	Constructor ConstructorStrategy `json:"constructor"`
	// CreatorThreadCount is the number of threads used to create instances (>= 1)
	CreatorThreadCount int `json:"creator_thread_count"`
	// InstanceCount is the number of instances to create (>= 1)
	InstanceCount int `json:"instance_count"`
	// InstanceThreadCount is the number of threads per instance (>= 1)
	InstanceThreadCount int `json:"instance_thread_count"`
	// UserSuppliedProperties is true if Instances carried explicit properties
	UserSuppliedProperties bool `json:"user_supplied_properties"`
	// InstanceProperties maps instance index (1..InstanceCount) to user variables
	InstanceProperties map[int]map[string]string `json:"instance_properties"`
	// DataReferences maps logical reference name to source path
	DataReferences map[string]string `json:"data_references,omitempty"`
	// Methods are populated by the method loader, in declaration order
	Methods []*TestMethodDefinition `json:"methods,omitempty"`
	// Dependencies are depends-on declarations collected by the method loader
	Dependencies []DependencyRef `json:"dependencies,omitempty"`
	// Origin is the loader scope root the class was resolved from
	Origin string `json:"origin,omitempty"`
}

// NewTestClassDefinition creates a definition with single-instance defaults.
func NewTestClassDefinition(name string) *TestClassDefinition {
	return &TestClassDefinition{
		QualifiedName:       name,
		SkipCode:            SkipNone,
		Constructor:         ConstructorNoArg,
		CreatorThreadCount:  1,
		InstanceCount:       1,
		InstanceThreadCount: 1,
		InstanceProperties:  make(map[int]map[string]string),
		DataReferences:      make(map[string]string),
	}
}

// Skip marks the definition skipped with the given code.
func (d *TestClassDefinition) Skip(code SkipCode) {
	d.Skipped = true
	d.SkipCode = code
}

// AddDataReference registers a named data source path.
func (d *TestClassDefinition) AddDataReference(name, path string) {
	if d.DataReferences == nil {
		d.DataReferences = make(map[string]string)
	}
	d.DataReferences[name] = path
}

// SetInstanceProperties stores the user variables of one instance.
// A nil map is stored as an empty, independently addressable map.
func (d *TestClassDefinition) SetInstanceProperties(index int, props map[string]string) {
	if d.InstanceProperties == nil {
		d.InstanceProperties = make(map[int]map[string]string)
	}
	if props == nil {
		props = make(map[string]string)
	}
	d.InstanceProperties[index] = props
}

// HasMethods reports whether the method loader produced any method definitions.
func (d *TestClassDefinition) HasMethods() bool {
	return len(d.Methods) > 0
}

// Method returns the method definition with the given name.
func (d *TestClassDefinition) Method(name string) (*TestMethodDefinition, bool) {
	for _, m := range d.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// DataReferenceNames returns the data reference names, sorted.
func (d *TestClassDefinition) DataReferenceNames() []string {
	names := make([]string, 0, len(d.DataReferences))
	for name := range d.DataReferences {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TestMethodDefinition is the resolved metadata for one test method.
type TestMethodDefinition struct {
	Name     string   `json:"name"`
	Ordinal  int      `json:"ordinal"`
	Skipped  bool     `json:"skipped"`
	SkipCode SkipCode `json:"skip_code"`
	Markers  []string `json:"markers,omitempty"`
}

// DependencyRef is one depends-on edge declared by a class or one of its methods.
type DependencyRef struct {
	// FromClass is the declaring class
	FromClass string `json:"from_class"`
	// FromMethod is the declaring method, empty for class-level declarations
	FromMethod string `json:"from_method,omitempty"`
	// ToClass is the referenced class
	ToClass string `json:"to_class"`
	// ToMethod is the referenced method, empty for class references
	ToMethod string `json:"to_method,omitempty"`
}

// Source returns the node ID of the declaring side.
func (r DependencyRef) Source() string {
	return NodeID(r.FromClass, r.FromMethod)
}

// Target returns the node ID of the referenced side.
func (r DependencyRef) Target() string {
	return NodeID(r.ToClass, r.ToMethod)
}

// String renders the edge as "source -> target".
func (r DependencyRef) String() string {
	return r.Source() + " -> " + r.Target()
}

// NodeID builds a dependency graph node ID: the class name, or "class#method".
func NodeID(class, method string) string {
	if method == "" {
		return class
	}
	return class + "#" + method
}
