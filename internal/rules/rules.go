// Package rules provides the marker compatibility rule tables.
//
// Two tables exist: one for class-level markers and one for method-level
// markers. Both are loaded once at startup and are read-only afterwards; they
// are passed explicitly to the components that enforce them.
package rules

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Table names.
const (
	ClassTable  = "class"
	MethodTable = "method"
)

//go:embed class_markers.yaml
var defaultClassRules []byte

//go:embed method_markers.yaml
var defaultMethodRules []byte

// CompatibilityTable maps a primary marker name to the markers allowed next to it.
type CompatibilityTable struct {
	name  string
	rules map[string]map[string]struct{}
}

// NewCompatibilityTable builds an immutable table from a name -> compatible list mapping.
func NewCompatibilityTable(name string, rules map[string][]string) *CompatibilityTable {
	t := &CompatibilityTable{
		name:  name,
		rules: make(map[string]map[string]struct{}, len(rules)),
	}
	for primary, compatible := range rules {
		set := make(map[string]struct{}, len(compatible))
		for _, c := range compatible {
			set[c] = struct{}{}
		}
		t.rules[primary] = set
	}
	return t
}

// Name returns the table name (class or method).
func (t *CompatibilityTable) Name() string {
	return t.name
}

// Knows reports whether the table has an entry for the primary marker.
func (t *CompatibilityTable) Knows(primary string) bool {
	_, ok := t.rules[primary]
	return ok
}

// Allows reports whether other may be combined with primary.
func (t *CompatibilityTable) Allows(primary, other string) bool {
	set, ok := t.rules[primary]
	if !ok {
		return false
	}
	_, ok = set[other]
	return ok
}

// Compatible returns the sorted markers allowed next to primary.
func (t *CompatibilityTable) Compatible(primary string) []string {
	set := t.rules[primary]
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Primaries returns the sorted primary marker names known to the table.
func (t *CompatibilityTable) Primaries() []string {
	out := make([]string, 0, len(t.rules))
	for name := range t.rules {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of primary entries.
func (t *CompatibilityTable) Len() int {
	return len(t.rules)
}

// Store holds the class-level and method-level tables.
type Store struct {
	Class  *CompatibilityTable
	Method *CompatibilityTable
}

// Parse reads a YAML mapping of marker name to a list of compatible marker names.
func Parse(name string, data []byte) (*CompatibilityTable, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Table: name, Message: err.Error()}
	}
	return NewCompatibilityTable(name, raw), nil
}

// LoadDefaults loads the embedded class and method tables.
func LoadDefaults() (*Store, error) {
	class, err := Parse(ClassTable, defaultClassRules)
	if err != nil {
		return nil, err
	}
	method, err := Parse(MethodTable, defaultMethodRules)
	if err != nil {
		return nil, err
	}
	return &Store{Class: class, Method: method}, nil
}

// ParseError reports a malformed rule resource.
type ParseError struct {
	Table   string
	Path    string
	Message string
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s marker rules (%s): %s", e.Table, e.Path, e.Message)
	}
	return fmt.Sprintf("%s marker rules: %s", e.Table, e.Message)
}
