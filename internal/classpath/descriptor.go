// Package classpath resolves discovered artifacts into loaded types.
//
// A loaded type is read from a class descriptor (<Name>.class.yaml) through a
// loader scope rooted at a directory or a zip archive. The resolver tries an
// ordered list of scopes and returns the first one that yields a descriptor
// whose declared class name matches the requested name.
package classpath

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/leaptest/pkg/core"
	"gopkg.in/yaml.v3"
)

// DescriptorExt is the file extension of class descriptors.
const DescriptorExt = ".class.yaml"

// Constructor is one public constructor shape, described by its parameter types.
type Constructor struct {
	Params []string `yaml:"params"`
}

// Type is a loaded class: its declared name, markers, constructors and methods.
type Type struct {
	Name         string                   `yaml:"class"`
	Markers      []core.Marker            `yaml:"markers"`
	Constructors []Constructor            `yaml:"constructors"`
	MethodDecls  []core.MethodDeclaration `yaml:"methods"`

	// Origin is the root of the scope the type was loaded from.
	Origin string `yaml:"-"`
}

// QualifiedName returns the declared fully qualified name.
func (t *Type) QualifiedName() string {
	return t.Name
}

// SimpleName returns the last segment of the qualified name.
func (t *Type) SimpleName() string {
	if i := strings.LastIndex(t.Name, "."); i >= 0 {
		return t.Name[i+1:]
	}
	return t.Name
}

// DeclaredMarkers implements core.MarkerSource.
func (t *Type) DeclaredMarkers() []core.Marker {
	return t.Markers
}

// Methods returns the declared methods in declaration order.
func (t *Type) Methods() []core.MethodDeclaration {
	return t.MethodDecls
}

// HasConstructor reports whether a constructor with exactly the given parameter types exists.
func (t *Type) HasConstructor(params ...string) bool {
	for _, c := range t.Constructors {
		if equalParams(c.Params, params) {
			return true
		}
	}
	return false
}

func equalParams(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ParseDescriptor decodes a class descriptor. Unknown fields are rejected.
func ParseDescriptor(r io.Reader) (*Type, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var t Type
	if err := dec.Decode(&t); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &DescriptorError{Message: "empty descriptor"}
		}
		return nil, &DescriptorError{Message: err.Error()}
	}
	if t.Name == "" {
		return nil, &DescriptorError{Message: `missing required field "class"`}
	}
	for i, m := range t.Markers {
		if m.Name == "" {
			return nil, &DescriptorError{Message: fmt.Sprintf("marker %d has no name", i+1)}
		}
	}
	for i, m := range t.MethodDecls {
		if m.Name == "" {
			return nil, &DescriptorError{Message: fmt.Sprintf("method %d has no name", i+1)}
		}
	}
	return &t, nil
}

// DescriptorPath maps a dotted class name to its descriptor path relative to a scope root.
func DescriptorPath(name string) (string, error) {
	parts := strings.Split(name, ".")
	for _, p := range parts {
		if p == "" || strings.ContainsAny(p, `/\`) {
			return "", fmt.Errorf("invalid class name %q", name)
		}
	}
	return strings.Join(parts, "/") + DescriptorExt, nil
}

// DescriptorError reports a malformed class descriptor.
type DescriptorError struct {
	Path    string
	Message string
}

func (e *DescriptorError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// WrongNameError is returned when a descriptor exists at the expected path but
// declares a different class name.
type WrongNameError struct {
	Path      string
	Requested string
	Declared  string
}

func (e *WrongNameError) Error() string {
	return fmt.Sprintf("%s: wrong name: requested %s, descriptor declares %s", e.Path, e.Requested, e.Declared)
}

// ErrNotFound is returned when no descriptor exists for a name in a scope.
var ErrNotFound = errors.New("class descriptor not found")
