package core

import (
	"sort"
	"strings"
)

// Marker is a declarative annotation-like tag attached to a class or method.
type Marker struct {
	// Name is the marker name, namespaced in descriptors (e.g. "leaptest.Skip")
	// and simple once extracted (e.g. "Skip").
	Name string `json:"name" yaml:"name"`
	// Params holds the raw marker parameters.
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// MarkerSource is the capability the pipeline needs from a loaded type or method:
// an ordered listing of its declared markers. How markers are attached is not
// the pipeline's concern.
type MarkerSource interface {
	DeclaredMarkers() []Marker
}

// Framework marker names (simple form).
const (
	MarkerTestClass  = "TestClass"
	MarkerTestMethod = "TestMethod"
	MarkerSkip       = "Skip"
	MarkerInstances  = "Instances"
	MarkerDataRef    = "DataRef"
	MarkerDependsOn  = "DependsOn"
)

// DefaultMarkerNamespace is the namespace prefix of framework markers.
const DefaultMarkerNamespace = "leaptest"

// ContextParamType is the parameter type of the single-argument constructor.
const ContextParamType = "leaptest.TestContext"

// SimpleMarkerName strips the namespace from a marker name.
func SimpleMarkerName(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

// FindMarker returns the first marker with the given simple name.
func FindMarker(markers []Marker, name string) (Marker, bool) {
	for _, m := range markers {
		if m.Name == name {
			return m, true
		}
	}
	return Marker{}, false
}

// HasMarker reports whether a marker with the given simple name is present.
func HasMarker(markers []Marker, name string) bool {
	_, ok := FindMarker(markers, name)
	return ok
}

// MarkerNames returns the marker names sorted lexicographically.
func MarkerNames(markers []Marker) []string {
	names := make([]string, 0, len(markers))
	for _, m := range markers {
		names = append(names, m.Name)
	}
	sort.Strings(names)
	return names
}
