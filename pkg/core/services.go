package core

// MethodDeclaration is one method declared by a loaded type.
type MethodDeclaration struct {
	Name    string   `yaml:"name"`
	Markers []Marker `yaml:"markers"`
}

// DeclaredMarkers implements MarkerSource.
func (m MethodDeclaration) DeclaredMarkers() []Marker {
	return m.Markers
}

// ClassServices is the back-reference handed to the method loader so it can
// request class-level resolution services for the class being built.
type ClassServices interface {
	// Methods returns the declared methods of the loaded type in declaration order.
	Methods() []MethodDeclaration
	// FrameworkMarkers filters a marker source down to framework markers with simple names.
	FrameworkMarkers(src MarkerSource) []Marker
	// ValidateMethodMarkers enforces the method-level compatibility rules.
	ValidateMethodMarkers(method string, markers []Marker) error
	// Reload re-resolves the class through a fresh loader scope.
	Reload() (MarkerSource, error)
}

// MethodLoader populates method-level definitions within a class definition.
type MethodLoader interface {
	LoadMethods(def *TestClassDefinition, svc ClassServices) error
}

// MethodLoaderFunc adapts a function to the MethodLoader interface.
type MethodLoaderFunc func(def *TestClassDefinition, svc ClassServices) error

// LoadMethods implements MethodLoader.
func (f MethodLoaderFunc) LoadMethods(def *TestClassDefinition, svc ClassServices) error {
	return f(def, svc)
}
