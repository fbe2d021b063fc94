package loader

import (
	"github.com/leapstack-labs/leaptest/internal/classpath"
	"github.com/leapstack-labs/leaptest/pkg/core"
)

// services is the class-level back-reference handed to the method loader.
type services struct {
	typ      *classpath.Type
	artifact core.Artifact
	loader   *Loader
}

var _ core.ClassServices = (*services)(nil)

func (s *services) Methods() []core.MethodDeclaration {
	return s.typ.Methods()
}

func (s *services) FrameworkMarkers(src core.MarkerSource) []core.Marker {
	return s.loader.validator.Extract(src)
}

func (s *services) ValidateMethodMarkers(method string, markers []core.Marker) error {
	return s.loader.validator.ValidateMethod(s.typ.QualifiedName(), method, markers)
}

func (s *services) Reload() (core.MarkerSource, error) {
	return s.loader.resolver.Resolve(s.artifact)
}
