// Package methods is the default method definition loader.
//
// It walks the declared methods of a loaded class, keeps the ones marked
// TestMethod, validates their framework markers against the method table
// and collects DependsOn declarations from both the class and its methods.
package methods

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/leaptest/pkg/core"
)

// dependsOnParams are the parameters of the DependsOn marker.
// Classes entries are "Class" or "Class#method"; Methods entries name
// methods of the declaring class.
type dependsOnParams struct {
	Classes []string `mapstructure:"classes"`
	Methods []string `mapstructure:"methods"`
}

// Loader populates method definitions and dependencies.
type Loader struct {
	logger *slog.Logger
}

var _ core.MethodLoader = (*Loader)(nil)

// New creates the default method loader.
func New(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{logger: logger}
}

// LoadMethods implements core.MethodLoader.
func (l *Loader) LoadMethods(def *core.TestClassDefinition, svc core.ClassServices) error {
	src, err := svc.Reload()
	if err != nil {
		return fmt.Errorf("reloading %s: %w", def.QualifiedName, err)
	}
	classMarkers := svc.FrameworkMarkers(src)
	if m, ok := core.FindMarker(classMarkers, core.MarkerDependsOn); ok {
		refs, err := dependencies(def.QualifiedName, "", m)
		if err != nil {
			return err
		}
		def.Dependencies = append(def.Dependencies, refs...)
	}

	ordinal := 0
	for _, decl := range svc.Methods() {
		framework := svc.FrameworkMarkers(decl)
		if !core.HasMarker(framework, core.MarkerTestMethod) {
			continue
		}
		if err := svc.ValidateMethodMarkers(decl.Name, framework); err != nil {
			return err
		}
		if _, dup := def.Method(decl.Name); dup {
			return &core.ConfigurationError{
				Class:     def.QualifiedName,
				Method:    decl.Name,
				Attribute: "@TestMethod",
				Message:   "The test method is declared more than once.",
				Guidance:  "Give every test method a unique name.",
			}
		}

		md := &core.TestMethodDefinition{
			Name:    decl.Name,
			Ordinal: ordinal,
			Markers: core.MarkerNames(framework),
		}
		ordinal++
		if core.HasMarker(framework, core.MarkerSkip) {
			md.Skipped = true
			md.SkipCode = core.SkipMethodMarker
		}
		if m, ok := core.FindMarker(framework, core.MarkerDependsOn); ok {
			refs, err := dependencies(def.QualifiedName, decl.Name, m)
			if err != nil {
				return err
			}
			def.Dependencies = append(def.Dependencies, refs...)
		}
		def.Methods = append(def.Methods, md)
	}

	l.logger.Debug("loaded test methods",
		"class", def.QualifiedName,
		"methods", len(def.Methods),
		"dependencies", len(def.Dependencies))
	return nil
}

// dependencies converts one DependsOn marker into dependency edges.
func dependencies(class, method string, m core.Marker) ([]core.DependencyRef, error) {
	var p dependsOnParams
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           &p,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(m.Params); err != nil {
		return nil, dependsOnError(class, method, fmt.Sprintf("Invalid @DependsOn parameters: %v", err))
	}
	if len(p.Classes) == 0 && len(p.Methods) == 0 {
		return nil, dependsOnError(class, method, "@DependsOn must name at least one class or method.")
	}

	var refs []core.DependencyRef
	for _, target := range p.Classes {
		toClass, toMethod, ok := parseTarget(target)
		if !ok {
			return nil, dependsOnError(class, method, fmt.Sprintf("Invalid dependency target %q.", target))
		}
		refs = append(refs, core.DependencyRef{FromClass: class, FromMethod: method, ToClass: toClass, ToMethod: toMethod})
	}
	for _, target := range p.Methods {
		target = strings.TrimSpace(target)
		if target == "" || strings.Contains(target, "#") {
			return nil, dependsOnError(class, method, fmt.Sprintf("Invalid method dependency %q.", target))
		}
		refs = append(refs, core.DependencyRef{FromClass: class, FromMethod: method, ToClass: class, ToMethod: target})
	}
	return refs, nil
}

// parseTarget splits "Class" or "Class#method".
func parseTarget(s string) (class, method string, ok bool) {
	s = strings.TrimSpace(s)
	class, method, found := strings.Cut(s, "#")
	if class == "" || (found && (method == "" || strings.Contains(method, "#"))) {
		return "", "", false
	}
	return class, method, true
}

func dependsOnError(class, method, msg string) error {
	return &core.ConfigurationError{
		Class:     class,
		Method:    method,
		Attribute: "@DependsOn",
		Message:   msg,
		Guidance:  `Use @DependsOn(classes: ["pkg.Class", "pkg.Class#method"], methods: ["sameClassMethod"]).`,
	}
}
