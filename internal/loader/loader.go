// Package loader builds test class definitions from loaded types.
//
// Loading an artifact runs the full pipeline for one class: resolve the type
// through the class resolver, validate its framework markers, build the
// definition, let the method loader populate methods, and register the
// result. Configuration defects are returned as fatal errors; resolution
// failures are returned as *core.ClassLoadError so callers can continue.
package loader

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leaptest/internal/classpath"
	"github.com/leapstack-labs/leaptest/internal/markers"
	"github.com/leapstack-labs/leaptest/pkg/core"
)

// Outcome describes what happened to a loaded type.
type Outcome int

const (
	// OutcomeRegistered means a definition was built and registered.
	OutcomeRegistered Outcome = iota
	// OutcomeNonTest means the type carries no TestClass marker.
	OutcomeNonTest
	// OutcomeUnresolved means no loader scope could produce the type.
	OutcomeUnresolved
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRegistered:
		return "registered"
	case OutcomeNonTest:
		return "non-test"
	case OutcomeUnresolved:
		return "unresolved"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Registry is the part of the definition registry the loader writes to.
type Registry interface {
	Register(name string, def *core.TestClassDefinition) error
	MarkNonTest(name string)
}

// Options configures a Loader.
type Options struct {
	Resolver  *classpath.Resolver
	Validator *markers.Validator
	Methods   core.MethodLoader
	Registry  Registry
	Logger    *slog.Logger
}

// Loader turns discovered artifacts into registered definitions.
type Loader struct {
	resolver  *classpath.Resolver
	validator *markers.Validator
	methods   core.MethodLoader
	registry  Registry
	logger    *slog.Logger
}

// New creates a loader. Resolver, Validator and Registry are required.
func New(opts Options) (*Loader, error) {
	if opts.Resolver == nil {
		return nil, errors.New("loader: resolver is required")
	}
	if opts.Validator == nil {
		return nil, errors.New("loader: validator is required")
	}
	if opts.Registry == nil {
		return nil, errors.New("loader: registry is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	methods := opts.Methods
	if methods == nil {
		methods = core.MethodLoaderFunc(func(*core.TestClassDefinition, core.ClassServices) error { return nil })
	}
	return &Loader{
		resolver:  opts.Resolver,
		validator: opts.Validator,
		methods:   methods,
		registry:  opts.Registry,
		logger:    logger,
	}, nil
}

// Load resolves the artifact and builds and registers its definition.
// The definition is nil when the outcome is OutcomeNonTest.
func (l *Loader) Load(a core.Artifact) (*core.TestClassDefinition, Outcome, error) {
	typ, err := l.resolver.Resolve(a)
	if err != nil {
		return nil, OutcomeUnresolved, err
	}
	return l.Build(typ, a)
}

// Build runs the definition builder on an already loaded type.
func (l *Loader) Build(typ *classpath.Type, a core.Artifact) (*core.TestClassDefinition, Outcome, error) {
	name := typ.QualifiedName()
	framework := l.validator.Extract(typ)

	if err := l.validator.ValidateClass(name, typ); err != nil {
		return nil, OutcomeRegistered, err
	}

	if !core.HasMarker(framework, core.MarkerTestClass) {
		l.registry.MarkNonTest(name)
		l.logger.Debug("not a test class", "class", name)
		return nil, OutcomeNonTest, nil
	}

	def := core.NewTestClassDefinition(name)
	def.Origin = typ.Origin

	if core.HasMarker(framework, core.MarkerSkip) {
		def.Skip(core.SkipClassMarker)
	}

	if err := resolveCreatorThreads(def, framework); err != nil {
		return nil, OutcomeRegistered, err
	}
	if err := resolveDataReference(def, framework); err != nil {
		return nil, OutcomeRegistered, err
	}
	props, err := resolveInstances(def, framework)
	if err != nil {
		return nil, OutcomeRegistered, err
	}
	if err := resolveConstructor(def, typ); err != nil {
		return nil, OutcomeRegistered, err
	}

	for i := 1; i <= def.InstanceCount; i++ {
		var p map[string]string
		if props != nil {
			p = stringify(props[i-1])
		}
		def.SetInstanceProperties(i, p)
	}

	svc := &services{typ: typ, artifact: a, loader: l}
	if err := l.methods.LoadMethods(def, svc); err != nil {
		return nil, OutcomeRegistered, fmt.Errorf("loading methods of %s: %w", name, err)
	}

	if err := l.registry.Register(name, def); err != nil {
		return nil, OutcomeRegistered, err
	}
	l.logger.Debug("registered test class",
		"class", name,
		"instances", def.InstanceCount,
		"methods", len(def.Methods),
		"skipped", def.Skipped)
	return def, OutcomeRegistered, nil
}

func resolveCreatorThreads(def *core.TestClassDefinition, framework []core.Marker) error {
	m, _ := core.FindMarker(framework, core.MarkerTestClass)
	var p testClassParams
	if err := decodeParams(def.QualifiedName, m, &p); err != nil {
		return err
	}
	if p.CreatorThreads == nil {
		return nil
	}
	n := core.PositiveInt(p.CreatorThreads)
	if n == core.NotPositive {
		return countError(def.QualifiedName, "@TestClass.creatorThreads", p.CreatorThreads)
	}
	def.CreatorThreadCount = n
	return nil
}

func resolveDataReference(def *core.TestClassDefinition, framework []core.Marker) error {
	m, ok := core.FindMarker(framework, core.MarkerDataRef)
	if !ok {
		return nil
	}
	var p dataRefParams
	if err := decodeParams(def.QualifiedName, m, &p); err != nil {
		return err
	}
	if p.Path == "" {
		return &core.ConfigurationError{
			Class:     def.QualifiedName,
			Attribute: "@DataRef.path",
			Message:   "A data reference must declare the path of its source.",
			Guidance:  "Set @DataRef(path) to the data file used by this class.",
		}
	}
	def.AddDataReference(DataRefName(p.Name, p.Path), p.Path)
	return nil
}

// resolveInstances applies the Instances marker. It returns the raw
// per-instance properties when the user supplied them.
func resolveInstances(def *core.TestClassDefinition, framework []core.Marker) ([]map[string]any, error) {
	m, ok := core.FindMarker(framework, core.MarkerInstances)
	if !ok {
		return nil, nil
	}
	var p instancesParams
	if err := decodeParams(def.QualifiedName, m, &p); err != nil {
		return nil, err
	}

	count, threads := 1, 1
	var errs []error
	if p.Count != nil {
		if count = core.PositiveInt(p.Count); count == core.NotPositive {
			errs = append(errs, countError(def.QualifiedName, "@Instances.count", p.Count))
		}
	}
	if p.ThreadCount != nil {
		if threads = core.PositiveInt(p.ThreadCount); threads == core.NotPositive {
			errs = append(errs, countError(def.QualifiedName, "@Instances.threadCount", p.ThreadCount))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	def.InstanceCount = count
	def.InstanceThreadCount = threads
	if p.Properties == nil {
		return nil, nil
	}
	if len(p.Properties) != count {
		return nil, &core.ConfigurationError{
			Class:     def.QualifiedName,
			Attribute: "@Instances.properties",
			Message:   fmt.Sprintf("%d property sets supplied for %d instances.", len(p.Properties), count),
			Guidance:  "Supply exactly one property set per instance.",
		}
	}
	def.UserSuppliedProperties = true
	return p.Properties, nil
}

func resolveConstructor(def *core.TestClassDefinition, typ *classpath.Type) error {
	switch {
	case typ.HasConstructor(core.ContextParamType):
		def.Constructor = core.ConstructorSingleContext
	case typ.HasConstructor():
		def.Constructor = core.ConstructorNoArg
	default:
		simple := typ.SimpleName()
		return &core.ConfigurationError{
			Class:     def.QualifiedName,
			Attribute: "constructors",
			Message:   "No usable public constructor found.",
			Context: []string{
				"A test class must declare one of the following constructors:",
				fmt.Sprintf("  %s(%s)", simple, core.ContextParamType),
				fmt.Sprintf("  %s()", simple),
			},
			Guidance: "Add one of the accepted constructors to the class.",
		}
	}
	return nil
}

func countError(class, attribute string, value any) error {
	return &core.ConfigurationError{
		Class:     class,
		Attribute: attribute,
		Message:   fmt.Sprintf("%v is not a positive integer.", value),
		Guidance:  fmt.Sprintf("Set %s to a whole number of at least 1.", attribute),
	}
}
