package classpath

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/leaptest/pkg/core"
)

// Strategy names.
const (
	StrategyPrimary  = "primary"
	StrategyFallback = "fallback"
)

// Attempt is one entry of a resolution plan: load Name from a scope rooted at Root.
type Attempt struct {
	Strategy string
	Kind     core.ContainerKind
	Root     string
	Name     string
}

// Scope creates the fresh loader scope for this attempt.
func (a Attempt) Scope() Scope {
	if a.Kind == core.ContainerArchive {
		return NewArchiveScope(a.Root)
	}
	return NewDirScope(a.Root)
}

// Resolver turns discovered artifacts into loaded types.
type Resolver struct {
	testDir string
	logger  *slog.Logger
}

// NewResolver creates a resolver for the given root test directory.
func NewResolver(testDir string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Resolver{testDir: filepath.Clean(testDir), logger: logger}
}

// TestDir returns the root test directory.
func (r *Resolver) TestDir() string {
	return r.testDir
}

// Plan returns the ordered resolution attempts for an artifact.
//
// The primary attempt loads the fully qualified name from the archive (archive
// artifacts) or the root test directory. Directory artifacts then get one
// fallback per partition of the name into a path prefix and a dotted suffix,
// from the most specific (empty prefix, whole name) to the least specific
// (full package path prefix, leaf name). Attempts equal to an earlier one are
// dropped. Archives have unambiguous layouts and get no fallback.
func (r *Resolver) Plan(a core.Artifact) []Attempt {
	name := a.QualifiedName()

	if a.Kind == core.ContainerArchive {
		return []Attempt{{
			Strategy: StrategyPrimary,
			Kind:     core.ContainerArchive,
			Root:     a.ArchivePath(),
			Name:     name,
		}}
	}

	plan := []Attempt{{
		Strategy: StrategyPrimary,
		Kind:     core.ContainerDirectory,
		Root:     r.testDir,
		Name:     name,
	}}

	parts := strings.Split(name, ".")
	for i := 0; i < len(parts); i++ {
		root := filepath.Join(append([]string{r.testDir}, parts[:i]...)...)
		attempt := Attempt{
			Strategy: StrategyFallback,
			Kind:     core.ContainerDirectory,
			Root:     root,
			Name:     strings.Join(parts[i:], "."),
		}
		if !containsAttempt(plan, attempt) {
			plan = append(plan, attempt)
		}
	}
	return plan
}

func containsAttempt(plan []Attempt, a Attempt) bool {
	for _, p := range plan {
		if p.Root == a.Root && p.Name == a.Name {
			return true
		}
	}
	return false
}

// Resolve loads the type for an artifact, trying each planned attempt in order.
// It returns a *core.ClassLoadError listing every attempt when none succeeds.
func (r *Resolver) Resolve(a core.Artifact) (*Type, error) {
	name := a.QualifiedName()
	loadErr := &core.ClassLoadError{Class: name}

	for _, attempt := range r.Plan(a) {
		r.logger.Debug("loading class",
			"class", name,
			"strategy", attempt.Strategy,
			"root", attempt.Root,
			"name", attempt.Name)

		t, err := attempt.Scope().Load(attempt.Name)
		if err == nil {
			r.logger.Debug("class loaded", "class", t.QualifiedName(), "root", attempt.Root)
			return t, nil
		}
		loadErr.Attempts = append(loadErr.Attempts, core.LoadAttempt{
			Root: attempt.Root,
			Name: attempt.Name,
			Err:  err,
		})
	}

	return nil, loadErr
}
