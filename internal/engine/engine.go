// Package engine runs the test class loading pipeline.
// It discovers artifacts, loads each one into the definition registry,
// validates cross-definition dependencies and optionally persists the
// resulting catalog.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/leaptest/internal/classpath"
	"github.com/leapstack-labs/leaptest/internal/discovery"
	"github.com/leapstack-labs/leaptest/internal/loader"
	"github.com/leapstack-labs/leaptest/internal/markers"
	"github.com/leapstack-labs/leaptest/internal/methods"
	"github.com/leapstack-labs/leaptest/internal/registry"
	"github.com/leapstack-labs/leaptest/internal/rules"
	"github.com/leapstack-labs/leaptest/internal/state"
	"github.com/leapstack-labs/leaptest/pkg/core"
)

// Config holds engine configuration.
type Config struct {
	// TestDir is the root of the test class tree
	TestDir string
	// MarkerNamespace selects framework markers (default "leaptest")
	MarkerNamespace string
	// Rules are the compatibility tables (default: embedded tables)
	Rules *rules.Store
	// Discoverer produces artifacts (default: filesystem discovery of TestDir)
	Discoverer discovery.Discoverer
	// Methods is the method definition loader (default: methods.Loader)
	Methods core.MethodLoader
	// Store persists the catalog of each run (optional)
	Store *state.SQLiteStore
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Engine orchestrates loading runs.
type Engine struct {
	testDir    string
	namespace  string
	rules      *rules.Store
	discoverer discovery.Discoverer
	methods    core.MethodLoader
	store      *state.SQLiteStore
	logger     *slog.Logger
}

// LoadFailure records an artifact that could not be resolved.
type LoadFailure struct {
	Artifact core.Artifact
	Err      error
}

// Result describes a completed run.
type Result struct {
	RunID     string
	Registry  *registry.Registry
	Loaded    int
	NonTest   int
	Skipped   int
	Errors    []LoadFailure
	Duration  time.Duration
	Persisted bool
}

// HasErrors returns true if any artifact could not be loaded.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Summary returns a human-readable summary.
func (r *Result) Summary() string {
	return fmt.Sprintf("Loaded: %d test classes (%d skipped) | Non-test: %d | Unresolved: %d | Duration: %s",
		r.Loaded, r.Skipped, r.NonTest, len(r.Errors), r.Duration.Round(time.Millisecond))
}

// New creates an engine.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.TestDir == "" && cfg.Discoverer == nil {
		return nil, errors.New("engine: test directory is required")
	}

	store := cfg.Rules
	if store == nil {
		var err error
		if store, err = rules.LoadDefaults(); err != nil {
			return nil, fmt.Errorf("failed to load default rules: %w", err)
		}
	}
	disc := cfg.Discoverer
	if disc == nil {
		disc = discovery.NewFileSystem(cfg.TestDir, logger)
	}
	ml := cfg.Methods
	if ml == nil {
		ml = methods.New(logger)
	}
	ns := cfg.MarkerNamespace
	if ns == "" {
		ns = core.DefaultMarkerNamespace
	}

	logger.Debug("initializing engine", "test_dir", cfg.TestDir, "namespace", ns, "persist", cfg.Store != nil)
	return &Engine{
		testDir:    cfg.TestDir,
		namespace:  ns,
		rules:      store,
		discoverer: disc,
		methods:    ml,
		store:      cfg.Store,
		logger:     logger,
	}, nil
}

// TestDir returns the test directory.
func (e *Engine) TestDir() string {
	return e.testDir
}

// Rules returns the compatibility tables in use.
func (e *Engine) Rules() *rules.Store {
	return e.rules
}

// Run executes one loading pass. Unresolvable artifacts are logged and
// collected in Result.Errors; any other error aborts the run and no
// partial registry is returned.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{RunID: uuid.New().String(), Registry: registry.New()}

	var run *state.Run
	if e.store != nil {
		var err error
		if run, err = e.store.CreateRun(e.testDir); err != nil {
			return nil, err
		}
		result.RunID = run.ID
	}

	err := e.load(ctx, result)
	if err == nil {
		err = result.Registry.ValidateDependencies()
	}
	if err == nil && run != nil {
		if err = e.store.SaveRegistry(run.ID, result.Registry); err == nil {
			result.Persisted = true
		}
	}
	result.Duration = time.Since(start)

	if run != nil {
		status, msg := state.RunStatusCompleted, ""
		if err != nil {
			status, msg = state.RunStatusFailed, err.Error()
		}
		stats := state.RunStats{
			Loaded:     result.Loaded,
			NonTest:    result.NonTest,
			Skipped:    result.Skipped,
			LoadErrors: len(result.Errors),
		}
		if cerr := e.store.CompleteRun(run.ID, status, stats, msg); cerr != nil {
			e.logger.Warn("failed to record run completion", "run_id", run.ID, "error", cerr)
		}
	}

	if err != nil {
		e.logger.Debug("run aborted", "run_id", result.RunID, "error", err)
		return nil, err
	}
	e.logger.Info("run complete",
		"run_id", result.RunID,
		"loaded", result.Loaded,
		"non_test", result.NonTest,
		"unresolved", len(result.Errors),
		"duration", result.Duration)
	return result, nil
}

func (e *Engine) load(ctx context.Context, result *Result) error {
	artifacts, err := e.discoverer.Discover()
	if err != nil {
		return err
	}
	e.logger.Info("loading test classes", "test_dir", e.testDir, "candidates", len(artifacts))

	ldr, err := loader.New(loader.Options{
		Resolver:  classpath.NewResolver(e.testDir, e.logger),
		Validator: markers.NewValidator(e.rules, e.namespace, e.logger),
		Methods:   e.methods,
		Registry:  result.Registry,
		Logger:    e.logger,
	})
	if err != nil {
		return err
	}

	for _, a := range artifacts {
		if err := ctx.Err(); err != nil {
			return err
		}

		def, outcome, err := ldr.Load(a)
		if err != nil {
			if core.IsFatal(err) {
				return err
			}
			e.logger.Warn("unable to load test class", "class", a.QualifiedName(), "error", err)
			result.Errors = append(result.Errors, LoadFailure{Artifact: a, Err: err})
			continue
		}

		switch outcome {
		case loader.OutcomeNonTest:
			result.NonTest++
		case loader.OutcomeRegistered:
			result.Loaded++
			if def.Skipped {
				result.Skipped++
			}
		}
	}
	return nil
}
