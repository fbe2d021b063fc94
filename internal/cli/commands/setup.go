package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/leaptest/internal/cli/output"
	"github.com/leapstack-labs/leaptest/internal/config"
	"github.com/leapstack-labs/leaptest/internal/engine"
	"github.com/leapstack-labs/leaptest/internal/rules"
	"github.com/leapstack-labs/leaptest/internal/state"
	"github.com/leapstack-labs/leaptest/pkg/core"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

type commandContextKey struct{}

// WithCommandContext stores cc in ctx.
func WithCommandContext(ctx context.Context, cc *CommandContext) context.Context {
	return context.WithValue(ctx, commandContextKey{}, cc)
}

// GetCommandContext returns the CommandContext stored by the root command.
// Commands executed on their own (as in tests) get defaults writing to the
// command's output streams.
func GetCommandContext(cmd *cobra.Command) *CommandContext {
	if ctx := cmd.Context(); ctx != nil {
		if cc, ok := ctx.Value(commandContextKey{}).(*CommandContext); ok {
			return cc
		}
	}
	return &CommandContext{
		Cfg: &config.Config{
			TestDir:         config.DefaultTestDir,
			MarkerNamespace: core.DefaultMarkerNamespace,
			StatePath:       config.DefaultStateFile,
			OutputFormat:    config.DefaultOutput,
		},
		Logger:   slog.New(slog.DiscardHandler),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ModeAuto),
	}
}

// LoadRules loads the compatibility tables named by the configuration.
func (cc *CommandContext) LoadRules() (*rules.Store, error) {
	store, err := rules.LoadFiles(cc.Cfg.Rules.Class, cc.Cfg.Rules.Method)
	if err != nil {
		return nil, fmt.Errorf("failed to load marker rules: %w", err)
	}
	return store, nil
}

// OpenStore opens the catalog at the configured state path.
func (cc *CommandContext) OpenStore() (*state.SQLiteStore, error) {
	store := state.NewSQLiteStore(cc.Logger)
	if err := store.Open(cc.Cfg.StatePath); err != nil {
		return nil, err
	}
	return store, nil
}

// NewEngine creates an engine from the configuration. The catalog is
// opened only when persist is enabled. The returned cleanup function must
// be called once the engine is no longer used.
func (cc *CommandContext) NewEngine() (*engine.Engine, func(), error) {
	cfg := cc.Cfg
	if err := cfg.ValidateDirectories(); err != nil {
		return nil, nil, err
	}

	rs, err := cc.LoadRules()
	if err != nil {
		return nil, nil, err
	}

	var store *state.SQLiteStore
	cleanup := func() {}
	if cfg.Persist {
		if store, err = cc.OpenStore(); err != nil {
			return nil, nil, err
		}
		cleanup = func() {
			if err := store.Close(); err != nil {
				cc.Logger.Warn("failed to close catalog", "error", err)
			}
		}
	}

	eng, err := engine.New(engine.Config{
		TestDir:         cfg.TestDir,
		MarkerNamespace: cfg.MarkerNamespace,
		Rules:           rs,
		Store:           store,
		Logger:          cc.Logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return eng, cleanup, nil
}

// runEngine builds an engine and executes one loading pass.
func runEngine(cmd *cobra.Command, cc *CommandContext) (*engine.Result, error) {
	eng, cleanup, err := cc.NewEngine()
	if err != nil {
		return nil, err
	}
	defer cleanup()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return eng.Run(ctx)
}

// NewLogger builds the CLI logger: text on stderr, debug when verbose.
func NewLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
