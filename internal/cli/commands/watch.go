package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/leapstack-labs/leaptest/internal/cli/output"
	"github.com/leapstack-labs/leaptest/internal/engine"
	"github.com/leapstack-labs/leaptest/pkg/core"
	"github.com/spf13/cobra"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reload test classes when descriptors change",
		Long: `Load the test tree, then load it again whenever a class descriptor or
archive under the test directory changes. Stop with Ctrl+C.

Every pass prints a summary line; failing passes print their diagnostic
and watching continues.`,
		Example: `  # Watch the test tree
  leaptest watch

  # Wait a full second after the last change
  leaptest watch --debounce 1s`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, debounce)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", engine.DefaultDebounce, "Quiet period before a change triggers a reload")

	return cmd
}

func runWatch(cmd *cobra.Command, debounce time.Duration) error {
	cc := GetCommandContext(cmd)
	r := cc.Renderer

	eng, cleanup, err := cc.NewEngine()
	if err != nil {
		return err
	}
	defer cleanup()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r.Muted("Watching " + eng.TestDir() + " (Ctrl+C to stop)")
	return eng.Watch(ctx, debounce, func(result *engine.Result, err error) {
		reportPass(r, result, err)
	})
}

func reportPass(r *output.Renderer, result *engine.Result, err error) {
	stamp := time.Now().Format("15:04:05")
	if err != nil {
		r.Error(stamp + " load failed")
		r.Diagnostic(err, core.DiagnosticLines(err))
		return
	}
	if result.HasErrors() {
		r.Warning(stamp + " " + result.Summary())
		for _, f := range result.Errors {
			r.StatusLine(f.Artifact.QualifiedName(), "unresolved", artifactLocation(f.Artifact))
		}
		return
	}
	r.Success(stamp + " " + result.Summary())
}
