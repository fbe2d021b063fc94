// Package cli provides the command-line interface for leaptest.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/leapstack-labs/leaptest/internal/cli/commands"
	"github.com/leapstack-labs/leaptest/internal/cli/output"
	"github.com/leapstack-labs/leaptest/internal/config"
	"github.com/leapstack-labs/leaptest/pkg/core"
	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "leaptest",
		Short: "leaptest - test class loader and definition resolver",
		Long: `leaptest discovers test class descriptors, resolves them through
directory and archive scopes, validates their markers and builds immutable
test class definitions with their dependency graph.`,
		Version: versionString(),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" || cmd.Name() == "version" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := commands.NewLogger(cfg.Verbose)
			if cfg.FileUsed != "" {
				logger.Debug("using config file", "path", cfg.FileUsed)
			}

			cc := &commands.CommandContext{
				Cfg:      cfg,
				Logger:   logger,
				Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
			}
			cmd.SetContext(commands.WithCommandContext(cmd.Context(), cc))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./leaptest.yaml)")
	flags.String("test-dir", "", "Path to the test class directory")
	flags.String("state", "", "Path to the catalog database")
	flags.String("namespace", "", "Framework marker namespace")
	flags.String("class-rules", "", "Class marker compatibility rules file")
	flags.String("method-rules", "", "Method marker compatibility rules file")
	flags.Bool("persist", false, "Record each run in the catalog database")
	flags.BoolP("verbose", "v", false, "Verbose output")
	flags.StringP("output", "o", "", "Output format (auto|text|markdown|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return config.OutputFormats, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewLoadCommand())
	rootCmd.AddCommand(commands.NewListCommand())
	rootCmd.AddCommand(commands.NewShowCommand())
	rootCmd.AddCommand(commands.NewDepsCommand())
	rootCmd.AddCommand(commands.NewRulesCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command. Failures are rendered as a diagnostic on
// stderr; the caller decides the exit code.
func Execute() error {
	rootCmd := NewRootCmd()
	cmd, err := rootCmd.ExecuteContextC(context.Background())
	if err != nil {
		renderError(cmd, err)
		return err
	}
	return nil
}

func renderError(cmd *cobra.Command, err error) {
	r := output.NewRenderer(os.Stdout, os.Stderr, output.ModeAuto)
	if cmd != nil {
		r = commands.GetCommandContext(cmd).Renderer
	}
	r.Diagnostic(err, core.DiagnosticLines(err))
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for leaptest.

To load completions:

Bash:
  $ source <(leaptest completion bash)

Zsh:
  $ leaptest completion zsh > "${fpath[1]}/_leaptest"

Fish:
  $ leaptest completion fish | source

PowerShell:
  PS> leaptest completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}

// versionString renders the build metadata shown by --version.
func versionString() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate)
}
