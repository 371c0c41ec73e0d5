package root

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	platformlogging "github.com/simple-easy-sites/simple-sales-crm/platform/go/logging"
)

var logLevel string

// rootCmd is the base command for the CRM operator CLI. Subcommands (auth, bootstrap, leads, etc.) are attached here.
var rootCmd = &cobra.Command{
	Use:           "crm",
	Short:         "Simple Sales CRM operator CLI",
	Long:          "Operator utilities for the CRM (schema bootstrap, dev tokens, demo data, lead and quick note views).",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Diagnostics go to stderr so command output stays pipeable.
		logger, err := platformlogging.NewLogger(platformlogging.Config{
			Component: "crm-cli",
			Level:     logLevel,
			Format:    platformlogging.FormatConsole,
			Output:    cmd.ErrOrStderr(),
		})
		if err != nil {
			return err
		}
		cmd.SetContext(platformlogging.WithLogger(cmd.Context(), logger))
		return nil
	},
}

func init() {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "warn"
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", level, "diagnostic log level written to stderr (LOG_LEVEL)")
}

// Execute runs the CLI. Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
