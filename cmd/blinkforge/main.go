package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mrsinham/blinkforge/internal/logging"
)

// set at build time via -ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "blinkforge",
		Short: "Synthetic SMLM blink localization tables",
		Long: `blinkforge simulates the blinking of fluorophores bound to a disk-shaped
particle over a STORM-style acquisition and writes the resulting
localization table, in the format produced by fitting software.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (default info, env BLINKFORGE_LOG_LEVEL)")

	rootCmd.AddCommand(
		newRunCmd(),
		newValidateCmd(),
		newDefaultsCmd(),
		newInspectCmd(),
		newWizardCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// loggerFor builds the command logger. An explicit --log-level wins over the
// environment; fallback is used when neither is set.
func loggerFor(cmd *cobra.Command, fallback string) (*slog.Logger, error) {
	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		level = os.Getenv("BLINKFORGE_LOG_LEVEL")
	}
	if level == "" {
		level = fallback
	}
	if !logging.ValidLevel(level) {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return logging.NewLogger(level, cmd.ErrOrStderr()), nil
}

func printBanner(w io.Writer) {
	fmt.Fprintln(w, "blinkforge")
	fmt.Fprintln(w, "==========")
	fmt.Fprintln(w)
}
