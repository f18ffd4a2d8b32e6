package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "slidegen",
	Short:         "Draft slide decks from a topic with a pluggable LLM backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (defaults to $CONFIG_PATH or config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "override the configured log level")
}

func main() {
	// serve installs its own handler for graceful shutdown; for one-shot
	// commands an interrupt cancels the in-flight backend call.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
