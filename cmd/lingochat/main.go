// Package main is the entry point for the lingochat server and CLI.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/szaher/lingochat/internal/runtime"
	"github.com/szaher/lingochat/internal/secrets"
	"github.com/szaher/lingochat/internal/telemetry"
)

// Version information set at build time.
var version = "0.1.0"

// Global flags.
var (
	configFile string
	verbose    bool
)

// providerKeyVars are redacted from logs even when the provider SDK reads
// them directly.
var providerKeyVars = []string{"GEMINI_API_KEY", "ANTHROPIC_API_KEY", "OPENAI_API_KEY"}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lingochat",
		Short: "Multilingual chat server",
		Long: `LingoChat answers chat messages in the user's language. It detects
the language of each message, prompts the completion provider with a
localized system prompt and keeps a short rolling history per session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "Path to YAML config file")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable verbose output")

	root.AddCommand(newServeCmd())
	root.AddCommand(newChatCmd())
	root.AddCommand(newDetectCmd())
	root.AddCommand(newLanguagesCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// newLogger builds the JSON logger for cfg with every configured
// credential redacted.
func newLogger(cfg *runtime.Config, w io.Writer) *slog.Logger {
	level := telemetry.ParseLevel(cfg.LogLevel)
	if verbose {
		level = slog.LevelDebug
	}

	keys := []string{cfg.APIKey, cfg.Session.Secret}
	for _, name := range providerKeyVars {
		keys = append(keys, os.Getenv(name))
	}
	return slog.New(secrets.NewRedactHandler(telemetry.NewHandler(w, level), keys...))
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
