// Package cmd contains the docuchat CLI commands.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/docuchat/docuchat/internal/config"
	"github.com/docuchat/docuchat/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "docuchat",
	Short: "Conversation backend for document-grounded chat",
	Long: `docuchat serves the conversation subsystem of a document chat
application: session bootstrap, turn execution with retry, conversation
persistence and source aggregation, exposed over an HTTP REST API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the process logger from configuration.
func newLogger(cfg *config.Config) log.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	return log.New(log.Config{Level: level, JSON: cfg.LogJSON})
}
