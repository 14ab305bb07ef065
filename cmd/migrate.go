package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docuchat/docuchat/db"
	"github.com/docuchat/docuchat/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Demo {
		return fmt.Errorf("demo mode uses in-memory stores; nothing to migrate")
	}

	logger := newLogger(cfg)
	return db.Migrate(cfg.PostgresURL(), logger)
}
