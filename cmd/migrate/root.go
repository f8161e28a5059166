package main

import (
	"fmt"

	"github.com/JaimeStill/smart-ocr/internal/config"
	"github.com/JaimeStill/smart-ocr/migrations"
	"github.com/JaimeStill/smart-ocr/pkg/database"
	"github.com/JaimeStill/smart-ocr/pkg/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "migrate",
	Short:        "Manage the smart-ocr database schema",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(upCmd, downCmd, versionCmd, forceCmd)
}

// withMigrator loads configuration, opens a migrator for the duration of fn
// and releases it afterwards.
func withMigrator(fn func(m *database.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Finalize(); err != nil {
		return fmt.Errorf("finalize config: %w", err)
	}

	logger, closeLog := logging.New(&cfg.Logging)
	defer closeLog()

	m, err := database.NewMigrator(&cfg.Database, migrations.FS, logger)
	if err != nil {
		return err
	}
	defer m.Close()

	return fn(m)
}
