package main

import (
	"fmt"
	"time"

	"agency-dashboard/internal/common/config"
	"agency-dashboard/internal/common/database"
	"agency-dashboard/internal/common/logger"
	"agency-dashboard/internal/store"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the PostgreSQL document tables",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Store.Backend != config.BackendPostgres {
		return fmt.Errorf("migrate requires store.backend=%s, got %q", config.BackendPostgres, cfg.Store.Backend)
	}
	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)

	ctx := cmd.Context()
	var pg *database.PostgresClient
	err = retryWithBackoff(ctx, func() error {
		c, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := c.Ping(ctx); err != nil {
			_ = c.Close()
			return err
		}
		pg = c
		return nil
	}, 5, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		return err
	}
	defer pg.Close()

	if err := pg.Migrate(ctx, store.CollectionNames...); err != nil {
		return err
	}
	log.Info("Migrations applied", map[string]interface{}{"tables": store.CollectionNames})
	return nil
}
