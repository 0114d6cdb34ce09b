package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/pokerlog/internal/config"
	"github.com/felixgeelhaar/pokerlog/internal/storage/postgres"
	"github.com/felixgeelhaar/pokerlog/internal/storage/sqlite"
	"github.com/spf13/cobra"
)

func migrateCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd, *f)
			if err != nil {
				return err
			}

			version, err := migrate(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s schema at version %d\n", cfg.StorageDriver, version)
			return nil
		},
	}
}

// migrate brings the configured store up to date and reports its version.
func migrate(ctx context.Context, cfg *config.Config) (int, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return 0, err
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return 0, fmt.Errorf("migrate postgres: %w", err)
		}
		return db.Version(ctx)

	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
			return 0, fmt.Errorf("create data directory: %w", err)
		}
		db, err := sqlite.Open(ctx, cfg.DatabasePath)
		if err != nil {
			return 0, err
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return 0, fmt.Errorf("migrate sqlite: %w", err)
		}
		return db.Version(ctx)

	default:
		return 0, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
