package cli

import (
	"context"
	"fmt"

	"learning-friend-service/internal/config"
	"learning-friend-service/internal/infra/postgres/migrations"
	"learning-friend-service/internal/infra/sqlstore"
	"learning-friend-service/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun/migrate"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	return runMigrationsWithConfig(ctx, cfg)
}

func runMigrationsWithConfig(ctx context.Context, cfg config.Config) error {
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}
	return migrateDSN(ctx, cfg.Postgres.URL)
}

func migrateDSN(ctx context.Context, dsn string) error {
	db := sqlstore.OpenPostgres(dsn)
	defer db.Close()

	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	log := logging.L().WithField("component", "migrate")
	if group.IsZero() {
		log.Info("database is up to date")
		return nil
	}
	log.WithFields(logrus.Fields{
		"group":      group.ID,
		"migrations": len(group.Migrations),
	}).Info("migrations applied")
	return nil
}
