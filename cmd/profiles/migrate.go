package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmerrifield20/profiles/internal/migrate"
	"github.com/jmerrifield20/profiles/migrations"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending PostgreSQL migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		db, err := pgxpool.New(ctx, viper.GetString("database.url"))
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		defer db.Close()

		if err := db.Ping(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}

		n, err := migrate.Run(ctx, db, migrations.FS, logger)
		if err != nil {
			return err
		}
		if n == 0 {
			logger.Info("nothing to migrate, already up to date")
		} else {
			logger.Info("migrations applied", zap.Int("count", n))
		}
		return nil
	},
}
