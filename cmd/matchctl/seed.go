package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"talent-match/internal/config"
	"talent-match/internal/database/migration"
	dbpostgres "talent-match/internal/database/postgres"
	"talent-match/internal/database/seeder"
	"talent-match/internal/repository"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the snapshot file into Postgres",
		Long: "seed applies pending migrations and upserts every taxonomy node, education level, candidate and job " +
			"of the snapshot. Connection settings come from db.* keys or MATCHCTL_DB_* env.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := getConfig()
			if err != nil {
				return fmt.Errorf("getting a config: %w", err)
			}
			if cfg.Snapshot == "" {
				return errSnapshotRequired
			}
			migrationsDir, _ := cmd.Flags().GetString("migrations")

			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			return seed(cmd.Context(), cmd.OutOrStdout(), cfg, migrationsDir, log)
		},
	}
	cmd.Flags().String("migrations", "", "migrations directory (default ./migrations)")
	return cmd
}

func seed(ctx context.Context, w io.Writer, cfg *Config, migrationsDir string, log *zap.Logger) error {
	file, err := repository.ReadSnapshotFile(cfg.Snapshot)
	if err != nil {
		return err
	}
	seeders, err := seeder.FromSnapshot(file)
	if err != nil {
		return err
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	db, err := dbpostgres.Connect(connectCtx, config.DatabaseConfig{
		DBHost:     cfg.Database.Host,
		DBPort:     cfg.Database.Port,
		DBName:     cfg.Database.Name,
		DBUser:     cfg.Database.User,
		DBPassword: cfg.Database.Password,
		DBSSLMode:  cfg.Database.SSLMode,
	}, log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	applied, err := (migration.Runner{Dir: migrationsDir, Logger: log}).Run(ctx, db)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if applied > 0 {
		fmt.Fprintf(w, "applied %d migrations\n", applied)
	}
	if err := (seeder.Runner{Seeders: seeders, Logger: log}).Run(ctx, db); err != nil {
		return err
	}

	okColor.Fprintf(w, "seeded %d taxonomy nodes, %d education levels, %d candidates, %d jobs\n",
		len(file.Taxonomy), len(file.EducationLevels), len(file.Candidates), len(file.Jobs))
	return nil
}
