package db

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/mtw-recovery/internal/config"
	"github/chapool/mtw-recovery/internal/persistence"
	"github/chapool/mtw-recovery/internal/util/command"
)

const connectTimeout = 10 * time.Second

func newMigrate() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Executes all migrations which are not yet applied",
		Long: `Executes all migrations which are not yet applied to the kv store database.
Only needed for the postgres store backend.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd.Context())
		},
	}
}

func runMigrate(ctx context.Context) error {
	cfg := config.DefaultServiceConfigFromEnv()
	command.SetupLogger(cfg.Logger)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	db, err := persistence.Open(ctx, cfg.Database)
	if err != nil {
		return errors.Wrap(err, "failed to connect to database")
	}
	defer db.Close()

	n, err := persistence.Migrate(db)
	if err != nil {
		return errors.Wrap(err, "failed to apply migrations")
	}

	log.Info().Int("count", n).Msg("Applied migrations")

	return nil
}
