package server

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/mtw-recovery/internal/api"
	"github/chapool/mtw-recovery/internal/api/router"
	"github/chapool/mtw-recovery/internal/config"
	"github/chapool/mtw-recovery/internal/persistence"
	"github/chapool/mtw-recovery/internal/util/command"
)

const (
	migrateFlag     string = "migrate"
	shutdownTimeout        = 30 * time.Second
)

type Flags struct {
	ApplyMigrations bool
}

func New() *cobra.Command {
	var flags Flags

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Starts the HTTP server",
		Long: `Starts the HTTP server serving the recovery API and the signer callback.

Requires configuration through ENV.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context(), flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.ApplyMigrations, migrateFlag, "m", false, "Apply migrations before starting the server (postgres store backend only)")

	return cmd
}

func runServer(ctx context.Context, flags Flags) error {
	cfg := config.DefaultServiceConfigFromEnv()
	command.SetupLogger(cfg.Logger)

	if err := cfg.Validate(); err != nil {
		return err
	}

	s, err := api.InitNewServer(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize server")
		return err
	}

	if flags.ApplyMigrations && s.DB != nil {
		n, err := persistence.Migrate(s.DB)
		if err != nil {
			log.Error().Err(err).Msg("Failed to apply migrations")
			return err
		}
		log.Info().Int("count", n).Msg("Applied migrations")
	}

	router.Init(s)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Failed to start server")
			stop()
		}
	}()

	log.Info().Str("address", cfg.Echo.ListenAddress).Msg("Server started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if errs := s.Shutdown(shutdownCtx); len(errs) > 0 {
		log.Error().Errs("shutdownErrors", errs).Msg("Failed to gracefully shut down server")
		return errs[0]
	}

	log.Info().Msg("Server shut down")

	return nil
}
