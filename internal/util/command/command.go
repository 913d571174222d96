package command

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/mtw-recovery/internal/api"
	"github/chapool/mtw-recovery/internal/api/router"
	"github/chapool/mtw-recovery/internal/config"
)

const shutdownTimeout = 30 * time.Second

// SetupLogger applies the logger configuration to the global zerolog instance.
func SetupLogger(cfg config.LoggerServer) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(cfg.Level)
	if cfg.PrettyPrintConsole {
		log.Logger = log.Output(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.Out = os.Stderr
			w.TimeFormat = "15:04:05"
		}))
	}
}

// WithServer initializes the wired server for one-shot commands and shuts it down once f returns.
func WithServer(ctx context.Context, cfg config.Server, f func(ctx context.Context, s *api.Server) error) error {
	SetupLogger(cfg.Logger)

	if err := cfg.Validate(); err != nil {
		return err
	}

	s, err := api.InitNewServer(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to initialize server")
	}

	start := s.Clock.Now()
	defer func() {
		log.Debug().Dur("duration", s.Clock.Now().Sub(start)).Msg("Command finished, shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if errs := s.Shutdown(shutdownCtx); len(errs) > 0 {
			log.Error().Errs("shutdownErrors", errs).Msg("Failed to gracefully shut down server")
		}
	}()

	return f(ctx, s)
}

// NewSubcommandGroup returns a command that only prints its help and groups subCmds.
func NewSubcommandGroup(name string, subCmds ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("%s related subcommands", name),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(subCmds...)

	return cmd
}

// ServeInBackground starts the HTTP server of s so signer callbacks reach the relay.
// It returns once the listener is bound or failed to bind.
func ServeInBackground(s *api.Server) error {
	router.Init(s)
	s.Echo.HideBanner = true
	s.Echo.HidePort = true

	errs := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err := <-errs:
			return errors.Wrap(err, "failed to start callback server")
		case <-ticker.C:
			if s.Echo.ListenerAddr() != nil {
				log.Debug().Str("address", s.Echo.ListenerAddr().String()).Msg("Callback server listening")
				return nil
			}
		}
	}
}
