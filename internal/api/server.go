package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/dropbox/godropbox/time2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github/chapool/mtw-recovery/internal/chain"
	"github/chapool/mtw-recovery/internal/config"
	"github/chapool/mtw-recovery/internal/handshake"
	"github/chapool/mtw-recovery/internal/i18n"
	"github/chapool/mtw-recovery/internal/kv"
	"github/chapool/mtw-recovery/internal/recovery"
	"github/chapool/mtw-recovery/internal/relay"
	"github/chapool/mtw-recovery/internal/util"
)

type Router struct {
	Routes     []*echo.Route
	Root       *echo.Group
	Management *echo.Group
	APIV1      *echo.Group
	WellKnown  *echo.Group
}

// Server is a central struct keeping all the dependencies.
// It is initialized with wire, which handles making the new instances of the components
// in the right order. To add a new component, 3 steps are required:
// - declaring it in this struct
// - adding a provider function in providers.go
// - adding the provider's function name to the arguments of wire.Build() in wire.go
//
// Components labeled as `wire:"-"` are skipped by the readiness check: they are either
// initialized after the InitNewServer* call or only present for some backends.
// For more information about wire refer to https://pkg.go.dev/github.com/google/wire
type Server struct {
	// skip wire:
	// -> initialized with router.Init(s) function
	Echo   *echo.Echo `wire:"-"`
	Router *Router    `wire:"-"`

	// only set for the postgres and redis store backends
	DB    *sql.DB       `wire:"-"`
	Redis *redis.Client `wire:"-"`

	Config      config.Server
	Clock       time2.Clock
	I18n        *i18n.Service
	Store       kv.Store
	Mailbox     relay.Mailbox
	Deeplinks   *handshake.PendingLauncher
	Coordinator *handshake.Coordinator
	Chain       *chain.Client
	Runner      *recovery.Runner
}

// newServerWithComponents is used by wire to initialize the server components.
func newServerWithComponents(
	cfg config.Server,
	db *sql.DB,
	rdb *redis.Client,
	clock time2.Clock,
	i18n *i18n.Service,
	store kv.Store,
	mailbox relay.Mailbox,
	deeplinks *handshake.PendingLauncher,
	coordinator *handshake.Coordinator,
	chainClient *chain.Client,
	runner *recovery.Runner,
) *Server {
	return &Server{
		Config:      cfg,
		DB:          db,
		Redis:       rdb,
		Clock:       clock,
		I18n:        i18n,
		Store:       store,
		Mailbox:     mailbox,
		Deeplinks:   deeplinks,
		Coordinator: coordinator,
		Chain:       chainClient,
		Runner:      runner,
	}
}

func NewServer(config config.Server) *Server {
	s := &Server{
		Config: config,
	}

	return s
}

func (s *Server) Ready() bool {
	if err := util.IsStructInitialized(s); err != nil {
		log.Debug().Err(err).Msg("Server is not fully initialized")
		return false
	}

	return true
}

func (s *Server) Start() error {
	if !s.Ready() {
		return errors.New("server is not ready")
	}

	if err := s.Echo.Start(s.Config.Echo.ListenAddress); err != nil {
		return fmt.Errorf("failed to start echo server: %w", err)
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) []error {
	log.Warn().Msg("Shutting down server")

	var errs []error

	if s.Echo != nil {
		log.Debug().Msg("Shutting down echo server")

		if err := s.Echo.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Failed to shutdown echo server")
			errs = append(errs, err)
		}
	}

	if s.Runner != nil {
		log.Debug().Msg("Stopping recovery runner")

		if err := s.Runner.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to stop recovery runner")
			errs = append(errs, err)
		}
	}

	if s.Chain != nil {
		log.Debug().Msg("Closing RPC connection")
		s.Chain.Close()
	}

	if s.Redis != nil {
		log.Debug().Msg("Closing redis connection")

		if err := s.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close redis connection")
			errs = append(errs, err)
		}
	}

	if s.DB != nil {
		log.Debug().Msg("Closing database connection")

		if err := s.DB.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
			log.Error().Err(err).Msg("Failed to close database connection")
			errs = append(errs, err)
		}
	}

	return errs
}
