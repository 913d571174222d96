package test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github/chapool/mtw-recovery/internal/api"
	"github/chapool/mtw-recovery/internal/api/router"
	"github/chapool/mtw-recovery/internal/config"
)

// Fakes are the external services a test server talks to.
type Fakes struct {
	Node      *ChainNode
	Discovery *DiscoveryServer
}

// NewTestServerConfig returns a config with in-memory backends, pointed at freshly started fakes.
func NewTestServerConfig(t *testing.T) (config.Server, Fakes) {
	t.Helper()

	cfg := config.DefaultServiceConfigFromEnv()

	fakes := Fakes{
		Node:      NewChainNode(t, cfg.Chain.ChainID),
		Discovery: NewDiscoveryServer(t),
	}

	cfg.Chain.RPCURLs = []string{fakes.Node.URL}
	cfg.Chain.ReceiptPollInterval = 5 * time.Millisecond
	cfg.Chain.ReceiptTimeout = 2 * time.Second
	cfg.Chain.HealthCheckTimeout = time.Second
	cfg.Discovery.BaseURL = fakes.Discovery.URL
	cfg.Discovery.Timeout = time.Second
	cfg.Store.Backend = config.StoreBackendMemory
	cfg.Relay.Backend = config.RelayBackendMemory
	cfg.Relay.Timeout = 2 * time.Second
	cfg.Assets.File = ""
	cfg.Management.ProbeWriteablePathsAbs = []string{t.TempDir()}

	return cfg, fakes
}

func DefaultTestServerConfig(t *testing.T) config.Server {
	t.Helper()

	cfg, _ := NewTestServerConfig(t)

	return cfg
}

// WithTestServer executes closure with a server using in-memory backends and fakes for
// every external service.
func WithTestServer(t *testing.T, closure func(s *api.Server)) {
	t.Helper()

	WithTestServerConfigurable(t, DefaultTestServerConfig(t), closure)
}

// WithTestServerFakes is WithTestServer exposing the fakes to closure.
func WithTestServerFakes(t *testing.T, closure func(s *api.Server, fakes Fakes)) {
	t.Helper()

	cfg, fakes := NewTestServerConfig(t)
	WithTestServerConfigurable(t, cfg, func(s *api.Server) {
		t.Helper()
		closure(s, fakes)
	})
}

// WithTestServerConfigurable executes closure with a server built from cfg. The postgres
// store backend gets an isolated test database.
func WithTestServerConfigurable(t *testing.T, cfg config.Server, closure func(s *api.Server)) {
	t.Helper()

	if cfg.Store.Backend == config.StoreBackendPostgres {
		WithTestDatabase(t, func(db *sql.DB) {
			t.Helper()
			execClosureNewTestServer(t, cfg, db, closure)
		})
		return
	}

	execClosureNewTestServer(t, cfg, nil, closure)
}

func execClosureNewTestServer(t *testing.T, cfg config.Server, db *sql.DB, closure func(s *api.Server)) {
	t.Helper()

	// https://stackoverflow.com/questions/43424787/how-to-use-next-available-port-in-http-listenandserve
	// You may use port 0 to indicate you're not specifying an exact port but you want a free, available port selected by the system
	cfg.Echo.ListenAddress = ":0"

	s, err := api.InitNewServerWithDB(cfg, db, t)
	if err != nil {
		t.Fatalf("Failed to initialize server: %v", err)
	}

	router.Init(s)

	closure(s)

	// stop the runner and close the RPC connection, the database is closed by WithTestDatabase
	s.DB = nil
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if errs := s.Shutdown(ctx); len(errs) > 0 {
		t.Fatalf("Failed to shutdown server: %v", errs)
	}
}
