package api

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github/chapool/mtw-recovery/internal/assets"
	"github/chapool/mtw-recovery/internal/chain"
	"github/chapool/mtw-recovery/internal/config"
	"github/chapool/mtw-recovery/internal/discovery"
	"github/chapool/mtw-recovery/internal/handshake"
	"github/chapool/mtw-recovery/internal/i18n"
	"github/chapool/mtw-recovery/internal/kv"
	"github/chapool/mtw-recovery/internal/persistence"
	"github/chapool/mtw-recovery/internal/recovery"
	"github/chapool/mtw-recovery/internal/relay"
	"github/chapool/mtw-recovery/internal/signing"
)

// PROVIDERS - define here only providers that for various reasons (e.g. cyclic dependency) can't live in their corresponding packages
// or for wrapping providers that only accept sub-configs to prevent the requirements for defining providers for sub-configs.
// https://github.com/google/wire/blob/main/docs/guide.md#defining-providers

func NewClock(t ...*testing.T) time2.Clock {
	var clock time2.Clock

	useMock := len(t) > 0 && t[0] != nil

	if useMock {
		clock = time2.NewMockClock(time.Now())
	} else {
		clock = time2.DefaultClock
	}

	return clock
}

func NoTest() []*testing.T {
	return nil
}

// NewDB connects to postgres. It returns nil without the postgres store backend.
func NewDB(cfg config.Server) (*sql.DB, error) {
	if cfg.Store.Backend != config.StoreBackendPostgres {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return persistence.Open(ctx, cfg.Database)
}

// NewRedisClient connects to redis. It returns nil without the redis store backend.
func NewRedisClient(cfg config.Server) (*redis.Client, error) {
	if cfg.Store.Backend != config.StoreBackendRedis {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "failed to ping redis")
	}

	return client, nil
}

func NewKVStore(cfg config.Server, db *sql.DB, rdb *redis.Client) (kv.Store, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		if db == nil {
			return nil, errors.New("postgres store backend requires a database")
		}
		return kv.NewPostgres(db), nil
	case config.StoreBackendRedis:
		if rdb == nil {
			return nil, errors.New("redis store backend requires a redis client")
		}
		return kv.NewRedis(rdb), nil
	default:
		return kv.NewMemory(), nil
	}
}

func NewMailbox(cfg config.Server, store kv.Store) relay.Mailbox {
	if cfg.Relay.Backend == config.RelayBackendStore {
		return relay.NewSlot(store, cfg.Relay.SlotKey, cfg.Relay.PollInterval, cfg.Relay.Timeout)
	}

	return relay.NewChannel(cfg.Relay.Timeout)
}

func NewI18N(cfg config.Server) (*i18n.Service, error) {
	return i18n.New(cfg.I18n)
}

func NewDeeplinks() *handshake.PendingLauncher {
	return &handshake.PendingLauncher{}
}

func NewCoordinator(cfg config.Server, mailbox relay.Mailbox, deeplinks *handshake.PendingLauncher, store kv.Store) *handshake.Coordinator {
	return handshake.NewCoordinator(cfg.DappKit, mailbox, deeplinks, store, &handshake.Registry{})
}

func NewChainClient(cfg config.Server) (*chain.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Chain.HealthCheckTimeout*time.Duration(len(cfg.Chain.RPCURLs)))
	defer cancel()

	return chain.NewClient(ctx, cfg.Chain)
}

func NewDiscoveryClient(cfg config.Server) *discovery.Client {
	return discovery.NewClient(cfg.Discovery)
}

func NewAssets(cfg config.Server) ([]assets.Asset, error) {
	if cfg.Assets.File == "" {
		return assets.Defaults(), nil
	}

	list, err := assets.Load(cfg.Assets.File)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("file", cfg.Assets.File).Int("count", len(list)).Msg("Loaded asset list")

	return list, nil
}

func NewSigningService(cfg config.Server, chainClient *chain.Client, coordinator *handshake.Coordinator, clock time2.Clock) *signing.Service {
	return signing.NewService(chainClient, coordinator, common.HexToAddress(cfg.Chain.FeeCurrency), clock)
}

func NewOrchestrator(
	cfg config.Server,
	chainClient *chain.Client,
	discoveryClient *discovery.Client,
	signer *signing.Service,
	assetList []assets.Asset,
) *recovery.Orchestrator {
	return recovery.NewOrchestrator(common.HexToAddress(cfg.Chain.AccountsAddress), chainClient, discoveryClient, signer, assetList)
}

func NewRunner(orchestrator *recovery.Orchestrator, deeplinks *handshake.PendingLauncher, clock time2.Clock) *recovery.Runner {
	return recovery.NewRunner(orchestrator, deeplinks, clock)
}
