package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github/chapool/mtw-recovery/internal/util"
	"golang.org/x/text/language"
)

const (
	RelayBackendMemory = "memory"
	RelayBackendStore  = "store"

	StoreBackendMemory   = "memory"
	StoreBackendPostgres = "postgres"
	StoreBackendRedis    = "redis"
)

type EchoServer struct {
	Debug                          bool
	ListenAddress                  string
	HideInternalServerErrorDetails bool
	BaseURL                        string
	EnableCORSMiddleware           bool
	EnableLoggerMiddleware         bool
	EnableRecoverMiddleware        bool
	EnableRequestIDMiddleware      bool
	EnableTrailingSlashMiddleware  bool
	EnableMetricsMiddleware        bool
}

type Database struct {
	Host             string
	Port             int
	Username         string
	Password         string `json:"-"` // sensitive
	Database         string
	AdditionalParams map[string]string `json:",omitempty"` // Optional additional connection parameters mapped into the connection string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// ConnectionString generates a connection string to be passed to sql.Open or equivalents, assuming Postgres syntax
func (c Database) ConnectionString() string {
	var b = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s", c.Host, c.Port, c.Username, c.Password, c.Database)

	if _, ok := c.AdditionalParams["sslmode"]; !ok {
		b += " sslmode=disable"
	}

	for key, value := range c.AdditionalParams {
		b += fmt.Sprintf(" %s=%s", key, value)
	}

	return b
}

type Redis struct {
	Addr     string
	Password string `json:"-"` // sensitive
	DB       int
}

type LoggerServer struct {
	Level              zerolog.Level
	RequestLevel       zerolog.Level
	LogRequestBody     bool
	LogRequestHeader   bool
	LogRequestQuery    bool
	LogResponseBody    bool
	LogResponseHeader  bool
	PrettyPrintConsole bool
}

type ManagementServer struct {
	Secret                  string `json:"-"` // sensitive
	ReadinessTimeout        time.Duration
	LivenessTimeout         time.Duration
	ProbeWriteablePathsAbs  []string
	ProbeWriteableTouchfile string
}

type PathsServer struct {
	AppleAppSiteAssociationFile string
	AndroidAssetlinksFile       string
}

type I18n struct {
	DefaultLanguage language.Tag
	BundleDirAbs    string
}

// Chain configures the single network the recovery runs against.
type Chain struct {
	RPCURLs             []string
	ChainID             int64
	AccountsAddress     string
	FeeCurrency         string
	ExplorerTxURL       string
	ReceiptPollInterval time.Duration
	ReceiptTimeout      time.Duration
	HealthCheckTimeout  time.Duration
}

type Discovery struct {
	BaseURL string
	Timeout time.Duration
}

// DappKit holds the request meta sent along with every deeplink.
type DappKit struct {
	DeeplinkBase string
	DappName     string
	Callback     string
}

type Relay struct {
	Backend      string
	SlotKey      string
	PollInterval time.Duration
	Timeout      time.Duration
}

type Store struct {
	Backend string
}

type Assets struct {
	File string
}

type Server struct {
	Database   Database
	Redis      Redis
	Echo       EchoServer
	Management ManagementServer
	Paths      PathsServer
	Logger     LoggerServer
	I18n       I18n
	Chain      Chain
	Discovery  Discovery
	DappKit    DappKit
	Relay      Relay
	Store      Store
	Assets     Assets
}

// DefaultServiceConfigFromEnv returns the server config as parsed from environment variables
// and their respective defaults defined below.
// We don't expect that ENV_VARs change while we are running our application or our tests
// (and it would be a bad thing to do anyways with parallel testing).
// Do NOT use os.Setenv / os.Unsetenv in tests utilizing DefaultServiceConfigFromEnv()!
func DefaultServiceConfigFromEnv() Server {
	// An `.env.local` file in your project root can override the currently set ENV variables.
	//
	// We never automatically apply `.env.local` when running "go test" as these ENV variables
	// may be sensitive (e.g. secrets to external APIs) and applying them modifies the process
	// global "os.Env" state (it should be applied via t.SetEnv instead).
	//
	// If you need dotenv ENV variables available in a test, do that explicitly within that
	// test before executing DefaultServiceConfigFromEnv (or test.WithTestServer).
	// See /internal/test/helper_dot_env.go: test.DotEnvLoadLocalOrSkipTest(t)
	if !testing() {
		DotEnvTryLoad(filepath.Join(util.GetProjectRootDir(), ".env.local"), setEnvFn)
	}

	return Server{
		Database: Database{
			Host:     util.GetEnv("PGHOST", "postgres"),
			Port:     util.GetEnvAsInt("PGPORT", 5432),
			Database: util.GetEnv("PGDATABASE", "recovery"),
			Username: util.GetEnv("PGUSER", "dbuser"),
			Password: util.GetEnv("PGPASSWORD", ""),
			AdditionalParams: map[string]string{
				"sslmode": util.GetEnv("PGSSLMODE", "disable"),
			},
			MaxOpenConns:    util.GetEnvAsInt("DB_MAX_OPEN_CONNS", 8),
			MaxIdleConns:    util.GetEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: time.Second * time.Duration(util.GetEnvAsInt("DB_CONN_MAX_LIFETIME_SEC", 60)),
		},
		Redis: Redis{
			Addr:     util.GetEnv("REDIS_ADDR", "redis:6379"),
			Password: util.GetEnv("REDIS_PASSWORD", ""),
			DB:       util.GetEnvAsInt("REDIS_DB", 0),
		},
		Echo: EchoServer{
			Debug:                          util.GetEnvAsBool("SERVER_ECHO_DEBUG", false),
			ListenAddress:                  util.GetEnv("SERVER_ECHO_LISTEN_ADDRESS", ":8080"),
			HideInternalServerErrorDetails: util.GetEnvAsBool("SERVER_ECHO_HIDE_INTERNAL_SERVER_ERROR_DETAILS", true),
			BaseURL:                        util.GetEnv("SERVER_ECHO_BASE_URL", "http://localhost:8080"),
			EnableCORSMiddleware:           util.GetEnvAsBool("SERVER_ECHO_ENABLE_CORS_MIDDLEWARE", true),
			EnableLoggerMiddleware:         util.GetEnvAsBool("SERVER_ECHO_ENABLE_LOGGER_MIDDLEWARE", true),
			EnableRecoverMiddleware:        util.GetEnvAsBool("SERVER_ECHO_ENABLE_RECOVER_MIDDLEWARE", true),
			EnableRequestIDMiddleware:      util.GetEnvAsBool("SERVER_ECHO_ENABLE_REQUEST_ID_MIDDLEWARE", true),
			EnableTrailingSlashMiddleware:  util.GetEnvAsBool("SERVER_ECHO_ENABLE_TRAILING_SLASH_MIDDLEWARE", true),
			EnableMetricsMiddleware:        util.GetEnvAsBool("SERVER_ECHO_ENABLE_METRICS_MIDDLEWARE", true),
		},
		Management: ManagementServer{
			Secret:           util.GetMgmtSecret("SERVER_MANAGEMENT_SECRET"),
			ReadinessTimeout: time.Second * time.Duration(util.GetEnvAsInt("SERVER_MANAGEMENT_READINESS_TIMEOUT_SEC", 4)),
			LivenessTimeout:  time.Second * time.Duration(util.GetEnvAsInt("SERVER_MANAGEMENT_LIVENESS_TIMEOUT_SEC", 9)),
			ProbeWriteablePathsAbs: util.GetEnvAsStringArr(
				"SERVER_MANAGEMENT_PROBE_WRITEABLE_PATHS_ABS",
				[]string{filepath.Join(util.GetProjectRootDir(), "/tmp")}, ","),
			ProbeWriteableTouchfile: util.GetEnv("SERVER_MANAGEMENT_PROBE_WRITEABLE_TOUCHFILE", ".healthy"),
		},
		Paths: PathsServer{
			AppleAppSiteAssociationFile: util.GetEnv("SERVER_PATHS_APPLE_APP_SITE_ASSOCIATION_FILE", ""),
			AndroidAssetlinksFile:       util.GetEnv("SERVER_PATHS_ANDROID_ASSETLINKS_FILE", ""),
		},
		Logger: LoggerServer{
			Level:              util.LogLevelFromString(util.GetEnv("SERVER_LOGGER_LEVEL", zerolog.DebugLevel.String())),
			RequestLevel:       util.LogLevelFromString(util.GetEnv("SERVER_LOGGER_REQUEST_LEVEL", zerolog.DebugLevel.String())),
			LogRequestBody:     util.GetEnvAsBool("SERVER_LOGGER_LOG_REQUEST_BODY", false),
			LogRequestHeader:   util.GetEnvAsBool("SERVER_LOGGER_LOG_REQUEST_HEADER", false),
			LogRequestQuery:    util.GetEnvAsBool("SERVER_LOGGER_LOG_REQUEST_QUERY", false),
			LogResponseBody:    util.GetEnvAsBool("SERVER_LOGGER_LOG_RESPONSE_BODY", false),
			LogResponseHeader:  util.GetEnvAsBool("SERVER_LOGGER_LOG_RESPONSE_HEADER", false),
			PrettyPrintConsole: util.GetEnvAsBool("SERVER_LOGGER_PRETTY_PRINT_CONSOLE", false),
		},
		I18n: I18n{
			DefaultLanguage: util.GetEnvAsLanguageTag("SERVER_I18N_DEFAULT_LANGUAGE", language.English),
			BundleDirAbs:    util.GetEnv("SERVER_I18N_BUNDLE_DIR_ABS", ""),
		},
		Chain: Chain{
			RPCURLs:             util.GetEnvAsStringArr("CHAIN_RPC_URLS", []string{"https://forno.celo.org"}),
			ChainID:             int64(util.GetEnvAsInt("CHAIN_ID", 42220)),
			AccountsAddress:     util.GetEnv("CHAIN_ACCOUNTS_ADDRESS", "0x7d21685C17607338b313a7174bAb6620baD0aaB7"),
			FeeCurrency:         util.GetEnv("CHAIN_FEE_CURRENCY", "0x765DE816845861e75A25fCA122bb6898B8B1282a"),
			ExplorerTxURL:       util.GetEnv("CHAIN_EXPLORER_TX_URL", "https://explorer.celo.org/tx/%s"),
			ReceiptPollInterval: util.GetEnvAsDuration("CHAIN_RECEIPT_POLL_INTERVAL", 3*time.Second),
			ReceiptTimeout:      util.GetEnvAsDuration("CHAIN_RECEIPT_TIMEOUT", 2*time.Minute),
			HealthCheckTimeout:  util.GetEnvAsDuration("CHAIN_HEALTH_CHECK_TIMEOUT", 5*time.Second),
		},
		Discovery: Discovery{
			BaseURL: util.GetEnv("DISCOVERY_BASE_URL", "https://us-central1-celo-mobile-mainnet.cloudfunctions.net"),
			Timeout: util.GetEnvAsDuration("DISCOVERY_TIMEOUT", 30*time.Second),
		},
		DappKit: DappKit{
			DeeplinkBase: util.GetEnv("DAPPKIT_DEEPLINK_BASE", "celo://wallet/dappkit"),
			DappName:     util.GetEnv("DAPPKIT_DAPP_NAME", "Valora Helper"),
			Callback:     util.GetEnv("DAPPKIT_CALLBACK", "http://localhost:8080/callback"),
		},
		Relay: Relay{
			Backend:      util.GetEnvEnum("RELAY_BACKEND", RelayBackendMemory, []string{RelayBackendMemory, RelayBackendStore}),
			SlotKey:      util.GetEnv("RELAY_SLOT_KEY", "valoraRedirect"),
			PollInterval: util.GetEnvAsDuration("RELAY_POLL_INTERVAL", 100*time.Millisecond),
			Timeout:      util.GetEnvAsDuration("RELAY_TIMEOUT", 5*time.Minute),
		},
		Store: Store{
			Backend: util.GetEnvEnum("STORE_BACKEND", StoreBackendMemory, []string{StoreBackendMemory, StoreBackendPostgres, StoreBackendRedis}),
		},
		Assets: Assets{
			File: util.GetEnv("ASSETS_FILE", ""),
		},
	}
}

// Validate checks the parts of the config the recovery cannot run without.
func (s Server) Validate() error {
	if err := vala.BeginValidation().Validate(
		vala.Not(vala.Equals(len(s.Chain.RPCURLs), 0, "CHAIN_RPC_URLS")),
		vala.StringNotEmpty(s.Chain.AccountsAddress, "CHAIN_ACCOUNTS_ADDRESS"),
		vala.StringNotEmpty(s.Chain.FeeCurrency, "CHAIN_FEE_CURRENCY"),
		vala.StringNotEmpty(s.Discovery.BaseURL, "DISCOVERY_BASE_URL"),
		vala.StringNotEmpty(s.DappKit.DeeplinkBase, "DAPPKIT_DEEPLINK_BASE"),
		vala.StringNotEmpty(s.DappKit.Callback, "DAPPKIT_CALLBACK"),
		vala.GreaterThan(int(s.Relay.PollInterval), 0, "RELAY_POLL_INTERVAL"),
		vala.GreaterThan(int(s.Chain.ReceiptPollInterval), 0, "CHAIN_RECEIPT_POLL_INTERVAL"),
		vala.GreaterThan(int(s.Chain.HealthCheckTimeout), 0, "CHAIN_HEALTH_CHECK_TIMEOUT"),
	).Check(); err != nil {
		return errors.Wrap(err, "invalid config")
	}

	if _, err := url.ParseRequestURI(s.DappKit.Callback); err != nil {
		return errors.Wrap(err, "invalid DAPPKIT_CALLBACK")
	}

	return nil
}
