package persistence

import (
	"context"
	"database/sql"

	"github.com/dlmiddlecote/sqlstats"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	migrate "github.com/rubenv/sql-migrate"
	"github/chapool/mtw-recovery/internal/config"

	// Import postgres driver for database/sql package
	_ "github.com/lib/pq"
)

// Open connects to postgres and registers the pool statistics collector once per database name.
func Open(ctx context.Context, cfg config.Database) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	collector := sqlstats.NewStatsCollector(cfg.Database, db)
	if err := prometheus.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			log.Warn().Err(err).Msg("Failed to register database stats collector")
		}
	}

	return db, nil
}

// Migrate applies all pending migrations and returns how many ran.
func Migrate(db *sql.DB) (int, error) {
	migrate.SetTable(config.DatabaseMigrationTable)

	n, err := migrate.Exec(db, "postgres", migrate.FileMigrationSource{Dir: config.DatabaseMigrationFolder}, migrate.Up)
	if err != nil {
		return 0, errors.Wrap(err, "failed to apply migrations")
	}

	return n, nil
}
