package kv

import (
	"context"
	"database/sql"

	"github.com/aarondl/sqlboiler/v4/queries"
	"github.com/pkg/errors"
)

// Postgres stores entries in the kv_entries table (see migrations).
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type entry struct {
	Value string `boil:"value"`
}

func (p *Postgres) Get(ctx context.Context, key string) (string, error) {
	var e entry
	err := queries.Raw(`SELECT value FROM kv_entries WHERE key = $1`, key).Bind(ctx, p.db, &e)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", errors.Wrapf(err, "failed to get %q", key)
	}

	return e.Value, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value string) error {
	_, err := queries.Raw(`INSERT INTO kv_entries (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`, key, value).
		ExecContext(ctx, p.db)
	if err != nil {
		return errors.Wrapf(err, "failed to set %q", key)
	}

	return nil
}

func (p *Postgres) Take(ctx context.Context, key string) (string, error) {
	var e entry
	err := queries.Raw(`DELETE FROM kv_entries WHERE key = $1 RETURNING value`, key).Bind(ctx, p.db, &e)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", errors.Wrapf(err, "failed to take %q", key)
	}

	return e.Value, nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := queries.Raw(`DELETE FROM kv_entries WHERE key = $1`, key).ExecContext(ctx, p.db); err != nil {
		return errors.Wrapf(err, "failed to delete %q", key)
	}

	return nil
}
