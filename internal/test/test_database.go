package test

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/allaboutapps/integresql-client-go"
	"github.com/allaboutapps/integresql-client-go/pkg/util"
	"github/chapool/mtw-recovery/internal/config"
	"github/chapool/mtw-recovery/internal/persistence"

	// Import postgres driver for database/sql package
	_ "github.com/lib/pq"
)

var (
	client *integresql.Client

	// tracks template database initialization
	doOnce sync.Once

	// hash of the migrations folder, identifies the template database
	hash string
)

// WithTestDatabase provides an isolated, fully migrated database to closure. The database is
// pulled from IntegreSQL and dropped afterwards.
func WithTestDatabase(t *testing.T, closure func(db *sql.DB)) {
	t.Helper()

	ctx := t.Context()

	doOnce.Do(func() {
		t.Helper()
		initializeTestDatabaseTemplate(ctx, t)
	})

	testDatabase, err := client.GetTestDatabase(ctx, hash)
	if err != nil {
		t.Fatalf("Failed to obtain test database: %v", err)
	}

	connectionString := testDatabase.Config.ConnectionString()

	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		t.Fatalf("Failed to setup test database for connectionString %q: %v", connectionString, err)
	}

	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("Failed to ping test database for connectionString %q: %v", connectionString, err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	closure(db)
}

func initializeTestDatabaseTemplate(ctx context.Context, t *testing.T) {
	t.Helper()

	initTestDatabaseHash(t)
	initIntegresClient(t)

	if err := client.SetupTemplateWithDBClient(ctx, hash, func(db *sql.DB) error {
		t.Helper()

		countMigrations, err := persistence.Migrate(db)
		if err != nil {
			return err
		}

		t.Logf("Applied %d migrations to template database %q", countMigrations, hash)

		return nil
	}); err != nil {
		t.Fatalf("Failed to setup template database for hash %q: %v", hash, err)
	}
}

func initIntegresClient(t *testing.T) {
	t.Helper()

	c, err := integresql.DefaultClientFromEnv()
	if err != nil {
		t.Fatalf("Failed to create new integresql-client: %v", err)
	}

	client = c
}

func initTestDatabaseHash(t *testing.T) {
	t.Helper()

	h, err := util.GetTemplateHash(config.DatabaseMigrationFolder)
	if err != nil {
		t.Fatalf("Failed to get template hash: %#v", err)
	}

	hash = h
}
