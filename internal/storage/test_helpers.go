package storage

import (
	"context"
	"testing"
	"time"

	"github.com/dao-vault/internal/config"
)

// testContext creates a context with timeout for tests
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// testPostgresConfig points at the local development database
func testPostgresConfig() *config.PostgresConfig {
	return &config.PostgresConfig{
		Host:           "localhost",
		Port:           "5432",
		Database:       "dao_vault",
		User:           "dao",
		Password:       "dao_dev_password",
		MaxConnections: 5,
	}
}

// openTestPostgres connects and migrates the local database, skipping the
// test when it is unreachable.
func openTestPostgres(t *testing.T) *PostgresDB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	cfg := testPostgresConfig()
	db, err := NewPostgresDB(cfg)
	if err != nil {
		t.Skipf("Skipping test - Postgres not available: %v", err)
	}
	t.Cleanup(db.Close)

	if err := RunMigrations(cfg.PostgresDSN(), "../../"+DefaultMigrationsPath); err != nil {
		t.Skipf("Skipping test - migrations failed: %v", err)
	}
	return db
}
