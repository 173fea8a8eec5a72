package testutil

// Package testutil provides helpers for tests that need backing
// infrastructure. Tests skip (or fail, when TEST_REQUIRE_INFRA is set) when
// the infrastructure is unavailable, so the unit suite stays runnable on a
// bare checkout.

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register the pgx database/sql driver
	"github.com/redis/go-redis/v9"
)

// TestingTB is the subset of *testing.T used by these helpers.
type TestingTB interface {
	Helper()
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Skip(args ...any)
	Skipf(format string, args ...any)
	Logf(format string, args ...any)
	Cleanup(func())
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func requireInfra() bool {
	return os.Getenv("TEST_REQUIRE_INFRA") == "true" || os.Getenv("TEST_REQUIRE_INFRA") == "1"
}

// SetupTestRedis returns a Redis client against the test instance
// (TEST_REDIS_ADDR, default localhost:6379, DB 15) with a clean database.
// Skips the test when Redis is unreachable.
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()

	addr := getEnvOrDefault("TEST_REDIS_ADDR", "localhost:6379")
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		if cerr := client.Close(); cerr != nil {
			t.Logf("warning: close redis client after ping error: %v", cerr)
		}
		if requireInfra() {
			t.Fatalf("Redis not available for testing at %s: %v", addr, err)
		}
		t.Skipf("Redis not available for testing at %s: %v", addr, err)
	}

	client.FlushDB(ctx)
	t.Cleanup(func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer flushCancel()
		client.FlushDB(flushCtx)
		_ = client.Close()
	})
	return client
}

// SetupTestDB returns a Postgres connection for data-layer tests
// (TEST_DB_* variables, defaults matching docker-compose dev settings) with
// the audit schema applied. Skips the test when Postgres is unreachable.
func SetupTestDB(t TestingTB) *sql.DB {
	t.Helper()

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		getEnvOrDefault("TEST_DB_USER", "escuela"),
		getEnvOrDefault("TEST_DB_PASSWORD", "escuela"),
		getEnvOrDefault("TEST_DB_HOST", "localhost"),
		getEnvOrDefault("TEST_DB_PORT", "5432"),
		getEnvOrDefault("TEST_DB_NAME", "escuela_test"),
	)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		if requireInfra() {
			t.Fatalf("open test database: %v", err)
		}
		t.Skipf("open test database: %v", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		if requireInfra() {
			t.Fatalf("Postgres not available for testing: %v", err)
		}
		t.Skipf("Postgres not available for testing: %v", err)
		return nil
	}

	if _, err := db.ExecContext(ctx, auditSchema); err != nil {
		_ = db.Close()
		t.Fatalf("apply audit schema: %v", err)
	}

	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cleanupCancel()
		_, _ = db.ExecContext(cleanupCtx, "TRUNCATE auth_audit")
		_ = db.Close()
	})
	return db
}

// auditSchema mirrors internal/migrate. Kept inline so data-layer tests can
// run against a scratch database without the migration runner.
const auditSchema = `
CREATE TABLE IF NOT EXISTS auth_audit (
    id          BIGSERIAL PRIMARY KEY,
    occurred_at TIMESTAMPTZ NOT NULL,
    event       TEXT NOT NULL,
    user_id     TEXT NOT NULL DEFAULT '',
    username    TEXT NOT NULL DEFAULT '',
    detail      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS auth_audit_occurred_at_idx ON auth_audit (occurred_at DESC);
`
