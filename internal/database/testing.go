package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Infuseting/SAE301-sub004/internal/config"
)

// SetupTestDB connects to the database named by LEADERBOARD_TEST_DSN-style
// env vars and applies the schema. Tests calling it are skipped when no test
// database is configured.
func SetupTestDB(t *testing.T) *DB {
	host := os.Getenv("LEADERBOARD_TEST_DB_HOST")
	if host == "" {
		t.Skip("Integration test - requires database setup (set LEADERBOARD_TEST_DB_HOST)")
	}

	cfg := &config.DatabaseConfig{
		Host:           host,
		Port:           5432,
		Name:           envOr("LEADERBOARD_TEST_DB_NAME", "leaderboard_test"),
		User:           envOr("LEADERBOARD_TEST_DB_USER", "postgres"),
		Password:       os.Getenv("LEADERBOARD_TEST_DB_PASSWORD"),
		SSLMode:        "disable",
		MaxConnections: 4,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := NewDB(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}

	if err := ApplySchema(ctx, db); err != nil {
		db.Close()
		t.Fatalf("failed to apply test schema: %v", err)
	}

	return db
}

// TeardownTestDB truncates the result tables and closes the connection
func TeardownTestDB(t *testing.T, db *DB) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, table := range []string{"individual_results", "team_results"} {
		if _, err := db.pool.Exec(ctx, "TRUNCATE "+table); err != nil {
			t.Logf("warning: failed to truncate %s: %v", table, err)
		}
	}
	db.Close()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
