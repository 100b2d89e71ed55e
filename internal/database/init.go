package database

import (
	"context"
	"fmt"

	"github.com/Infuseting/SAE301-sub004/internal/config"
)

// Result tables are owned exclusively by this service; nothing else writes to
// them. final_seconds is intentionally absent from both tables, it is always
// derived on read.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS individual_results (
		id              BIGSERIAL PRIMARY KEY,
		user_id         BIGINT NOT NULL,
		race_id         BIGINT NOT NULL,
		time_seconds    NUMERIC(12,2) NOT NULL CHECK (time_seconds >= 0),
		penalty_seconds NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (penalty_seconds >= 0),
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT individual_results_subject_race_key UNIQUE (user_id, race_id)
	)`,
	`CREATE INDEX IF NOT EXISTS individual_results_race_idx ON individual_results (race_id)`,
	`CREATE TABLE IF NOT EXISTS team_results (
		id                  BIGSERIAL PRIMARY KEY,
		team_id             BIGINT NOT NULL,
		race_id             BIGINT NOT NULL,
		avg_time_seconds    NUMERIC(12,2) NOT NULL CHECK (avg_time_seconds >= 0),
		avg_penalty_seconds NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (avg_penalty_seconds >= 0),
		member_count        INTEGER NOT NULL DEFAULT 0 CHECK (member_count >= 0),
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT team_results_team_race_key UNIQUE (team_id, race_id)
	)`,
	`CREATE INDEX IF NOT EXISTS team_results_race_idx ON team_results (race_id)`,
}

// Initialize creates a database connection pool and, when configured, applies
// the result-table schema.
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoInit {
		if err := ApplySchema(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	return db, nil
}

// ApplySchema creates the result tables and their unique indexes
func ApplySchema(ctx context.Context, db *DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
