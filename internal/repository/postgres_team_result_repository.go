package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Infuseting/SAE301-sub004/internal/database"
	"github.com/Infuseting/SAE301-sub004/internal/models"
)

// PostgresTeamResultRepository implements TeamResultRepository for PostgreSQL
type PostgresTeamResultRepository struct {
	db *database.DB
}

// NewPostgresTeamResultRepository creates a new team result repository
func NewPostgresTeamResultRepository(db *database.DB) TeamResultRepository {
	return &PostgresTeamResultRepository{db: db}
}

// Upsert inserts or replaces the aggregate for (team, race) in one transaction
func (r *PostgresTeamResultRepository) Upsert(ctx context.Context, result *models.TeamResult) error {
	query := `
		INSERT INTO team_results (team_id, race_id, avg_time_seconds, avg_penalty_seconds, member_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (team_id, race_id) DO UPDATE SET
			avg_time_seconds = EXCLUDED.avg_time_seconds,
			avg_penalty_seconds = EXCLUDED.avg_penalty_seconds,
			member_count = EXCLUDED.member_count,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query,
			result.TeamID, result.RaceID,
			result.AvgTimeSeconds, result.AvgPenaltySeconds, result.MemberCount,
		).Scan(&result.ID, &result.CreatedAt, &result.UpdatedAt)
	})
	if err != nil {
		return fmt.Errorf("failed to upsert team result: %w", err)
	}

	return nil
}

// GetByTeamAndRace retrieves the aggregate one team holds for one race
func (r *PostgresTeamResultRepository) GetByTeamAndRace(ctx context.Context, teamID, raceID int64) (*models.TeamResult, error) {
	query := `
		SELECT id, team_id, race_id, avg_time_seconds, avg_penalty_seconds, member_count, created_at, updated_at
		FROM team_results
		WHERE team_id = $1 AND race_id = $2
	`

	result := &models.TeamResult{}
	err := r.db.GetPool().QueryRow(ctx, query, teamID, raceID).Scan(
		&result.ID, &result.TeamID, &result.RaceID,
		&result.AvgTimeSeconds, &result.AvgPenaltySeconds, &result.MemberCount,
		&result.CreatedAt, &result.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrTeamResultNotFound
		}
		return nil, fmt.Errorf("failed to query team result: %w", err)
	}

	return result, nil
}

// ListByRace retrieves the full aggregate set for a race, ranked order
func (r *PostgresTeamResultRepository) ListByRace(ctx context.Context, raceID int64) ([]*models.TeamResult, error) {
	query := `
		SELECT id, team_id, race_id, avg_time_seconds, avg_penalty_seconds, member_count, created_at, updated_at
		FROM team_results
		WHERE race_id = $1
		ORDER BY (avg_time_seconds + avg_penalty_seconds) ASC, team_id ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query team results: %w", err)
	}
	defer rows.Close()

	var results []*models.TeamResult
	for rows.Next() {
		result := &models.TeamResult{}
		err := rows.Scan(
			&result.ID, &result.TeamID, &result.RaceID,
			&result.AvgTimeSeconds, &result.AvgPenaltySeconds, &result.MemberCount,
			&result.CreatedAt, &result.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team result: %w", err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team results: %w", err)
	}

	return results, nil
}

// Delete removes one aggregate; reports false when no row matched
func (r *PostgresTeamResultRepository) Delete(ctx context.Context, id int64) (bool, error) {
	commandTag, err := r.db.GetPool().Exec(ctx, `DELETE FROM team_results WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete team result: %w", err)
	}

	return commandTag.RowsAffected() > 0, nil
}

// DeleteByTeam removes every aggregate a team holds (team removal cascade)
func (r *PostgresTeamResultRepository) DeleteByTeam(ctx context.Context, teamID int64) (int64, error) {
	commandTag, err := r.db.GetPool().Exec(ctx, `DELETE FROM team_results WHERE team_id = $1`, teamID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete results for team: %w", err)
	}

	return commandTag.RowsAffected(), nil
}

// DeleteByRace removes every aggregate of a race (race removal cascade)
func (r *PostgresTeamResultRepository) DeleteByRace(ctx context.Context, raceID int64) (int64, error) {
	commandTag, err := r.db.GetPool().Exec(ctx, `DELETE FROM team_results WHERE race_id = $1`, raceID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete results for race: %w", err)
	}

	return commandTag.RowsAffected(), nil
}

// ListRacePairs enumerates every (team, race) pair holding an aggregate
func (r *PostgresTeamResultRepository) ListRacePairs(ctx context.Context) ([]models.TeamRacePair, error) {
	rows, err := r.db.GetPool().Query(ctx, `SELECT team_id, race_id FROM team_results ORDER BY race_id, team_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query team race pairs: %w", err)
	}
	defer rows.Close()

	var pairs []models.TeamRacePair
	for rows.Next() {
		var pair models.TeamRacePair
		if err := rows.Scan(&pair.TeamID, &pair.RaceID); err != nil {
			return nil, fmt.Errorf("failed to scan team race pair: %w", err)
		}
		pairs = append(pairs, pair)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team race pairs: %w", err)
	}

	return pairs, nil
}
