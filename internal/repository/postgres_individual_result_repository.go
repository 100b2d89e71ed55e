package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/Infuseting/SAE301-sub004/internal/database"
	"github.com/Infuseting/SAE301-sub004/internal/models"
)

const pgUniqueViolation = "23505"

// PostgresIndividualResultRepository implements IndividualResultRepository for PostgreSQL
type PostgresIndividualResultRepository struct {
	db *database.DB
}

// NewPostgresIndividualResultRepository creates a new individual result repository
func NewPostgresIndividualResultRepository(db *database.DB) IndividualResultRepository {
	return &PostgresIndividualResultRepository{db: db}
}

// Upsert inserts or replaces the result for (subject, race) in one transaction
func (r *PostgresIndividualResultRepository) Upsert(ctx context.Context, result *models.IndividualResult) error {
	query := `
		INSERT INTO individual_results (user_id, race_id, time_seconds, penalty_seconds)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, race_id) DO UPDATE SET
			time_seconds = EXCLUDED.time_seconds,
			penalty_seconds = EXCLUDED.penalty_seconds,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, query,
			result.SubjectID, result.RaceID, result.TimeSeconds, result.PenaltySeconds,
		).Scan(&result.ID, &result.CreatedAt, &result.UpdatedAt)
	})
	if err != nil {
		return fmt.Errorf("failed to upsert individual result: %w", err)
	}

	return nil
}

// Insert inserts a result without conflict handling. A duplicate (subject,
// race) pair surfaces as models.ErrDuplicateResult.
func (r *PostgresIndividualResultRepository) Insert(ctx context.Context, result *models.IndividualResult) error {
	query := `
		INSERT INTO individual_results (user_id, race_id, time_seconds, penalty_seconds)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.db.GetPool().QueryRow(ctx, query,
		result.SubjectID, result.RaceID, result.TimeSeconds, result.PenaltySeconds,
	).Scan(&result.ID, &result.CreatedAt, &result.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return models.ErrDuplicateResult
		}
		return fmt.Errorf("failed to insert individual result: %w", err)
	}

	return nil
}

// GetByID retrieves a single result by its row id
func (r *PostgresIndividualResultRepository) GetByID(ctx context.Context, id int64) (*models.IndividualResult, error) {
	query := `
		SELECT id, user_id, race_id, time_seconds, penalty_seconds, created_at, updated_at
		FROM individual_results
		WHERE id = $1
	`

	return r.scanOne(r.db.GetPool().QueryRow(ctx, query, id))
}

// GetBySubjectAndRace retrieves the result one person holds for one race
func (r *PostgresIndividualResultRepository) GetBySubjectAndRace(ctx context.Context, subjectID, raceID int64) (*models.IndividualResult, error) {
	query := `
		SELECT id, user_id, race_id, time_seconds, penalty_seconds, created_at, updated_at
		FROM individual_results
		WHERE user_id = $1 AND race_id = $2
	`

	return r.scanOne(r.db.GetPool().QueryRow(ctx, query, subjectID, raceID))
}

// ListByRace retrieves the full result set for a race, ranked order
func (r *PostgresIndividualResultRepository) ListByRace(ctx context.Context, raceID int64) ([]*models.IndividualResult, error) {
	query := `
		SELECT id, user_id, race_id, time_seconds, penalty_seconds, created_at, updated_at
		FROM individual_results
		WHERE race_id = $1
		ORDER BY (time_seconds + penalty_seconds) ASC, user_id ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query individual results: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// ListBySubjectsAndRace retrieves the results a set of subjects hold for a race
func (r *PostgresIndividualResultRepository) ListBySubjectsAndRace(ctx context.Context, subjectIDs []int64, raceID int64) ([]*models.IndividualResult, error) {
	if len(subjectIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, user_id, race_id, time_seconds, penalty_seconds, created_at, updated_at
		FROM individual_results
		WHERE race_id = $1 AND user_id = ANY($2)
		ORDER BY user_id ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, raceID, subjectIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query member results: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// CountFaster counts results in the race strictly faster than the given final time
func (r *PostgresIndividualResultRepository) CountFaster(ctx context.Context, raceID int64, final decimal.Decimal) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM individual_results
		WHERE race_id = $1 AND (time_seconds + penalty_seconds) < $2
	`

	var count int
	if err := r.db.GetPool().QueryRow(ctx, query, raceID, final).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count faster results: %w", err)
	}

	return count, nil
}

// Delete removes one result; reports false when no row matched
func (r *PostgresIndividualResultRepository) Delete(ctx context.Context, id int64) (bool, error) {
	commandTag, err := r.db.GetPool().Exec(ctx, `DELETE FROM individual_results WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete individual result: %w", err)
	}

	return commandTag.RowsAffected() > 0, nil
}

// DeleteBySubject removes every result a subject holds (subject removal cascade)
func (r *PostgresIndividualResultRepository) DeleteBySubject(ctx context.Context, subjectID int64) (int64, error) {
	commandTag, err := r.db.GetPool().Exec(ctx, `DELETE FROM individual_results WHERE user_id = $1`, subjectID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete results for subject: %w", err)
	}

	return commandTag.RowsAffected(), nil
}

// DeleteByRace removes every result of a race (race removal cascade)
func (r *PostgresIndividualResultRepository) DeleteByRace(ctx context.Context, raceID int64) (int64, error) {
	commandTag, err := r.db.GetPool().Exec(ctx, `DELETE FROM individual_results WHERE race_id = $1`, raceID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete results for race: %w", err)
	}

	return commandTag.RowsAffected(), nil
}

func (r *PostgresIndividualResultRepository) scanOne(row pgx.Row) (*models.IndividualResult, error) {
	result := &models.IndividualResult{}
	err := row.Scan(
		&result.ID, &result.SubjectID, &result.RaceID,
		&result.TimeSeconds, &result.PenaltySeconds,
		&result.CreatedAt, &result.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to query individual result: %w", err)
	}

	return result, nil
}

func (r *PostgresIndividualResultRepository) scanAll(rows pgx.Rows) ([]*models.IndividualResult, error) {
	var results []*models.IndividualResult
	for rows.Next() {
		result := &models.IndividualResult{}
		err := rows.Scan(
			&result.ID, &result.SubjectID, &result.RaceID,
			&result.TimeSeconds, &result.PenaltySeconds,
			&result.CreatedAt, &result.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan individual result: %w", err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating individual results: %w", err)
	}

	return results, nil
}
