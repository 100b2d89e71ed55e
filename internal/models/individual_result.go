package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// IndividualResult represents one person's performance in one race.
// At most one row exists per (subject, race); imports replace, never duplicate.
type IndividualResult struct {
	ID             int64           `db:"id" json:"id"`
	SubjectID      int64           `db:"user_id" json:"subject_id" validate:"required,gt=0"`
	RaceID         int64           `db:"race_id" json:"race_id" validate:"required,gt=0"`
	TimeSeconds    decimal.Decimal `db:"time_seconds" json:"time_seconds"`
	PenaltySeconds decimal.Decimal `db:"penalty_seconds" json:"penalty_seconds"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// FinalSeconds is the ranking key: elapsed time plus penalty. It is computed
// here on every read and never persisted, so a stored copy can never drift.
func (r *IndividualResult) FinalSeconds() decimal.Decimal {
	return r.TimeSeconds.Add(r.PenaltySeconds)
}

// Validate checks value constraints not covered by struct tags
func (r *IndividualResult) Validate() error {
	if r.TimeSeconds.IsNegative() {
		return NewValidationError("negative_time", "time_seconds cannot be negative")
	}
	if r.PenaltySeconds.IsNegative() {
		return NewValidationError("negative_penalty", "penalty_seconds cannot be negative")
	}
	return nil
}
