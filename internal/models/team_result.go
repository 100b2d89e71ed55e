package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TeamResult represents the aggregate performance of one team in one race:
// the average of its members' individual results. Unique per (team, race).
// A team with no known member results for a race has no row at all.
type TeamResult struct {
	ID                 int64           `db:"id" json:"id"`
	TeamID             int64           `db:"team_id" json:"team_id" validate:"required,gt=0"`
	RaceID             int64           `db:"race_id" json:"race_id" validate:"required,gt=0"`
	AvgTimeSeconds     decimal.Decimal `db:"avg_time_seconds" json:"avg_time_seconds"`
	AvgPenaltySeconds  decimal.Decimal `db:"avg_penalty_seconds" json:"avg_penalty_seconds"`
	MemberCount        int             `db:"member_count" json:"member_count" validate:"gte=0"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
}

// FinalSeconds is the team ranking key: average time plus average penalty,
// computed on read like the individual counterpart.
func (r *TeamResult) FinalSeconds() decimal.Decimal {
	return r.AvgTimeSeconds.Add(r.AvgPenaltySeconds)
}

// Validate checks value constraints not covered by struct tags
func (r *TeamResult) Validate() error {
	if r.AvgTimeSeconds.IsNegative() {
		return NewValidationError("negative_time", "avg_time_seconds cannot be negative")
	}
	if r.AvgPenaltySeconds.IsNegative() {
		return NewValidationError("negative_penalty", "avg_penalty_seconds cannot be negative")
	}
	if r.MemberCount < 0 {
		return NewValidationError("negative_member_count", "member_count cannot be negative")
	}
	return nil
}

// TeamRacePair identifies one aggregate row; used by the reconciliation job.
type TeamRacePair struct {
	TeamID int64 `db:"team_id" json:"team_id"`
	RaceID int64 `db:"race_id" json:"race_id"`
}
