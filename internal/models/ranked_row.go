package models

import (
	"github.com/shopspring/decimal"
)

// ResultKind selects which leaderboard a query targets.
type ResultKind string

const (
	KindIndividual ResultKind = "individual"
	KindTeam       ResultKind = "team"
)

// Valid reports whether the kind is one of the two known leaderboards
func (k ResultKind) Valid() bool {
	return k == KindIndividual || k == KindTeam
}

// RankedRow is one line of a leaderboard: the raw decimals plus their display
// strings, formatted at the boundary and never stored.
type RankedRow struct {
	Rank             int             `json:"rank"`
	Kind             ResultKind      `json:"kind"`
	ResultID         int64           `json:"result_id"`
	SubjectID        int64           `json:"subject_id"`
	DisplayName      string          `json:"display_name"`
	Public           bool            `json:"public,omitempty"`
	TimeSeconds      decimal.Decimal `json:"time_seconds"`
	PenaltySeconds   decimal.Decimal `json:"penalty_seconds"`
	FinalSeconds     decimal.Decimal `json:"final_seconds"`
	TimeFormatted    string          `json:"time_formatted"`
	PenaltyFormatted string          `json:"penalty_formatted"`
	FinalFormatted   string          `json:"final_formatted"`
	MemberCount      int             `json:"member_count,omitempty"`
}

// LeaderboardPage is the paginated result of a leaderboard query. Total counts
// rows after search filtering; ranks always reflect the full race ordering.
type LeaderboardPage struct {
	Data     []RankedRow `json:"data"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}
