package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Infuseting/SAE301-sub004/internal/models"
)

// IndividualResultRepository defines the interface for individual result data access.
// Upsert is the only public write path; Insert exists for callers that must
// fail on duplicates and surfaces models.ErrDuplicateResult when they do.
type IndividualResultRepository interface {
	Upsert(ctx context.Context, result *models.IndividualResult) error
	Insert(ctx context.Context, result *models.IndividualResult) error
	GetByID(ctx context.Context, id int64) (*models.IndividualResult, error)
	GetBySubjectAndRace(ctx context.Context, subjectID, raceID int64) (*models.IndividualResult, error)
	// ListByRace returns the full result set for a race ordered ascending by
	// final seconds, ties broken by subject id.
	ListByRace(ctx context.Context, raceID int64) ([]*models.IndividualResult, error)
	ListBySubjectsAndRace(ctx context.Context, subjectIDs []int64, raceID int64) ([]*models.IndividualResult, error)
	// CountFaster counts results in the race with a strictly smaller final time.
	CountFaster(ctx context.Context, raceID int64, final decimal.Decimal) (int, error)
	// Delete removes one result; (false, nil) when it does not exist.
	Delete(ctx context.Context, id int64) (bool, error)
	// Cascade hooks, invoked when the owning registries remove a subject or race.
	DeleteBySubject(ctx context.Context, subjectID int64) (int64, error)
	DeleteByRace(ctx context.Context, raceID int64) (int64, error)
}

// TeamResultRepository defines the interface for team aggregate data access
type TeamResultRepository interface {
	Upsert(ctx context.Context, result *models.TeamResult) error
	GetByTeamAndRace(ctx context.Context, teamID, raceID int64) (*models.TeamResult, error)
	ListByRace(ctx context.Context, raceID int64) ([]*models.TeamResult, error)
	Delete(ctx context.Context, id int64) (bool, error)
	DeleteByTeam(ctx context.Context, teamID int64) (int64, error)
	DeleteByRace(ctx context.Context, raceID int64) (int64, error)
	// ListRacePairs enumerates every (team, race) holding an aggregate row;
	// used by the reconciliation job.
	ListRacePairs(ctx context.Context) ([]models.TeamRacePair, error)
}
