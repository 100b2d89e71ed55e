// Package service implements the leaderboard core: ranking queries, CSV
// import/export and team aggregate maintenance.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Infuseting/SAE301-sub004/internal/logger"
	"github.com/Infuseting/SAE301-sub004/internal/metrics"
	"github.com/Infuseting/SAE301-sub004/internal/models"
	"github.com/Infuseting/SAE301-sub004/internal/registry"
	"github.com/Infuseting/SAE301-sub004/internal/repository"
)

// ChangeListener is notified after a race's results change; the HTTP layer
// uses it to push live refresh events.
type ChangeListener interface {
	LeaderboardChanged(raceID int64)
}

// LeaderboardService owns the two result tables and everything derived from
// them. All writes to results flow through here.
type LeaderboardService struct {
	repos    *repository.Repositories
	regs     *registry.Registries
	log      *logrus.Logger
	audit    *logger.AuditLogger
	listener ChangeListener
}

// NewLeaderboardService creates the service
func NewLeaderboardService(repos *repository.Repositories, regs *registry.Registries, log *logrus.Logger) *LeaderboardService {
	return &LeaderboardService{
		repos: repos,
		regs:  regs,
		log:   log,
		audit: logger.NewAuditLogger(log),
	}
}

// SetChangeListener installs the listener for live updates
func (s *LeaderboardService) SetChangeListener(listener ChangeListener) {
	s.listener = listener
}

func (s *LeaderboardService) notifyChanged(raceID int64) {
	if s.listener != nil {
		s.listener.LeaderboardChanged(raceID)
	}
}

// AddIndividualResult records or replaces one person's result for a race and
// refreshes the owning team's aggregate. This is the direct single-result
// entry point; CSV import uses the same underlying path per row.
func (s *LeaderboardService) AddIndividualResult(ctx context.Context, subjectID, raceID int64, timeSeconds, penaltySeconds decimal.Decimal) (*models.IndividualResult, error) {
	if exists, err := s.regs.Race.Exists(ctx, raceID); err != nil {
		return nil, fmt.Errorf("failed to check race: %w", err)
	} else if !exists {
		return nil, models.NewImportError("Race with ID %d not found", raceID)
	}

	if exists, err := s.regs.Identity.Exists(ctx, subjectID); err != nil {
		return nil, fmt.Errorf("failed to check subject: %w", err)
	} else if !exists {
		return nil, models.NewValidationError("unknown_subject", fmt.Sprintf("User with ID %d not found", subjectID))
	}

	result := &models.IndividualResult{
		SubjectID:      subjectID,
		RaceID:         raceID,
		TimeSeconds:    timeSeconds,
		PenaltySeconds: penaltySeconds,
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}

	if err := s.repos.IndividualResult.Upsert(ctx, result); err != nil {
		return nil, err
	}

	s.refreshTeamAggregate(ctx, subjectID, raceID)
	s.notifyChanged(raceID)
	return result, nil
}

// DeleteResult removes one individual result. Absence is reported as false,
// not as an error.
func (s *LeaderboardService) DeleteResult(ctx context.Context, actorID, resultID int64) (bool, error) {
	result, err := s.repos.IndividualResult.GetByID(ctx, resultID)
	if err != nil {
		if errors.Is(err, models.ErrResultNotFound) {
			return false, nil
		}
		return false, err
	}

	deleted, err := s.repos.IndividualResult.Delete(ctx, resultID)
	if err != nil || !deleted {
		return deleted, err
	}

	s.audit.LogResultDeleted(actorID, resultID)
	metrics.RecordResultDeleted()
	s.refreshTeamAggregate(ctx, result.SubjectID, result.RaceID)
	s.notifyChanged(result.RaceID)
	return true, nil
}

// DeleteSubjectResults is the cascade hook for subject removal in the
// identity registry.
func (s *LeaderboardService) DeleteSubjectResults(ctx context.Context, subjectID int64) (int64, error) {
	removed, err := s.repos.IndividualResult.DeleteBySubject(ctx, subjectID)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.audit.LogCascadeDelete("subject", subjectID, removed)
	}
	return removed, nil
}

// DeleteTeamResults is the cascade hook for team dissolution in the team
// registry. Individual results are untouched; only the aggregates go.
func (s *LeaderboardService) DeleteTeamResults(ctx context.Context, teamID int64) (int64, error) {
	removed, err := s.repos.TeamResult.DeleteByTeam(ctx, teamID)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.audit.LogCascadeDelete("team", teamID, removed)
	}
	return removed, nil
}

// DeleteRaceResults is the cascade hook for race removal in the race
// registry; it clears both the individual and the team table.
func (s *LeaderboardService) DeleteRaceResults(ctx context.Context, raceID int64) (int64, error) {
	individual, err := s.repos.IndividualResult.DeleteByRace(ctx, raceID)
	if err != nil {
		return 0, err
	}
	teams, err := s.repos.TeamResult.DeleteByRace(ctx, raceID)
	if err != nil {
		return individual, err
	}

	removed := individual + teams
	if removed > 0 {
		s.audit.LogCascadeDelete("race", raceID, removed)
		s.notifyChanged(raceID)
	}
	return removed, nil
}

// refreshTeamAggregate recomputes the aggregate of the subject's team, when
// one resolves. Failures are logged, never propagated: aggregate drift is
// repairable, the triggering write is already committed.
func (s *LeaderboardService) refreshTeamAggregate(ctx context.Context, subjectID, raceID int64) {
	teamID, ok, err := s.regs.Team.TeamOf(ctx, subjectID)
	if err != nil {
		s.log.WithError(err).WithField("subject_id", subjectID).Warn("Failed to resolve team for aggregate refresh")
		return
	}
	if !ok {
		return
	}

	if err := s.RecomputeTeamAggregate(ctx, teamID, raceID); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"team_id": teamID,
			"race_id": raceID,
		}).Warn("Failed to recompute team aggregate")
	}
}
