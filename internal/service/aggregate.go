package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Infuseting/SAE301-sub004/internal/metrics"
	"github.com/Infuseting/SAE301-sub004/internal/models"
	"github.com/Infuseting/SAE301-sub004/internal/registry"
)

// RecomputeTeamAggregate rebuilds one team's average row for a race from the
// individual results of its current members. When no member has a result for
// the race, any existing aggregate is left untouched.
func (s *LeaderboardService) RecomputeTeamAggregate(ctx context.Context, teamID, raceID int64) error {
	members, err := s.regs.Team.Members(ctx, teamID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return nil
		}
		return err
	}
	if len(members) == 0 {
		return nil
	}

	results, err := s.repos.IndividualResult.ListBySubjectsAndRace(ctx, members, raceID)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return nil
	}

	sumTime := decimal.Zero
	sumPenalty := decimal.Zero
	for _, r := range results {
		sumTime = sumTime.Add(r.TimeSeconds)
		sumPenalty = sumPenalty.Add(r.PenaltySeconds)
	}

	n := decimal.NewFromInt(int64(len(results)))
	aggregate := &models.TeamResult{
		TeamID:            teamID,
		RaceID:            raceID,
		AvgTimeSeconds:    sumTime.Div(n).Round(2),
		AvgPenaltySeconds: sumPenalty.Div(n).Round(2),
		MemberCount:       len(results),
	}

	if err := s.repos.TeamResult.Upsert(ctx, aggregate); err != nil {
		return err
	}
	metrics.RecordAggregateRecompute()
	return nil
}

// ReconcileAggregates walks every stored team/race pair and recomputes its
// aggregate. The scheduler runs this nightly to repair drift left by missed
// recomputes.
func (s *LeaderboardService) ReconcileAggregates(ctx context.Context) error {
	pairs, err := s.repos.TeamResult.ListRacePairs(ctx)
	if err != nil {
		return err
	}

	failed := 0
	for _, pair := range pairs {
		if err := s.RecomputeTeamAggregate(ctx, pair.TeamID, pair.RaceID); err != nil {
			failed++
			s.log.WithError(err).WithFields(logrus.Fields{
				"team_id": pair.TeamID,
				"race_id": pair.RaceID,
			}).Warn("Failed to reconcile team aggregate")
		}
	}

	s.log.WithFields(logrus.Fields{
		"pairs":  len(pairs),
		"failed": failed,
	}).Info("Team aggregate reconciliation finished")
	return nil
}
