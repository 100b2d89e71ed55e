package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Infuseting/SAE301-sub004/internal/metrics"
	"github.com/Infuseting/SAE301-sub004/internal/models"
	"github.com/Infuseting/SAE301-sub004/internal/registry"
	"github.com/Infuseting/SAE301-sub004/internal/timefmt"
)

// DefaultPageSize is applied by the HTTP layer when the client does not ask
// for a specific page size.
const DefaultPageSize = 20

// ListOptions narrows a leaderboard listing. A zero PageSize disables
// pagination entirely.
type ListOptions struct {
	Search     string
	Page       int
	PageSize   int
	OnlyPublic bool
}

// List returns the ranked leaderboard of one race. Ranks are assigned over
// the full result set of the race before any search filter or pagination is
// applied, so a filtered view keeps each row's true position.
func (s *LeaderboardService) List(ctx context.Context, raceID int64, kind models.ResultKind, opts ListOptions) (*models.LeaderboardPage, error) {
	start := time.Now()
	defer func() {
		metrics.RecordQueryDuration(time.Since(start).Seconds())
	}()

	var (
		rows []models.RankedRow
		err  error
	)
	switch kind {
	case models.KindIndividual:
		rows, err = s.rankIndividual(ctx, raceID)
	case models.KindTeam:
		rows, err = s.rankTeam(ctx, raceID)
	default:
		return nil, models.ErrUnknownKind
	}
	if err != nil {
		return nil, err
	}

	filtered := filterRows(rows, opts)
	return paginate(filtered, opts), nil
}

// LookupOne returns a single subject's ranked row for a race without loading
// the whole leaderboard. The rank is one plus the number of strictly faster
// final times, which matches the rank List would assign.
func (s *LeaderboardService) LookupOne(ctx context.Context, raceID, subjectID int64) (*models.RankedRow, error) {
	result, err := s.repos.IndividualResult.GetBySubjectAndRace(ctx, subjectID, raceID)
	if err != nil {
		return nil, err
	}

	faster, err := s.repos.IndividualResult.CountFaster(ctx, raceID, result.FinalSeconds())
	if err != nil {
		return nil, err
	}

	name, public, err := s.resolveIdentity(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	row := individualRow(faster+1, result, name)
	row.Public = public
	return &row, nil
}

func (s *LeaderboardService) rankIndividual(ctx context.Context, raceID int64) ([]models.RankedRow, error) {
	results, err := s.repos.IndividualResult.ListByRace(ctx, raceID)
	if err != nil {
		return nil, err
	}

	rows := make([]models.RankedRow, 0, len(results))
	rank := 0
	var prev decimal.Decimal
	for i, r := range results {
		final := r.FinalSeconds()
		if i == 0 || !final.Equal(prev) {
			rank = i + 1
			prev = final
		}

		name, public, err := s.resolveIdentity(ctx, r.SubjectID)
		if err != nil {
			return nil, err
		}

		row := individualRow(rank, r, name)
		row.Public = public
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *LeaderboardService) rankTeam(ctx context.Context, raceID int64) ([]models.RankedRow, error) {
	results, err := s.repos.TeamResult.ListByRace(ctx, raceID)
	if err != nil {
		return nil, err
	}

	rows := make([]models.RankedRow, 0, len(results))
	rank := 0
	var prev decimal.Decimal
	for i, r := range results {
		final := r.FinalSeconds()
		if i == 0 || !final.Equal(prev) {
			rank = i + 1
			prev = final
		}

		name, err := s.regs.Team.DisplayName(ctx, r.TeamID)
		if err != nil {
			if errors.Is(err, registry.ErrNotFound) {
				name = fmt.Sprintf("Team #%d", r.TeamID)
			} else {
				return nil, fmt.Errorf("failed to resolve team %d: %w", r.TeamID, err)
			}
		}

		rows = append(rows, teamRow(rank, r, name))
	}
	return rows, nil
}

// resolveIdentity tolerates registry gaps: a result whose subject vanished
// between cascade deletes still renders, under a placeholder name.
func (s *LeaderboardService) resolveIdentity(ctx context.Context, subjectID int64) (string, bool, error) {
	name, err := s.regs.Identity.DisplayName(ctx, subjectID)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return fmt.Sprintf("User #%d", subjectID), false, nil
		}
		return "", false, fmt.Errorf("failed to resolve subject %d: %w", subjectID, err)
	}

	public, err := s.regs.Identity.IsPublic(ctx, subjectID)
	if err != nil && !errors.Is(err, registry.ErrNotFound) {
		return "", false, fmt.Errorf("failed to resolve subject %d visibility: %w", subjectID, err)
	}
	return name, public, nil
}

func individualRow(rank int, r *models.IndividualResult, name string) models.RankedRow {
	final := r.FinalSeconds()
	return models.RankedRow{
		Rank:             rank,
		Kind:             models.KindIndividual,
		ResultID:         r.ID,
		SubjectID:        r.SubjectID,
		DisplayName:      name,
		TimeSeconds:      r.TimeSeconds,
		PenaltySeconds:   r.PenaltySeconds,
		FinalSeconds:     final,
		TimeFormatted:    timefmt.Format(r.TimeSeconds),
		PenaltyFormatted: timefmt.FormatPenalty(r.PenaltySeconds),
		FinalFormatted:   timefmt.Format(final),
	}
}

func teamRow(rank int, r *models.TeamResult, name string) models.RankedRow {
	final := r.FinalSeconds()
	return models.RankedRow{
		Rank:             rank,
		Kind:             models.KindTeam,
		ResultID:         r.ID,
		SubjectID:        r.TeamID,
		DisplayName:      name,
		MemberCount:      r.MemberCount,
		TimeSeconds:      r.AvgTimeSeconds,
		PenaltySeconds:   r.AvgPenaltySeconds,
		FinalSeconds:     final,
		TimeFormatted:    timefmt.Format(r.AvgTimeSeconds),
		PenaltyFormatted: timefmt.FormatPenalty(r.AvgPenaltySeconds),
		FinalFormatted:   timefmt.Format(final),
	}
}

func filterRows(rows []models.RankedRow, opts ListOptions) []models.RankedRow {
	if opts.Search == "" && !opts.OnlyPublic {
		return rows
	}

	needle := strings.ToLower(opts.Search)
	filtered := make([]models.RankedRow, 0, len(rows))
	for _, row := range rows {
		if opts.OnlyPublic && row.Kind == models.KindIndividual && !row.Public {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(row.DisplayName), needle) {
			continue
		}
		filtered = append(filtered, row)
	}
	return filtered
}

func paginate(rows []models.RankedRow, opts ListOptions) *models.LeaderboardPage {
	total := len(rows)
	if opts.PageSize <= 0 {
		return &models.LeaderboardPage{Data: rows, Total: total, Page: 1, PageSize: total}
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}

	offset := (page - 1) * opts.PageSize
	if offset >= total {
		return &models.LeaderboardPage{Data: []models.RankedRow{}, Total: total, Page: page, PageSize: opts.PageSize}
	}

	end := offset + opts.PageSize
	if end > total {
		end = total
	}
	return &models.LeaderboardPage{Data: rows[offset:end], Total: total, Page: page, PageSize: opts.PageSize}
}
