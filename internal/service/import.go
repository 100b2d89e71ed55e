package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Infuseting/SAE301-sub004/internal/metrics"
	"github.com/Infuseting/SAE301-sub004/internal/models"
	"github.com/Infuseting/SAE301-sub004/internal/timefmt"
)

// CSV import files are semicolon separated. Header names are fixed and come
// from the upstream export format, French included.
const (
	csvSeparator = ';'

	colUserID      = "user_id"
	colTeamID      = "equ_id"
	colTime        = "temps"
	colPenalty     = "malus"
	colMemberCount = "member_count"
)

// ImportIndividual ingests a semicolon-separated CSV of individual results
// for one race. The file must carry the columns user_id, temps and malus.
// A missing race or a malformed header aborts the whole import; row-level
// problems are isolated, each bad row lands in the summary and the rest are
// persisted.
func (s *LeaderboardService) ImportIndividual(ctx context.Context, actorID, raceID int64, r io.Reader) (*models.ImportSummary, error) {
	start := time.Now()

	reader, header, err := s.openImport(ctx, raceID, r, colUserID, colTime, colPenalty)
	if err != nil {
		return nil, err
	}

	summary := &models.ImportSummary{BatchID: uuid.New()}
	for {
		record, readErr := reader.Read()
		if readErr == io.EOF {
			break
		}
		summary.Total++
		if readErr != nil {
			summary.AddRowError(summary.Total, fmt.Sprintf("malformed row: %v", readErr))
			continue
		}

		if err := s.importIndividualRow(ctx, raceID, header, record); err != nil {
			summary.AddRowError(summary.Total, err.Error())
			continue
		}
		summary.Success++
	}

	s.finishImport(actorID, raceID, string(models.KindIndividual), summary, start)
	return summary, nil
}

// ImportTeam ingests a semicolon-separated CSV of precomputed team averages
// for one race, with the columns equ_id, temps, malus and member_count.
func (s *LeaderboardService) ImportTeam(ctx context.Context, actorID, raceID int64, r io.Reader) (*models.ImportSummary, error) {
	start := time.Now()

	reader, header, err := s.openImport(ctx, raceID, r, colTeamID, colTime, colPenalty, colMemberCount)
	if err != nil {
		return nil, err
	}

	summary := &models.ImportSummary{BatchID: uuid.New()}
	for {
		record, readErr := reader.Read()
		if readErr == io.EOF {
			break
		}
		summary.Total++
		if readErr != nil {
			summary.AddRowError(summary.Total, fmt.Sprintf("malformed row: %v", readErr))
			continue
		}

		if err := s.importTeamRow(ctx, raceID, header, record); err != nil {
			summary.AddRowError(summary.Total, err.Error())
			continue
		}
		summary.Success++
	}

	s.finishImport(actorID, raceID, string(models.KindTeam), summary, start)
	return summary, nil
}

// openImport validates the race and the header before any row is touched.
// Both failure modes return an ImportError and count as a rejected import.
func (s *LeaderboardService) openImport(ctx context.Context, raceID int64, r io.Reader, required ...string) (*csv.Reader, map[string]int, error) {
	exists, err := s.regs.Race.Exists(ctx, raceID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check race: %w", err)
	}
	if !exists {
		metrics.RecordImportRejected()
		return nil, nil, models.NewImportError("Race with ID %d not found", raceID)
	}

	reader := csv.NewReader(r)
	reader.Comma = csvSeparator
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headerRecord, err := reader.Read()
	if err != nil {
		metrics.RecordImportRejected()
		return nil, nil, models.NewImportError("failed to read CSV header: %v", err)
	}

	header := make(map[string]int, len(headerRecord))
	for i, name := range headerRecord {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := header[name]; !ok {
			metrics.RecordImportRejected()
			return nil, nil, models.NewImportError("missing required column %q", name)
		}
	}
	return reader, header, nil
}

func (s *LeaderboardService) importIndividualRow(ctx context.Context, raceID int64, header map[string]int, record []string) error {
	subjectID, err := intField(record, header, colUserID)
	if err != nil {
		return err
	}

	exists, err := s.regs.Identity.Exists(ctx, subjectID)
	if err != nil {
		return fmt.Errorf("failed to check user %d: %w", subjectID, err)
	}
	if !exists {
		return fmt.Errorf("User with ID %d not found", subjectID)
	}

	timeSeconds, err := durationField(record, header, colTime)
	if err != nil {
		return err
	}
	penaltySeconds, err := durationField(record, header, colPenalty)
	if err != nil {
		return err
	}

	result := &models.IndividualResult{
		SubjectID:      subjectID,
		RaceID:         raceID,
		TimeSeconds:    timeSeconds,
		PenaltySeconds: penaltySeconds,
	}
	if err := result.Validate(); err != nil {
		return err
	}
	if err := s.repos.IndividualResult.Upsert(ctx, result); err != nil {
		return fmt.Errorf("failed to save row: %w", err)
	}

	s.refreshTeamAggregate(ctx, subjectID, raceID)
	return nil
}

func (s *LeaderboardService) importTeamRow(ctx context.Context, raceID int64, header map[string]int, record []string) error {
	teamID, err := intField(record, header, colTeamID)
	if err != nil {
		return err
	}

	exists, err := s.regs.Team.Exists(ctx, teamID)
	if err != nil {
		return fmt.Errorf("failed to check team %d: %w", teamID, err)
	}
	if !exists {
		return fmt.Errorf("Team with ID %d not found", teamID)
	}

	avgTime, err := durationField(record, header, colTime)
	if err != nil {
		return err
	}
	avgPenalty, err := durationField(record, header, colPenalty)
	if err != nil {
		return err
	}
	memberCount, err := intField(record, header, colMemberCount)
	if err != nil {
		return err
	}
	if memberCount < 1 {
		return fmt.Errorf("invalid %s %d: must be at least 1", colMemberCount, memberCount)
	}

	result := &models.TeamResult{
		TeamID:            teamID,
		RaceID:            raceID,
		AvgTimeSeconds:    avgTime,
		AvgPenaltySeconds: avgPenalty,
		MemberCount:       int(memberCount),
	}
	if err := result.Validate(); err != nil {
		return err
	}
	if err := s.repos.TeamResult.Upsert(ctx, result); err != nil {
		return fmt.Errorf("failed to save row: %w", err)
	}
	return nil
}

func (s *LeaderboardService) finishImport(actorID, raceID int64, kind string, summary *models.ImportSummary, start time.Time) {
	duration := time.Since(start)
	s.audit.LogImport(actorID, summary.BatchID, raceID, kind, summary.Success, summary.Total, len(summary.Errors))
	metrics.RecordImport(kind, summary.Success, len(summary.Errors), duration.Seconds())
	if summary.Success > 0 {
		s.notifyChanged(raceID)
	}
}

func intField(record []string, header map[string]int, name string) (int64, error) {
	raw, err := field(record, header, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

func durationField(record []string, header map[string]int, name string) (decimal.Decimal, error) {
	raw, err := field(record, header, name)
	if err != nil {
		return decimal.Zero, err
	}
	v, err := timefmt.Parse(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}

func field(record []string, header map[string]int, name string) (string, error) {
	idx := header[name]
	if idx >= len(record) {
		return "", fmt.Errorf("missing value for column %q", name)
	}
	return strings.TrimSpace(record[idx]), nil
}
