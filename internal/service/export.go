package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/Infuseting/SAE301-sub004/internal/metrics"
	"github.com/Infuseting/SAE301-sub004/internal/models"
)

// Export column headers mirror the upstream spreadsheet layout.
var (
	individualExportHeader = []string{"Rang", "Nom", "Temps", "Malus", "Temps final"}
	teamExportHeader       = []string{"Rang", "Equipe", "Temps moyen", "Malus moyen", "Temps final", "Membres"}
)

// ExportCSV writes the full leaderboard of a race as a semicolon-separated
// CSV, ranked, unfiltered and unpaginated.
func (s *LeaderboardService) ExportCSV(ctx context.Context, actorID, raceID int64, kind models.ResultKind, w io.Writer) error {
	page, err := s.List(ctx, raceID, kind, ListOptions{})
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	writer.Comma = csvSeparator

	header := individualExportHeader
	if kind == models.KindTeam {
		header = teamExportHeader
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range page.Data {
		record := []string{
			strconv.Itoa(row.Rank),
			row.DisplayName,
			row.TimeFormatted,
			row.PenaltyFormatted,
			row.FinalFormatted,
		}
		if kind == models.KindTeam {
			record = append(record, strconv.Itoa(row.MemberCount))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	s.audit.LogExport(actorID, raceID, string(kind), len(page.Data))
	metrics.RecordExport(string(kind))
	return nil
}
