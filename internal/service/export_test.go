package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Infuseting/SAE301-sub004/internal/models"
)

func TestExportCSVIndividual(t *testing.T) {
	svc, ctx := newSeededService(t)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, 1, 42, models.KindIndividual, &buf))

	expected := "Rang;Nom;Temps;Malus;Temps final\n" +
		"1;Alice Martin;01:40.00;00:00.00;01:40.00\n" +
		"1;Bob Durand;01:35.00;00:05.00;01:40.00\n" +
		"3;Claire Petit;01:50.00;00:00.00;01:50.00\n" +
		"4;David Moreau;01:45.00;00:10.00;01:55.00\n" +
		"5;Emma Bernard;02:00.00;00:00.00;02:00.00\n"
	assert.Equal(t, expected, buf.String())
}

func TestExportCSVTeam(t *testing.T) {
	svc, regs, repos := newTestService(t)
	ctx := context.Background()

	regs.AddRace(42)
	regs.AddTeam(10, "Les Rapides")

	require.NoError(t, repos.TeamResult.Upsert(ctx, &models.TeamResult{
		TeamID: 10, RaceID: 42,
		AvgTimeSeconds: dec(t, "190.00"), AvgPenaltySeconds: dec(t, "5.00"),
		MemberCount: 4,
	}))

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, 1, 42, models.KindTeam, &buf))

	expected := "Rang;Equipe;Temps moyen;Malus moyen;Temps final;Membres\n" +
		"1;Les Rapides;03:10.00;00:05.00;03:15.00;4\n"
	assert.Equal(t, expected, buf.String())
}

func TestExportCSVEmptyRace(t *testing.T) {
	svc, regs, _ := newTestService(t)
	regs.AddRace(1)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), 1, 1, models.KindIndividual, &buf))

	assert.Equal(t, "Rang;Nom;Temps;Malus;Temps final\n", buf.String())
}

func TestExportImportRoundTrip(t *testing.T) {
	svc, regs, repos := newTestService(t)
	ctx := context.Background()

	regs.AddRace(42)
	regs.AddTeam(10, "Les Rapides")
	require.NoError(t, repos.TeamResult.Upsert(ctx, &models.TeamResult{
		TeamID: 10, RaceID: 42,
		AvgTimeSeconds: dec(t, "3661.50"), AvgPenaltySeconds: dec(t, "60.00"),
		MemberCount: 2,
	}))

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, 1, 42, models.KindTeam, &buf))

	// The exported clock notation parses back to the same stored values.
	reimport := "equ_id;temps;malus;member_count\n10;01:01:01.50;01:00.00;2\n"
	summary, err := svc.ImportTeam(ctx, 1, 42, bytes.NewReader([]byte(reimport)))
	require.NoError(t, err)
	require.Equal(t, 1, summary.Success)

	saved, err := repos.TeamResult.GetByTeamAndRace(ctx, 10, 42)
	require.NoError(t, err)
	assert.True(t, saved.AvgTimeSeconds.Equal(dec(t, "3661.50")))
	assert.True(t, saved.AvgPenaltySeconds.Equal(dec(t, "60.00")))
}
