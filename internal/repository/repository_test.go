package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Infuseting/SAE301-sub004/internal/database"
	"github.com/Infuseting/SAE301-sub004/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// TestMemoryUpsertIsIdempotent tests that a second upsert for the same
// (subject, race) replaces instead of duplicating
func TestMemoryUpsertIsIdempotent(t *testing.T) {
	repo := NewMemoryIndividualResultRepository()
	ctx := context.Background()

	first := &models.IndividualResult{SubjectID: 7, RaceID: 42, TimeSeconds: dec("3600"), PenaltySeconds: dec("60")}
	require.NoError(t, repo.Upsert(ctx, first))

	second := &models.IndividualResult{SubjectID: 7, RaceID: 42, TimeSeconds: dec("3500"), PenaltySeconds: dec("0")}
	require.NoError(t, repo.Upsert(ctx, second))

	assert.Equal(t, first.ID, second.ID, "upsert must replace, not create")

	all, err := repo.ListByRace(ctx, 42)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].TimeSeconds.Equal(dec("3500")))
	assert.True(t, all[0].PenaltySeconds.Equal(dec("0")))
}

// TestMemoryInsertDuplicate tests the constraint-violation defect path
func TestMemoryInsertDuplicate(t *testing.T) {
	repo := NewMemoryIndividualResultRepository()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &models.IndividualResult{SubjectID: 1, RaceID: 1, TimeSeconds: dec("10")}))
	err := repo.Insert(ctx, &models.IndividualResult{SubjectID: 1, RaceID: 1, TimeSeconds: dec("20")})
	assert.ErrorIs(t, err, models.ErrDuplicateResult)
}

// TestMemoryListByRaceOrdering tests ascending final time with id tie-break
func TestMemoryListByRaceOrdering(t *testing.T) {
	repo := NewMemoryIndividualResultRepository()
	ctx := context.Background()

	rows := []*models.IndividualResult{
		{SubjectID: 1, RaceID: 9, TimeSeconds: dec("4000")},
		{SubjectID: 2, RaceID: 9, TimeSeconds: dec("3500")},
		{SubjectID: 3, RaceID: 9, TimeSeconds: dec("3700"), PenaltySeconds: dec("100")},
		{SubjectID: 4, RaceID: 9, TimeSeconds: dec("3500")}, // tie with subject 2
		{SubjectID: 5, RaceID: 8, TimeSeconds: dec("1")},    // other race
	}
	for _, row := range rows {
		require.NoError(t, repo.Upsert(ctx, row))
	}

	ordered, err := repo.ListByRace(ctx, 9)
	require.NoError(t, err)
	require.Len(t, ordered, 4)

	gotSubjects := []int64{ordered[0].SubjectID, ordered[1].SubjectID, ordered[2].SubjectID, ordered[3].SubjectID}
	assert.Equal(t, []int64{2, 4, 3, 1}, gotSubjects)
}

// TestMemoryCountFaster tests strict comparison on final seconds
func TestMemoryCountFaster(t *testing.T) {
	repo := NewMemoryIndividualResultRepository()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.IndividualResult{SubjectID: 1, RaceID: 3, TimeSeconds: dec("100")}))
	require.NoError(t, repo.Upsert(ctx, &models.IndividualResult{SubjectID: 2, RaceID: 3, TimeSeconds: dec("200")}))
	require.NoError(t, repo.Upsert(ctx, &models.IndividualResult{SubjectID: 3, RaceID: 3, TimeSeconds: dec("200")}))

	count, err := repo.CountFaster(ctx, 3, dec("200"))
	require.NoError(t, err)
	assert.Equal(t, 1, count, "equal finals are not faster")
}

// TestMemoryDeleteSemantics tests that delete reports absence as false, not error
func TestMemoryDeleteSemantics(t *testing.T) {
	repo := NewMemoryIndividualResultRepository()
	ctx := context.Background()

	row := &models.IndividualResult{SubjectID: 1, RaceID: 1, TimeSeconds: dec("10")}
	require.NoError(t, repo.Upsert(ctx, row))

	deleted, err := repo.Delete(ctx, row.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, row.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

// TestMemoryCascadeDeletes tests subject and race removal hooks
func TestMemoryCascadeDeletes(t *testing.T) {
	repo := NewMemoryIndividualResultRepository()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &models.IndividualResult{SubjectID: 1, RaceID: 1, TimeSeconds: dec("10")}))
	require.NoError(t, repo.Upsert(ctx, &models.IndividualResult{SubjectID: 1, RaceID: 2, TimeSeconds: dec("20")}))
	require.NoError(t, repo.Upsert(ctx, &models.IndividualResult{SubjectID: 2, RaceID: 1, TimeSeconds: dec("30")}))

	removed, err := repo.DeleteBySubject(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	removed, err = repo.DeleteByRace(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	left, err := repo.ListByRace(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, left)
}

// TestMemoryTeamUpsertAndPairs tests team aggregate storage and pair listing
func TestMemoryTeamUpsertAndPairs(t *testing.T) {
	repo := NewMemoryTeamResultRepository()
	ctx := context.Background()

	first := &models.TeamResult{TeamID: 5, RaceID: 42, AvgTimeSeconds: dec("3700"), AvgPenaltySeconds: dec("90"), MemberCount: 2}
	require.NoError(t, repo.Upsert(ctx, first))

	second := &models.TeamResult{TeamID: 5, RaceID: 42, AvgTimeSeconds: dec("3600"), AvgPenaltySeconds: dec("60"), MemberCount: 3}
	require.NoError(t, repo.Upsert(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	got, err := repo.GetByTeamAndRace(ctx, 5, 42)
	require.NoError(t, err)
	assert.Equal(t, 3, got.MemberCount)
	assert.True(t, got.FinalSeconds().Equal(dec("3660")))

	require.NoError(t, repo.Upsert(ctx, &models.TeamResult{TeamID: 6, RaceID: 41, AvgTimeSeconds: dec("100"), MemberCount: 1}))

	pairs, err := repo.ListRacePairs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.TeamRacePair{{TeamID: 6, RaceID: 41}, {TeamID: 5, RaceID: 42}}, pairs)
}

// TestPostgresRoundTrip exercises the SQL repositories against a real
// database; skipped unless a test database is configured
func TestPostgresRoundTrip(t *testing.T) {
	db := database.SetupTestDB(t)
	defer database.TeardownTestDB(t, db)

	repos, err := NewRepositories(db)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	row := &models.IndividualResult{SubjectID: 7, RaceID: 42, TimeSeconds: dec("3661.50"), PenaltySeconds: dec("60.00")}
	require.NoError(t, repos.IndividualResult.Upsert(ctx, row))
	require.NotZero(t, row.ID)

	replacement := &models.IndividualResult{SubjectID: 7, RaceID: 42, TimeSeconds: dec("3600.00"), PenaltySeconds: dec("0")}
	require.NoError(t, repos.IndividualResult.Upsert(ctx, replacement))
	assert.Equal(t, row.ID, replacement.ID)

	err = repos.IndividualResult.Insert(ctx, &models.IndividualResult{SubjectID: 7, RaceID: 42, TimeSeconds: dec("1")})
	assert.ErrorIs(t, err, models.ErrDuplicateResult)

	got, err := repos.IndividualResult.GetBySubjectAndRace(ctx, 7, 42)
	require.NoError(t, err)
	assert.True(t, got.TimeSeconds.Equal(dec("3600.00")))
}
