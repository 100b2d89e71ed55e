package service

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Infuseting/SAE301-sub004/internal/models"
	"github.com/Infuseting/SAE301-sub004/internal/registry"
	"github.com/Infuseting/SAE301-sub004/internal/repository"
)

func newTestService(t *testing.T) (*LeaderboardService, *registry.MemoryRegistries, *repository.Repositories) {
	t.Helper()

	repos := repository.NewMemoryRepositories()
	regs := registry.NewMemoryRegistries()

	log := logrus.New()
	log.SetOutput(io.Discard)

	return NewLeaderboardService(repos, regs.Registries(), log), regs, repos
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

// recordingListener captures change notifications for assertions.
type recordingListener struct {
	raceIDs []int64
}

func (l *recordingListener) LeaderboardChanged(raceID int64) {
	l.raceIDs = append(l.raceIDs, raceID)
}

func TestAddIndividualResult(t *testing.T) {
	svc, regs, _ := newTestService(t)
	ctx := context.Background()

	regs.AddRace(42)
	regs.AddUser(7, "Alice Martin", true)

	t.Run("persists and notifies", func(t *testing.T) {
		listener := &recordingListener{}
		svc.SetChangeListener(listener)

		result, err := svc.AddIndividualResult(ctx, 7, 42, dec(t, "3661.50"), dec(t, "60.00"))
		require.NoError(t, err)
		assert.NotZero(t, result.ID)
		assert.Equal(t, []int64{42}, listener.raceIDs)
	})

	t.Run("unknown race", func(t *testing.T) {
		_, err := svc.AddIndividualResult(ctx, 7, 999, dec(t, "100"), dec(t, "0"))
		require.Error(t, err)

		var importErr *models.ImportError
		require.ErrorAs(t, err, &importErr)
		assert.Equal(t, "Race with ID 999 not found", importErr.Message)
	})

	t.Run("unknown subject", func(t *testing.T) {
		_, err := svc.AddIndividualResult(ctx, 99999, 42, dec(t, "100"), dec(t, "0"))
		require.Error(t, err)

		var valErr *models.ValidationError
		require.ErrorAs(t, err, &valErr)
		assert.Equal(t, "unknown_subject", valErr.Code)
	})

	t.Run("negative time rejected", func(t *testing.T) {
		_, err := svc.AddIndividualResult(ctx, 7, 42, dec(t, "-1"), dec(t, "0"))
		require.Error(t, err)
	})
}

func TestDeleteResult(t *testing.T) {
	svc, regs, repos := newTestService(t)
	ctx := context.Background()

	regs.AddRace(42)
	regs.AddUser(7, "Alice Martin", true)

	result, err := svc.AddIndividualResult(ctx, 7, 42, dec(t, "100.00"), dec(t, "0"))
	require.NoError(t, err)

	deleted, err := svc.DeleteResult(ctx, 1, result.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = repos.IndividualResult.GetByID(ctx, result.ID)
	assert.ErrorIs(t, err, models.ErrResultNotFound)

	deleted, err = svc.DeleteResult(ctx, 1, result.ID)
	require.NoError(t, err)
	assert.False(t, deleted, "second delete reports absence without error")
}

func TestDeleteResultRefreshesTeamAggregate(t *testing.T) {
	svc, regs, repos := newTestService(t)
	ctx := context.Background()

	regs.AddRace(42)
	regs.AddUser(1, "Alice", true)
	regs.AddUser(2, "Bob", true)
	regs.AddTeam(10, "Les Rapides", 1, 2)

	_, err := svc.AddIndividualResult(ctx, 1, 42, dec(t, "100.00"), dec(t, "0"))
	require.NoError(t, err)
	second, err := svc.AddIndividualResult(ctx, 2, 42, dec(t, "200.00"), dec(t, "0"))
	require.NoError(t, err)

	aggregate, err := repos.TeamResult.GetByTeamAndRace(ctx, 10, 42)
	require.NoError(t, err)
	assert.True(t, aggregate.AvgTimeSeconds.Equal(dec(t, "150.00")))
	assert.Equal(t, 2, aggregate.MemberCount)

	deleted, err := svc.DeleteResult(ctx, 1, second.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	aggregate, err = repos.TeamResult.GetByTeamAndRace(ctx, 10, 42)
	require.NoError(t, err)
	assert.True(t, aggregate.AvgTimeSeconds.Equal(dec(t, "100.00")))
	assert.Equal(t, 1, aggregate.MemberCount)
}

func TestCascadeDeletes(t *testing.T) {
	svc, regs, repos := newTestService(t)
	ctx := context.Background()

	regs.AddRace(1)
	regs.AddRace(2)
	regs.AddUser(7, "Alice", true)
	regs.AddUser(8, "Bob", true)

	for _, raceID := range []int64{1, 2} {
		_, err := svc.AddIndividualResult(ctx, 7, raceID, dec(t, "100"), dec(t, "0"))
		require.NoError(t, err)
		_, err = svc.AddIndividualResult(ctx, 8, raceID, dec(t, "110"), dec(t, "0"))
		require.NoError(t, err)
	}

	t.Run("subject cascade", func(t *testing.T) {
		removed, err := svc.DeleteSubjectResults(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(2), removed)

		_, err = repos.IndividualResult.GetBySubjectAndRace(ctx, 7, 1)
		assert.ErrorIs(t, err, models.ErrResultNotFound)
	})

	t.Run("team cascade", func(t *testing.T) {
		require.NoError(t, repos.TeamResult.Upsert(ctx, &models.TeamResult{
			TeamID: 10, RaceID: 1,
			AvgTimeSeconds: dec(t, "100.00"), AvgPenaltySeconds: dec(t, "0.00"),
			MemberCount: 2,
		}))

		removed, err := svc.DeleteTeamResults(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		_, err = repos.TeamResult.GetByTeamAndRace(ctx, 10, 1)
		assert.ErrorIs(t, err, models.ErrTeamResultNotFound)
	})

	t.Run("race cascade", func(t *testing.T) {
		removed, err := svc.DeleteRaceResults(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)

		remaining, err := repos.IndividualResult.ListByRace(ctx, 2)
		require.NoError(t, err)
		assert.Empty(t, remaining)
	})
}
