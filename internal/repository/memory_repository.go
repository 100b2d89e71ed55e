package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Infuseting/SAE301-sub004/internal/models"
)

// MemoryIndividualResultRepository is an in-memory IndividualResultRepository.
// It backs the service unit tests and the standalone registry mode, and obeys
// the same (subject, race) uniqueness and ordering rules as the SQL version.
type MemoryIndividualResultRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]*models.IndividualResult
}

// NewMemoryIndividualResultRepository creates an empty in-memory repository
func NewMemoryIndividualResultRepository() *MemoryIndividualResultRepository {
	return &MemoryIndividualResultRepository{nextID: 1, rows: make(map[int64]*models.IndividualResult)}
}

// Upsert inserts or replaces the result for (subject, race)
func (r *MemoryIndividualResultRepository) Upsert(ctx context.Context, result *models.IndividualResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, existing := range r.rows {
		if existing.SubjectID == result.SubjectID && existing.RaceID == result.RaceID {
			existing.TimeSeconds = result.TimeSeconds
			existing.PenaltySeconds = result.PenaltySeconds
			existing.UpdatedAt = now
			*result = *existing
			return nil
		}
	}

	result.ID = r.nextID
	r.nextID++
	result.CreatedAt = now
	result.UpdatedAt = now
	stored := *result
	r.rows[result.ID] = &stored
	return nil
}

// Insert fails with models.ErrDuplicateResult on a (subject, race) collision
func (r *MemoryIndividualResultRepository) Insert(ctx context.Context, result *models.IndividualResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.rows {
		if existing.SubjectID == result.SubjectID && existing.RaceID == result.RaceID {
			return models.ErrDuplicateResult
		}
	}

	now := time.Now()
	result.ID = r.nextID
	r.nextID++
	result.CreatedAt = now
	result.UpdatedAt = now
	stored := *result
	r.rows[result.ID] = &stored
	return nil
}

// GetByID retrieves a single result by its row id
func (r *MemoryIndividualResultRepository) GetByID(ctx context.Context, id int64) (*models.IndividualResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, models.ErrResultNotFound
	}
	copied := *row
	return &copied, nil
}

// GetBySubjectAndRace retrieves the result one person holds for one race
func (r *MemoryIndividualResultRepository) GetBySubjectAndRace(ctx context.Context, subjectID, raceID int64) (*models.IndividualResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, row := range r.rows {
		if row.SubjectID == subjectID && row.RaceID == raceID {
			copied := *row
			return &copied, nil
		}
	}
	return nil, models.ErrResultNotFound
}

// ListByRace retrieves the full result set for a race, ranked order
func (r *MemoryIndividualResultRepository) ListByRace(ctx context.Context, raceID int64) ([]*models.IndividualResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*models.IndividualResult
	for _, row := range r.rows {
		if row.RaceID == raceID {
			copied := *row
			results = append(results, &copied)
		}
	}

	sortIndividualResults(results)
	return results, nil
}

// ListBySubjectsAndRace retrieves the results a set of subjects hold for a race
func (r *MemoryIndividualResultRepository) ListBySubjectsAndRace(ctx context.Context, subjectIDs []int64, raceID int64) ([]*models.IndividualResult, error) {
	wanted := make(map[int64]bool, len(subjectIDs))
	for _, id := range subjectIDs {
		wanted[id] = true
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*models.IndividualResult
	for _, row := range r.rows {
		if row.RaceID == raceID && wanted[row.SubjectID] {
			copied := *row
			results = append(results, &copied)
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].SubjectID < results[j].SubjectID })
	return results, nil
}

// CountFaster counts results in the race strictly faster than the given final time
func (r *MemoryIndividualResultRepository) CountFaster(ctx context.Context, raceID int64, final decimal.Decimal) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, row := range r.rows {
		if row.RaceID == raceID && row.FinalSeconds().Cmp(final) < 0 {
			count++
		}
	}
	return count, nil
}

// Delete removes one result; reports false when no row matched
func (r *MemoryIndividualResultRepository) Delete(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[id]; !ok {
		return false, nil
	}
	delete(r.rows, id)
	return true, nil
}

// DeleteBySubject removes every result a subject holds
func (r *MemoryIndividualResultRepository) DeleteBySubject(ctx context.Context, subjectID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for id, row := range r.rows {
		if row.SubjectID == subjectID {
			delete(r.rows, id)
			removed++
		}
	}
	return removed, nil
}

// DeleteByRace removes every result of a race
func (r *MemoryIndividualResultRepository) DeleteByRace(ctx context.Context, raceID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for id, row := range r.rows {
		if row.RaceID == raceID {
			delete(r.rows, id)
			removed++
		}
	}
	return removed, nil
}

func sortIndividualResults(results []*models.IndividualResult) {
	sort.Slice(results, func(i, j int) bool {
		cmp := results[i].FinalSeconds().Cmp(results[j].FinalSeconds())
		if cmp != 0 {
			return cmp < 0
		}
		return results[i].SubjectID < results[j].SubjectID
	})
}

// MemoryTeamResultRepository is an in-memory TeamResultRepository
type MemoryTeamResultRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]*models.TeamResult
}

// NewMemoryTeamResultRepository creates an empty in-memory repository
func NewMemoryTeamResultRepository() *MemoryTeamResultRepository {
	return &MemoryTeamResultRepository{nextID: 1, rows: make(map[int64]*models.TeamResult)}
}

// Upsert inserts or replaces the aggregate for (team, race)
func (r *MemoryTeamResultRepository) Upsert(ctx context.Context, result *models.TeamResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for _, existing := range r.rows {
		if existing.TeamID == result.TeamID && existing.RaceID == result.RaceID {
			existing.AvgTimeSeconds = result.AvgTimeSeconds
			existing.AvgPenaltySeconds = result.AvgPenaltySeconds
			existing.MemberCount = result.MemberCount
			existing.UpdatedAt = now
			*result = *existing
			return nil
		}
	}

	result.ID = r.nextID
	r.nextID++
	result.CreatedAt = now
	result.UpdatedAt = now
	stored := *result
	r.rows[result.ID] = &stored
	return nil
}

// GetByTeamAndRace retrieves the aggregate one team holds for one race
func (r *MemoryTeamResultRepository) GetByTeamAndRace(ctx context.Context, teamID, raceID int64) (*models.TeamResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, row := range r.rows {
		if row.TeamID == teamID && row.RaceID == raceID {
			copied := *row
			return &copied, nil
		}
	}
	return nil, models.ErrTeamResultNotFound
}

// ListByRace retrieves the full aggregate set for a race, ranked order
func (r *MemoryTeamResultRepository) ListByRace(ctx context.Context, raceID int64) ([]*models.TeamResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*models.TeamResult
	for _, row := range r.rows {
		if row.RaceID == raceID {
			copied := *row
			results = append(results, &copied)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		cmp := results[i].FinalSeconds().Cmp(results[j].FinalSeconds())
		if cmp != 0 {
			return cmp < 0
		}
		return results[i].TeamID < results[j].TeamID
	})
	return results, nil
}

// Delete removes one aggregate; reports false when no row matched
func (r *MemoryTeamResultRepository) Delete(ctx context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[id]; !ok {
		return false, nil
	}
	delete(r.rows, id)
	return true, nil
}

// DeleteByTeam removes every aggregate a team holds
func (r *MemoryTeamResultRepository) DeleteByTeam(ctx context.Context, teamID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for id, row := range r.rows {
		if row.TeamID == teamID {
			delete(r.rows, id)
			removed++
		}
	}
	return removed, nil
}

// DeleteByRace removes every aggregate of a race
func (r *MemoryTeamResultRepository) DeleteByRace(ctx context.Context, raceID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for id, row := range r.rows {
		if row.RaceID == raceID {
			delete(r.rows, id)
			removed++
		}
	}
	return removed, nil
}

// ListRacePairs enumerates every (team, race) pair holding an aggregate
func (r *MemoryTeamResultRepository) ListRacePairs(ctx context.Context) ([]models.TeamRacePair, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var pairs []models.TeamRacePair
	for _, row := range r.rows {
		pairs = append(pairs, models.TeamRacePair{TeamID: row.TeamID, RaceID: row.RaceID})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].RaceID != pairs[j].RaceID {
			return pairs[i].RaceID < pairs[j].RaceID
		}
		return pairs[i].TeamID < pairs[j].TeamID
	})
	return pairs, nil
}
