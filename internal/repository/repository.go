package repository

import (
	"fmt"

	"github.com/Infuseting/SAE301-sub004/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	IndividualResult IndividualResultRepository
	TeamResult       TeamResultRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		IndividualResult: NewPostgresIndividualResultRepository(db),
		TeamResult:       NewPostgresTeamResultRepository(db),
	}, nil
}

// NewMemoryRepositories creates in-memory repositories, used by tests and
// standalone mode
func NewMemoryRepositories() *Repositories {
	return &Repositories{
		IndividualResult: NewMemoryIndividualResultRepository(),
		TeamResult:       NewMemoryTeamResultRepository(),
	}
}
