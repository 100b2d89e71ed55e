package registry

import (
	"context"
	"sync"
)

// MemoryRegistries is an in-process implementation used by tests and by
// standalone mode. Seed it with AddUser/AddTeam/AddRace.
type MemoryRegistries struct {
	mu     sync.RWMutex
	users  map[int64]memoryUser
	teams  map[int64]memoryTeam
	races  map[int64]bool
	teamOf map[int64]int64
}

type memoryUser struct {
	name   string
	public bool
}

type memoryTeam struct {
	name    string
	members []int64
}

// NewMemoryRegistries creates empty in-memory registries
func NewMemoryRegistries() *MemoryRegistries {
	return &MemoryRegistries{
		users:  make(map[int64]memoryUser),
		teams:  make(map[int64]memoryTeam),
		races:  make(map[int64]bool),
		teamOf: make(map[int64]int64),
	}
}

// Registries exposes the memory store through the collaborator interfaces
func (m *MemoryRegistries) Registries() *Registries {
	return &Registries{
		Identity: &memoryIdentity{m},
		Team:     &memoryTeamRegistry{m},
		Race:     &memoryRace{m},
	}
}

// AddUser registers a person
func (m *MemoryRegistries) AddUser(id int64, name string, public bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = memoryUser{name: name, public: public}
}

// AddTeam registers a team and its members
func (m *MemoryRegistries) AddTeam(id int64, name string, members ...int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teams[id] = memoryTeam{name: name, members: members}
	for _, member := range members {
		m.teamOf[member] = id
	}
}

// AddRace registers a race
func (m *MemoryRegistries) AddRace(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.races[id] = true
}

type memoryIdentity struct{ m *MemoryRegistries }

func (r *memoryIdentity) DisplayName(ctx context.Context, subjectID int64) (string, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	user, ok := r.m.users[subjectID]
	if !ok {
		return "", ErrNotFound
	}
	return user.name, nil
}

func (r *memoryIdentity) IsPublic(ctx context.Context, subjectID int64) (bool, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	user, ok := r.m.users[subjectID]
	if !ok {
		return false, ErrNotFound
	}
	return user.public, nil
}

func (r *memoryIdentity) Exists(ctx context.Context, subjectID int64) (bool, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	_, ok := r.m.users[subjectID]
	return ok, nil
}

type memoryTeamRegistry struct{ m *MemoryRegistries }

func (r *memoryTeamRegistry) DisplayName(ctx context.Context, teamID int64) (string, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	team, ok := r.m.teams[teamID]
	if !ok {
		return "", ErrNotFound
	}
	return team.name, nil
}

func (r *memoryTeamRegistry) Members(ctx context.Context, teamID int64) ([]int64, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	team, ok := r.m.teams[teamID]
	if !ok {
		return nil, ErrNotFound
	}
	members := make([]int64, len(team.members))
	copy(members, team.members)
	return members, nil
}

func (r *memoryTeamRegistry) TeamOf(ctx context.Context, subjectID int64) (int64, bool, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	teamID, ok := r.m.teamOf[subjectID]
	return teamID, ok, nil
}

func (r *memoryTeamRegistry) Exists(ctx context.Context, teamID int64) (bool, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	_, ok := r.m.teams[teamID]
	return ok, nil
}

type memoryRace struct{ m *MemoryRegistries }

func (r *memoryRace) Exists(ctx context.Context, raceID int64) (bool, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return r.m.races[raceID], nil
}
