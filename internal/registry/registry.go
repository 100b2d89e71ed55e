// Package registry gives the leaderboard core access to the people, teams and
// races owned by the club-management application. The core only ever sees
// these narrow interfaces; it never reaches into the owning system's storage.
package registry

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a registry lookup targets an unknown id
var ErrNotFound = errors.New("registry entry not found")

// IdentityRegistry resolves people
type IdentityRegistry interface {
	DisplayName(ctx context.Context, subjectID int64) (string, error)
	IsPublic(ctx context.Context, subjectID int64) (bool, error)
	Exists(ctx context.Context, subjectID int64) (bool, error)
}

// TeamRegistry resolves teams and their membership
type TeamRegistry interface {
	DisplayName(ctx context.Context, teamID int64) (string, error)
	Members(ctx context.Context, teamID int64) ([]int64, error)
	// TeamOf resolves the team a subject belongs to; ok is false when the
	// subject has no team.
	TeamOf(ctx context.Context, subjectID int64) (teamID int64, ok bool, err error)
	Exists(ctx context.Context, teamID int64) (bool, error)
}

// RaceRegistry resolves races
type RaceRegistry interface {
	Exists(ctx context.Context, raceID int64) (bool, error)
}

// Registries bundles the three collaborators
type Registries struct {
	Identity IdentityRegistry
	Team     TeamRegistry
	Race     RaceRegistry
}
