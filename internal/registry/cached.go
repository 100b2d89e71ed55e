package registry

import (
	"context"
	"fmt"
	"time"

	cache "github.com/patrickmn/go-cache"
)

// CachedRegistries wraps identity and team lookups with a TTL cache. Display
// names and memberships change rarely next to how often a leaderboard page
// resolves them; race existence checks stay uncached since imports hit them
// once per file.
func CachedRegistries(inner *Registries, ttl time.Duration) *Registries {
	c := cache.New(ttl, ttl*2)
	return &Registries{
		Identity: &cachedIdentity{inner: inner.Identity, cache: c},
		Team:     &cachedTeam{inner: inner.Team, cache: c},
		Race:     inner.Race,
	}
}

type cachedIdentity struct {
	inner IdentityRegistry
	cache *cache.Cache
}

func (r *cachedIdentity) DisplayName(ctx context.Context, subjectID int64) (string, error) {
	key := fmt.Sprintf("user:name:%d", subjectID)
	if v, found := r.cache.Get(key); found {
		return v.(string), nil
	}

	name, err := r.inner.DisplayName(ctx, subjectID)
	if err != nil {
		return "", err
	}
	r.cache.SetDefault(key, name)
	return name, nil
}

func (r *cachedIdentity) IsPublic(ctx context.Context, subjectID int64) (bool, error) {
	key := fmt.Sprintf("user:public:%d", subjectID)
	if v, found := r.cache.Get(key); found {
		return v.(bool), nil
	}

	public, err := r.inner.IsPublic(ctx, subjectID)
	if err != nil {
		return false, err
	}
	r.cache.SetDefault(key, public)
	return public, nil
}

// Exists is never cached: import validation must see deletions promptly.
func (r *cachedIdentity) Exists(ctx context.Context, subjectID int64) (bool, error) {
	return r.inner.Exists(ctx, subjectID)
}

type cachedTeam struct {
	inner TeamRegistry
	cache *cache.Cache
}

func (r *cachedTeam) DisplayName(ctx context.Context, teamID int64) (string, error) {
	key := fmt.Sprintf("team:name:%d", teamID)
	if v, found := r.cache.Get(key); found {
		return v.(string), nil
	}

	name, err := r.inner.DisplayName(ctx, teamID)
	if err != nil {
		return "", err
	}
	r.cache.SetDefault(key, name)
	return name, nil
}

func (r *cachedTeam) Members(ctx context.Context, teamID int64) ([]int64, error) {
	key := fmt.Sprintf("team:members:%d", teamID)
	if v, found := r.cache.Get(key); found {
		return v.([]int64), nil
	}

	members, err := r.inner.Members(ctx, teamID)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(key, members)
	return members, nil
}

func (r *cachedTeam) TeamOf(ctx context.Context, subjectID int64) (int64, bool, error) {
	type membership struct {
		teamID int64
		ok     bool
	}

	key := fmt.Sprintf("user:team:%d", subjectID)
	if v, found := r.cache.Get(key); found {
		m := v.(membership)
		return m.teamID, m.ok, nil
	}

	teamID, ok, err := r.inner.TeamOf(ctx, subjectID)
	if err != nil {
		return 0, false, err
	}
	r.cache.SetDefault(key, membership{teamID: teamID, ok: ok})
	return teamID, ok, nil
}

func (r *cachedTeam) Exists(ctx context.Context, teamID int64) (bool, error) {
	return r.inner.Exists(ctx, teamID)
}
