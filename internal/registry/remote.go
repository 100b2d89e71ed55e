package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

// RemoteRegistries talk to the club-management application's internal REST
// API. All three collaborator interfaces share one rate-limited client.
type RemoteRegistries struct {
	client  *RateLimitedHTTPClient
	baseURL string
	apiKey  string
	logger  *logrus.Logger
}

// NewRemoteRegistries builds the registry client backed by the remote API
func NewRemoteRegistries(client *RateLimitedHTTPClient, baseURL, apiKey string, logger *logrus.Logger) *RemoteRegistries {
	return &RemoteRegistries{
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  logger,
	}
}

// Registries exposes the three collaborator interfaces
func (r *RemoteRegistries) Registries() *Registries {
	return &Registries{
		Identity: &remoteIdentity{r},
		Team:     &remoteTeam{r},
		Race:     &remoteRace{r},
	}
}

// Check probes the remote API for readiness reporting
func (r *RemoteRegistries) Check(ctx context.Context) error {
	return r.getJSON(ctx, "/api/internal/health", nil)
}

type remoteUser struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsPublic bool   `json:"is_public"`
}

type remoteTeamPayload struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	MemberIDs []int64 `json:"member_ids"`
}

type remoteMembership struct {
	TeamID int64 `json:"team_id"`
}

// getJSON fetches path and decodes into out. ErrNotFound maps a 404.
func (r *RemoteRegistries) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build registry request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("registry request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("registry returned status %d for %s", resp.StatusCode, path)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode registry response: %w", err)
	}
	return nil
}

// exists turns an ErrNotFound into (false, nil)
func (r *RemoteRegistries) exists(ctx context.Context, path string) (bool, error) {
	err := r.getJSON(ctx, path, nil)
	if err == nil {
		return true, nil
	}
	if err == ErrNotFound {
		return false, nil
	}
	return false, err
}

type remoteIdentity struct{ *RemoteRegistries }

func (r *remoteIdentity) DisplayName(ctx context.Context, subjectID int64) (string, error) {
	var user remoteUser
	if err := r.getJSON(ctx, fmt.Sprintf("/api/internal/users/%d", subjectID), &user); err != nil {
		return "", err
	}
	return user.Name, nil
}

func (r *remoteIdentity) IsPublic(ctx context.Context, subjectID int64) (bool, error) {
	var user remoteUser
	if err := r.getJSON(ctx, fmt.Sprintf("/api/internal/users/%d", subjectID), &user); err != nil {
		return false, err
	}
	return user.IsPublic, nil
}

func (r *remoteIdentity) Exists(ctx context.Context, subjectID int64) (bool, error) {
	return r.exists(ctx, fmt.Sprintf("/api/internal/users/%d", subjectID))
}

type remoteTeam struct{ *RemoteRegistries }

func (r *remoteTeam) DisplayName(ctx context.Context, teamID int64) (string, error) {
	var team remoteTeamPayload
	if err := r.getJSON(ctx, fmt.Sprintf("/api/internal/teams/%d", teamID), &team); err != nil {
		return "", err
	}
	return team.Name, nil
}

func (r *remoteTeam) Members(ctx context.Context, teamID int64) ([]int64, error) {
	var team remoteTeamPayload
	if err := r.getJSON(ctx, fmt.Sprintf("/api/internal/teams/%d", teamID), &team); err != nil {
		return nil, err
	}
	return team.MemberIDs, nil
}

func (r *remoteTeam) TeamOf(ctx context.Context, subjectID int64) (int64, bool, error) {
	var membership remoteMembership
	err := r.getJSON(ctx, fmt.Sprintf("/api/internal/users/%d/team", subjectID), &membership)
	if err == ErrNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return membership.TeamID, true, nil
}

func (r *remoteTeam) Exists(ctx context.Context, teamID int64) (bool, error) {
	return r.exists(ctx, fmt.Sprintf("/api/internal/teams/%d", teamID))
}

type remoteRace struct{ *RemoteRegistries }

func (r *remoteRace) Exists(ctx context.Context, raceID int64) (bool, error) {
	return r.exists(ctx, fmt.Sprintf("/api/internal/races/%d", raceID))
}
