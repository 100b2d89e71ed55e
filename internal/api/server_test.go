package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Infuseting/SAE301-sub004/internal/config"
	"github.com/Infuseting/SAE301-sub004/internal/models"
	"github.com/Infuseting/SAE301-sub004/internal/registry"
	"github.com/Infuseting/SAE301-sub004/internal/repository"
	"github.com/Infuseting/SAE301-sub004/internal/service"
)

func newTestServer(t *testing.T) (*Server, *registry.MemoryRegistries, *service.LeaderboardService) {
	t.Helper()

	repos := repository.NewMemoryRepositories()
	regs := registry.NewMemoryRegistries()

	log := logrus.New()
	log.SetOutput(io.Discard)

	svc := service.NewLeaderboardService(repos, regs.Registries(), log)
	cfg := &config.Config{}
	cfg.Server.Port = 0
	cfg.Import.MaxFileSizeBytes = 10 << 20

	return NewServer(cfg, svc, log), regs, svc
}

func seedResult(t *testing.T, svc *service.LeaderboardService, subjectID, raceID int64, time, penalty string) {
	t.Helper()
	timeDec, err := decimal.NewFromString(time)
	require.NoError(t, err)
	penaltyDec, err := decimal.NewFromString(penalty)
	require.NoError(t, err)
	_, err = svc.AddIndividualResult(context.Background(), subjectID, raceID, timeDec, penaltyDec)
	require.NoError(t, err)
}

func TestHandleLeaderboard(t *testing.T) {
	srv, regs, svc := newTestServer(t)

	regs.AddRace(42)
	regs.AddUser(1, "Alice Martin", true)
	regs.AddUser(2, "Bob Durand", true)
	seedResult(t, svc, 1, 42, "100.00", "0.00")
	seedResult(t, svc, 2, 42, "90.00", "0.00")

	t.Run("ranked listing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/races/42/leaderboard", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var page models.LeaderboardPage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		require.Len(t, page.Data, 2)
		assert.Equal(t, "Bob Durand", page.Data[0].DisplayName)
		assert.Equal(t, 1, page.Data[0].Rank)
	})

	t.Run("search keeps full-race rank", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/races/42/leaderboard?search=alice", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var page models.LeaderboardPage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		require.Len(t, page.Data, 1)
		assert.Equal(t, 2, page.Data[0].Rank)
	})

	t.Run("bad race id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/races/abc/leaderboard", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad kind", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/races/42/leaderboard?kind=bogus", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleLookupOne(t *testing.T) {
	srv, regs, svc := newTestServer(t)

	regs.AddRace(42)
	regs.AddUser(7, "Alice Martin", true)
	seedResult(t, svc, 7, 42, "3661.50", "60.00")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/races/42/results/7", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var row models.RankedRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &row))
	assert.Equal(t, 1, row.Rank)
	assert.Equal(t, "01:02:01.50", row.FinalFormatted)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/races/42/results/999", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleImport(t *testing.T) {
	srv, regs, _ := newTestServer(t)

	regs.AddRace(42)
	regs.AddUser(7, "Alice Martin", true)

	multipartBody := func(t *testing.T, csv string) (*bytes.Buffer, string) {
		t.Helper()
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		part, err := w.CreateFormFile("file", "results.csv")
		require.NoError(t, err)
		_, err = io.Copy(part, strings.NewReader(csv))
		require.NoError(t, err)
		require.NoError(t, w.Close())
		return &buf, w.FormDataContentType()
	}

	t.Run("successful import", func(t *testing.T) {
		body, contentType := multipartBody(t, "user_id;temps;malus\n7;100.00;0.00\n99;50.00;0.00\n")

		req := httptest.NewRequest(http.MethodPost, "/api/v1/races/42/import", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("X-Actor-ID", "12")
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var summary models.ImportSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
		assert.Equal(t, 1, summary.Success)
		assert.Equal(t, 2, summary.Total)
		require.Len(t, summary.Errors, 1)
	})

	t.Run("unknown race", func(t *testing.T) {
		body, contentType := multipartBody(t, "user_id;temps;malus\n7;100.00;0.00\n")

		req := httptest.NewRequest(http.MethodPost, "/api/v1/races/777/import", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Race with ID 777 not found", resp.Error)
	})

	t.Run("missing file field", func(t *testing.T) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/races/42/import", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleExport(t *testing.T) {
	srv, regs, svc := newTestServer(t)

	regs.AddRace(42)
	regs.AddUser(7, "Alice Martin", true)
	seedResult(t, svc, 7, 42, "100.00", "0.00")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/races/42/export", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=UTF-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "race-42-individual.csv")
	assert.Equal(t,
		"Rang;Nom;Temps;Malus;Temps final\n1;Alice Martin;01:40.00;00:00.00;01:40.00\n",
		rec.Body.String())
}

func TestHandleDeleteResult(t *testing.T) {
	srv, regs, svc := newTestServer(t)

	regs.AddRace(42)
	regs.AddUser(7, "Alice Martin", true)
	seedResult(t, svc, 7, 42, "100.00", "0.00")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/results/1", nil)
	req.Header.Set("X-Actor-ID", "12")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/results/1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleCascadeDeletes(t *testing.T) {
	srv, regs, svc := newTestServer(t)

	regs.AddRace(42)
	regs.AddUser(7, "Alice Martin", true)
	regs.AddUser(8, "Bob Durand", true)
	seedResult(t, svc, 7, 42, "100.00", "0.00")
	seedResult(t, svc, 8, 42, "110.00", "0.00")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/internal/subjects/7/results", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp["removed"])

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/internal/races/42/results", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp["removed"])
}
