package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Infuseting/SAE301-sub004/internal/models"
	"github.com/Infuseting/SAE301-sub004/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

func queryKind(r *http.Request) (models.ResultKind, error) {
	raw := r.URL.Query().Get("kind")
	if raw == "" {
		return models.KindIndividual, nil
	}
	kind := models.ResultKind(raw)
	if !kind.Valid() {
		return "", fmt.Errorf("invalid kind %q", raw)
	}
	return kind, nil
}

// actorID identifies the operator for the audit trail. Authentication lives
// at the gateway; by the time requests reach this service the header is
// trusted.
func actorID(r *http.Request) int64 {
	id, err := strconv.ParseInt(r.Header.Get("X-Actor-ID"), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	raceID, err := pathID(r, "raceID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	kind, err := queryKind(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	q := r.URL.Query()
	opts := service.ListOptions{
		Search:     q.Get("search"),
		Page:       1,
		PageSize:   service.DefaultPageSize,
		OnlyPublic: q.Get("public") == "true",
	}
	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			writeError(w, http.StatusBadRequest, "invalid page")
			return
		}
		opts.Page = page
	}
	if raw := q.Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 0 {
			writeError(w, http.StatusBadRequest, "invalid page_size")
			return
		}
		opts.PageSize = size
	}

	page, err := s.svc.List(r.Context(), raceID, kind, opts)
	if err != nil {
		s.logger.WithError(err).Error("Leaderboard query failed")
		writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleLookupOne(w http.ResponseWriter, r *http.Request) {
	raceID, err := pathID(r, "raceID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	subjectID, err := pathID(r, "subjectID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	row, err := s.svc.LookupOne(r.Context(), raceID, subjectID)
	if err != nil {
		if errors.Is(err, models.ErrResultNotFound) {
			writeError(w, http.StatusNotFound, "result not found")
			return
		}
		s.logger.WithError(err).Error("Result lookup failed")
		writeError(w, http.StatusInternalServerError, "failed to load result")
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	raceID, err := pathID(r, "raceID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	kind, err := queryKind(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=UTF-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="race-%d-%s.csv"`, raceID, kind))

	if err := s.svc.ExportCSV(r.Context(), actorID(r), raceID, kind, w); err != nil {
		// Headers are already out; all that remains is the log.
		s.logger.WithError(err).Error("Export failed")
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	raceID, err := pathID(r, "raceID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	kind, err := queryKind(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSizeBytes)
	if err := r.ParseMultipartForm(s.cfg.Import.MaxFileSizeBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large or malformed form")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, `missing "file" form field`)
		return
	}
	defer file.Close()

	var summary *models.ImportSummary
	switch kind {
	case models.KindTeam:
		summary, err = s.svc.ImportTeam(r.Context(), actorID(r), raceID, file)
	default:
		summary, err = s.svc.ImportIndividual(r.Context(), actorID(r), raceID, file)
	}
	if err != nil {
		var importErr *models.ImportError
		if errors.As(err, &importErr) {
			writeError(w, http.StatusUnprocessableEntity, importErr.Message)
			return
		}
		s.logger.WithError(err).Error("Import failed")
		writeError(w, http.StatusInternalServerError, "import failed")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleDeleteResult(w http.ResponseWriter, r *http.Request) {
	resultID, err := pathID(r, "resultID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	deleted, err := s.svc.DeleteResult(r.Context(), actorID(r), resultID)
	if err != nil {
		s.logger.WithError(err).Error("Result deletion failed")
		writeError(w, http.StatusInternalServerError, "failed to delete result")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "result not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteSubjectResults(w http.ResponseWriter, r *http.Request) {
	subjectID, err := pathID(r, "subjectID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	removed, err := s.svc.DeleteSubjectResults(r.Context(), subjectID)
	if err != nil {
		s.logger.WithError(err).Error("Subject cascade deletion failed")
		writeError(w, http.StatusInternalServerError, "failed to delete results")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

func (s *Server) handleDeleteTeamResults(w http.ResponseWriter, r *http.Request) {
	teamID, err := pathID(r, "teamID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	removed, err := s.svc.DeleteTeamResults(r.Context(), teamID)
	if err != nil {
		s.logger.WithError(err).Error("Team cascade deletion failed")
		writeError(w, http.StatusInternalServerError, "failed to delete results")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

func (s *Server) handleDeleteRaceResults(w http.ResponseWriter, r *http.Request) {
	raceID, err := pathID(r, "raceID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	removed, err := s.svc.DeleteRaceResults(r.Context(), raceID)
	if err != nil {
		s.logger.WithError(err).Error("Race cascade deletion failed")
		writeError(w, http.StatusInternalServerError, "failed to delete results")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	raceID, err := pathID(r, "raceID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.hub.Subscribe(w, r, raceID)
}
