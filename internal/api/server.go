// Package api exposes the leaderboard over HTTP: ranked listings, CSV
// import/export, result deletion, cascade hooks for the registry, and a
// websocket feed of live changes.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Infuseting/SAE301-sub004/internal/config"
	"github.com/Infuseting/SAE301-sub004/internal/service"
)

// Server is the public HTTP server of the leaderboard service.
type Server struct {
	svc    *service.LeaderboardService
	hub    *LiveHub
	logger *logrus.Logger
	cfg    *config.Config
	server *http.Server
}

// NewServer wires the handlers and the live hub. The hub is installed as the
// service's change listener so writes fan out to websocket subscribers.
func NewServer(cfg *config.Config, svc *service.LeaderboardService, logger *logrus.Logger) *Server {
	s := &Server{
		svc:    svc,
		hub:    NewLiveHub(logger),
		logger: logger,
		cfg:    cfg,
	}
	svc.SetChangeListener(s.hub)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/races/{raceID}/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("GET /api/v1/races/{raceID}/results/{subjectID}", s.handleLookupOne)
	mux.HandleFunc("GET /api/v1/races/{raceID}/export", s.handleExport)
	mux.HandleFunc("POST /api/v1/races/{raceID}/import", s.handleImport)
	mux.HandleFunc("GET /api/v1/races/{raceID}/live", s.handleLive)
	mux.HandleFunc("DELETE /api/v1/results/{resultID}", s.handleDeleteResult)
	mux.HandleFunc("DELETE /api/internal/subjects/{subjectID}/results", s.handleDeleteSubjectResults)
	mux.HandleFunc("DELETE /api/internal/teams/{teamID}/results", s.handleDeleteTeamResults)
	mux.HandleFunc("DELETE /api/internal/races/{raceID}/results", s.handleDeleteRaceResults)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.logRequests(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.server.Addr).Info("API server starting")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and closes the live hub.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("API server shutting down")
	s.hub.Close()
	return s.server.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Debug("Request handled")
	})
}
