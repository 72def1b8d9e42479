// Package api exposes analyses over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/codegraph-hq/codegraph/internal/analyzer"
	"github.com/codegraph-hq/codegraph/internal/config"
	"github.com/codegraph-hq/codegraph/internal/db"
	"github.com/codegraph-hq/codegraph/internal/github"
)

// Server represents the API server
type Server struct {
	cfg      *config.Config
	router   *chi.Mux
	store    *db.Store
	database *db.DB
	analyzer *analyzer.Analyzer
	repos    *github.RepoService
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, database *db.DB, store *db.Store, an *analyzer.Analyzer, repos *github.RepoService) (*Server, error) {
	s := &Server{
		cfg:      cfg,
		router:   chi.NewRouter(),
		store:    store,
		database: database,
		analyzer: an,
		repos:    repos,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// Router returns the HTTP router
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.healthCheck)
	s.router.Get("/ready", s.readyCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Route("/analyses", func(r chi.Router) {
			r.Post("/", s.createAnalysis)
			r.Get("/", s.listAnalyses)
			r.Get("/{analysisID}", s.getAnalysis)
			r.Get("/{analysisID}/graph", s.getAnalysisGraph)
			r.Get("/{analysisID}/tiers", s.getAnalysisTiers)
			r.Delete("/{analysisID}", s.deleteAnalysis)
		})
	})
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyCheck(w http.ResponseWriter, r *http.Request) {
	if s.database != nil {
		if err := s.database.HealthCheck(r.Context()); err != nil {
			respondError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
