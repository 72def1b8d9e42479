package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/codegraph-hq/codegraph/internal/analyzer"
	"github.com/codegraph-hq/codegraph/internal/config"
	"github.com/codegraph-hq/codegraph/internal/db"
	"github.com/codegraph-hq/codegraph/internal/github"
	"github.com/codegraph-hq/codegraph/internal/graph"
)

// CreateAnalysisRequest is the request body for starting an analysis. Either
// a local path or a repository URL must be set.
type CreateAnalysisRequest struct {
	Path                string `json:"path,omitempty"`
	RepositoryURL       string `json:"repository_url,omitempty"`
	IncludeDependencies bool   `json:"include_dependencies,omitempty"`
	MaxDepth            int    `json:"max_depth,omitempty"`
}

// createAnalysis starts an analysis. The run itself happens in the
// background; the response carries the pending record whose status the
// client polls.
func (s *Server) createAnalysis(w http.ResponseWriter, r *http.Request) {
	var req CreateAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" && req.RepositoryURL == "" {
		respondError(w, http.StatusBadRequest, "path or repository_url is required")
		return
	}

	source := req.Path
	var repoURL *string
	if req.RepositoryURL != "" {
		if _, err := github.ParseRepoURL(req.RepositoryURL); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		source = req.RepositoryURL
		repoURL = &req.RepositoryURL
	}

	record := &db.Analysis{Source: source, RepoURL: repoURL}
	if err := s.store.CreateAnalysis(r.Context(), record); err != nil {
		log.Error().Err(err).Msg("failed to create analysis")
		respondError(w, http.StatusInternalServerError, "failed to create analysis")
		return
	}

	go s.runAnalysis(record.ID, req)

	respondJSON(w, http.StatusCreated, record)
}

// runAnalysis executes the pipeline for one analysis record, cloning first
// when the source is a repository URL
func (s *Server) runAnalysis(id uuid.UUID, req CreateAnalysisRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	if err := s.store.UpdateAnalysisStatus(ctx, id, db.StatusRunning, nil, nil); err != nil {
		log.Error().Err(err).Str("analysis_id", id.String()).Msg("failed to mark analysis running")
	}

	root := req.Path
	if req.RepositoryURL != "" {
		info, err := github.ParseRepoURL(req.RepositoryURL)
		if err != nil {
			s.failAnalysis(ctx, id, err)
			return
		}
		cloned, err := s.repos.Clone(ctx, info)
		if err != nil {
			s.failAnalysis(ctx, id, err)
			return
		}
		defer s.repos.Cleanup(cloned.Path)
		root = cloned.Path
		if err := s.store.SetCommitSHA(ctx, id, cloned.CommitSHA); err != nil {
			log.Warn().Err(err).Str("analysis_id", id.String()).Msg("failed to record commit sha")
		}
	}

	opts := analyzer.Options{
		Root:                root,
		IncludeDependencies: req.IncludeDependencies,
		MaxDepth:            req.MaxDepth,
		UseGitignore:        true,
	}
	if project, err := config.LoadProjectConfig(root); err == nil {
		opts.SourceRoot = project.SourceRoot
		opts.ExcludePatterns = project.Exclude
		opts.SkipClassifier = project.Classifier.Disabled
	}

	result, err := s.analyzer.Run(ctx, opts)
	if err != nil {
		s.failAnalysis(ctx, id, err)
		return
	}

	if err := s.store.SaveGraph(ctx, id, result.Graph); err != nil {
		s.failAnalysis(ctx, id, err)
		return
	}
	if err := s.store.SaveTiers(ctx, id, result.Tiers); err != nil {
		s.failAnalysis(ctx, id, err)
		return
	}

	summary, err := json.Marshal(result.Summary)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal summary")
	}
	if err := s.store.UpdateAnalysisStatus(ctx, id, db.StatusCompleted, nil, summary); err != nil {
		log.Error().Err(err).Str("analysis_id", id.String()).Msg("failed to mark analysis completed")
	}
}

func (s *Server) failAnalysis(ctx context.Context, id uuid.UUID, cause error) {
	status := db.StatusFailed
	msg := cause.Error()
	if errors.Is(cause, analyzer.ErrNoSupportedFiles) {
		log.Info().Str("analysis_id", id.String()).Msg("analysis found no supported files")
	} else {
		log.Error().Err(cause).Str("analysis_id", id.String()).Msg("analysis failed")
	}
	if err := s.store.UpdateAnalysisStatus(ctx, id, status, &msg, nil); err != nil {
		log.Error().Err(err).Str("analysis_id", id.String()).Msg("failed to mark analysis failed")
	}
}

func (s *Server) listAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	analyses, err := s.store.ListAnalyses(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to list analyses")
		respondError(w, http.StatusInternalServerError, "failed to list analyses")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"analyses": analyses})
}

func (s *Server) getAnalysis(w http.ResponseWriter, r *http.Request) {
	id, ok := parseAnalysisID(w, r)
	if !ok {
		return
	}
	record, err := s.store.GetAnalysis(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Msg("failed to get analysis")
		respondError(w, http.StatusInternalServerError, "failed to get analysis")
		return
	}
	if record == nil {
		respondError(w, http.StatusNotFound, "analysis not found")
		return
	}
	respondJSON(w, http.StatusOK, record)
}

// getAnalysisGraph returns the positioned graph, the rendering contract
func (s *Server) getAnalysisGraph(w http.ResponseWriter, r *http.Request) {
	id, ok := parseAnalysisID(w, r)
	if !ok {
		return
	}
	g, err := s.store.GetGraph(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Msg("failed to get graph")
		respondError(w, http.StatusInternalServerError, "failed to get graph")
		return
	}
	if len(g.Nodes) == 0 {
		respondError(w, http.StatusNotFound, "graph not found")
		return
	}
	respondJSON(w, http.StatusOK, graph.Export(g))
}

func (s *Server) getAnalysisTiers(w http.ResponseWriter, r *http.Request) {
	id, ok := parseAnalysisID(w, r)
	if !ok {
		return
	}
	items, err := s.store.GetTiers(r.Context(), id)
	if err != nil {
		log.Error().Err(err).Msg("failed to get tiers")
		respondError(w, http.StatusInternalServerError, "failed to get tiers")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"tiers": items})
}

func (s *Server) deleteAnalysis(w http.ResponseWriter, r *http.Request) {
	id, ok := parseAnalysisID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteAnalysis(r.Context(), id); err != nil {
		log.Error().Err(err).Msg("failed to delete analysis")
		respondError(w, http.StatusInternalServerError, "failed to delete analysis")
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func parseAnalysisID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "analysisID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid analysis id")
		return uuid.Nil, false
	}
	return id, true
}
