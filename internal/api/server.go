// Package api serves the match review HTTP API used by the internal review
// UI.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Bemerick/AI-SAM-Research/internal/model"
	"github.com/Bemerick/AI-SAM-Research/internal/store"
)

// Store is the store surface the API needs.
type Store interface {
	GetMatch(ctx context.Context, id string) (*model.Match, error)
	ListMatches(ctx context.Context, filter store.MatchFilter) ([]model.Match, error)
	ReviewMatch(ctx context.Context, id string, status model.MatchStatus, userNotes, reviewedBy string) (*model.Match, error)
	GetOpportunityByID(ctx context.Context, id string) (*model.Opportunity, error)
	GetGovWinOpportunity(ctx context.Context, id string) (*model.GovWinOpportunity, error)
	MatchStats(ctx context.Context) (*model.MatchStats, error)
	OpportunityStats(ctx context.Context) (*model.OpportunityStats, error)
	Ping(ctx context.Context) error
}

// Server holds the router and its dependencies.
type Server struct {
	store Store
}

// NewServer creates the review API server.
func NewServer(s Store) *Server {
	return &Server{store: s}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/matches", s.handleListMatches)
		r.Get("/matches/{id}", s.handleGetMatch)
		r.Patch("/matches/{id}", s.handleReviewMatch)
		r.Get("/stats/matches", s.handleMatchStats)
		r.Get("/stats/opportunities", s.handleOpportunityStats)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	filter := store.MatchFilter{
		Status: model.MatchStatus(r.URL.Query().Get("status")),
	}
	if filter.Status != "" && !model.ValidMatchStatus(filter.Status) {
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		filter.Offset = n
	}

	matches, err := s.store.ListMatches(r.Context(), filter)
	if err != nil {
		zap.L().Error("list matches failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list matches failed")
		return
	}
	if matches == nil {
		matches = []model.Match{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"matches": matches, "count": len(matches)})
}

// matchDetail is a match joined with both linked records for the review UI.
type matchDetail struct {
	Match  *model.Match             `json:"match"`
	SAM    *model.Opportunity       `json:"sam_opportunity,omitempty"`
	GovWin *model.GovWinOpportunity `json:"govwin_opportunity,omitempty"`
}

func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m, err := s.store.GetMatch(r.Context(), id)
	if err != nil {
		zap.L().Error("get match failed", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "get match failed")
		return
	}
	if m == nil {
		writeError(w, http.StatusNotFound, "match not found")
		return
	}

	detail := matchDetail{Match: m}
	if opp, err := s.store.GetOpportunityByID(r.Context(), m.SAMOpportunityID); err == nil {
		detail.SAM = opp
	}
	if gw, err := s.store.GetGovWinOpportunity(r.Context(), m.GovWinOpportunityID); err == nil {
		detail.GovWin = gw
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleReviewMatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Status     string `json:"status"`
		UserNotes  string `json:"user_notes"`
		ReviewedBy string `json:"reviewed_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status := model.MatchStatus(req.Status)
	if !model.ValidMatchStatus(status) {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	m, err := s.store.ReviewMatch(r.Context(), id, status, req.UserNotes, req.ReviewedBy)
	if err != nil {
		if m, getErr := s.store.GetMatch(r.Context(), id); getErr == nil && m == nil {
			writeError(w, http.StatusNotFound, "match not found")
			return
		}
		zap.L().Error("review match failed", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "review match failed")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleMatchStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.MatchStats(r.Context())
	if err != nil {
		zap.L().Error("match stats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "match stats failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleOpportunityStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.OpportunityStats(r.Context())
	if err != nil {
		zap.L().Error("opportunity stats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "opportunity stats failed")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
