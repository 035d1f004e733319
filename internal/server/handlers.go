package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/54b3r/librarian-go/internal/logging"
)

// maxBodyBytes caps POST /api/recommend request bodies.
const maxBodyBytes = 64 << 10

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(r, w, http.StatusOK, map[string]bool{"ok": true})
}

// handleSeed handles GET /api/seed. It populates the index on first use and
// reports the document count.
func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Seeder.SeedIfEmpty(r.Context())
	if err != nil {
		s.fail(w, r, "/api/seed", err)
		return
	}
	writeJSON(r, w, http.StatusOK, seedResponse{OK: true, Count: n})
}

// handleRecommend handles POST /api/recommend. The body must carry a string
// "query" field; an empty string is allowed. The index is seeded first so a
// fresh deployment answers its first request.
func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeDetail(r, w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeDetail(r, w, http.StatusUnprocessableEntity, "field 'query' is required")
		return
	}

	s.metrics.recommendInFlight.Inc()
	defer s.metrics.recommendInFlight.Dec()

	if _, err := s.deps.Seeder.SeedIfEmpty(r.Context()); err != nil {
		s.fail(w, r, "/api/recommend", err)
		return
	}
	res, err := s.deps.Recommender.Recommend(r.Context(), *req.Query)
	if err != nil {
		s.fail(w, r, "/api/recommend", err)
		return
	}
	writeJSON(r, w, http.StatusOK, res)
}

// handleDebug handles GET /api/debug, a quick view of the effective
// configuration and data sizes.
func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Index.Count(r.Context())
	if err != nil {
		s.fail(w, r, "/api/debug", err)
		return
	}
	writeJSON(r, w, http.StatusOK, debugResponse{
		HasKey:     s.cfg.Debug.HasKey,
		ModelsEnv:  s.cfg.Debug.ChatModel,
		EmbedModel: s.cfg.Debug.EmbedModel,
		BooksCount: s.deps.Catalog.Len(),
		DBCount:    n,
	})
}

// fail logs err and writes a 500 whose detail names the endpoint.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	logging.FromContext(r.Context()).Error("request failed", slog.String("endpoint", endpoint), slog.Any("error", err))
	writeDetail(r, w, http.StatusInternalServerError, fmt.Sprintf("%s failed: %v", endpoint, err))
}

func writeDetail(r *http.Request, w http.ResponseWriter, status int, detail string) {
	writeJSON(r, w, status, errorResponse{Detail: detail})
}

func writeJSON(r *http.Request, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("response encode error", slog.Any("error", err))
	}
}
