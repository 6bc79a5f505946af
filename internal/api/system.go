package api

import (
	"net/http"
	"strconv"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "db_unreachable", "database ping failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	hours := s.cfg.Monitoring.LookbackWindowHours
	if raw := r.URL.Query().Get("hours"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 24*90 {
			writeError(w, http.StatusBadRequest, "invalid_hours", "hours must be a positive integer up to 2160")
			return
		}
		hours = n
	}
	if hours <= 0 {
		hours = 24
	}

	snap, err := s.collector.Collect(r.Context(), hours)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"metrics": snap})
}

// handleSystem reports version, provider key presence and feature flags.
// Key values never leave the process.
func (s *Server) handleSystem(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]any{
		"version": s.version,
		"providers": map[string]any{
			"anthropic":    s.cfg.Providers.AnthropicKey != "",
			"openai":       s.cfg.Providers.OpenAIKey != "",
			"vector":       s.cfg.Providers.VectorKey != "",
			"vector_index": s.cfg.Providers.VectorIndex,
			"default_llm":  s.cfg.Providers.DefaultLLM,
		},
		"features": map[string]bool{
			"fact_review":   s.cfg.Features.FactReview,
			"cost_tracking": s.cfg.Features.CostTracking,
			"failed_retry":  s.cfg.Features.FailedRetry,
		},
	})
}
