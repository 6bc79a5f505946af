package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/enrichment-api/internal/resilience"
	"github.com/sells-group/enrichment-api/internal/store"
)

func (s *Server) handleListFailedJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := resilience.FailedJobFilter{
		Domain: q.Get("domain"),
		Limit:  clampLimit(q.Get("limit"), 100, 500),
	}

	if raw := q.Get("error_type"); raw != "" {
		if raw != resilience.ErrorTypeTransient && raw != resilience.ErrorTypePermanent {
			writeError(w, http.StatusBadRequest, "invalid_error_type",
				"error_type must be transient or permanent")
			return
		}
		filter.ErrorType = raw
	}

	entries, err := s.store.ListFailedJobs(r.Context(), filter)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if entries == nil {
		entries = []resilience.FailedJob{}
	}
	writeSuccess(w, http.StatusOK, map[string]any{"failed_jobs": entries, "count": len(entries)})
}

func (s *Server) handleRetryFailedJob(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.Features.FailedRetry {
		writeError(w, http.StatusForbidden, "feature_disabled", "failed job retry is disabled")
		return
	}

	failedID := chi.URLParam(r, "failedID")

	job, err := s.store.RequeueFailedJob(r.Context(), failedID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeNotFound(w, "failed job", failedID)
		case errors.Is(err, store.ErrRetryExhausted):
			writeError(w, http.StatusConflict, "retries_exhausted",
				"failed job "+failedID+" has no retries left")
		default:
			writeInternalError(w, r, err)
		}
		return
	}

	zap.L().Info("failed job re-queued",
		zap.String("failed_job_id", failedID),
		zap.String("new_job_id", job.ID),
		zap.String("domain", job.Domain),
	)
	writeSuccess(w, http.StatusOK, map[string]any{"job": job})
}
