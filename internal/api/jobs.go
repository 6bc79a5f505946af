package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/enrichment-api/internal/model"
	"github.com/sells-group/enrichment-api/internal/store"
)

const (
	defaultJobLimit = 50
	maxJobLimit     = 200
)

type createJobRequest struct {
	Domain string `json:"domain"`
	LLM    string `json:"llm,omitempty"`
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be JSON with a domain field")
		return
	}

	domain, err := model.NormalizeDomain(req.Domain)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_domain", err.Error())
		return
	}

	llm := req.LLM
	if llm == "" {
		llm = s.cfg.Providers.DefaultLLM
	}

	job, err := s.store.CreateJob(r.Context(), domain, llm)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	zap.L().Info("job created",
		zap.String("job_id", job.ID),
		zap.String("domain", job.Domain),
	)
	writeSuccess(w, http.StatusCreated, map[string]any{"job": job})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.JobFilter{Limit: defaultJobLimit}

	if raw := q.Get("status"); raw != "" {
		status := model.JobStatus(raw)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "invalid_status", "unknown job status: "+raw)
			return
		}
		filter.Status = status
	}
	filter.Domain = q.Get("domain")
	filter.Limit = clampLimit(q.Get("limit"), defaultJobLimit, maxJobLimit)
	if raw := q.Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			filter.Offset = n
		}
	}

	jobs, err := s.store.ListJobs(r.Context(), filter)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if jobs == nil {
		jobs = []model.Job{}
	}
	writeSuccess(w, http.StatusOK, map[string]any{"jobs": jobs, "count": len(jobs)})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, err := s.store.GetJob(r.Context(), jobID)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if job == nil {
		writeNotFound(w, "job", jobID)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"job": job})
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	ok, err := s.store.DeleteJob(r.Context(), jobID)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if !ok {
		writeNotFound(w, "job", jobID)
		return
	}

	zap.L().Info("job deleted", zap.String("job_id", jobID))
	writeSuccess(w, http.StatusOK, map[string]any{"deleted": jobID})
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, err := s.store.GetJob(r.Context(), jobID)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if job == nil {
		writeNotFound(w, "job", jobID)
		return
	}

	ok, err := s.store.CancelJob(r.Context(), jobID)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusConflict, "not_cancellable",
			"job "+jobID+" is already "+string(job.Status))
		return
	}

	if err := s.store.AppendJobLog(r.Context(), model.JobLog{
		JobID:   jobID,
		Level:   model.LogLevelInfo,
		Message: "job cancelled by operator",
	}); err != nil {
		zap.L().Warn("api: record cancel log", zap.String("job_id", jobID), zap.Error(err))
	}

	zap.L().Info("job cancelled", zap.String("job_id", jobID))
	writeSuccess(w, http.StatusOK, map[string]any{"cancelled": jobID})
}

// clampLimit parses a limit query parameter with a default and upper cap.
func clampLimit(raw string, def, max int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
