package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/enrichment-api/internal/activity"
	"github.com/sells-group/enrichment-api/internal/model"
)

const defaultActivityLimit = 200

// stepCategories maps pipeline step names to the activity category whose log
// entries time that step.
var stepCategories = map[string]activity.Category{
	model.StepCrawling:   activity.CategoryCrawl,
	model.StepChunking:   activity.CategoryChunk,
	model.StepEmbedding:  activity.CategoryEmbed,
	model.StepExtraction: activity.CategoryExtract,
}

func (s *Server) handleJobActivity(w http.ResponseWriter, r *http.Request) {
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

	limit := clampLimit(r.URL.Query().Get("limit"), defaultActivityLimit, 1000)
	logs, err := s.store.ListJobLogs(r.Context(), jobID, limit)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"job_id":   jobID,
		"activity": s.classifier.Feed(logs),
	})
}

func (s *Server) handleJobMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := chi.URLParam(r, "jobID")

	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if job == nil {
		writeNotFound(w, "job", jobID)
		return
	}

	// Full stream: step timings come from the first and last entry per
	// category, so truncation would skew them.
	logs, err := s.store.ListJobLogs(ctx, jobID, 0)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	usage, err := s.store.JobUsage(ctx, jobID)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	tiers, err := s.store.FactTierCounts(ctx, jobID)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	metrics := model.JobMetrics{
		JobID:               job.ID,
		Status:              job.Status,
		Steps:               s.stepTimings(job, logs),
		PagesCrawled:        job.PagesCrawled,
		ChunksCreated:       job.ChunksCreated,
		EmbeddingsGenerated: job.EmbeddingsGenerated,
		FactsExtracted:      job.FactsExtracted,
		FactsByTier:         tiers,
		TotalTokens:         usage.TotalTokens,
		TotalCostUSD:        usage.CostUSD,
		AvgLatencyMs:        usage.AvgLatencyMs,
		PromptCalls:         usage.PromptCalls,
	}

	writeSuccess(w, http.StatusOK, map[string]any{"metrics": metrics})
}

// stepTimings derives per-step durations from the first and last log entry
// classified into each step's category.
func (s *Server) stepTimings(job *model.Job, logs []model.JobLog) []model.StepMetrics {
	statuses := job.StepStatuses()
	steps := make([]model.StepMetrics, 0, len(model.Steps))

	for _, step := range model.Steps {
		sm := model.StepMetrics{Step: step, Status: statuses[step]}
		want := stepCategories[step]

		for i := range logs {
			if s.classifier.Classify(logs[i]) != want {
				continue
			}
			ts := logs[i].CreatedAt
			if sm.StartedAt == nil || ts.Before(*sm.StartedAt) {
				t := ts
				sm.StartedAt = &t
			}
			if sm.FinishedAt == nil || ts.After(*sm.FinishedAt) {
				t := ts
				sm.FinishedAt = &t
			}
			sm.Events++
		}
		if sm.StartedAt != nil && sm.FinishedAt != nil {
			sm.DurationMs = sm.FinishedAt.Sub(*sm.StartedAt).Milliseconds()
		}
		steps = append(steps, sm)
	}
	return steps
}

func (s *Server) handleJobDebug(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := chi.URLParam(r, "jobID")

	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if job == nil {
		writeNotFound(w, "job", jobID)
		return
	}

	logs, err := s.store.ListJobLogs(ctx, jobID, 100)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	failures, err := s.store.ListJobFailures(ctx, jobID)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	errorLogs := 0
	for _, l := range logs {
		if l.Level == model.LogLevelError {
			errorLogs++
		}
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"job":         job,
		"logs":        logs,
		"failures":    failures,
		"error_count": errorLogs,
	})
}
