// Package store implements the persistence layer over the enrichment
// runner's PostgreSQL schema.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrichment-api/internal/model"
	"github.com/sells-group/enrichment-api/internal/resilience"
)

// Sentinel errors surfaced to the API layer for status mapping. Wrapped
// errors remain matchable with errors.Is.
var (
	ErrNotFound       = eris.New("store: not found")
	ErrRetryExhausted = eris.New("store: retries exhausted")
)

// JobFilter specifies criteria for listing enrichment jobs.
type JobFilter struct {
	Status       model.JobStatus `json:"status,omitempty"`
	Domain       string          `json:"domain,omitempty"`
	CreatedAfter time.Time       `json:"created_after,omitempty"`
	Limit        int             `json:"limit,omitempty"`
	Offset       int             `json:"offset,omitempty"`
}

// FactFilter specifies criteria for the fact review queue.
type FactFilter struct {
	JobID         string               `json:"job_id,omitempty"`
	Approval      model.ApprovalStatus `json:"approval,omitempty"`
	FactType      string               `json:"fact_type,omitempty"`
	Tier          int                  `json:"tier,omitempty"`
	MinConfidence float64              `json:"min_confidence,omitempty"`
	Limit         int                  `json:"limit,omitempty"`
}

// UsageSummary aggregates LLM call attribution from the prompts table.
type UsageSummary struct {
	PromptCalls  int     `json:"prompt_calls"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalTokens  int     `json:"total_tokens"`
	CostUSD      float64 `json:"cost_usd"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`
}

// DashboardStats is the global metrics snapshot backing GET /api/metrics.
type DashboardStats struct {
	TotalJobs          int                     `json:"total_jobs"`
	ByStatus           map[model.JobStatus]int `json:"by_status"`
	AvgDurationSecs    float64                 `json:"avg_duration_secs"`
	FactsExtracted     int                     `json:"facts_extracted"`
	FactsPendingReview int                     `json:"facts_pending_review"`
	FailedJobDepth     int                     `json:"failed_job_depth"`
	StalledRunning     int                     `json:"stalled_running"`
	Usage              UsageSummary            `json:"usage"`
}

// Store defines the persistence interface for the dashboard.
type Store interface {
	// Jobs
	CreateJob(ctx context.Context, domain, llm string) (*model.Job, error)
	GetJob(ctx context.Context, jobID string) (*model.Job, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error)
	DeleteJob(ctx context.Context, jobID string) (bool, error)
	CancelJob(ctx context.Context, jobID string) (bool, error)

	// Job logs
	ListJobLogs(ctx context.Context, jobID string, limit int) ([]model.JobLog, error)
	AppendJobLog(ctx context.Context, entry model.JobLog) error

	// Facts
	GetFact(ctx context.Context, factID string) (*model.Fact, error)
	ListFacts(ctx context.Context, filter FactFilter) ([]model.Fact, error)
	ReviewFact(ctx context.Context, factID string, decision model.ApprovalStatus) (bool, error)
	FactTierCounts(ctx context.Context, jobID string) (map[int]int, error)
	CountFactsPendingReview(ctx context.Context) (int, error)

	// Analytics
	ListJobPrompts(ctx context.Context, jobID string) ([]model.Prompt, error)
	ListJobChunks(ctx context.Context, jobID string, limit, offset int) ([]model.Chunk, error)
	JobUsage(ctx context.Context, jobID string) (*UsageSummary, error)
	CollectStats(ctx context.Context, since time.Time, stalledAfter time.Duration) (*DashboardStats, error)

	// Failed jobs
	ListFailedJobs(ctx context.Context, filter resilience.FailedJobFilter) ([]resilience.FailedJob, error)
	GetFailedJob(ctx context.Context, id string) (*resilience.FailedJob, error)
	ListJobFailures(ctx context.Context, jobID string) ([]resilience.FailedJob, error)
	RequeueFailedJob(ctx context.Context, id string) (*model.Job, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
