package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrichment-api/internal/model"
	"github.com/sells-group/enrichment-api/internal/store"
)

// MetricsSnapshot holds a point-in-time view of enrichment health.
type MetricsSnapshot struct {
	// Job metrics within the lookback window.
	JobsTotal       int     `json:"jobs_total"`
	JobsCompleted   int     `json:"jobs_completed"`
	JobsPartial     int     `json:"jobs_partial"`
	JobsFailed      int     `json:"jobs_failed"`
	JobsRunning     int     `json:"jobs_running"`
	JobsPending     int     `json:"jobs_pending"`
	JobsCancelled   int     `json:"jobs_cancelled"`
	FailRate        float64 `json:"fail_rate"`
	AvgDurationSecs float64 `json:"avg_duration_secs"`

	// Fact metrics.
	FactsExtracted     int `json:"facts_extracted"`
	FactsPendingReview int `json:"facts_pending_review"`

	// LLM usage within the window.
	PromptCalls  int     `json:"prompt_calls"`
	TotalTokens  int     `json:"total_tokens"`
	CostUSD      float64 `json:"cost_usd"`
	AvgLatencyMs float64 `json:"avg_latency_ms"`

	// Queue health.
	FailedJobDepth int `json:"failed_job_depth"`
	StalledRunning int `json:"stalled_running"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// StatsCollector abstracts the store aggregation the collector needs.
type StatsCollector interface {
	CollectStats(ctx context.Context, since time.Time, stalledAfter time.Duration) (*store.DashboardStats, error)
}

// Collector gathers metrics snapshots from the store.
type Collector struct {
	store        StatsCollector
	stalledAfter time.Duration
}

// NewCollector creates a metrics collector. stalledAfter is how long a
// running job may go without an update before it counts as stalled.
func NewCollector(st StatsCollector, stalledAfter time.Duration) *Collector {
	if stalledAfter <= 0 {
		stalledAfter = 30 * time.Minute
	}
	return &Collector{store: st, stalledAfter: stalledAfter}
}

// Collect gathers a snapshot of enrichment metrics over the given lookback
// window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   time.Now().UTC(),
	}

	cutoff := time.Now().UTC().Add(-time.Duration(lookbackHours) * time.Hour)
	stats, err := c.store.CollectStats(ctx, cutoff, c.stalledAfter)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: collect stats")
	}

	snap.JobsTotal = stats.TotalJobs
	snap.JobsCompleted = stats.ByStatus[model.JobStatusCompleted]
	snap.JobsPartial = stats.ByStatus[model.JobStatusPartialSuccess]
	snap.JobsFailed = stats.ByStatus[model.JobStatusFailed]
	snap.JobsRunning = stats.ByStatus[model.JobStatusRunning]
	snap.JobsPending = stats.ByStatus[model.JobStatusPending]
	snap.JobsCancelled = stats.ByStatus[model.JobStatusCancelled]
	snap.AvgDurationSecs = stats.AvgDurationSecs

	// Partial successes count as finished but not failed.
	finished := snap.JobsCompleted + snap.JobsPartial + snap.JobsFailed
	if finished > 0 {
		snap.FailRate = float64(snap.JobsFailed) / float64(finished)
	}

	snap.FactsExtracted = stats.FactsExtracted
	snap.FactsPendingReview = stats.FactsPendingReview

	snap.PromptCalls = stats.Usage.PromptCalls
	snap.TotalTokens = stats.Usage.TotalTokens
	snap.CostUSD = stats.Usage.CostUSD
	snap.AvgLatencyMs = stats.Usage.AvgLatencyMs

	snap.FailedJobDepth = stats.FailedJobDepth
	snap.StalledRunning = stats.StalledRunning

	return snap, nil
}
