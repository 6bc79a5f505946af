package resilience

import "time"

// FailedJob represents a row in failed_jobs: an enrichment job that ended in
// failure and may be re-queued later.
type FailedJob struct {
	ID           string    `json:"id"`
	JobID        string    `json:"job_id,omitempty"`
	Domain       string    `json:"domain"`
	Error        string    `json:"error"`
	ErrorType    string    `json:"error_type"` // "transient" or "permanent"
	FailedStep   string    `json:"failed_step,omitempty"`
	RetryCount   int       `json:"retry_count"`
	MaxRetries   int       `json:"max_retries"`
	NextRetryAt  time.Time `json:"next_retry_at"`
	CreatedAt    time.Time `json:"created_at"`
	LastFailedAt time.Time `json:"last_failed_at"`
}

// FailedJobFilter specifies criteria for listing failed jobs.
type FailedJobFilter struct {
	ErrorType string `json:"error_type,omitempty"` // "transient", "permanent", or "" for all
	Domain    string `json:"domain,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// CanRetry returns true if this entry hasn't exceeded its max retry count.
func (f *FailedJob) CanRetry() bool {
	return f.RetryCount < f.MaxRetries
}
