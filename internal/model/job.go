package model

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// JobStatus represents the lifecycle state of an enrichment job.
type JobStatus string

const (
	JobStatusPending        JobStatus = "pending"
	JobStatusRunning        JobStatus = "running"
	JobStatusCompleted      JobStatus = "completed"
	JobStatusPartialSuccess JobStatus = "partial_success"
	JobStatusFailed         JobStatus = "failed"
	JobStatusCancelled      JobStatus = "cancelled"
)

// Valid reports whether s is a known job status.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusRunning, JobStatusCompleted,
		JobStatusPartialSuccess, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the job can no longer change state.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusPartialSuccess, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// StepStatus represents the state of one pipeline step within a job.
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusRunning   StepStatus = "running"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// Step names as recorded by the runner, in pipeline order.
const (
	StepCrawling   = "crawling"
	StepChunking   = "chunking"
	StepEmbedding  = "embedding"
	StepExtraction = "extraction"
)

// Steps lists the pipeline steps in execution order.
var Steps = []string{StepCrawling, StepChunking, StepEmbedding, StepExtraction}

// Job represents a single enrichment job tracked by the runner.
type Job struct {
	ID     string    `json:"id"`
	Domain string    `json:"domain"`
	Status JobStatus `json:"status"`

	CrawlingStatus   StepStatus `json:"crawling_status"`
	ChunkingStatus   StepStatus `json:"chunking_status"`
	EmbeddingStatus  StepStatus `json:"embedding_status"`
	ExtractionStatus StepStatus `json:"extraction_status"`

	PagesCrawled        int `json:"pages_crawled"`
	ChunksCreated       int `json:"chunks_created"`
	EmbeddingsGenerated int `json:"embeddings_generated"`
	FactsExtracted      int `json:"facts_extracted"`

	LLMUsed      string     `json:"llm_used,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// StepStatuses returns the per-step statuses keyed by step name.
func (j *Job) StepStatuses() map[string]StepStatus {
	return map[string]StepStatus{
		StepCrawling:   j.CrawlingStatus,
		StepChunking:   j.ChunkingStatus,
		StepEmbedding:  j.EmbeddingStatus,
		StepExtraction: j.ExtractionStatus,
	}
}

// Duration returns the wall-clock duration of the job, or zero when it has
// not started.
func (j *Job) Duration() time.Duration {
	if j.StartedAt == nil {
		return 0
	}
	end := j.UpdatedAt
	if j.CompletedAt != nil {
		end = *j.CompletedAt
	}
	return end.Sub(*j.StartedAt)
}

// NormalizeDomain canonicalizes a user-supplied domain: strips scheme, path,
// port and www prefix, and lowercases the host. Returns an error when the
// remainder is not a plausible registrable domain.
func NormalizeDomain(raw string) (string, error) {
	d := strings.TrimSpace(strings.ToLower(raw))
	if d == "" {
		return "", eris.New("domain is required")
	}

	for _, prefix := range []string{"https://", "http://"} {
		d = strings.TrimPrefix(d, prefix)
	}
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.Index(d, ":"); i >= 0 {
		d = d[:i]
	}
	d = strings.TrimPrefix(d, "www.")
	d = strings.TrimSuffix(d, ".")

	if d == "" || !strings.Contains(d, ".") {
		return "", eris.Errorf("invalid domain: %q", raw)
	}
	if strings.ContainsAny(d, " \t@") || strings.Contains(d, "..") {
		return "", eris.Errorf("invalid domain: %q", raw)
	}
	for _, label := range strings.Split(d, ".") {
		if label == "" || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return "", eris.Errorf("invalid domain: %q", raw)
		}
	}
	return d, nil
}
