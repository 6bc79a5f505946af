package model

import "time"

// Prompt records a single LLM call made by the runner: the prompt, the model
// response, and token/cost/latency attribution. Joined to facts for the
// prompts sub-resource and cost analytics.
type Prompt struct {
	ID           string    `json:"id"`
	JobID        string    `json:"job_id"`
	FactID       string    `json:"fact_id,omitempty"`
	Step         string    `json:"step"`
	Model        string    `json:"model"`
	PromptText   string    `json:"prompt_text"`
	ResponseText string    `json:"response_text,omitempty"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	CostUSD      float64   `json:"cost_usd"`
	LatencyMs    int       `json:"latency_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// TotalTokens returns input plus output tokens for the call.
func (p *Prompt) TotalTokens() int {
	return p.InputTokens + p.OutputTokens
}

// Chunk is a text segment produced by the chunking step, with a reference to
// its vector in the external embedding store.
type Chunk struct {
	ID          string    `json:"id"`
	JobID       string    `json:"job_id"`
	SourceURL   string    `json:"source_url"`
	ChunkIndex  int       `json:"chunk_index"`
	Content     string    `json:"content"`
	TokenCount  int       `json:"token_count"`
	EmbeddingID string    `json:"embedding_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// HasEmbedding reports whether the chunk has been embedded.
func (c *Chunk) HasEmbedding() bool {
	return c.EmbeddingID != ""
}

// StepMetrics holds timing derived from a job's log stream for one step.
type StepMetrics struct {
	Step       string     `json:"step"`
	Status     StepStatus `json:"status"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	DurationMs int64      `json:"duration_ms"`
	Events     int        `json:"events"`
}

// JobMetrics is the per-job metrics sub-resource payload.
type JobMetrics struct {
	JobID               string        `json:"job_id"`
	Status              JobStatus     `json:"status"`
	Steps               []StepMetrics `json:"steps"`
	PagesCrawled        int           `json:"pages_crawled"`
	ChunksCreated       int           `json:"chunks_created"`
	EmbeddingsGenerated int           `json:"embeddings_generated"`
	FactsExtracted      int           `json:"facts_extracted"`
	FactsByTier         map[int]int   `json:"facts_by_tier"`
	TotalTokens         int           `json:"total_tokens"`
	TotalCostUSD        float64       `json:"total_cost_usd"`
	AvgLatencyMs        float64       `json:"avg_latency_ms"`
	PromptCalls         int           `json:"prompt_calls"`
}
