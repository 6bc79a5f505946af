package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrichment-api/internal/model"
)

// ListJobPrompts returns a job's LLM call records, newest first.
func (s *PostgresStore) ListJobPrompts(ctx context.Context, jobID string) ([]model.Prompt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, job_id, fact_id, step, model, prompt_text, response_text,
		        input_tokens, output_tokens, cost_usd, latency_ms, created_at
		 FROM prompts WHERE job_id = $1
		 ORDER BY created_at DESC`,
		jobID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list prompts for job %s", jobID)
	}
	defer rows.Close()

	var prompts []model.Prompt
	for rows.Next() {
		var p model.Prompt
		var factID, responseText *string
		if err := rows.Scan(&p.ID, &p.JobID, &factID, &p.Step, &p.Model,
			&p.PromptText, &responseText,
			&p.InputTokens, &p.OutputTokens, &p.CostUSD, &p.LatencyMs, &p.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan prompt")
		}
		if factID != nil {
			p.FactID = *factID
		}
		if responseText != nil {
			p.ResponseText = *responseText
		}
		prompts = append(prompts, p)
	}
	return prompts, eris.Wrap(rows.Err(), "postgres: list prompts iterate")
}

// ListJobChunks returns a page of a job's chunks in chunk order.
func (s *PostgresStore) ListJobChunks(ctx context.Context, jobID string, limit, offset int) ([]model.Chunk, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, job_id, source_url, chunk_index, content, token_count, embedding_id, created_at
		 FROM chunks WHERE job_id = $1
		 ORDER BY source_url ASC, chunk_index ASC
		 LIMIT $2 OFFSET $3`,
		jobID, limit, offset,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list chunks for job %s", jobID)
	}
	defer rows.Close()

	var chunks []model.Chunk
	for rows.Next() {
		var c model.Chunk
		var embeddingID *string
		if err := rows.Scan(&c.ID, &c.JobID, &c.SourceURL, &c.ChunkIndex,
			&c.Content, &c.TokenCount, &embeddingID, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan chunk")
		}
		if embeddingID != nil {
			c.EmbeddingID = *embeddingID
		}
		chunks = append(chunks, c)
	}
	return chunks, eris.Wrap(rows.Err(), "postgres: list chunks iterate")
}

// JobUsage aggregates token, cost and latency attribution for one job.
func (s *PostgresStore) JobUsage(ctx context.Context, jobID string) (*UsageSummary, error) {
	var u UsageSummary
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(input_tokens), 0),
		        COALESCE(SUM(output_tokens), 0),
		        COALESCE(SUM(cost_usd), 0),
		        COALESCE(AVG(latency_ms), 0)
		 FROM prompts WHERE job_id = $1`,
		jobID,
	).Scan(&u.PromptCalls, &u.InputTokens, &u.OutputTokens, &u.CostUSD, &u.AvgLatencyMs)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: usage for job %s", jobID)
	}
	u.TotalTokens = u.InputTokens + u.OutputTokens
	return &u, nil
}

// CollectStats builds the global dashboard snapshot: job counts by status,
// average completed-job duration, fact and failed-job depths, and LLM usage
// within the window starting at since.
func (s *PostgresStore) CollectStats(ctx context.Context, since time.Time, stalledAfter time.Duration) (*DashboardStats, error) {
	stats := &DashboardStats{ByStatus: make(map[model.JobStatus]int)}

	rows, err := s.pool.Query(ctx,
		`SELECT status, COUNT(*),
		        COALESCE(AVG(EXTRACT(EPOCH FROM (completed_at - started_at))) FILTER (WHERE completed_at IS NOT NULL AND started_at IS NOT NULL), 0)
		 FROM enrichment_jobs WHERE created_at >= $1
		 GROUP BY status`,
		since,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats by status")
	}
	defer rows.Close()

	var weightedDur float64
	var finished int
	for rows.Next() {
		var status model.JobStatus
		var n int
		var avgDur float64
		if err := rows.Scan(&status, &n, &avgDur); err != nil {
			return nil, eris.Wrap(err, "postgres: scan status count")
		}
		stats.ByStatus[status] = n
		stats.TotalJobs += n
		if status.Terminal() && status != model.JobStatusCancelled {
			weightedDur += avgDur * float64(n)
			finished += n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: stats iterate")
	}
	if finished > 0 {
		stats.AvgDurationSecs = weightedDur / float64(finished)
	}

	err = s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(facts_extracted), 0) FROM enrichment_jobs WHERE created_at >= $1`,
		since,
	).Scan(&stats.FactsExtracted)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats facts extracted")
	}

	pending, err := s.CountFactsPendingReview(ctx)
	if err != nil {
		return nil, err
	}
	stats.FactsPendingReview = pending

	err = s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM failed_jobs`).Scan(&stats.FailedJobDepth)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats failed depth")
	}

	err = s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM enrichment_jobs
		 WHERE status = 'running' AND updated_at < now() - make_interval(mins => $1)`,
		int(stalledAfter.Minutes()),
	).Scan(&stats.StalledRunning)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats stalled")
	}

	err = s.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(input_tokens), 0),
		        COALESCE(SUM(output_tokens), 0),
		        COALESCE(SUM(cost_usd), 0),
		        COALESCE(AVG(latency_ms), 0)
		 FROM prompts WHERE created_at >= $1`,
		since,
	).Scan(&stats.Usage.PromptCalls, &stats.Usage.InputTokens, &stats.Usage.OutputTokens,
		&stats.Usage.CostUSD, &stats.Usage.AvgLatencyMs)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats usage")
	}
	stats.Usage.TotalTokens = stats.Usage.InputTokens + stats.Usage.OutputTokens

	return stats, nil
}
