package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/enrichment-api/internal/config"
	"github.com/sells-group/enrichment-api/internal/db"
	"github.com/sells-group/enrichment-api/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_job": `SELECT id, domain, status, crawling_status, chunking_status, embedding_status, extraction_status,
		pages_crawled, chunks_created, embeddings_generated, facts_extracted,
		llm_used, error_message, created_at, started_at, completed_at, updated_at
		FROM enrichment_jobs WHERE id = $1`,
	"insert_job": `INSERT INTO enrichment_jobs (id, domain, status, llm_used, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
	"list_job_logs": `SELECT id, job_id, level, message, details, created_at
		FROM job_logs WHERE job_id = $1 ORDER BY created_at ASC, id ASC LIMIT $2`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg config.PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg.MaxConns > 0 {
		maxConns = poolCfg.MaxConns
	}
	if poolCfg.MinConns > 0 {
		minConns = poolCfg.MinConns
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need direct
// query access (e.g., the import command's bulk loads).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS enrichment_jobs (
	id                   TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	domain               TEXT NOT NULL,
	status               TEXT NOT NULL DEFAULT 'pending'
		CHECK (status IN ('pending', 'running', 'completed', 'partial_success', 'failed', 'cancelled')),
	crawling_status      TEXT NOT NULL DEFAULT 'pending',
	chunking_status      TEXT NOT NULL DEFAULT 'pending',
	embedding_status     TEXT NOT NULL DEFAULT 'pending',
	extraction_status    TEXT NOT NULL DEFAULT 'pending',
	pages_crawled        INTEGER NOT NULL DEFAULT 0,
	chunks_created       INTEGER NOT NULL DEFAULT 0,
	embeddings_generated INTEGER NOT NULL DEFAULT 0,
	facts_extracted      INTEGER NOT NULL DEFAULT 0,
	llm_used             TEXT,
	error_message        TEXT,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	started_at           TIMESTAMPTZ,
	completed_at         TIMESTAMPTZ,
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON enrichment_jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_domain ON enrichment_jobs(domain);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON enrichment_jobs(created_at DESC);

CREATE TABLE IF NOT EXISTS enrichment_facts (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	job_id            TEXT NOT NULL REFERENCES enrichment_jobs(id) ON DELETE CASCADE,
	fact_type         TEXT NOT NULL,
	fact_data         JSONB NOT NULL,
	confidence        DOUBLE PRECISION NOT NULL CHECK (confidence >= 0 AND confidence <= 1),
	source_url        TEXT,
	source_text       TEXT,
	tier              INTEGER NOT NULL DEFAULT 1 CHECK (tier BETWEEN 1 AND 3),
	validation_status TEXT NOT NULL DEFAULT 'unvalidated'
		CHECK (validation_status IN ('unvalidated', 'valid', 'invalid')),
	approval_status   TEXT NOT NULL DEFAULT 'pending'
		CHECK (approval_status IN ('pending', 'approved', 'rejected')),
	reviewed_at       TIMESTAMPTZ,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_facts_job_id ON enrichment_facts(job_id);
CREATE INDEX IF NOT EXISTS idx_facts_approval ON enrichment_facts(approval_status);
CREATE INDEX IF NOT EXISTS idx_facts_type ON enrichment_facts(fact_type);

CREATE TABLE IF NOT EXISTS job_logs (
	id         BIGSERIAL PRIMARY KEY,
	job_id     TEXT NOT NULL REFERENCES enrichment_jobs(id) ON DELETE CASCADE,
	level      TEXT NOT NULL DEFAULT 'info'
		CHECK (level IN ('debug', 'info', 'warn', 'error')),
	message    TEXT NOT NULL,
	details    JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_job_logs_job_id ON job_logs(job_id, created_at);

CREATE TABLE IF NOT EXISTS failed_jobs (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	job_id         TEXT REFERENCES enrichment_jobs(id) ON DELETE SET NULL,
	domain         TEXT NOT NULL,
	error          TEXT NOT NULL,
	error_type     TEXT NOT NULL DEFAULT 'transient'
		CHECK (error_type IN ('transient', 'permanent')),
	failed_step    TEXT,
	retry_count    INTEGER NOT NULL DEFAULT 0,
	max_retries    INTEGER NOT NULL DEFAULT 3,
	next_retry_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_failed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_failed_jobs_error_type ON failed_jobs(error_type);
CREATE INDEX IF NOT EXISTS idx_failed_jobs_next_retry ON failed_jobs(next_retry_at);

CREATE TABLE IF NOT EXISTS prompts (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	job_id        TEXT NOT NULL REFERENCES enrichment_jobs(id) ON DELETE CASCADE,
	fact_id       TEXT REFERENCES enrichment_facts(id) ON DELETE SET NULL,
	step          TEXT NOT NULL,
	model         TEXT NOT NULL,
	prompt_text   TEXT NOT NULL,
	response_text TEXT,
	input_tokens  INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	cost_usd      DOUBLE PRECISION NOT NULL DEFAULT 0,
	latency_ms    INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_prompts_job_id ON prompts(job_id);

CREATE TABLE IF NOT EXISTS chunks (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	job_id       TEXT NOT NULL REFERENCES enrichment_jobs(id) ON DELETE CASCADE,
	source_url   TEXT NOT NULL,
	chunk_index  INTEGER NOT NULL DEFAULT 0,
	content      TEXT NOT NULL,
	token_count  INTEGER NOT NULL DEFAULT 0,
	embedding_id TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_chunks_job_id ON chunks(job_id, chunk_index);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

const jobColumns = `id, domain, status, crawling_status, chunking_status, embedding_status, extraction_status,
	pages_crawled, chunks_created, embeddings_generated, facts_extracted,
	llm_used, error_message, created_at, started_at, completed_at, updated_at`

// scanJob scans one enrichment_jobs row in jobColumns order.
func scanJob(row pgx.Row) (*model.Job, error) {
	var j model.Job
	var llmUsed, errMsg *string
	err := row.Scan(
		&j.ID, &j.Domain, &j.Status,
		&j.CrawlingStatus, &j.ChunkingStatus, &j.EmbeddingStatus, &j.ExtractionStatus,
		&j.PagesCrawled, &j.ChunksCreated, &j.EmbeddingsGenerated, &j.FactsExtracted,
		&llmUsed, &errMsg, &j.CreatedAt, &j.StartedAt, &j.CompletedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if llmUsed != nil {
		j.LLMUsed = *llmUsed
	}
	if errMsg != nil {
		j.ErrorMessage = *errMsg
	}
	return &j, nil
}

func (s *PostgresStore) CreateJob(ctx context.Context, domain, llm string) (*model.Job, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	var llmArg *string
	if llm != "" {
		llmArg = &llm
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO enrichment_jobs (id, domain, status, llm_used, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, domain, string(model.JobStatusPending), llmArg, now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert job for %s", domain)
	}

	return &model.Job{
		ID:               id,
		Domain:           domain,
		Status:           model.JobStatusPending,
		CrawlingStatus:   model.StepStatusPending,
		ChunkingStatus:   model.StepStatusPending,
		EmbeddingStatus:  model.StepStatusPending,
		ExtractionStatus: model.StepStatusPending,
		LLMUsed:          llm,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func (s *PostgresStore) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM enrichment_jobs WHERE id = $1`,
		jobID,
	)
	j, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get job %s", jobID)
	}
	return j, nil
}

func (s *PostgresStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM enrichment_jobs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Domain != "" {
		query += fmt.Sprintf(` AND domain = $%d`, argIdx)
		args = append(args, filter.Domain)
		argIdx++
	}
	if !filter.CreatedAfter.IsZero() {
		query += fmt.Sprintf(` AND created_at >= $%d`, argIdx)
		args = append(args, filter.CreatedAfter)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list jobs")
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan job")
		}
		jobs = append(jobs, *j)
	}
	return jobs, eris.Wrap(rows.Err(), "postgres: list jobs iterate")
}

// DeleteJob removes a job; facts, logs, prompts and chunks cascade. Returns
// false when the job does not exist.
func (s *PostgresStore) DeleteJob(ctx context.Context, jobID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM enrichment_jobs WHERE id = $1`, jobID)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: delete job %s", jobID)
	}
	return tag.RowsAffected() > 0, nil
}

// CancelJob transitions a pending or running job to cancelled. Returns false
// when the job was not in a cancellable state (caller distinguishes missing
// jobs via GetJob).
func (s *PostgresStore) CancelJob(ctx context.Context, jobID string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE enrichment_jobs
		 SET status = $1, completed_at = now(), updated_at = now()
		 WHERE id = $2 AND status IN ('pending', 'running')`,
		string(model.JobStatusCancelled), jobID,
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: cancel job %s", jobID)
	}
	return tag.RowsAffected() > 0, nil
}
