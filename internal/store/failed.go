package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/enrichment-api/internal/model"
	"github.com/sells-group/enrichment-api/internal/resilience"
)

const failedJobColumns = `id, job_id, domain, error, error_type, failed_step,
	retry_count, max_retries, next_retry_at, created_at, last_failed_at`

// scanFailedJob scans one failed_jobs row in failedJobColumns order.
func scanFailedJob(row pgx.Row) (*resilience.FailedJob, error) {
	var f resilience.FailedJob
	var jobID, failedStep *string
	err := row.Scan(&f.ID, &jobID, &f.Domain, &f.Error, &f.ErrorType, &failedStep,
		&f.RetryCount, &f.MaxRetries, &f.NextRetryAt, &f.CreatedAt, &f.LastFailedAt)
	if err != nil {
		return nil, err
	}
	if jobID != nil {
		f.JobID = *jobID
	}
	if failedStep != nil {
		f.FailedStep = *failedStep
	}
	return &f, nil
}

func (s *PostgresStore) ListFailedJobs(ctx context.Context, filter resilience.FailedJobFilter) ([]resilience.FailedJob, error) {
	query := `SELECT ` + failedJobColumns + ` FROM failed_jobs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.ErrorType != "" {
		query += fmt.Sprintf(` AND error_type = $%d`, argIdx)
		args = append(args, filter.ErrorType)
		argIdx++
	}
	if filter.Domain != "" {
		query += fmt.Sprintf(` AND domain = $%d`, argIdx)
		args = append(args, filter.Domain)
		argIdx++
	}
	query += ` ORDER BY last_failed_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list failed jobs")
	}
	defer rows.Close()

	var entries []resilience.FailedJob
	for rows.Next() {
		f, err := scanFailedJob(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan failed job")
		}
		entries = append(entries, *f)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: list failed jobs iterate")
}

func (s *PostgresStore) GetFailedJob(ctx context.Context, id string) (*resilience.FailedJob, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+failedJobColumns+` FROM failed_jobs WHERE id = $1`,
		id,
	)
	f, err := scanFailedJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get failed job %s", id)
	}
	return f, nil
}

// ListJobFailures returns the failure records referencing a specific job,
// used by the debug sub-resource.
func (s *PostgresStore) ListJobFailures(ctx context.Context, jobID string) ([]resilience.FailedJob, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+failedJobColumns+` FROM failed_jobs WHERE job_id = $1 ORDER BY last_failed_at DESC`,
		jobID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list failures for job %s", jobID)
	}
	defer rows.Close()

	var entries []resilience.FailedJob
	for rows.Next() {
		f, err := scanFailedJob(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan job failure")
		}
		entries = append(entries, *f)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: job failures iterate")
}

// RequeueFailedJob re-queues a failed job inside one transaction: a fresh
// pending job is created for the domain, the failure row is removed from the
// queue, and a log entry records the operator action. If the re-queued job
// fails again the runner inserts a new failure row with the bumped retry
// count. Returns ErrNotFound for unknown ids and ErrRetryExhausted when the
// entry is out of retries.
func (s *PostgresStore) RequeueFailedJob(ctx context.Context, id string) (*model.Job, error) {
	entry, err := s.GetFailedJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, eris.Wrapf(ErrNotFound, "failed job %s", id)
	}
	if !entry.CanRetry() {
		return nil, eris.Wrapf(ErrRetryExhausted, "failed job %s (%d/%d)", id, entry.RetryCount, entry.MaxRetries)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: requeue begin tx")
	}
	defer tx.Rollback(ctx)

	jobID := uuid.New().String()
	now := time.Now().UTC()

	_, err = tx.Exec(ctx,
		`INSERT INTO enrichment_jobs (id, domain, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		jobID, entry.Domain, string(model.JobStatusPending), now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: requeue insert job for %s", entry.Domain)
	}

	_, err = tx.Exec(ctx, `DELETE FROM failed_jobs WHERE id = $1`, id)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: requeue remove %s", id)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO job_logs (job_id, level, message, details, created_at)
		 VALUES ($1, 'info', 'job re-queued from failed job', $2, $3)`,
		jobID, []byte(fmt.Sprintf(`{"failed_job_id":%q,"retry":%d}`, id, entry.RetryCount+1)), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: requeue log entry")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: requeue commit")
	}

	return &model.Job{
		ID:               jobID,
		Domain:           entry.Domain,
		Status:           model.JobStatusPending,
		CrawlingStatus:   model.StepStatusPending,
		ChunkingStatus:   model.StepStatusPending,
		EmbeddingStatus:  model.StepStatusPending,
		ExtractionStatus: model.StepStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}
