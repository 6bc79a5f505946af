package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrichment-api/internal/model"
)

// ListJobLogs returns a job's log stream in chronological order, capped at
// limit entries. A limit <= 0 returns the full stream; metrics derivation
// needs every entry, not a truncated window.
func (s *PostgresStore) ListJobLogs(ctx context.Context, jobID string, limit int) ([]model.JobLog, error) {
	query := `SELECT id, job_id, level, message, details, created_at
		 FROM job_logs WHERE job_id = $1
		 ORDER BY created_at ASC, id ASC`
	args := []any{jobID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list logs for job %s", jobID)
	}
	defer rows.Close()

	var logs []model.JobLog
	for rows.Next() {
		var l model.JobLog
		var detailsJSON []byte
		if err := rows.Scan(&l.ID, &l.JobID, &l.Level, &l.Message, &detailsJSON, &l.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan job log")
		}
		if detailsJSON != nil {
			if err := json.Unmarshal(detailsJSON, &l.Details); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal log details")
			}
		}
		logs = append(logs, l)
	}
	return logs, eris.Wrap(rows.Err(), "postgres: list logs iterate")
}

// AppendJobLog writes one entry to a job's event stream. Used by the
// dashboard itself when it mutates jobs (cancel, re-queue) so the activity
// feed reflects operator actions too.
func (s *PostgresStore) AppendJobLog(ctx context.Context, entry model.JobLog) error {
	var detailsJSON []byte
	if entry.Details != nil {
		var err error
		detailsJSON, err = json.Marshal(entry.Details)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal log details")
		}
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	level := entry.Level
	if level == "" {
		level = model.LogLevelInfo
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO job_logs (job_id, level, message, details, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		entry.JobID, string(level), entry.Message, detailsJSON, createdAt,
	)
	return eris.Wrapf(err, "postgres: append log for job %s", entry.JobID)
}
