package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/enrichment-api/internal/model"
)

const factColumns = `id, job_id, fact_type, fact_data, confidence, source_url, source_text,
	tier, validation_status, approval_status, reviewed_at, created_at`

// scanFact scans one enrichment_facts row in factColumns order.
func scanFact(row pgx.Row) (*model.Fact, error) {
	var f model.Fact
	var dataJSON []byte
	var sourceURL, sourceText *string
	err := row.Scan(
		&f.ID, &f.JobID, &f.FactType, &dataJSON, &f.Confidence,
		&sourceURL, &sourceText, &f.Tier,
		&f.ValidationStatus, &f.ApprovalStatus, &f.ReviewedAt, &f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(dataJSON, &f.FactData); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal fact data")
	}
	if sourceURL != nil {
		f.SourceURL = *sourceURL
	}
	if sourceText != nil {
		f.SourceText = *sourceText
	}
	return &f, nil
}

func (s *PostgresStore) GetFact(ctx context.Context, factID string) (*model.Fact, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+factColumns+` FROM enrichment_facts WHERE id = $1`,
		factID,
	)
	f, err := scanFact(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get fact %s", factID)
	}
	return f, nil
}

func (s *PostgresStore) ListFacts(ctx context.Context, filter FactFilter) ([]model.Fact, error) {
	query := `SELECT ` + factColumns + ` FROM enrichment_facts WHERE true`
	args := []any{}
	argIdx := 1

	if filter.JobID != "" {
		query += fmt.Sprintf(` AND job_id = $%d`, argIdx)
		args = append(args, filter.JobID)
		argIdx++
	}
	if filter.Approval != "" {
		query += fmt.Sprintf(` AND approval_status = $%d`, argIdx)
		args = append(args, string(filter.Approval))
		argIdx++
	}
	if filter.FactType != "" {
		query += fmt.Sprintf(` AND fact_type = $%d`, argIdx)
		args = append(args, filter.FactType)
		argIdx++
	}
	if filter.Tier > 0 {
		query += fmt.Sprintf(` AND tier = $%d`, argIdx)
		args = append(args, filter.Tier)
		argIdx++
	}
	if filter.MinConfidence > 0 {
		query += fmt.Sprintf(` AND confidence >= $%d`, argIdx)
		args = append(args, filter.MinConfidence)
		argIdx++
	}
	query += ` ORDER BY confidence DESC, created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list facts")
	}
	defer rows.Close()

	var facts []model.Fact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan fact")
		}
		facts = append(facts, *f)
	}
	return facts, eris.Wrap(rows.Err(), "postgres: list facts iterate")
}

// ReviewFact flips a pending fact to approved or rejected. Returns false
// when the fact exists but was already reviewed (caller distinguishes
// missing facts via GetFact).
func (s *PostgresStore) ReviewFact(ctx context.Context, factID string, decision model.ApprovalStatus) (bool, error) {
	if decision != model.ApprovalApproved && decision != model.ApprovalRejected {
		return false, eris.Errorf("postgres: invalid review decision: %s", decision)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE enrichment_facts
		 SET approval_status = $1, reviewed_at = now()
		 WHERE id = $2 AND approval_status = 'pending'`,
		string(decision), factID,
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: review fact %s", factID)
	}
	return tag.RowsAffected() > 0, nil
}

// FactTierCounts returns the number of facts per escalation tier for a job.
func (s *PostgresStore) FactTierCounts(ctx context.Context, jobID string) (map[int]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT tier, COUNT(*) FROM enrichment_facts WHERE job_id = $1 GROUP BY tier`,
		jobID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: fact tier counts for job %s", jobID)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var tier, n int
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan tier count")
		}
		counts[tier] = n
	}
	return counts, eris.Wrap(rows.Err(), "postgres: tier counts iterate")
}

func (s *PostgresStore) CountFactsPendingReview(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM enrichment_facts WHERE approval_status = 'pending'`,
	).Scan(&count)
	return count, eris.Wrap(err, "postgres: count pending facts")
}
