package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrichment-api/internal/model"
	"github.com/sells-group/enrichment-api/internal/resilience"
)

func failedJobRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "job_id", "domain", "error", "error_type", "failed_step",
		"retry_count", "max_retries", "next_retry_at", "created_at", "last_failed_at",
	})
}

func TestPostgresStore_ListFailedJobs_Filter(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	rows := failedJobRows().AddRow(
		"fj-1", ptr("job-1"), "acme.com", "connection reset by peer", resilience.ErrorTypeTransient, ptr("crawling"),
		1, 3, (*time.Time)(nil), now, now,
	)
	mock.ExpectQuery(`FROM failed_jobs WHERE true AND error_type = \$1 ORDER BY last_failed_at DESC LIMIT \$2`).
		WithArgs("transient", 100).
		WillReturnRows(rows)

	entries, err := s.ListFailedJobs(context.Background(), resilience.FailedJobFilter{ErrorType: resilience.ErrorTypeTransient})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "acme.com", entries[0].Domain)
	assert.Equal(t, "crawling", entries[0].FailedStep)
	assert.True(t, entries[0].CanRetry())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetFailedJob_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM failed_jobs WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	entry, err := s.GetFailedJob(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RequeueFailedJob(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	rows := failedJobRows().AddRow(
		"fj-1", ptr("job-1"), "acme.com", "rate limit exceeded", resilience.ErrorTypeTransient, ptr("extraction"),
		1, 3, (*time.Time)(nil), now, now,
	)
	mock.ExpectQuery(`FROM failed_jobs WHERE id = \$1`).
		WithArgs("fj-1").
		WillReturnRows(rows)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO enrichment_jobs`).
		WithArgs(pgxmock.AnyArg(), "acme.com", "pending", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`DELETE FROM failed_jobs WHERE id = \$1`).
		WithArgs("fj-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`INSERT INTO job_logs`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	job, err := s.RequeueFailedJob(context.Background(), "fj-1")
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "acme.com", job.Domain)
	assert.Equal(t, model.JobStatusPending, job.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RequeueFailedJob_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM failed_jobs WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.RequeueFailedJob(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RequeueFailedJob_RetriesExhausted(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	rows := failedJobRows().AddRow(
		"fj-1", (*string)(nil), "acme.com", "invalid credentials", resilience.ErrorTypePermanent, (*string)(nil),
		3, 3, (*time.Time)(nil), now, now,
	)
	mock.ExpectQuery(`FROM failed_jobs WHERE id = \$1`).
		WithArgs("fj-1").
		WillReturnRows(rows)

	_, err := s.RequeueFailedJob(context.Background(), "fj-1")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrRetryExhausted))
	assert.NoError(t, mock.ExpectationsWereMet())
}
