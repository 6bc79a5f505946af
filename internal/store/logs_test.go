package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/enrichment-api/internal/model"
)

func TestPostgresStore_ListJobLogs(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "job_id", "level", "message", "details", "created_at"}).
		AddRow(int64(1), "job-1", "info", "crawl started", []byte(`{"pages":0}`), now).
		AddRow(int64(2), "job-1", "error", "fetch timed out", []byte(nil), now.Add(time.Second))
	mock.ExpectQuery(`FROM job_logs WHERE job_id = \$1`).
		WithArgs("job-1", 10).
		WillReturnRows(rows)

	logs, err := s.ListJobLogs(context.Background(), "job-1", 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, model.LogLevelInfo, logs[0].Level)
	assert.Equal(t, float64(0), logs[0].Details["pages"])
	assert.Equal(t, model.LogLevelError, logs[1].Level)
	assert.Nil(t, logs[1].Details)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListJobLogs_Unbounded(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{"id", "job_id", "level", "message", "details", "created_at"}).
		AddRow(int64(1), "job-1", "info", "crawl started", []byte(nil), now)
	// No LIMIT clause and no limit argument when limit <= 0.
	mock.ExpectQuery(`ORDER BY created_at ASC, id ASC$`).
		WithArgs("job-1").
		WillReturnRows(rows)

	logs, err := s.ListJobLogs(context.Background(), "job-1", 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendJobLog_Defaults(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO job_logs`).
		WithArgs("job-1", "info", "job cancelled by operator", []byte(nil), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.AppendJobLog(context.Background(), model.JobLog{
		JobID:   "job-1",
		Message: "job cancelled by operator",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
