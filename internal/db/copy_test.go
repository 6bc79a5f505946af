package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "job_logs", []string{"job_id", "message"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"job_logs"}, []string{"job_id", "level", "message"}).WillReturnResult(3)

	rows := [][]any{
		{"j1", "info", "crawl started"},
		{"j1", "info", "crawled 12 pages"},
		{"j1", "info", "crawl complete"},
	}
	n, err := CopyFrom(context.Background(), mock, "job_logs", []string{"job_id", "level", "message"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"job_logs"}, []string{"job_id"}).WillReturnError(fmt.Errorf("copy failed"))

	rows := [][]any{{"j1"}}
	_, err = CopyFrom(context.Background(), mock, "job_logs", []string{"job_id"}, rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO job_logs")
	assert.NoError(t, mock.ExpectationsWereMet())
}
