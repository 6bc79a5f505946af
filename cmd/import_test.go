package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const importHeader = "id,domain,status,pages_crawled,chunks_created,embeddings_generated,facts_extracted,llm_used,created_at,completed_at\n"

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadJobsCSV(t *testing.T) {
	path := writeCSV(t, importHeader+
		"j1,https://www.Acme.com,completed,10,40,40,6,claude-haiku-4-5-20251001,2026-08-01T10:00:00Z,2026-08-01T10:05:00Z\n"+
		"j2,globex.com,failed,3,0,0,0,,2026-08-02T11:00:00Z,\n")

	rows, err := readJobsCSV(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "j1", rows[0][0])
	assert.Equal(t, "acme.com", rows[0][1], "domain is normalized on import")
	assert.Equal(t, "completed", rows[0][2])
	assert.Equal(t, 10, rows[0][3])
	assert.Equal(t, "claude-haiku-4-5-20251001", rows[0][7])

	// Empty llm_used and completed_at load as NULL.
	assert.Nil(t, rows[1][7])
	assert.Nil(t, rows[1][9])
}

func TestReadJobsCSV_Empty(t *testing.T) {
	path := writeCSV(t, importHeader)

	rows, err := readJobsCSV(path)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadJobsCSV_HeaderMismatch(t *testing.T) {
	path := writeCSV(t, "id,domain,status\nj1,acme.com,completed\n")

	_, err := readJobsCSV(path)
	assert.Error(t, err)
}

func TestReadJobsCSV_BadRows(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"unknown status", "j1,acme.com,exploded,1,1,1,1,,2026-08-01T10:00:00Z,\n"},
		{"negative counter", "j1,acme.com,completed,-1,1,1,1,,2026-08-01T10:00:00Z,\n"},
		{"bad counter", "j1,acme.com,completed,x,1,1,1,,2026-08-01T10:00:00Z,\n"},
		{"bad created_at", "j1,acme.com,completed,1,1,1,1,,yesterday,\n"},
		{"bad domain", "j1,not a domain,completed,1,1,1,1,,2026-08-01T10:00:00Z,\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readJobsCSV(writeCSV(t, importHeader+tt.row))
			assert.Error(t, err)
		})
	}
}

func TestReadJobsCSV_MissingFile(t *testing.T) {
	_, err := readJobsCSV(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

const importLogsHeader = "job_id,level,message,created_at\n"

func TestReadLogsCSV(t *testing.T) {
	path := writeCSV(t, importLogsHeader+
		"j1,info,crawl started,2026-08-01T10:00:00Z\n"+
		"j1,error,fetch timed out,2026-08-01T10:01:00Z\n")

	rows, err := readLogsCSV(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "j1", rows[0][0])
	assert.Equal(t, "info", rows[0][1])
	assert.Equal(t, "error", rows[1][1])
}

func TestReadLogsCSV_UnknownLevel(t *testing.T) {
	path := writeCSV(t, importLogsHeader+"j1,loud,boom,2026-08-01T10:00:00Z\n")

	_, err := readLogsCSV(path)
	assert.Error(t, err)
}

func TestReadLogsCSV_HeaderMismatch(t *testing.T) {
	path := writeCSV(t, "job,level,message,created_at\nj1,info,x,2026-08-01T10:00:00Z\n")

	_, err := readLogsCSV(path)
	assert.Error(t, err)
}
