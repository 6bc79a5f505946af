package main

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enrichment-api/internal/db"
	"github.com/sells-group/enrichment-api/internal/model"
)

var (
	importJobsCSVPath string
	importLogsCSVPath string
)

// importJobColumns is the expected CSV header and the upsert column order.
var importJobColumns = []string{
	"id", "domain", "status", "pages_crawled", "chunks_created",
	"embeddings_generated", "facts_extracted", "llm_used", "created_at", "completed_at",
}

// importLogColumns is the expected logs CSV header and the COPY column order.
var importLogColumns = []string{"job_id", "level", "message", "created_at"}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Backfill historical jobs and logs from CSV exports",
	Long:  "Bulk-loads job rows exported from an older tracker into enrichment_jobs (upserting on id) and, optionally, their log streams into job_logs via COPY.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		rows, err := readJobsCSV(importJobsCSVPath)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			zap.L().Info("nothing to import", zap.String("csv", importJobsCSVPath))
			return nil
		}

		n, err := db.BulkUpsert(ctx, st.Pool(), db.UpsertConfig{
			Table:        "enrichment_jobs",
			Columns:      importJobColumns,
			ConflictKeys: []string{"id"},
			UpdateCols: []string{
				"status", "pages_crawled", "chunks_created",
				"embeddings_generated", "facts_extracted", "completed_at",
			},
		}, rows)
		if err != nil {
			return eris.Wrap(err, "import jobs")
		}

		var logRowCount int64
		if importLogsCSVPath != "" {
			logRows, err := readLogsCSV(importLogsCSVPath)
			if err != nil {
				return err
			}
			logRowCount, err = db.CopyFrom(ctx, st.Pool(), "job_logs", importLogColumns, logRows)
			if err != nil {
				return eris.Wrap(err, "import logs")
			}
		}

		zap.L().Info("import complete",
			zap.Int64("jobs", n),
			zap.Int64("logs", logRowCount),
			zap.String("csv", importJobsCSVPath),
		)
		return nil
	},
}

// readJobsCSV parses the export CSV into upsert rows. The header must match
// importJobColumns exactly so column drift fails loudly instead of loading
// garbage.
func readJobsCSV(path string) ([][]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "import: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrap(err, "import: read header")
	}
	if len(header) != len(importJobColumns) {
		return nil, eris.Errorf("import: expected %d columns, got %d", len(importJobColumns), len(header))
	}
	for i, col := range importJobColumns {
		if header[i] != col {
			return nil, eris.Errorf("import: column %d is %q, want %q", i, header[i], col)
		}
	}

	var rows [][]any
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "import: read line %d", line)
		}
		line++

		row, err := jobRecordToRow(record)
		if err != nil {
			return nil, eris.Wrapf(err, "import: line %d", line)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// jobRecordToRow converts one CSV record to typed upsert values.
func jobRecordToRow(record []string) ([]any, error) {
	status := model.JobStatus(record[2])
	if !status.Valid() {
		return nil, eris.Errorf("unknown status %q", record[2])
	}

	counters := make([]int, 4)
	for i, raw := range record[3:7] {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, eris.Errorf("bad counter %q", raw)
		}
		counters[i] = n
	}

	createdAt, err := time.Parse(time.RFC3339, record[8])
	if err != nil {
		return nil, eris.Wrapf(err, "bad created_at %q", record[8])
	}

	var completedAt any
	if record[9] != "" {
		t, err := time.Parse(time.RFC3339, record[9])
		if err != nil {
			return nil, eris.Wrapf(err, "bad completed_at %q", record[9])
		}
		completedAt = t
	}

	var llm any
	if record[7] != "" {
		llm = record[7]
	}

	domain, err := model.NormalizeDomain(record[1])
	if err != nil {
		return nil, err
	}

	return []any{
		record[0], domain, string(status),
		counters[0], counters[1], counters[2], counters[3],
		llm, createdAt, completedAt,
	}, nil
}

// readLogsCSV parses a log export into COPY rows for job_logs.
func readLogsCSV(path string) ([][]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "import: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrap(err, "import: read logs header")
	}
	if len(header) != len(importLogColumns) {
		return nil, eris.Errorf("import: expected %d log columns, got %d", len(importLogColumns), len(header))
	}
	for i, col := range importLogColumns {
		if header[i] != col {
			return nil, eris.Errorf("import: log column %d is %q, want %q", i, header[i], col)
		}
	}

	var rows [][]any
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "import: read logs line %d", line)
		}
		line++

		level := model.LogLevel(record[1])
		switch level {
		case model.LogLevelDebug, model.LogLevelInfo, model.LogLevelWarn, model.LogLevelError:
		default:
			return nil, eris.Errorf("import: logs line %d: unknown level %q", line, record[1])
		}

		createdAt, err := time.Parse(time.RFC3339, record[3])
		if err != nil {
			return nil, eris.Wrapf(err, "import: logs line %d: bad created_at", line)
		}

		rows = append(rows, []any{record[0], string(level), record[2], createdAt})
	}
	return rows, nil
}

func init() {
	importCmd.Flags().StringVar(&importJobsCSVPath, "csv", "", "path to jobs CSV file (required)")
	importCmd.Flags().StringVar(&importLogsCSVPath, "logs-csv", "", "optional path to job logs CSV file")
	_ = importCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(importCmd)
}
