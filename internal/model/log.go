package model

import "time"

// LogLevel is the severity of a job log entry.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// JobLog is one entry in a job's append-only event stream. The runner emits
// these as steps progress; the dashboard reconstructs an activity feed from
// them since no dedicated observability tables exist.
type JobLog struct {
	ID        int64          `json:"id"`
	JobID     string         `json:"job_id"`
	Level     LogLevel       `json:"level"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
