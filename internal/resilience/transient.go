// Package resilience classifies job failures and carries the failed-job
// bookkeeping used by the retry endpoint and the import command.
package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// Error types recorded in failed_jobs.error_type.
const (
	ErrorTypeTransient = "transient"
	ErrorTypePermanent = "permanent"
)

// IsTransient returns true if the error (or any error in its chain) matches
// common transient failure patterns: network timeouts, connection resets,
// DNS failures. Transient failures are safe to re-queue.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"rate limit",
		"too many requests",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// ClassifyError categorizes an error as transient or permanent.
func ClassifyError(err error) string {
	if IsTransient(err) {
		return ErrorTypeTransient
	}
	return ErrorTypePermanent
}

// ClassifyMessage categorizes a stored error message string. Used when the
// original error value is gone and only the persisted text remains.
func ClassifyMessage(msg string) string {
	if msg == "" {
		return ErrorTypePermanent
	}
	return ClassifyError(errors.New(msg))
}
