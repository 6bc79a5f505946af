package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"bare domain", "acme.com", "acme.com", false},
		{"uppercase", "ACME.COM", "acme.com", false},
		{"https scheme", "https://acme.com", "acme.com", false},
		{"http scheme with path", "http://acme.com/about?x=1", "acme.com", false},
		{"www prefix", "www.acme.com", "acme.com", false},
		{"port stripped", "acme.com:8443", "acme.com", false},
		{"trailing dot", "acme.com.", "acme.com", false},
		{"subdomain kept", "careers.acme.co.uk", "careers.acme.co.uk", false},
		{"whitespace trimmed", "  acme.com  ", "acme.com", false},
		{"empty", "", "", true},
		{"no tld", "acme", "", true},
		{"scheme only", "https://", "", true},
		{"embedded space", "acme corp.com", "", true},
		{"double dot", "acme..com", "", true},
		{"email-like", "user@acme.com", "", true},
		{"leading hyphen label", "-acme.com", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDomain(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJobStatus_Valid(t *testing.T) {
	for _, s := range []JobStatus{
		JobStatusPending, JobStatusRunning, JobStatusCompleted,
		JobStatusPartialSuccess, JobStatusFailed, JobStatusCancelled,
	} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, JobStatus("queued").Valid())
	assert.False(t, JobStatus("").Valid())
}

func TestJobStatus_Terminal(t *testing.T) {
	assert.False(t, JobStatusPending.Terminal())
	assert.False(t, JobStatusRunning.Terminal())
	assert.True(t, JobStatusCompleted.Terminal())
	assert.True(t, JobStatusPartialSuccess.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
	assert.True(t, JobStatusCancelled.Terminal())
}

func TestJob_Duration(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	started := created.Add(5 * time.Second)
	done := started.Add(90 * time.Second)

	j := Job{CreatedAt: created, UpdatedAt: created}
	assert.Zero(t, j.Duration(), "unstarted job has no duration")

	j.StartedAt = &started
	j.UpdatedAt = started.Add(30 * time.Second)
	assert.Equal(t, 30*time.Second, j.Duration(), "running job measured to last update")

	j.CompletedAt = &done
	assert.Equal(t, 90*time.Second, j.Duration())
}

func TestJob_StepStatuses(t *testing.T) {
	j := Job{
		CrawlingStatus:   StepStatusCompleted,
		ChunkingStatus:   StepStatusRunning,
		EmbeddingStatus:  StepStatusPending,
		ExtractionStatus: StepStatusPending,
	}
	got := j.StepStatuses()
	assert.Len(t, got, len(Steps))
	assert.Equal(t, StepStatusCompleted, got[StepCrawling])
	assert.Equal(t, StepStatusRunning, got[StepChunking])
}

func TestFact_Reviewed(t *testing.T) {
	f := Fact{ApprovalStatus: ApprovalPending}
	assert.False(t, f.Reviewed())
	f.ApprovalStatus = ApprovalApproved
	assert.True(t, f.Reviewed())
	f.ApprovalStatus = ApprovalRejected
	assert.True(t, f.Reviewed())
}

func TestPrompt_TotalTokens(t *testing.T) {
	p := Prompt{InputTokens: 1200, OutputTokens: 340}
	assert.Equal(t, 1540, p.TotalTokens())
}
