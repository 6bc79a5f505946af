package model

import "time"

// ApprovalStatus represents the reviewer decision on a fact.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Valid reports whether s is a known approval status.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// ValidationStatus represents the runner's automated validation verdict.
type ValidationStatus string

const (
	ValidationUnvalidated ValidationStatus = "unvalidated"
	ValidationValid       ValidationStatus = "valid"
	ValidationInvalid     ValidationStatus = "invalid"
)

// Tier bounds for fact extraction sources. Tier 1 is the corporate site,
// tier 2 professional profiles, tier 3 news coverage.
const (
	TierMin = 1
	TierMax = 3
)

// Fact is a structured, confidence-scored claim extracted from crawled
// content, owned by the job that produced it.
type Fact struct {
	ID               string           `json:"id"`
	JobID            string           `json:"job_id"`
	FactType         string           `json:"fact_type"`
	FactData         map[string]any   `json:"fact_data"`
	Confidence       float64          `json:"confidence"`
	SourceURL        string           `json:"source_url,omitempty"`
	SourceText       string           `json:"source_text,omitempty"`
	Tier             int              `json:"tier"`
	ValidationStatus ValidationStatus `json:"validation_status"`
	ApprovalStatus   ApprovalStatus   `json:"approval_status"`
	ReviewedAt       *time.Time       `json:"reviewed_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// Reviewed reports whether a reviewer has already decided on this fact.
func (f *Fact) Reviewed() bool {
	return f.ApprovalStatus != ApprovalPending
}
