package db

import (
	"time"

	"github.com/google/uuid"
)

// Run statuses
const (
	RunStatusRunning     = "running"
	RunStatusSucceeded   = "succeeded"
	RunStatusFailed      = "failed"
	RunStatusInterrupted = "interrupted"
)

// RunStart describes a run when it begins.
type RunStart struct {
	ID         uuid.UUID
	Mode       string
	TemplateID string
	ResumeName string
	JDSource   string
	JDHash     string
}

// RunFinish describes how a run ended.
type RunFinish struct {
	Status       string
	JobID        string
	PDFURL       string
	ErrorKind    string
	ErrorMessage string
	Score        *float64
}

// Run is one row of pipeline_runs.
type Run struct {
	ID           uuid.UUID  `json:"id"`
	Mode         string     `json:"mode"`
	TemplateID   string     `json:"template_id"`
	ResumeName   string     `json:"resume_name"`
	JDSource     *string    `json:"jd_source,omitempty"`
	JDHash       *string    `json:"jd_hash,omitempty"`
	Status       string     `json:"status"`
	JobID        *string    `json:"job_id,omitempty"`
	PDFURL       *string    `json:"pdf_url,omitempty"`
	ErrorKind    *string    `json:"error_kind,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	Score        *float64   `json:"ats_score,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// nullable maps "" to SQL NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
