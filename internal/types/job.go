package types

import "encoding/json"

// JobStatus is the state reported by the generation status endpoint.
type JobStatus string

// Known job states. Any other value is unrecognized.
const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobSuccess    JobStatus = "success"
	JobFailed     JobStatus = "failed"
)

// IsTerminal reports whether polling should stop. Unrecognized values are terminal.
func (s JobStatus) IsTerminal() bool {
	return s != JobPending && s != JobProcessing
}

// IsKnown reports whether s is one of the four documented states.
func (s JobStatus) IsKnown() bool {
	switch s {
	case JobPending, JobProcessing, JobSuccess, JobFailed:
		return true
	}
	return false
}

// JobResult is one status response.
type JobResult struct {
	Status JobStatus       `json:"status"`
	PDFURL string          `json:"pdfUrl,omitempty"`
	Error  string          `json:"error,omitempty"`
	Raw    json.RawMessage `json:"-"`
}

// ErrorOrDefault returns the reported error text, or "Unknown error".
func (r *JobResult) ErrorOrDefault() string {
	if r == nil || r.Error == "" {
		return "Unknown error"
	}
	return r.Error
}
