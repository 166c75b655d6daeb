package types

// Outcome is the terminal value reported to the operator.
type Outcome struct {
	RunID   string   `json:"run_id"`
	Mode    Mode     `json:"mode"`
	Success bool     `json:"success"`
	PDFURL  string   `json:"pdf_url,omitempty"`
	Error   string   `json:"error,omitempty"`
	JobID   string   `json:"job_id,omitempty"`
	Score   *float64 `json:"score,omitempty"`
}
