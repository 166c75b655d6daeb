package resumeapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jonathan/resume-autopilot/internal/faults"
	"github.com/jonathan/resume-autopilot/internal/logging"
	"github.com/jonathan/resume-autopilot/internal/schemas"
	"github.com/jonathan/resume-autopilot/internal/types"
)

type generateRequest struct {
	ResumeData types.ResumeDocument `json:"resumeData"`
	TemplateID string               `json:"templateId"`
	ResumeName string               `json:"resumeName"`
}

type generateResponse struct {
	Data struct {
		JobID string `json:"jobId"`
	} `json:"data"`
}

// SubmitGeneration submits documentText for PDF rendering and returns the job id.
// documentText must be well-formed JSON; otherwise nothing is sent and a model-output fault is
// returned.
func (c *Client) SubmitGeneration(ctx context.Context, documentText, templateID, resumeName string) (string, error) {
	const op = "submit generation"

	doc, err := types.ParseResumeDocument(documentText)
	if err != nil {
		c.log.Error("Optimised resume is not valid JSON", "content_sample", faults.Truncate(documentText, faults.SampleLimit))
		return "", faults.ModelOutput(op, "resume data is not valid JSON", documentText, err)
	}

	c.log.Info("Submitting PDF generation request...", "template_id", templateID, "resume_name", resumeName)
	body, err := c.do(ctx, request{
		op:     op,
		method: http.MethodPost,
		path:   "/resume/generate",
		body: generateRequest{
			ResumeData: doc,
			TemplateID: templateID,
			ResumeName: resumeName,
		},
		auth:   true,
		schema: schemas.GenerateResponse,
	})
	if err != nil {
		c.log.Error("PDF generation request failed", "error", err)
		return "", err
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", faults.Protocol(op, "failed to decode generation response", err)
	}
	if parsed.Data.JobID == "" {
		return "", faults.Protocol(op, "no job id in response", nil)
	}

	logging.Success(c.log, "PDF generation job submitted", "job_id", parsed.Data.JobID)
	return parsed.Data.JobID, nil
}
