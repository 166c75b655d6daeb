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

type resumeResponse struct {
	Data json.RawMessage `json:"data"`
}

// FetchResume returns the caller's resume document, the "data" field of GET /resume.
// A missing or empty document is a protocol fault.
func (c *Client) FetchResume(ctx context.Context) (types.ResumeDocument, error) {
	const op = "fetch resume"

	c.log.Info("Fetching resume data...")
	body, err := c.do(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   "/resume",
		auth:   true,
		schema: schemas.ResumeResponse,
	})
	if err != nil {
		c.log.Error("Failed to fetch resume", "error", err)
		return nil, err
	}

	var parsed resumeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, faults.Protocol(op, "failed to decode resume response", err)
	}

	doc := types.ResumeDocument(parsed.Data)
	if doc.IsEmpty() {
		c.log.Error("No resume data found in response")
		return nil, faults.Protocol(op, "no resume data found in response", nil)
	}

	logging.Success(c.log, "Resume data fetched successfully", "keys", len(doc.Keys()))
	return doc, nil
}
