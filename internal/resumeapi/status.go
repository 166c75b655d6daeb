package resumeapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/jonathan/resume-autopilot/internal/faults"
	"github.com/jonathan/resume-autopilot/internal/schemas"
	"github.com/jonathan/resume-autopilot/internal/types"
)

// GetStatus queries the state of a generation job once.
func (c *Client) GetStatus(ctx context.Context, jobID string) (*types.JobResult, error) {
	const op = "job status"

	body, err := c.do(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   "/resume/status/" + url.PathEscape(jobID),
		auth:   true,
		schema: schemas.StatusResponse,
	})
	if err != nil {
		return nil, err
	}

	var result types.JobResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, faults.Protocol(op, "failed to decode status response", err)
	}
	result.Raw = body
	return &result, nil
}
