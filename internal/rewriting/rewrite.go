// Package rewriting sends resume documents through the completion API and validates the answer.
package rewriting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-autopilot/internal/faults"
	"github.com/jonathan/resume-autopilot/internal/llm"
	"github.com/jonathan/resume-autopilot/internal/logging"
	"github.com/jonathan/resume-autopilot/internal/prompts"
	"github.com/jonathan/resume-autopilot/internal/schemas"
	"github.com/jonathan/resume-autopilot/internal/types"
)

const promptFile = "rewriting.json"

// Rewriter improves resume documents with an LLM.
type Rewriter struct {
	client llm.Client
	log    logging.Logger
	tier   llm.ModelTier
}

// New returns a Rewriter using client for completions.
func New(client llm.Client, log logging.Logger) *Rewriter {
	return &Rewriter{
		client: client,
		log:    log.With("component", "rewriter"),
		tier:   llm.TierAdvanced,
	}
}

// JobRewrite is the result of a job-description rewrite.
type JobRewrite struct {
	Text  string
	Score *float64 // relevance to the job description, 0-100, nil when the model gave none
}

// RewriteGeneric rewrites doc for grammar, clarity and ATS strength and returns the validated,
// escaped JSON text.
func (r *Rewriter) RewriteGeneric(ctx context.Context, doc types.ResumeDocument) (string, error) {
	const op = "generic rewrite"
	r.log.Info("Starting AI P1 optimisation....", "model", r.client.GetModel(r.tier))

	raw, err := r.client.GenerateContent(ctx, llm.Request{
		System: prompts.MustGet(promptFile, "generic-rewrite"),
		User:   string(doc),
		Tier:   r.tier,
	})
	if err != nil {
		r.log.Error("Completion request failed during AI P1 optimisation", "error", err)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	text, _, err := r.finish(op, raw)
	if err != nil {
		return "", err
	}

	logging.Success(r.log, "AI P1 optimisation completed.")
	r.log.Debug("Optimised data", "length", len(text))
	return text, nil
}

// RewriteForJob tailors resumeText to jobDescription. The model is asked to add a top-level
// "score" field rating relevance from 0 to 100.
func (r *Rewriter) RewriteForJob(ctx context.Context, resumeText, jobDescription string) (*JobRewrite, error) {
	const op = "job description rewrite"
	r.log.Info("Starting AI P2 optimisation....", "model", r.client.GetModel(r.tier), "jd_length", len(jobDescription))

	user, err := buildJobPayload(resumeText, jobDescription)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	raw, err := r.client.GenerateContent(ctx, llm.Request{
		System: prompts.MustGet(promptFile, "job-description-rewrite"),
		User:   user,
		Tier:   r.tier,
	})
	if err != nil {
		r.log.Error("Completion request failed during AI P2 optimisation", "error", err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	text, parsed, err := r.finish(op, raw)
	if err != nil {
		return nil, err
	}

	result := &JobRewrite{Text: text, Score: r.readScore(parsed)}

	logging.Success(r.log, "AI P2 optimisations completed")
	r.log.Debug("Optimised data", "length", len(text))
	return result, nil
}

// buildJobPayload embeds the resume as a JSON value when it parses, as a string otherwise.
func buildJobPayload(resumeText, jobDescription string) (string, error) {
	var resume any = resumeText
	if json.Valid([]byte(resumeText)) {
		resume = json.RawMessage(resumeText)
	}

	payload, err := json.Marshal(map[string]any{
		"jd":     jobDescription,
		"resume": resume,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request payload: %w", err)
	}
	return string(payload), nil
}

// finish strips code fences, parses the answer and escapes reserved characters.
// It returns the escaped JSON text and the parsed (unescaped) value.
func (r *Rewriter) finish(op, raw string) (string, any, error) {
	cleaned := llm.CleanJSONBlock(raw)

	parsed, err := decodeStrict(cleaned)
	if err != nil {
		r.log.Error("AI returned invalid JSON", "error", err, "content_sample", faults.Truncate(cleaned, faults.SampleLimit))
		return "", nil, faults.ModelOutput(op, "model returned invalid JSON", cleaned, err)
	}

	text, err := encode(EscapeReserved(parsed))
	if err != nil {
		return "", nil, fmt.Errorf("%s: failed to encode rewritten document: %w", op, err)
	}
	return text, parsed, nil
}

// decodeStrict parses exactly one JSON value, keeping numbers as json.Number.
func decodeStrict(text string) (any, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("empty response")
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after top-level JSON value")
	}
	return v, nil
}

func encode(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// readScore extracts the relevance score, logging it or warning when it is absent or out of range.
func (r *Rewriter) readScore(parsed any) *float64 {
	obj, ok := parsed.(map[string]any)
	if !ok {
		r.log.Warn("No ATS score generated")
		return nil
	}
	rawScore, ok := obj["score"]
	if !ok {
		r.log.Warn("No ATS score generated")
		return nil
	}

	if body, err := json.Marshal(obj); err == nil {
		if err := schemas.Validate(schemas.RelevanceScore, body); err != nil {
			r.log.Warn("ATS score outside the expected 0-100 range", "score", rawScore, "error", err)
		}
	}

	num, ok := rawScore.(json.Number)
	if !ok {
		return nil
	}
	score, err := num.Float64()
	if err != nil {
		return nil
	}
	r.log.Info(fmt.Sprintf("ATS Score: %s/100", num.String()))
	return &score
}
