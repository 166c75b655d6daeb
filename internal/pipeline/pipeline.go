// Package pipeline sequences one resume optimisation run: authenticate, fetch, rewrite,
// generate, poll and report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-autopilot/internal/config"
	"github.com/jonathan/resume-autopilot/internal/db"
	"github.com/jonathan/resume-autopilot/internal/faults"
	"github.com/jonathan/resume-autopilot/internal/ingestion"
	"github.com/jonathan/resume-autopilot/internal/logging"
	"github.com/jonathan/resume-autopilot/internal/observability"
	"github.com/jonathan/resume-autopilot/internal/rewriting"
	"github.com/jonathan/resume-autopilot/internal/types"
)

// DefaultNotifyTimeout bounds the final notification sent after a failure or interrupt.
const DefaultNotifyTimeout = 15 * time.Second

// InterruptedMessage is reported when the run is cancelled.
const InterruptedMessage = "Pipeline interrupted by user"

// ErrGenerationFailed is returned when the job ends in any state other than success.
var ErrGenerationFailed = errors.New("resume generation failed")

// Authenticator holds the resume API session.
type Authenticator interface {
	Authenticate(ctx context.Context) (string, error)
	ExpiresAt() time.Time
	Logout()
}

// ResumeSource fetches the resume document.
type ResumeSource interface {
	FetchResume(ctx context.Context) (types.ResumeDocument, error)
}

// Rewriter rewrites resume documents.
type Rewriter interface {
	RewriteGeneric(ctx context.Context, doc types.ResumeDocument) (string, error)
	RewriteForJob(ctx context.Context, resumeText, jobDescription string) (*rewriting.JobRewrite, error)
}

// Generator submits PDF generation jobs.
type Generator interface {
	SubmitGeneration(ctx context.Context, documentText, templateID, resumeName string) (string, error)
}

// StatusWaiter waits for a generation job to finish.
type StatusWaiter interface {
	Wait(ctx context.Context, jobID string) (*types.JobResult, error)
}

// Notifier reports progress to the user. Every method is best effort.
type Notifier interface {
	NotifyStart(ctx context.Context, mode types.Mode) bool
	NotifySuccess(ctx context.Context, pdfURL string, mode types.Mode) bool
	NotifyFailure(ctx context.Context, reason string, mode types.Mode) bool
	NotifyInterrupted(ctx context.Context) bool
}

// JobDescriptionResolver turns the job description argument into text.
type JobDescriptionResolver interface {
	Resolve(ctx context.Context, input string) (*ingestion.JobDescription, error)
}

// RunRecorder stores run history.
type RunRecorder interface {
	StartRun(ctx context.Context, in db.RunStart) error
	FinishRun(ctx context.Context, id uuid.UUID, out db.RunFinish) error
}

type nopRecorder struct{}

func (nopRecorder) StartRun(context.Context, db.RunStart) error              { return nil }
func (nopRecorder) FinishRun(context.Context, uuid.UUID, db.RunFinish) error { return nil }

// Options are the per-run inputs.
type Options struct {
	Mode           types.Mode
	JobDescription string // literal text, "no", file path or URL
	TemplateID     string
	ResumeName     string
}

// Pipeline wires the services of a run. Recorder, Printer and Logger are optional.
type Pipeline struct {
	Auth      Authenticator
	Resumes   ResumeSource
	Rewriter  Rewriter
	Generator Generator
	Poller    StatusWaiter
	Notifier  Notifier
	Resolver  JobDescriptionResolver
	Recorder  RunRecorder
	Printer   *observability.Printer
	Logger    logging.Logger

	// PollBudget is the longest the poller may wait; a token expiring sooner is warned about.
	PollBudget    time.Duration
	NotifyTimeout time.Duration
}

// run is the state of one execution.
type run struct {
	id      uuid.UUID
	opts    Options
	jd      *ingestion.JobDescription
	log     logging.Logger
	outcome *types.Outcome
}

// validate checks the run inputs and resolves the job description. Apart from fetching a job
// description URL it calls no remote API.
func (p *Pipeline) validate(ctx context.Context, r *run) error {
	const op = "validate inputs"
	opts := r.opts

	if opts.Mode != types.ModeGeneric && opts.Mode != types.ModeJobDescription {
		return faults.Config(op, fmt.Sprintf("unknown mode %q", opts.Mode))
	}
	if !config.ValidTemplateID(opts.TemplateID) {
		r.log.Error("Invalid template ID: " + opts.TemplateID)
		return faults.Config(op, fmt.Sprintf("invalid template ID %q: must be in format templates/name%s", opts.TemplateID, config.TemplateExtension))
	}
	if !config.ValidResumeName(opts.ResumeName) {
		r.log.Error("Invalid resume name: " + opts.ResumeName)
		return faults.Config(op, fmt.Sprintf("invalid resume name %q: cannot contain %s", opts.ResumeName, config.ReservedNameChars))
	}

	if opts.Mode != types.ModeJobDescription {
		return nil
	}
	if p.Resolver == nil {
		return faults.Config(op, "no job description resolver configured")
	}
	jd, err := p.Resolver.Resolve(ctx, opts.JobDescription)
	if err != nil {
		return err
	}
	if !jd.Present() {
		r.log.Error("Job description mode requires --jd to be provided")
		return faults.Config(op, "job description required in job-description mode; provide --jd or use --mode generic")
	}
	r.jd = jd
	return nil
}

// Run executes one pipeline run. Validation failures return before any notification or
// remote call. Every later failure aborts the remaining stages and sends exactly one failure
// notification; cancellation sends the interrupted notification instead. The returned Outcome
// is never nil.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*types.Outcome, error) {
	r := &run{
		id:   uuid.New(),
		opts: opts,
		log:  p.logger(),
	}
	r.log = r.log.With("run_id", r.id.String())
	r.outcome = &types.Outcome{RunID: r.id.String(), Mode: opts.Mode}

	r.log.Info("Mode: " + opts.Mode.DisplayName())
	r.log.Info("Template: " + opts.TemplateID)
	r.log.Info("Resume Name: " + opts.ResumeName)

	if err := p.validate(ctx, r); err != nil {
		if faults.Is(err, faults.KindCancelled) {
			r.outcome.Error = InterruptedMessage
		} else {
			r.outcome.Error = err.Error()
		}
		return r.outcome, err
	}

	if p.Printer != nil {
		info := observability.RunInfo{
			RunID:      r.id.String(),
			Mode:       opts.Mode,
			TemplateID: opts.TemplateID,
			ResumeName: opts.ResumeName,
		}
		if r.jd != nil {
			info.JDSource = string(r.jd.Source)
		}
		p.Printer.PrintBanner(info)
	}
	p.recordStart(ctx, r)

	defer func() {
		r.log.Debug("Cleaning up access token....")
		p.Auth.Logout()
	}()

	p.Notifier.NotifyStart(ctx, opts.Mode)

	if err := p.execute(ctx, r); err != nil {
		return r.outcome, p.fail(ctx, r, err)
	}
	return r.outcome, nil
}

// execute runs the remote stages in order.
func (p *Pipeline) execute(ctx context.Context, r *run) error {
	log := r.log

	logging.Step(log, 1, "Authentication")
	if _, err := p.Auth.Authenticate(ctx); err != nil {
		return err
	}
	p.checkTokenExpiry(log)

	logging.Step(log, 2, "Fetching resume data")
	doc, err := p.Resumes.FetchResume(ctx)
	if err != nil {
		return err
	}

	logging.Step(log, 3, "AI P1")
	optimised, err := p.Rewriter.RewriteGeneric(ctx, doc)
	if err != nil {
		return err
	}

	if r.opts.Mode == types.ModeJobDescription {
		logging.Step(log, 4, "AI P2")
		log.Info(fmt.Sprintf("Job description length: %d chars", len(r.jd.Text)))
		tailored, err := p.Rewriter.RewriteForJob(ctx, optimised, r.jd.Text)
		if err != nil {
			return err
		}
		optimised = tailored.Text
		r.outcome.Score = tailored.Score
	} else {
		log.Info("Skipping AI P2")
	}

	logging.Step(log, 5, "Generating resume PDF")
	jobID, err := p.Generator.SubmitGeneration(ctx, optimised, r.opts.TemplateID, r.opts.ResumeName)
	if err != nil {
		return err
	}
	r.outcome.JobID = jobID

	logging.Step(log, 6, "Polling")
	result, err := p.Poller.Wait(ctx, jobID)
	if err != nil {
		return err
	}

	logging.Step(log, 7, "Processing result")
	if result.Status != types.JobSuccess {
		return fmt.Errorf("%w: %s", ErrGenerationFailed, result.ErrorOrDefault())
	}

	pdfURL := result.PDFURL
	if pdfURL == "" {
		pdfURL = "No URL provided"
	}
	r.outcome.Success = true
	r.outcome.PDFURL = pdfURL

	logging.Success(log, "Resume generated successfully", "pdf_url", pdfURL)

	notifyCtx, cancel := p.detached(ctx)
	defer cancel()
	p.Notifier.NotifySuccess(notifyCtx, pdfURL, r.opts.Mode)

	if p.Printer != nil {
		p.Printer.PrintOutcome(r.outcome)
	}
	p.recordFinish(ctx, r, nil)
	return nil
}

// fail reports err once and returns it.
func (p *Pipeline) fail(ctx context.Context, r *run, err error) error {
	notifyCtx, cancel := p.detached(ctx)
	defer cancel()

	if faults.Is(err, faults.KindCancelled) {
		r.log.Warn(InterruptedMessage)
		r.outcome.Error = InterruptedMessage
		p.Notifier.NotifyInterrupted(notifyCtx)
		if p.Printer != nil {
			p.Printer.PrintInterrupted()
		}
		p.recordFinish(ctx, r, err)
		return err
	}

	reason := err.Error()
	if errors.Is(err, ErrGenerationFailed) {
		reason = failureReason(err)
	}
	r.log.Error("Pipeline failed", "error", err, "kind", faults.KindOf(err).String())
	r.outcome.Error = reason
	p.Notifier.NotifyFailure(notifyCtx, reason, r.opts.Mode)
	if p.Printer != nil {
		p.Printer.PrintOutcome(r.outcome)
	}
	p.recordFinish(ctx, r, err)
	return err
}

// failureReason strips the ErrGenerationFailed prefix, leaving the reason the API reported.
func failureReason(err error) string {
	msg := err.Error()
	if reason, ok := strings.CutPrefix(msg, ErrGenerationFailed.Error()+": "); ok {
		return reason
	}
	return msg
}

// detached returns a context that survives cancellation of ctx, bounded by NotifyTimeout.
func (p *Pipeline) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := p.NotifyTimeout
	if timeout <= 0 {
		timeout = DefaultNotifyTimeout
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

// checkTokenExpiry warns when the access token will expire before polling could finish.
// The token is never refreshed.
func (p *Pipeline) checkTokenExpiry(log logging.Logger) {
	exp := p.Auth.ExpiresAt()
	if exp.IsZero() || p.PollBudget <= 0 {
		return
	}
	if remaining := time.Until(exp); remaining < p.PollBudget {
		log.Warn("Access token may expire before polling completes",
			"expires_in", remaining.Round(time.Second).String(),
			"poll_budget", p.PollBudget.String())
	}
}

func (p *Pipeline) recorder() RunRecorder {
	if p.Recorder == nil {
		return nopRecorder{}
	}
	return p.Recorder
}

func (p *Pipeline) logger() logging.Logger {
	if p.Logger == nil {
		return logging.Discard()
	}
	return p.Logger
}

func (p *Pipeline) recordStart(ctx context.Context, r *run) {
	in := db.RunStart{
		ID:         r.id,
		Mode:       string(r.opts.Mode),
		TemplateID: r.opts.TemplateID,
		ResumeName: r.opts.ResumeName,
	}
	if r.jd != nil {
		in.JDSource = string(r.jd.Source)
		in.JDHash = r.jd.Hash
	}
	if err := p.recorder().StartRun(ctx, in); err != nil {
		r.log.Warn("Failed to record run start", "error", err)
	}
}

func (p *Pipeline) recordFinish(ctx context.Context, r *run, runErr error) {
	out := db.RunFinish{
		Status: db.RunStatusSucceeded,
		JobID:  r.outcome.JobID,
		PDFURL: r.outcome.PDFURL,
		Score:  r.outcome.Score,
	}
	if runErr != nil {
		out.Status = db.RunStatusFailed
		out.ErrorMessage = r.outcome.Error
		out.ErrorKind = faults.KindOf(runErr).String()
		if faults.Is(runErr, faults.KindCancelled) {
			out.Status = db.RunStatusInterrupted
		}
	}

	recCtx, cancel := p.detached(ctx)
	defer cancel()
	if err := p.recorder().FinishRun(recCtx, r.id, out); err != nil {
		r.log.Warn("Failed to record run outcome", "error", err)
	}
}
