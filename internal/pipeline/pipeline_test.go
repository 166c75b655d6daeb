package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-autopilot/internal/db"
	"github.com/jonathan/resume-autopilot/internal/faults"
	"github.com/jonathan/resume-autopilot/internal/ingestion"
	"github.com/jonathan/resume-autopilot/internal/logging"
	"github.com/jonathan/resume-autopilot/internal/observability"
	"github.com/jonathan/resume-autopilot/internal/rewriting"
	"github.com/jonathan/resume-autopilot/internal/types"
)

// calls records the order in which services were used.
type calls struct {
	mu  sync.Mutex
	log []string
}

func (c *calls) add(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = append(c.log, name)
}

func (c *calls) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.log...)
}

type fakeAuth struct {
	calls     *calls
	err       error
	expiresAt time.Time
	loggedOut bool
}

func (f *fakeAuth) Authenticate(context.Context) (string, error) {
	f.calls.add("authenticate")
	return "tok", f.err
}
func (f *fakeAuth) ExpiresAt() time.Time { return f.expiresAt }
func (f *fakeAuth) Logout()              { f.loggedOut = true }

type fakeResumes struct {
	calls *calls
	doc   types.ResumeDocument
	err   error
}

func (f *fakeResumes) FetchResume(context.Context) (types.ResumeDocument, error) {
	f.calls.add("fetch")
	return f.doc, f.err
}

type fakeRewriter struct {
	calls      *calls
	generic    string
	genericErr error
	job        *rewriting.JobRewrite
	jobErr     error
	gotJD      string
	gotResume  string
	onGeneric  func()
}

func (f *fakeRewriter) RewriteGeneric(ctx context.Context, doc types.ResumeDocument) (string, error) {
	f.calls.add("rewrite-generic")
	if f.onGeneric != nil {
		f.onGeneric()
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
	return f.generic, f.genericErr
}

func (f *fakeRewriter) RewriteForJob(_ context.Context, resumeText, jd string) (*rewriting.JobRewrite, error) {
	f.calls.add("rewrite-job")
	f.gotResume = resumeText
	f.gotJD = jd
	return f.job, f.jobErr
}

type fakeGenerator struct {
	calls   *calls
	jobID   string
	err     error
	gotText string
}

func (f *fakeGenerator) SubmitGeneration(_ context.Context, text, _, _ string) (string, error) {
	f.calls.add("submit")
	f.gotText = text
	return f.jobID, f.err
}

type fakePoller struct {
	calls  *calls
	result *types.JobResult
	err    error
}

func (f *fakePoller) Wait(context.Context, string) (*types.JobResult, error) {
	f.calls.add("poll")
	return f.result, f.err
}

type sentNotification struct {
	kind   string
	detail string
	ctxErr error
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (f *fakeNotifier) record(ctx context.Context, kind, detail string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentNotification{kind: kind, detail: detail, ctxErr: ctx.Err()})
	return true
}

func (f *fakeNotifier) NotifyStart(ctx context.Context, mode types.Mode) bool {
	return f.record(ctx, "start", string(mode))
}
func (f *fakeNotifier) NotifySuccess(ctx context.Context, url string, _ types.Mode) bool {
	return f.record(ctx, "success", url)
}
func (f *fakeNotifier) NotifyFailure(ctx context.Context, reason string, _ types.Mode) bool {
	return f.record(ctx, "failure", reason)
}
func (f *fakeNotifier) NotifyInterrupted(ctx context.Context) bool {
	return f.record(ctx, "interrupted", "")
}

func (f *fakeNotifier) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, s := range f.sent {
		out = append(out, s.kind)
	}
	return out
}

type fakeResolver struct {
	calls *calls
	jd    *ingestion.JobDescription
	err   error
}

func (f *fakeResolver) Resolve(_ context.Context, input string) (*ingestion.JobDescription, error) {
	f.calls.add("resolve")
	if f.err != nil {
		return nil, f.err
	}
	if f.jd != nil {
		return f.jd, nil
	}
	return (&ingestion.Resolver{}).Resolve(context.Background(), input)
}

type fakeRecorder struct {
	started  []db.RunStart
	finished []db.RunFinish
	err      error
}

func (f *fakeRecorder) StartRun(_ context.Context, in db.RunStart) error {
	f.started = append(f.started, in)
	return f.err
}

func (f *fakeRecorder) FinishRun(_ context.Context, _ uuid.UUID, out db.RunFinish) error {
	f.finished = append(f.finished, out)
	return f.err
}

type harness struct {
	calls     *calls
	auth      *fakeAuth
	resumes   *fakeResumes
	rewriter  *fakeRewriter
	generator *fakeGenerator
	poller    *fakePoller
	notifier  *fakeNotifier
	resolver  *fakeResolver
	recorder  *fakeRecorder
	log       *logging.Recorder
	out       *bytes.Buffer
	pipeline  *Pipeline
}

func newHarness() *harness {
	c := &calls{}
	h := &harness{
		calls:     c,
		auth:      &fakeAuth{calls: c},
		resumes:   &fakeResumes{calls: c, doc: types.ResumeDocument(`{"name":"A"}`)},
		rewriter:  &fakeRewriter{calls: c, generic: `{"name":"A."}`},
		generator: &fakeGenerator{calls: c, jobID: "job-1"},
		poller:    &fakePoller{calls: c, result: &types.JobResult{Status: types.JobSuccess, PDFURL: "https://cdn/x.pdf"}},
		notifier:  &fakeNotifier{},
		resolver:  &fakeResolver{calls: c},
		recorder:  &fakeRecorder{},
		log:       logging.NewRecorder(),
		out:       &bytes.Buffer{},
	}
	h.pipeline = &Pipeline{
		Auth:       h.auth,
		Resumes:    h.resumes,
		Rewriter:   h.rewriter,
		Generator:  h.generator,
		Poller:     h.poller,
		Notifier:   h.notifier,
		Resolver:   h.resolver,
		Recorder:   h.recorder,
		Printer:    observability.NewPrinter(h.out),
		Logger:     h.log,
		PollBudget: 10 * time.Minute,
	}
	return h
}

func genericOpts() Options {
	return Options{
		Mode:           types.ModeGeneric,
		JobDescription: "no",
		TemplateID:     "templates/resume_template.cshtml",
		ResumeName:     "Jane_Doe",
	}
}

func TestRun_GenericSuccess(t *testing.T) {
	h := newHarness()

	outcome, err := h.pipeline.Run(context.Background(), genericOpts())
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.Equal(t, "https://cdn/x.pdf", outcome.PDFURL)
	assert.Equal(t, "job-1", outcome.JobID)
	assert.NotEmpty(t, outcome.RunID)
	assert.Nil(t, outcome.Score)

	assert.Equal(t, []string{"authenticate", "fetch", "rewrite-generic", "submit", "poll"}, h.calls.list())
	assert.Equal(t, []string{"start", "success"}, h.notifier.kinds())
	assert.Equal(t, `{"name":"A."}`, h.generator.gotText)
	assert.True(t, h.auth.loggedOut)
	assert.True(t, h.log.Contains("INFO", "Skipping AI P2"))

	require.Len(t, h.recorder.started, 1)
	require.Len(t, h.recorder.finished, 1)
	assert.Equal(t, db.RunStatusSucceeded, h.recorder.finished[0].Status)

	assert.Contains(t, h.out.String(), "RESUME AUTOMATION PIPELINE")
	assert.Contains(t, h.out.String(), "SUCCESS!")
}

func TestRun_JobDescriptionSuccess(t *testing.T) {
	h := newHarness()
	score := 88.0
	h.rewriter.job = &rewriting.JobRewrite{Text: `{"name":"A!","score":88}`, Score: &score}

	opts := genericOpts()
	opts.Mode = types.ModeJobDescription
	opts.JobDescription = "Staff Go engineer; Postgres; Kubernetes"

	outcome, err := h.pipeline.Run(context.Background(), opts)
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	require.NotNil(t, outcome.Score)
	assert.Equal(t, 88.0, *outcome.Score)

	assert.Equal(t, []string{"resolve", "authenticate", "fetch", "rewrite-generic", "rewrite-job", "submit", "poll"}, h.calls.list())
	assert.Equal(t, `{"name":"A."}`, h.rewriter.gotResume, "tailoring starts from the generic rewrite")
	assert.Equal(t, "Staff Go engineer; Postgres; Kubernetes", h.rewriter.gotJD)
	assert.Equal(t, `{"name":"A!","score":88}`, h.generator.gotText)

	require.Len(t, h.recorder.started, 1)
	assert.Equal(t, "text", h.recorder.started[0].JDSource)
	assert.Len(t, h.recorder.started[0].JDHash, 64)
}

func TestRun_JobDescriptionModeWithoutJD(t *testing.T) {
	for _, jd := range []string{"no", "NO", ""} {
		h := newHarness()
		opts := genericOpts()
		opts.Mode = types.ModeJobDescription
		opts.JobDescription = jd

		outcome, err := h.pipeline.Run(context.Background(), opts)
		require.Error(t, err)
		assert.True(t, faults.Is(err, faults.KindConfig))
		assert.Contains(t, err.Error(), "job description required")
		assert.False(t, outcome.Success)

		assert.Equal(t, []string{"resolve"}, h.calls.list(), "no remote call may happen")
		assert.Empty(t, h.notifier.kinds())
		assert.Empty(t, h.recorder.started)
	}
}

func TestRun_InvalidInputs(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"template without slash", func(o *Options) { o.TemplateID = "resume_template.cshtml" }},
		{"template wrong extension", func(o *Options) { o.TemplateID = "templates/resume.html" }},
		{"empty resume name", func(o *Options) { o.ResumeName = "" }},
		{"reserved char in name", func(o *Options) { o.ResumeName = "Jane:Doe" }},
		{"unknown mode", func(o *Options) { o.Mode = "fancy" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			opts := genericOpts()
			tt.modify(&opts)

			_, err := h.pipeline.Run(context.Background(), opts)
			require.Error(t, err)
			assert.True(t, faults.Is(err, faults.KindConfig))
			assert.Empty(t, h.calls.list())
			assert.Empty(t, h.notifier.kinds())
		})
	}
}

func TestRun_AuthenticationFailure(t *testing.T) {
	h := newHarness()
	h.auth.err = faults.Transport("login", "HTTP status 401", nil)

	outcome, err := h.pipeline.Run(context.Background(), genericOpts())
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.KindTransport))

	assert.Equal(t, []string{"authenticate"}, h.calls.list())
	assert.Equal(t, []string{"start", "failure"}, h.notifier.kinds())
	assert.Contains(t, h.notifier.sent[1].detail, "HTTP status 401")
	assert.Equal(t, err.Error(), outcome.Error)

	require.Len(t, h.recorder.finished, 1)
	assert.Equal(t, db.RunStatusFailed, h.recorder.finished[0].Status)
	assert.Equal(t, "transport", h.recorder.finished[0].ErrorKind)
}

func TestRun_ModelOutputFailureStopsBeforeSubmit(t *testing.T) {
	h := newHarness()
	h.rewriter.genericErr = faults.ModelOutput("generic rewrite", "model returned invalid JSON", "{oops", errors.New("bad"))

	_, err := h.pipeline.Run(context.Background(), genericOpts())
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.KindModelOutput))
	assert.NotContains(t, h.calls.list(), "submit")
	assert.Equal(t, []string{"start", "failure"}, h.notifier.kinds())
}

func TestRun_GenerationFailed(t *testing.T) {
	h := newHarness()
	h.poller.result = &types.JobResult{Status: types.JobFailed, Error: "template render crashed"}

	outcome, err := h.pipeline.Run(context.Background(), genericOpts())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.False(t, outcome.Success)
	assert.Equal(t, "template render crashed", outcome.Error)

	assert.Equal(t, []string{"start", "failure"}, h.notifier.kinds())
	assert.Equal(t, "template render crashed", h.notifier.sent[1].detail)
	assert.Contains(t, h.out.String(), "FAILED!")
}

func TestRun_UnrecognizedStatusUsesDefaultError(t *testing.T) {
	h := newHarness()
	h.poller.result = &types.JobResult{Status: "archived"}

	outcome, err := h.pipeline.Run(context.Background(), genericOpts())
	require.Error(t, err)
	assert.Equal(t, "Unknown error", outcome.Error)
	assert.Equal(t, "Unknown error", h.notifier.sent[1].detail)
}

func TestRun_PollTimeout(t *testing.T) {
	h := newHarness()
	h.poller.err = faults.Timeout("poll status", "timeout waiting for PDF generation after 20 attempts (10m0s)", 10*time.Minute, nil)

	_, err := h.pipeline.Run(context.Background(), genericOpts())
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.KindTimeout))
	assert.Equal(t, []string{"start", "failure"}, h.notifier.kinds())
	assert.Contains(t, h.notifier.sent[1].detail, "timeout waiting for PDF generation")
}

func TestRun_Cancelled(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())
	h.rewriter.onGeneric = cancel

	outcome, err := h.pipeline.Run(ctx, genericOpts())
	require.Error(t, err)
	assert.True(t, faults.Is(err, faults.KindCancelled))
	assert.Equal(t, InterruptedMessage, outcome.Error)

	assert.Equal(t, []string{"start", "interrupted"}, h.notifier.kinds())
	assert.NoError(t, h.notifier.sent[1].ctxErr, "interrupt notification must use a live context")
	assert.NotContains(t, h.calls.list(), "submit")
	assert.True(t, h.auth.loggedOut)

	require.Len(t, h.recorder.finished, 1)
	assert.Equal(t, db.RunStatusInterrupted, h.recorder.finished[0].Status)
	assert.Contains(t, h.out.String(), InterruptedMessage)
}

func TestRun_TokenExpiryWarning(t *testing.T) {
	h := newHarness()
	h.auth.expiresAt = time.Now().Add(2 * time.Minute)

	_, err := h.pipeline.Run(context.Background(), genericOpts())
	require.NoError(t, err)
	assert.True(t, h.log.Contains("WARN", "Access token may expire before polling completes"))
}

func TestRun_NoExpiryWarningForLongLivedToken(t *testing.T) {
	h := newHarness()
	h.auth.expiresAt = time.Now().Add(24 * time.Hour)

	_, err := h.pipeline.Run(context.Background(), genericOpts())
	require.NoError(t, err)
	assert.False(t, h.log.Contains("WARN", "Access token may expire"))
}

func TestRun_RecorderErrorsAreNotFatal(t *testing.T) {
	h := newHarness()
	h.recorder.err = errors.New("db down")

	outcome, err := h.pipeline.Run(context.Background(), genericOpts())
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.True(t, h.log.Contains("WARN", "Failed to record run start"))
}

func TestRun_MissingPDFURL(t *testing.T) {
	h := newHarness()
	h.poller.result = &types.JobResult{Status: types.JobSuccess}

	outcome, err := h.pipeline.Run(context.Background(), genericOpts())
	require.NoError(t, err)
	assert.Equal(t, "No URL provided", outcome.PDFURL)
}

func TestRun_OptionalCollaborators(t *testing.T) {
	h := newHarness()
	h.pipeline.Recorder = nil
	h.pipeline.Printer = nil
	h.pipeline.Logger = nil

	outcome, err := h.pipeline.Run(context.Background(), genericOpts())
	require.NoError(t, err)
	assert.True(t, outcome.Success)
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, "boom", failureReason(errors.New("resume generation failed: boom")))
	assert.Equal(t, "other", failureReason(errors.New("other")))
	assert.True(t, strings.HasPrefix(ErrGenerationFailed.Error(), "resume generation"))
}
