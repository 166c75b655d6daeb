// Package ingestion turns the job description argument into text: literal text, the "no"
// sentinel, a local file, or a posting URL.
package ingestion

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/jonathan/resume-autopilot/internal/config"
	"github.com/jonathan/resume-autopilot/internal/faults"
	"github.com/jonathan/resume-autopilot/internal/fetch"
	"github.com/jonathan/resume-autopilot/internal/logging"
)

// NoJobDescription is the sentinel meaning "no job description".
const NoJobDescription = "no"

// Source says where a job description came from.
type Source string

const (
	SourceNone Source = "none"
	SourceText Source = "text"
	SourceFile Source = "file"
	SourceURL  Source = "url"
)

// JobDescription is a resolved job description.
type JobDescription struct {
	Text   string
	Source Source
	Origin string // file path or URL, empty for literal text
	Hash   string // SHA-256 of Text, hex
}

// Present reports whether there is any job description text.
func (j *JobDescription) Present() bool {
	return j != nil && j.Source != SourceNone && strings.TrimSpace(j.Text) != ""
}

// PostingFetcher downloads a job posting as text.
type PostingFetcher interface {
	JobPosting(ctx context.Context, rawURL string, renderer fetch.Renderer) (string, error)
}

// Resolver resolves job description arguments.
type Resolver struct {
	Fetcher  PostingFetcher
	Renderer fetch.Renderer // optional browser fallback for URLs
	Logger   logging.Logger

	// Exists and ReadFile default to the os package.
	Exists   func(path string) bool
	ReadFile func(path string) ([]byte, error)
}

// Resolve interprets input. Empty input and the "no" sentinel (any case) give SourceNone.
// An http(s) URL is fetched. A value that names an existing file (and has an extension or a
// path separator) is read. Anything else is used verbatim.
func (r *Resolver) Resolve(ctx context.Context, input string) (*JobDescription, error) {
	const op = "resolve job description"
	log := r.Logger
	if log == nil {
		log = logging.Discard()
	}

	trimmed := strings.TrimSpace(input)
	switch {
	case trimmed == "":
		log.Info("No job description provided")
		return &JobDescription{Source: SourceNone}, nil

	case strings.EqualFold(trimmed, NoJobDescription):
		log.Info("Job description explicitly set to 'no'")
		return &JobDescription{Source: SourceNone}, nil

	case fetch.IsURL(trimmed):
		if r.Fetcher == nil {
			return nil, faults.Config(op, "job description URL given but no fetcher configured")
		}
		text, err := r.Fetcher.JobPosting(ctx, trimmed, r.Renderer)
		if err != nil {
			log.Error("Failed to fetch job description", "url", trimmed, "error", err)
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		text = CleanText(text)
		if text == "" {
			return nil, faults.Protocol(op, "no text found at "+trimmed, nil)
		}
		log.Info(fmt.Sprintf("Job description fetched from URL (%d chars)", len(text)))
		return newJobDescription(text, SourceURL, trimmed), nil

	case config.LooksLikeFilePath(input, r.exists()):
		log.Info("Reading JD from file: " + input)
		data, err := r.readFile()(input)
		if err != nil {
			log.Error("Failed to read JD file", "error", err)
			return nil, faults.Config(op, fmt.Sprintf("failed to read %s: %v", input, err))
		}
		text := string(data)
		if strings.TrimSpace(text) == "" {
			return nil, faults.Config(op, fmt.Sprintf("job description file %s is empty", input))
		}
		logging.Success(log, fmt.Sprintf("File read successfully (%d chars)", len(text)))
		return newJobDescription(text, SourceFile, input), nil

	default:
		log.Info(fmt.Sprintf("Using job description as direct text (%d chars)", len(input)))
		return newJobDescription(input, SourceText, ""), nil
	}
}

func newJobDescription(text string, source Source, origin string) *JobDescription {
	sum := sha256.Sum256([]byte(text))
	return &JobDescription{
		Text:   text,
		Source: source,
		Origin: origin,
		Hash:   hex.EncodeToString(sum[:]),
	}
}

func (r *Resolver) exists() func(string) bool {
	if r.Exists != nil {
		return r.Exists
	}
	return func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	}
}

func (r *Resolver) readFile() func(string) ([]byte, error) {
	if r.ReadFile != nil {
		return r.ReadFile
	}
	return os.ReadFile
}
