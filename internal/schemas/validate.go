// Package schemas provides JSON Schema validation for the response envelopes of the remote APIs.
// A response that fails its schema indicates a breaking API change and is reported as a protocol fault.
package schemas

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed defs/*.json
var schemaFiles embed.FS

// Schema names, one per response envelope.
const (
	LoginResponse          = "login_response"
	ResumeResponse         = "resume_response"
	GenerateResponse       = "generate_response"
	StatusResponse         = "status_response"
	TelegramResponse       = "telegram_response"
	ChatCompletionResponse = "chat_completion_response"
	// RelevanceScore checks the optional top-level "score" of a job-description rewrite.
	RelevanceScore = "relevance_score"
)

var (
	compiled   = make(map[string]*gojsonschema.Schema)
	compiledMu sync.Mutex
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Schema string
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	parts := make([]string, 0, len(ve.Errors))
	for _, err := range ve.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return fmt.Sprintf("%s does not match schema: %s", ve.Schema, strings.Join(parts, "; "))
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// load compiles and caches an embedded schema.
func load(name string) (*gojsonschema.Schema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()

	if s, ok := compiled[name]; ok {
		return s, nil
	}

	path := "defs/" + name + ".json"
	raw, err := schemaFiles.ReadFile(path)
	if err != nil {
		return nil, &SchemaLoadError{Path: path, Message: "schema not embedded", Cause: err}
	}

	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, &SchemaLoadError{Path: path, Message: "invalid schema", Cause: err}
	}
	compiled[name] = s
	return s, nil
}

// Validate checks body against the named embedded schema.
// A body that is not JSON at all is reported as a ValidationError on the root.
func Validate(name string, body []byte) error {
	schema, err := load(name)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return &ValidationError{
			Schema: name,
			Errors: []FieldError{{Field: "(root)", Message: err.Error()}},
		}
	}

	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Schema: name,
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	return validationErr
}
