// Package types provides type definitions for structured data used throughout the resume pipeline.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ResumeDocument is the resume payload as returned by the resume API. Its schema is owned by the
// remote service; the pipeline only checks that it round-trips through JSON.
type ResumeDocument json.RawMessage

// ParseResumeDocument validates that text is a single well-formed JSON value.
func ParseResumeDocument(text string) (ResumeDocument, error) {
	trimmed := bytes.TrimSpace([]byte(text))
	if !json.Valid(trimmed) {
		var probe any
		// json.Valid gives no position; Unmarshal does.
		err := json.Unmarshal(trimmed, &probe)
		if err == nil {
			err = fmt.Errorf("invalid JSON")
		}
		return nil, err
	}
	return ResumeDocument(trimmed), nil
}

// MarshalJSON emits the document verbatim.
func (d ResumeDocument) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

// UnmarshalJSON stores a copy of data.
func (d *ResumeDocument) UnmarshalJSON(data []byte) error {
	if d == nil {
		return fmt.Errorf("types.ResumeDocument: UnmarshalJSON on nil pointer")
	}
	*d = append((*d)[0:0], data...)
	return nil
}

// IsEmpty reports whether the document carries no content: absent, null, "", {} or [].
func (d ResumeDocument) IsEmpty() bool {
	trimmed := bytes.TrimSpace(d)
	switch string(trimmed) {
	case "", "null", `""`:
		return true
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return false
	}
	switch x := v.(type) {
	case map[string]any:
		return len(x) == 0
	case []any:
		return len(x) == 0
	case string:
		return x == ""
	}
	return false
}

// Keys returns the top-level keys when the document is an object, for debug logging.
func (d ResumeDocument) Keys() []string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(d, &obj); err != nil {
		return nil
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	return keys
}

func (d ResumeDocument) String() string {
	return string(d)
}
