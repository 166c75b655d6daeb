// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import (
	"encoding/json"
	"strings"
)

const fence = "```"

// CleanJSONBlock removes markdown code fence wrappers from a model answer.
// LLMs often wrap JSON in ```json ... ``` blocks even when instructed not to.
// Text that is already valid JSON is returned trimmed and otherwise untouched.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if json.Valid([]byte(text)) {
		return text
	}

	start := strings.Index(text, fence)
	if start < 0 {
		return text
	}
	body := text[start+len(fence):]

	// Skip a language identifier after the opening fence
	if idx := strings.IndexByte(body, '\n'); idx >= 0 && isLanguageTag(body[:idx]) {
		body = body[idx+1:]
	} else {
		body = strings.TrimLeftFunc(body, isTagRune)
	}

	if end := strings.LastIndex(body, fence); end >= 0 {
		body = body[:end]
	}

	return strings.TrimSpace(body)
}

// isLanguageTag reports whether line looks like "json", "JSON " or "" rather than content.
func isLanguageTag(line string) bool {
	line = strings.TrimSpace(line)
	if len(line) >= 20 {
		return false
	}
	for _, r := range line {
		if !isTagRune(r) {
			return false
		}
	}
	return true
}

func isTagRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '+'
}
