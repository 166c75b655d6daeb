// Package prompts provides a loader for externalized prompt and message templates.
// Templates are stored as JSON objects of key -> text and embedded at compile time.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

var (
	cache   = make(map[string]map[string]string)
	cacheMu sync.RWMutex
)

// Get retrieves a template by filename and key, e.g. Get("rewriting.json", "generic-rewrite").
func Get(filename, key string) (string, error) {
	templates, err := loadFile(filename)
	if err != nil {
		return "", err
	}

	text, ok := templates[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return text, nil
}

// MustGet is Get for templates that ship with the binary; a miss is a build defect and panics.
func MustGet(filename, key string) string {
	text, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return text
}

// Render loads a template and fills its placeholders.
func Render(filename, key string, data map[string]string) (string, error) {
	text, err := Get(filename, key)
	if err != nil {
		return "", err
	}
	return Format(text, data), nil
}

// Format replaces {{.Key}} placeholders with values from data.
// Placeholders without a value are left in place.
func Format(template string, data map[string]string) string {
	if len(data) == 0 {
		return template
	}
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, "{{."+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// List returns the keys of a template file in sorted order.
func List(filename string) ([]string, error) {
	templates, err := loadFile(filename)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(templates))
	for key := range templates {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// ClearCache drops parsed files. Useful for testing.
func ClearCache() {
	cacheMu.Lock()
	cache = make(map[string]map[string]string)
	cacheMu.Unlock()
}

func loadFile(filename string) (map[string]string, error) {
	cacheMu.RLock()
	templates, ok := cache[filename]
	cacheMu.RUnlock()
	if ok {
		return templates, nil
	}

	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}

	if err := json.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	cacheMu.Lock()
	cache[filename] = templates
	cacheMu.Unlock()

	return templates, nil
}
