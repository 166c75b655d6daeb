package config

import (
	"path/filepath"
	"strings"
)

// TemplateExtension is the file extension every template id must carry.
const TemplateExtension = ".cshtml"

// ReservedNameChars are the characters a resume name may not contain.
const ReservedNameChars = `/\:*?"<>|`

// ValidTemplateID reports whether id has a path separator and ends in TemplateExtension,
// e.g. "templates/modern.cshtml".
func ValidTemplateID(id string) bool {
	if id == "" {
		return false
	}
	return strings.Contains(id, "/") && strings.HasSuffix(id, TemplateExtension)
}

// ValidResumeName reports whether name is non-empty and free of filesystem-reserved characters.
func ValidResumeName(name string) bool {
	if name == "" {
		return false
	}
	return !strings.ContainsAny(name, ReservedNameChars)
}

// LooksLikeFilePath reports whether value should be read as a file: it exists and either has an
// extension or contains a path separator.
func LooksLikeFilePath(value string, exists func(string) bool) bool {
	hasExt := strings.Contains(filepath.Base(value), ".")
	hasSep := strings.ContainsAny(value, `/\`)
	return (hasExt || hasSep) && exists(value)
}
