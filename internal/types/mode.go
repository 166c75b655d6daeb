package types

import (
	"fmt"
	"strings"
)

// Mode selects the optimisation flow.
type Mode string

const (
	// ModeGeneric runs the generic rewrite only.
	ModeGeneric Mode = "generic"
	// ModeJobDescription additionally tailors the resume to a job description.
	ModeJobDescription Mode = "job-description"
)

// ParseMode accepts the CLI spellings of a mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ModeGeneric):
		return ModeGeneric, nil
	case string(ModeJobDescription), "jd-optimised", "jd":
		return ModeJobDescription, nil
	}
	return "", fmt.Errorf("unknown mode %q (expected %q or %q)", s, ModeGeneric, ModeJobDescription)
}

// DisplayName is the human-readable mode label used in logs.
func (m Mode) DisplayName() string {
	switch m {
	case ModeGeneric:
		return "Generic Optimisation"
	case ModeJobDescription:
		return "JD-Optimised"
	}
	return strings.ToUpper(string(m))
}

// Label is the upper-case form used in notifications.
func (m Mode) Label() string {
	return strings.ToUpper(string(m))
}
