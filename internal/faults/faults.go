// Package faults defines the error taxonomy shared by every I/O boundary of the pipeline.
//
// Each remote call returns either a value or a *Error tagged with a Kind. Callers switch on
// the kind to decide between retrying (transport faults inside the poller) and aborting.
package faults

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kind classifies a failure.
type Kind int

const (
	// KindUnknown is any error that did not originate from this package.
	KindUnknown Kind = iota
	// KindConfig is an invalid setting or CLI input, detected before any network call.
	KindConfig
	// KindTransport is a connectivity, timeout or non-2xx HTTP failure.
	KindTransport
	// KindProtocol is a response that is missing an expected field or has the wrong shape.
	KindProtocol
	// KindModelOutput is text from the completion API that is not well-formed JSON.
	KindModelOutput
	// KindTimeout is an exhausted poll budget.
	KindTimeout
	// KindCancelled is a user interrupt.
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindModelOutput:
		return "model_output"
	case KindTimeout:
		return "timeout"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "login" or "poll status"
	Message string
	Cause   error

	// StatusCode is the HTTP status of a transport fault, 0 otherwise.
	StatusCode int
	// Body holds a truncated response body or model output sample for diagnostics.
	Body string
	// Elapsed is the poll budget consumed by a timeout fault.
	Elapsed time.Duration
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, msg, e.Cause)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Config returns a KindConfig error.
func Config(op, message string) *Error {
	return &Error{Kind: KindConfig, Op: op, Message: message}
}

// Transport returns a KindTransport error.
func Transport(op, message string, cause error) *Error {
	return &Error{Kind: KindTransport, Op: op, Message: message, Cause: cause}
}

// Protocol returns a KindProtocol error.
func Protocol(op, message string, cause error) *Error {
	return &Error{Kind: KindProtocol, Op: op, Message: message, Cause: cause}
}

// ModelOutput returns a KindModelOutput error carrying a sample of the offending text.
func ModelOutput(op, message, sample string, cause error) *Error {
	return &Error{Kind: KindModelOutput, Op: op, Message: message, Body: Truncate(sample, SampleLimit), Cause: cause}
}

// Timeout returns a KindTimeout error recording the consumed budget.
func Timeout(op, message string, elapsed time.Duration, cause error) *Error {
	return &Error{Kind: KindTimeout, Op: op, Message: message, Elapsed: elapsed, Cause: cause}
}

// KindOf reports the kind of err. Context cancellation anywhere in the chain is KindCancelled,
// a bare deadline expiry is KindTransport.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if errors.Is(err, context.Canceled) {
		return KindCancelled
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransport
	}
	return KindUnknown
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// SampleLimit bounds the diagnostic samples kept on errors and in logs.
const SampleLimit = 500

// Truncate shortens s to at most n bytes without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && (s[cut]&0xC0) == 0x80 {
		cut--
	}
	return s[:cut]
}
