package printer

import (
	"errors"
	"fmt"
)

// ErrPrintToolUnavailable means lp could not be located anywhere,
// including the hardcoded fallback path.
var ErrPrintToolUnavailable = errors.New("print command (lp) not found; is CUPS installed?")

// ErrNoDefaultPrinter means no printer name was given and the system has
// no default destination configured.
var ErrNoDefaultPrinter = errors.New("no default printer configured; select a printer")

// ErrStatusToolUnavailable means lpstat could not be located.
var ErrStatusToolUnavailable = errors.New("status command (lpstat) not found; is CUPS installed?")

// FailureKind classifies a failed submission or query.
type FailureKind string

const (
	FailurePrecondition     FailureKind = "precondition"
	FailurePrinterNotFound  FailureKind = "printer_not_found"
	FailurePermissionDenied FailureKind = "permission_denied"
	FailureNoDefaultDest    FailureKind = "no_default_destination"
	FailureMissingBinary    FailureKind = "missing_binary"
	FailureTimeout          FailureKind = "timeout"
	FailureGeneric          FailureKind = "generic"
)

// SubmitError is a classified lp submission failure with a user-facing
// message.
type SubmitError struct {
	Kind    FailureKind
	Message string
	Output  string
}

func (e *SubmitError) Error() string { return e.Message }

// Retryable reports whether the caller may reasonably retry the same
// submission. Only timeouts qualify; everything else needs operator
// action first.
func (e *SubmitError) Retryable() bool { return e.Kind == FailureTimeout }

// StatusError is a failed queue query.
type StatusError struct {
	Timeout bool
	Message string
}

func (e *StatusError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("print queue query timed out: %s", e.Message)
	}
	return e.Message
}
