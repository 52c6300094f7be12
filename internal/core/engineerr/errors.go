// Package engineerr defines the engine's typed error taxonomy. Every
// error the core returns is a *Error carrying one Kind, so callers can
// branch with errors.As/Is instead of parsing message strings.
package engineerr

import (
	"errors"
	"fmt"
)

// Kind classifies an engine error. It is not the Go error type itself
// (that is Error) but the taxonomy the spec calls for.
type Kind string

const (
	Validation         Kind = "VALIDATION"
	RiskRejection      Kind = "RISK_REJECTION"
	NotFound           Kind = "NOT_FOUND"
	NotCancelable      Kind = "NOT_CANCELABLE"
	InvalidTransition  Kind = "INVALID_TRANSITION"
	OverFill           Kind = "OVER_FILL"
	Busy               Kind = "BUSY"
	QueueFull          Kind = "QUEUE_FULL"
	Timeout            Kind = "TIMEOUT"
	ModifyUnsupported  Kind = "MODIFY_UNSUPPORTED"
	PersistenceFailure Kind = "PERSISTENCE_FAILURE"
	Internal           Kind = "INTERNAL"
)

// Error is the engine's single error type. Reason is a short
// human-readable message; Err, when set, is the underlying cause.
type Error struct {
	Kind   Kind
	Reason string
	Err    error
}

func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

func Wrap(kind Kind, reason string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, engineerr.New(kind, "")) match on Kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// KindOf extracts the Kind from err if it is (or wraps) an *Error,
// otherwise returns Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}
