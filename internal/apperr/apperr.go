// Package apperr defines the error taxonomy shared by every layer of the service.
// Callers classify failures with errors.As / KindOf and never inspect messages.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for user-facing treatment.
type Kind int

const (
	// Unexpected is anything that does not match another kind.
	Unexpected Kind = iota
	// Configuration means the platform endpoint or keys are missing or invalid.
	Configuration
	// Validation means bad local input; it never reaches the network.
	Validation
	// Auth is a failure reported by the identity service.
	Auth
	// Storage is a failure reported by the object store.
	Storage
	// Invocation is a failure reported by a remote function.
	Invocation
)

func (k Kind) String() string {
	switch k {
	case Configuration:
		return "configuration"
	case Validation:
		return "validation"
	case Auth:
		return "auth"
	case Storage:
		return "storage"
	case Invocation:
		return "invocation"
	default:
		return "unexpected"
	}
}

// Error is a classified error with a human-readable message.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two *Error values of the same kind and message, so sentinels
// declared with New can be compared with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message && t.Op == ""
}

// New returns an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies err under kind for operation op. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf formats a message into an error of the given kind.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or Unexpected.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unexpected
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the text shown to a user. Unexpected errors get a generic message.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) || e.Kind == Unexpected {
		return "something went wrong, please try again"
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String() + " error"
}
