// Package cserr defines the error kinds surfaced by the cone-search
// pipeline and helpers for classifying and reporting them.
package cserr

import (
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	// KindType indicates an input of the wrong type, such as a non-numeric
	// search radius.
	KindType Kind = iota
	// KindRange indicates a numeric input outside its domain bounds.
	KindRange
	// KindNotFound indicates an identifier absent from a reference table.
	KindNotFound
	// KindNotImplemented indicates a feature path that is not yet supported,
	// such as an external name lookup fallback.
	KindNotImplemented
	// KindRemote indicates a failure of the remote query service.
	KindRemote
)

func (k Kind) String() string {
	switch k {
	case KindType:
		return "type"
	case KindRange:
		return "range"
	case KindNotFound:
		return "not-found"
	case KindNotImplemented:
		return "not-implemented"
	case KindRemote:
		return "remote"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error wraps a source error with a user-facing message and a Kind. The
// source error can be provided so that it can be logged separately from the
// user-facing message for diagnostic purposes.
type Error struct {
	kind    Kind
	message string
	source  error
}

// New creates an Error of the given kind that will output message as the
// error string.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{
		kind:    kind,
		message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates an Error of the given kind wrapping a source error.
func Wrap(kind Kind, source error, format string, args ...any) *Error {
	return &Error{
		kind:    kind,
		message: fmt.Sprintf(format, args...),
		source:  source,
	}
}

func (e *Error) Error() string {
	if e.source != nil {
		return e.message + ": " + e.source.Error()
	}
	return e.message
}

func (e *Error) Unwrap() error { return e.source }

// Kind returns the classification of this error.
func (e *Error) Kind() Kind { return e.kind }

// KindOf reports the Kind of err if it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.kind, true
	}
	return 0, false
}

// IsKind reports whether err is (or wraps) an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	if k, ok := KindOf(err); ok {
		return k == kind
	}
	return false
}

// HandleFinalError performs final reporting for an error that aborts a run.
// Classified errors are logged with their kind and source for diagnostic
// purposes; anything else is written to stderr verbatim. It always exits
// with a status code of 1.
func HandleFinalError(err error) {
	var e *Error
	if errors.As(err, &e) {
		log.WithFields(log.Fields{
			"kind":   e.kind.String(),
			"source": e.source,
		}).Fatal(e.message)
	}

	_, _ = os.Stderr.WriteString(err.Error())
	_, _ = os.Stderr.Write([]byte("\n"))
	os.Exit(1)
}
