package dailyscot

import (
	"fmt"

	"github.com/alexandre-normand/dailyscot/config"
	"github.com/pkg/errors"
)

// ErrorKind classifies the failures surfaced by dailyscot
type ErrorKind int

// Error kinds
const (
	UnknownError ErrorKind = iota
	// Transport errors come from the slack web api or the event ingress
	Transport
	// MalformedEvent errors are returned for events missing required fields
	MalformedEvent
	// Store errors come from the persistence layer
	Store
	// Configuration errors are only returned at startup
	Configuration
	// Ignored is returned for events deliberately skipped (edits, deletions, bot joins, ...)
	Ignored
)

var kindNames = map[ErrorKind]string{
	UnknownError:   "unknown",
	Transport:      "transport",
	MalformedEvent: "malformedEvent",
	Store:          "store",
	Configuration:  "configuration",
	Ignored:        "ignored",
}

func (k ErrorKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is an error tagged with its kind
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the tagged error
func (e *Error) Unwrap() error {
	return e.Err
}

// Cause returns the tagged error so that errors.Cause walks through
func (e *Error) Cause() error {
	return e.Err
}

func newError(kind ErrorKind, err error, msg string) error {
	return &Error{Kind: kind, Err: errors.Wrap(err, msg)}
}

func newErrorf(kind ErrorKind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Err: errors.Errorf(format, args...)}
}

// KindOf returns the kind of err, looking through wrapping. Configuration errors from the
// config package are reported as Configuration
func KindOf(err error) ErrorKind {
	if err == nil {
		return UnknownError
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	var ce *config.Error
	if errors.As(err, &ce) {
		return Configuration
	}

	return UnknownError
}
