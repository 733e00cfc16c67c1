package calendar

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrNotEditable = errors.New("not editable")
	ErrGeneric     = errors.New("native store error")
	ErrState       = errors.New("no execution context bound")
)

// Error is the structured failure returned by every Store operation.
type Error struct {
	Kind   error  // one of the Err* sentinels
	Op     string // e.g. "deleteCalendar"
	Detail string
	Err    error // underlying native error, if any
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func NotFound(op, format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Op: op, Detail: fmt.Sprintf(format, args...)}
}

func NotEditable(op, format string, args ...any) error {
	return &Error{Kind: ErrNotEditable, Op: op, Detail: fmt.Sprintf(format, args...)}
}

// Generic wraps a native persistence failure, keeping its message as detail.
func Generic(op string, err error) error {
	return &Error{Kind: ErrGeneric, Op: op, Detail: err.Error(), Err: err}
}

func State(op string) error {
	return &Error{Kind: ErrState, Op: op}
}

// Kind returns the taxonomy sentinel carried by err, or nil.
func Kind(err error) error {
	for _, k := range []error{ErrNotFound, ErrNotEditable, ErrGeneric, ErrState} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
