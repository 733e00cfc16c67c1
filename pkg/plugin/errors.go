package plugin

import (
	"errors"
	"fmt"

	"github.com/sonroyaalmerol/device-calendar/pkg/calendar"
	"github.com/sonroyaalmerol/device-calendar/pkg/permission"
)

// Error codes reported to the application runtime.
const (
	CodeNotFound        = "NOT_FOUND"
	CodeNotEditable     = "NOT_EDITABLE"
	CodeGeneric         = "GENERIC_ERROR"
	CodeState           = "STATE_ERROR"
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeAccessRefused   = "ACCESS_REFUSED"
	CodePermissionError = "PERMISSION_ERROR"
	CodeNotImplemented  = "NOT_IMPLEMENTED"
)

// Error is the structured failure half of a Response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

// permissionFault marks errors raised by the platform permission call
// itself, as opposed to a user refusal.
type permissionFault struct{ err error }

func (f *permissionFault) Error() string { return "permission check failed: " + f.err.Error() }
func (f *permissionFault) Unwrap() error { return f.err }

type unknownMethod string

func (m unknownMethod) Error() string { return fmt.Sprintf("method %q is not implemented", string(m)) }

func toError(err error) *Error {
	e := &Error{Message: err.Error()}

	var ce *calendar.Error
	var ae *ArgError
	var pf *permissionFault
	var um unknownMethod
	switch {
	case errors.As(err, &ae):
		e.Code = CodeInvalidArgument
	case errors.As(err, &um):
		e.Code = CodeNotImplemented
	case errors.Is(err, permission.ErrRefused):
		e.Code = CodeAccessRefused
	case errors.Is(err, calendar.ErrState):
		e.Code = CodeState
	case errors.As(err, &pf):
		e.Code = CodePermissionError
	case errors.As(err, &ce):
		switch ce.Kind {
		case calendar.ErrNotFound:
			e.Code = CodeNotFound
		case calendar.ErrNotEditable:
			e.Code = CodeNotEditable
		default:
			e.Code = CodeGeneric
		}
		e.Details = ce.Detail
	default:
		e.Code = CodeGeneric
	}
	return e
}
