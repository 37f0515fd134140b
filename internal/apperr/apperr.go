// Package apperr defines the typed application error used across the service.
//
// Every request-scoped failure is expressed as an *Error carrying an HTTP-style
// status, a kind discriminant, a catastrophic flag and optional sub-errors
// (per-field validation detail). Errors of unknown shape are converted into an
// *Error by Normalize before they reach the process supervisor.
//
// Kinds:
//   - BadRequestError     (400)
//   - UnauthorizedError   (401)
//   - ForbiddenError      (403)
//   - NotFoundError       (404)
//   - ConflictError       (409)
//   - InternalServerError (500)
//
// Typed errors built with New or one of the variant constructors are request
// scoped (Catastrophic=false) unless the caller says otherwise. Faults that
// Normalize cannot classify are presumed catastrophic.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
)

// Kind discriminants for the pre-configured variants.
const (
	KindApp            = "AppError"
	KindBadRequest     = "BadRequestError"
	KindUnauthorized   = "UnauthorizedError"
	KindForbidden      = "ForbiddenError"
	KindNotFound       = "NotFoundError"
	KindConflict       = "ConflictError"
	KindInternalServer = "InternalServerError"
	KindUnknown        = "unknown-error"
)

// DefaultMessage is used when New is called with an empty message.
const DefaultMessage = "Unexpected error occurred in App service."

// Error is the typed application error.
type Error struct {
	Kind         string
	Message      string
	Status       int
	Catastrophic bool

	// SubErrors holds mapping/validation detail, in insertion order.
	SubErrors []SubError
	// Cause is the underlying error, if any. Never serialized to clients.
	Cause error
	// Stack is captured at construction (or copied from a normalized fault).
	Stack string
	// Fields carries ad-hoc fields copied from a normalized fault.
	Fields map[string]any
}

// SubError is a single detail entry, typically one failed validation rule.
type SubError struct {
	Path    string `json:"path,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Response is the client-facing shape of an Error.
type Response struct {
	Kind      string     `json:"kind"`
	Status    int        `json:"status"`
	Message   string     `json:"message"`
	SubErrors []SubError `json:"subErrors"`
}

// New constructs an Error with the given message, status and catastrophic
// flag. A status <= 0 becomes 500. A non-nil cause that is not an error is
// coerced to one using its string form.
func New(message string, status int, catastrophic bool, cause any) *Error {
	if message == "" {
		message = DefaultMessage
	}
	if status <= 0 {
		status = http.StatusInternalServerError
	}
	return &Error{
		Kind:         KindApp,
		Message:      message,
		Status:       status,
		Catastrophic: catastrophic,
		SubErrors:    []SubError{},
		Cause:        coerceCause(cause),
		Stack:        string(debug.Stack()),
	}
}

func variant(kind, def, message string, status int) *Error {
	if message == "" {
		message = def
	}
	e := New(message, status, false, nil)
	e.Kind = kind
	return e
}

// BadRequest returns a 400 error. An empty message selects the default.
func BadRequest(message string) *Error {
	return variant(KindBadRequest, "Bad Request", message, http.StatusBadRequest)
}

// Unauthorized returns a 401 error.
func Unauthorized(message string) *Error {
	return variant(KindUnauthorized, "Unauthorized", message, http.StatusUnauthorized)
}

// Forbidden returns a 403 error.
func Forbidden(message string) *Error {
	return variant(KindForbidden, "Forbidden", message, http.StatusForbidden)
}

// NotFound returns a 404 error.
func NotFound(message string) *Error {
	return variant(KindNotFound, "Not Found", message, http.StatusNotFound)
}

// Conflict returns a 409 error.
func Conflict(message string) *Error {
	return variant(KindConflict, "Conflict", message, http.StatusConflict)
}

// InternalServer returns a request-scoped 500 error.
func InternalServer(message string) *Error {
	return variant(KindInternalServer, "Internal Server Error", message, http.StatusInternalServerError)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return e.Kind + ": " + e.Message
}

// Unwrap exposes the cause to errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// AddSubError appends a detail entry and returns e for chaining. It accepts a
// SubError, an error or a string; nil and empty values are ignored.
func (e *Error) AddSubError(v any) *Error {
	switch s := v.(type) {
	case nil:
	case SubError:
		if s != (SubError{}) {
			e.SubErrors = append(e.SubErrors, s)
		}
	case *SubError:
		if s != nil && *s != (SubError{}) {
			e.SubErrors = append(e.SubErrors, *s)
		}
	case string:
		if s != "" {
			e.SubErrors = append(e.SubErrors, SubError{Message: s})
		}
	case error:
		if msg := s.Error(); msg != "" {
			e.SubErrors = append(e.SubErrors, SubError{Message: msg})
		}
	default:
		if msg := fmt.Sprint(s); msg != "" {
			e.SubErrors = append(e.SubErrors, SubError{Message: msg})
		}
	}
	return e
}

// CausedBy replaces the cause and returns e.
func (e *Error) CausedBy(err error) *Error {
	e.Cause = err
	return e
}

// ToResponse returns the serializable view of e. Stack and cause are omitted.
func (e *Error) ToResponse() Response {
	subs := make([]SubError, len(e.SubErrors))
	copy(subs, e.SubErrors)
	status := e.Status
	if status <= 0 {
		status = http.StatusInternalServerError
	}
	return Response{
		Kind:      e.Kind,
		Status:    status,
		Message:   e.Message,
		SubErrors: subs,
	}
}

// StackTrace renders the stack of e followed by the cause chain, for logs.
func (e *Error) StackTrace() string {
	out := e.Kind + " stack trace: " + e.Stack + "\n"
	if e.Cause != nil {
		var inner *Error
		if errors.As(e.Cause, &inner) && inner != e {
			out += "Caused by " + inner.StackTrace()
		} else {
			out += "Caused by " + e.Cause.Error()
		}
	}
	return out
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// StatusOf reports the status of the first *Error in err's chain, or 500.
func StatusOf(err error) int {
	if e, ok := As(err); ok && e.Status > 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

// coerceCause turns an arbitrary cause into an error.
func coerceCause(cause any) error {
	switch c := cause.(type) {
	case nil:
		return nil
	case error:
		return c
	case string:
		return errors.New(c)
	default:
		return errors.New(fmt.Sprint(c))
	}
}
