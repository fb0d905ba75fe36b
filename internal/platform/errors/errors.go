// Package errors is the project error type: a code for machines, a message for humans,
// and an optional structured payload that rides along to the wire
package errors

// Import as perr (platform/errors) so it never shadows the standard library

import (
	stderrs "errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies an error for transport mapping
// Values are part of the wire contract; append only
type ErrorCode uint16

const (
	// ErrorCodeUnknown is anything we could not classify
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodePanic is a recovered panic
	ErrorCodePanic

	// ErrorCodeUnavailable means a dependency (queue, store) refused work; retry may succeed
	ErrorCodeUnavailable

	// ErrorCodeTooManyRequests is rate limiting
	ErrorCodeTooManyRequests

	// ErrorCodeConflict means the resource is busy or in a state that forbids the request
	ErrorCodeConflict

	// ErrorCodeUnauthorized is a missing or bad identity
	ErrorCodeUnauthorized

	// ErrorCodeForbidden is an identity that may not do this (quota, role)
	ErrorCodeForbidden

	// ErrorCodeInvalidArgument is a well-formed request with unusable values
	ErrorCodeInvalidArgument

	// ErrorCodeValidation is malformed input
	ErrorCodeValidation

	// ErrorCodeJSON is an undecodable body
	ErrorCodeJSON

	// ErrorCodeNotFound is a missing resource
	ErrorCodeNotFound

	// ErrorCodeDuplicateKey is a unique constraint violation
	ErrorCodeDuplicateKey

	// ErrorCodeDB is a database failure
	ErrorCodeDB

	// ErrorCodeBadGateway is an upstream that answered with something we cannot interpret
	ErrorCodeBadGateway
)

// HTTPStatusCode maps an ErrorCode onto an http status
func HTTPStatusCode(c ErrorCode) int {
	switch c {
	case ErrorCodeNotFound:
		return http.StatusNotFound
	case ErrorCodeInvalidArgument:
		return http.StatusUnprocessableEntity
	case ErrorCodeDuplicateKey, ErrorCodeConflict:
		return http.StatusConflict
	case ErrorCodeValidation, ErrorCodeJSON:
		return http.StatusBadRequest
	case ErrorCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrorCodeForbidden:
		return http.StatusForbidden
	case ErrorCodeTooManyRequests:
		return http.StatusTooManyRequests
	case ErrorCodeUnavailable:
		return http.StatusServiceUnavailable
	case ErrorCodeBadGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrNotFound is the shared not found sentinel
var ErrNotFound = New(ErrorCodeNotFound, "not found")

// Error carries code, message, optional field/op labels, an optional data payload
// and the wrapped cause
type Error struct {
	orig  error
	msg   string
	code  ErrorCode
	field string
	op    string
	data  any
}

// Wire is what the API serializes for a failed request
type Wire struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

// Unwrap returns the cause
func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// Message returns the message without the cause chain
func (e *Error) Message() string { return e.msg }

// Field returns the offending field, if any
func (e *Error) Field() string { return e.field }

// Op returns the operation label, if set
func (e *Error) Op() string { return e.op }

// Data returns the attached payload, if any
func (e *Error) Data() any { return e.data }

// ToWire converts to the wire payload
func (e *Error) ToWire() Wire { return Wire{Code: e.code, Message: e.msg, Field: e.field} }

// WireFrom converts any error into a Wire payload
// Foreign errors surface as Unknown with their text
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	if e, ok := As(err); ok {
		return e.ToWire()
	}
	return Wire{Code: ErrorCodeUnknown, Message: err.Error()}
}

// Root returns the deepest wrapped cause
func Root(err error) error {
	for err != nil {
		u := stderrs.Unwrap(err)
		if u == nil {
			return err
		}
		err = u
	}
	return nil
}

// CodeOf extracts the ErrorCode, defaulting to Unknown
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err carries code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// HTTPStatus maps any error onto an http status
func HTTPStatus(err error) int { return HTTPStatusCode(CodeOf(err)) }

// DataOf returns the payload attached anywhere in the chain, outermost first
func DataOf(err error) (any, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok && e.data != nil {
			return e.data, true
		}
		err = stderrs.Unwrap(err)
	}
	return nil, false
}

// As unwraps to the outermost *Error
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Mutators are copy-on-write; foreign errors pass through untouched

// WithField attaches a field label
func WithField(err error, field string) error {
	if e, ok := As(err); ok {
		c := *e
		c.field = field
		return &c
	}
	return err
}

// WithOp attaches an operation label
func WithOp(err error, op string) error {
	if e, ok := As(err); ok {
		c := *e
		c.op = op
		return &c
	}
	return err
}

// WithData attaches a JSON-serializable payload that transports surface next to the error
func WithData(err error, data any) error {
	if e, ok := As(err); ok {
		c := *e
		c.data = data
		return &c
	}
	return err
}

// Constructors

// New returns an *Error with code and message
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf is New with formatting
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap wraps orig with code and message
// Wrap attaches code and msg to orig
func Wrap(orig error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, orig: orig}
}

// Wrapf is Wrap with formatting
func Wrapf(orig error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), orig: orig}
}

// WrapIf wraps only a non-nil err
func WrapIf(err error, code ErrorCode, msg string) error {
	if err == nil {
		return nil
	}
	return Wrap(err, code, msg)
}

// Sugar

// NotFoundf returns a not found error
func NotFoundf(format string, a ...any) error { return Newf(ErrorCodeNotFound, format, a...) }

// InvalidArgf returns an invalid argument error
func InvalidArgf(format string, a ...any) error { return Newf(ErrorCodeInvalidArgument, format, a...) }

// Validationf returns a validation error
func Validationf(format string, a ...any) error { return Newf(ErrorCodeValidation, format, a...) }

// JSONErrf returns a JSON error
func JSONErrf(format string, a ...any) error { return Newf(ErrorCodeJSON, format, a...) }

// Unauthorizedf returns an unauthorized error
func Unauthorizedf(format string, a ...any) error { return Newf(ErrorCodeUnauthorized, format, a...) }

// Forbiddenf returns a forbidden error
func Forbiddenf(format string, a ...any) error { return Newf(ErrorCodeForbidden, format, a...) }

// Conflictf returns a conflict error
func Conflictf(format string, a ...any) error { return Newf(ErrorCodeConflict, format, a...) }

// Unavailablef returns an unavailable error
func Unavailablef(format string, a ...any) error { return Newf(ErrorCodeUnavailable, format, a...) }

// BadGatewayf returns a bad gateway error
func BadGatewayf(format string, a ...any) error { return Newf(ErrorCodeBadGateway, format, a...) }

// TooManyRequestsf returns a rate limit error
func TooManyRequestsf(format string, a ...any) error {
	return Newf(ErrorCodeTooManyRequests, format, a...)
}

// Internalf returns a generic internal error
func Internalf(format string, a ...any) error { return Newf(ErrorCodeUnknown, format, a...) }

// HTTP returns status and wire in one call
func HTTP(err error) (int, Wire) {
	if err == nil {
		return http.StatusOK, Wire{}
	}
	return HTTPStatus(err), WireFrom(err)
}

// Retryable reports whether a store error is transient (postgres contention or a redis network blip)
func Retryable(err error) bool { return IsRetryable(err) || IsRedisTransient(err) }
