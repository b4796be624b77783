package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the canonical service-layer error. Handlers translate it into the
// HTTP envelope; Status and Code survive the trip, Err stays server-side only
// when it wraps something we do not want to leak.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Code
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

const (
	CodeValidation           = "validation_error"
	CodeNotFound             = "not_found"
	CodeUnauthorized         = "unauthorized"
	CodeOwnership            = "ownership_error"
	CodeMismatch             = "mismatch_error"
	CodeConflict             = "conflict"
	CodeGeneration           = "generation_error"
	CodeGenerationValidation = "generation_validation_error"
	CodeDependency           = "dependency_unavailable"
	CodeInternal             = "internal_error"
)

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeValidation, Err: fmt.Errorf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Err: fmt.Errorf(format, args...)}
}

func Unauthorized(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Err: fmt.Errorf(format, args...)}
}

func Ownership(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusForbidden, Code: CodeOwnership, Err: fmt.Errorf(format, args...)}
}

func Mismatch(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeMismatch, Err: fmt.Errorf(format, args...)}
}

func Conflict(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusConflict, Code: CodeConflict, Err: fmt.Errorf(format, args...)}
}

func Generation(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusBadGateway, Code: CodeGeneration, Err: fmt.Errorf(format, args...)}
}

func GenerationValidation(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusBadGateway, Code: CodeGenerationValidation, Err: fmt.Errorf(format, args...)}
}

func Dependency(format string, args ...interface{}) *Error {
	return &Error{Status: http.StatusServiceUnavailable, Code: CodeDependency, Err: fmt.Errorf(format, args...)}
}

func Internal(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeInternal, Err: err}
}

// Wrap lifts an arbitrary error into an *Error. Existing *Error values pass
// through untouched so status codes assigned deeper in the stack are kept.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}
