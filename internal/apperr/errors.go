// Package apperr defines the error taxonomy shared by the provider layer,
// the runner, and the CLI.
//
// AuthError is fatal and aborts a run before any resource is listed.
// ProviderError is fatal at the listing stage and recovered per resource at
// the inspection and remediation stages. NotFoundError marks a resource or a
// secondary lookup (such as an instance profile) that no longer exists.
package apperr

import (
	"errors"
	"fmt"
)

// Code classifies an Error.
type Code string

const (
	CodeAuth       Code = "AUTH_ERROR"
	CodeProvider   Code = "PROVIDER_ERROR"
	CodeNotFound   Code = "NOT_FOUND"
	CodeValidation Code = "VALIDATION_ERROR"
)

// Error is a classified error carrying the failing operation and resource.
type Error struct {
	Code     Code
	Op       string
	Resource string
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Op != "" {
		msg = e.Op
	}
	if e.Resource != "" {
		msg = fmt.Sprintf("%s %s", msg, e.Resource)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Auth wraps a credential or session construction failure.
func Auth(op string, err error) *Error {
	return &Error{Code: CodeAuth, Op: op, Err: err}
}

// Provider wraps a failed cloud API call.
func Provider(op, resource string, err error) *Error {
	return &Error{Code: CodeProvider, Op: op, Resource: resource, Err: err}
}

// NotFound reports a missing resource.
func NotFound(op, resource string, err error) *Error {
	return &Error{Code: CodeNotFound, Op: op, Resource: resource, Err: err}
}

// Validation reports invalid configuration or input.
func Validation(op string, err error) *Error {
	return &Error{Code: CodeValidation, Op: op, Err: err}
}

// CodeOf returns the code of the outermost *Error in err's chain, or "" when
// err carries no classification.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Is reports whether err's chain contains an *Error with the given code.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Err
	}
	return false
}
