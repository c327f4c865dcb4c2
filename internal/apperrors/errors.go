// Package apperrors defines the error kinds the HTTP boundary translates into
// status codes. Kinds are carried as samber/oops codes so the original cause
// and its context stay attached for logging.
package apperrors

import (
	"errors"
	"net/http"

	"github.com/samber/oops"
)

// Error kinds
const (
	CodeValidation     = "VALIDATION"
	CodeAuthentication = "AUTHENTICATION"
	CodeAuthorization  = "AUTHORIZATION"
	CodeNotFound       = "NOT_FOUND"
	CodeConflict       = "CONFLICT"
	CodeDependency     = "DEPENDENCY"
)

// Validation reports missing or malformed input
func Validation(format string, args ...any) error {
	return oops.Code(CodeValidation).Errorf(format, args...)
}

// Authentication reports bad credentials or a bad session token
func Authentication(format string, args ...any) error {
	return oops.Code(CodeAuthentication).Errorf(format, args...)
}

// Authorization reports an authenticated caller without the required role
func Authorization(format string, args ...any) error {
	return oops.Code(CodeAuthorization).Errorf(format, args...)
}

// NotFound reports a missing entity
func NotFound(format string, args ...any) error {
	return oops.Code(CodeNotFound).Errorf(format, args...)
}

// Conflict reports a uniqueness violation
func Conflict(format string, args ...any) error {
	return oops.Code(CodeConflict).Errorf(format, args...)
}

// Dependency wraps a failure of the store or the mail server. The message of
// err is surfaced to the client.
func Dependency(err error, operation string) error {
	return oops.Code(CodeDependency).With("operation", operation).Wrap(err)
}

// Code returns the kind of err, or "" for errors that carry none
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := oopsErr.Code().(string)
	return code
}

// Is reports whether err is of the given kind
func Is(err error, code string) bool {
	return code != "" && Code(err) == code
}

// HTTPStatus maps err to a status code and the message to show the client.
// Errors without a kind become a 500 with a generic message.
func HTTPStatus(err error) (int, string) {
	switch Code(err) {
	case CodeValidation:
		return http.StatusBadRequest, Message(err)
	case CodeAuthentication:
		return http.StatusUnauthorized, Message(err)
	case CodeAuthorization:
		return http.StatusForbidden, Message(err)
	case CodeNotFound:
		return http.StatusNotFound, Message(err)
	case CodeConflict:
		return http.StatusConflict, Message(err)
	case CodeDependency:
		return http.StatusInternalServerError, Message(err)
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

// Message returns the innermost error message, without the wrapping prefixes
func Message(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
