// Package apperror is the error taxonomy shared by every layer of the portal.
// Errors carry a machine-readable code, a human-readable message (shown to
// applicants and admins as-is) and optionally per-field details.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure.
type Code string

const (
	CodeValidation          Code = "VALIDATION_ERROR"
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeForbidden           Code = "FORBIDDEN"
	CodeNotFound            Code = "NOT_FOUND"
	CodeConflict            Code = "CONFLICT"
	CodeStaleState          Code = "STALE_STATE"
	CodeRateLimited         Code = "RATE_LIMITED"
	CodeStoreUnavailable    Code = "STORE_UNAVAILABLE"
	CodeUpstreamUnavailable Code = "UPSTREAM_UNAVAILABLE"
	CodeInternal            Code = "INTERNAL"
)

// ReasonMissingReason narrows CodeValidation for a rejection without a reason.
const ReasonMissingReason = "MISSING_REASON"

// Error is the concrete error type returned by services and repositories.
type Error struct {
	Code    Code
	Reason  string
	Message string
	Details map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code, and on Reason when the target sets one, so that
// errors.Is(err, ErrValidation) holds for every validation failure while
// errors.Is(err, ErrMissingReason) only holds for the specific one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

// Sentinels for errors.Is checks.
var (
	ErrValidation          = &Error{Code: CodeValidation}
	ErrMissingReason       = &Error{Code: CodeValidation, Reason: ReasonMissingReason}
	ErrUnauthorized        = &Error{Code: CodeUnauthorized}
	ErrForbidden           = &Error{Code: CodeForbidden}
	ErrNotFound            = &Error{Code: CodeNotFound}
	ErrConflict            = &Error{Code: CodeConflict}
	ErrStaleState          = &Error{Code: CodeStaleState}
	ErrRateLimited         = &Error{Code: CodeRateLimited}
	ErrStoreUnavailable    = &Error{Code: CodeStoreUnavailable}
	ErrUpstreamUnavailable = &Error{Code: CodeUpstreamUnavailable}
)

func Validation(message string, details map[string]string) *Error {
	return &Error{Code: CodeValidation, Message: message, Details: details}
}

func MissingReason() *Error {
	return &Error{
		Code:    CodeValidation,
		Reason:  ReasonMissingReason,
		Message: "Alasan penolakan harus diisi",
		Details: map[string]string{"reason": "required when rejecting"},
	}
}

func Unauthorized(message string) *Error {
	return &Error{Code: CodeUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Code: CodeForbidden, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

func Conflict(message string) *Error {
	return &Error{Code: CodeConflict, Message: message}
}

func StaleState(message string) *Error {
	return &Error{Code: CodeStaleState, Message: message}
}

func RateLimited(message string) *Error {
	return &Error{Code: CodeRateLimited, Message: message}
}

// StoreUnavailable wraps a persistence failure; op names the failed operation.
func StoreUnavailable(op string, err error) *Error {
	return &Error{Code: CodeStoreUnavailable, Message: "Layanan penyimpanan tidak tersedia", Details: map[string]string{"op": op}, Err: err}
}

func UpstreamUnavailable(service string, err error) *Error {
	return &Error{Code: CodeUpstreamUnavailable, Message: "Layanan eksternal tidak tersedia", Details: map[string]string{"service": service}, Err: err}
}

func Internal(err error) *Error {
	return &Error{Code: CodeInternal, Message: "Terjadi kesalahan pada server", Err: err}
}

// From extracts an *Error from err, wrapping unknown errors as internal.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// HTTPStatus maps a code to the response status used by the API.
func HTTPStatus(code Code) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeStaleState:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	case CodeUpstreamUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
