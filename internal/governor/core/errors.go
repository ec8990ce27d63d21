// Package core defines sentinel errors.
package core

import "errors"

// ErrorCode represents a typed error code.
type ErrorCode string

const (
	CodeInvalidInput     ErrorCode = "INVALID_INPUT"
	CodeQuotaExceeded    ErrorCode = "QUOTA_EXCEEDED"
	CodePaused           ErrorCode = "PAUSED"
	CodeTransportFailure ErrorCode = "TRANSPORT_FAILURE"
	CodeDeliveryFailed   ErrorCode = "DELIVERY_FAILED"
	CodeClockUnavailable ErrorCode = "CLOCK_UNAVAILABLE"
	CodeConfigInvalid    ErrorCode = "CONFIG_INVALID"
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeUnauthorized     ErrorCode = "UNAUTHORIZED"
	CodeStoreError       ErrorCode = "STORE_ERROR"
)

// AppError is a typed application error.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error returns the error message.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Wrap creates a new AppError.
func Wrap(code ErrorCode, msg string, err error) error {
	return &AppError{Code: code, Message: msg, Err: err}
}

// CodeOf returns the ErrorCode for an error.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// ErrInvalidInput indicates validation failures.
var ErrInvalidInput = &AppError{Code: CodeInvalidInput, Message: "invalid input"}

// ErrQuotaExceeded indicates an admission denial by the rate limiter.
var ErrQuotaExceeded = &AppError{Code: CodeQuotaExceeded, Message: "send quota exceeded"}

// ErrPaused indicates an admission denial by the pause governor.
var ErrPaused = &AppError{Code: CodePaused, Message: "outbound sending is paused"}

// ErrClockUnavailable indicates the time source could not be read.
var ErrClockUnavailable = &AppError{Code: CodeClockUnavailable, Message: "clock unavailable"}

// ErrNotFound indicates missing resources.
var ErrNotFound = &AppError{Code: CodeNotFound, Message: "not found"}
