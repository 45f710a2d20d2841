package errors

import (
	"errors"
	"fmt"
)

// Error codes surfaced to callers so the UI never has to re-derive the rule.
const (
	CodeValidationIncomplete = "VALIDATION_INCOMPLETE"
	CodeInvalidTransition    = "INVALID_TRANSITION"
	CodeDeviceUnavailable    = "DEVICE_UNAVAILABLE"
	CodeQuotaExceeded        = "QUOTA_EXCEEDED"
	CodeStaleState           = "STALE_STATE"
	CodeNotFound             = "NOT_FOUND"
	CodeInvalidInput         = "INVALID_INPUT"
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// CodeOf extracts the application error code from err, or empty string.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
