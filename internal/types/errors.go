package types

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Error code constants. Handlers and services use these constants instead of
// hardcoded strings so remediation logic (retry, key prompt, nearby-city
// suggestion) can switch on them.
const (
	// Validation (400)
	ErrCodeValidationThreshold       ErrorCode = "validation_threshold_not_positive"
	ErrCodeValidationInvalidCategory ErrorCode = "validation_invalid_category"
	ErrCodeValidationInvalidLat      ErrorCode = "validation_invalid_latitude"
	ErrCodeValidationInvalidLon      ErrorCode = "validation_invalid_longitude"
	ErrCodeValidationInvalidProvider ErrorCode = "validation_invalid_provider"
	ErrCodeValidationInvalidSnooze   ErrorCode = "validation_invalid_snooze_option"
	ErrCodeValidationMissingField    ErrorCode = "validation_missing_required_field"

	// Not Found (404)
	ErrCodeCityNotFound  ErrorCode = "not_found_city"
	ErrCodeAlertNotFound ErrorCode = "not_found_alert"

	// Provider fetch taxonomy (502/429/401). Each is distinguishable so the
	// caller can pick a remediation: switch key, retry later, or surface.
	ErrCodeProviderUnauthorized   ErrorCode = "provider_unauthorized"
	ErrCodeProviderNotFound       ErrorCode = "provider_forecast_not_found"
	ErrCodeProviderRateLimited    ErrorCode = "provider_rate_limited"
	ErrCodeProviderNetworkFailure ErrorCode = "provider_network_failure"
	ErrCodeProviderUnknownFailure ErrorCode = "provider_unknown_failure"

	// Storage (500)
	ErrCodeCacheWriteFailure  ErrorCode = "cache_write_failure"
	ErrCodeInternalDB         ErrorCode = "internal_database_error"
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
)

// HTTPStatus maps an ErrorCode to its HTTP status for the control API.
// Returns 500 for unrecognized codes as a safe default.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest
	case strings.HasPrefix(s, "not_found_"):
		return http.StatusNotFound
	case c == ErrCodeProviderUnauthorized:
		return http.StatusUnauthorized
	case c == ErrCodeProviderNotFound:
		return http.StatusNotFound
	case c == ErrCodeProviderRateLimited:
		return http.StatusTooManyRequests
	case c == ErrCodeProviderNetworkFailure, c == ErrCodeProviderUnknownFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the standard application error type. All domain errors are
// expressed as AppError to enable consistent code switching, logging context,
// and error chain support.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails returns a copy of the error with the provided details merged in.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Details: merged,
	}
}

// NewAppError creates a new AppError with the given code, message, and
// optional underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// CodeOf extracts the ErrorCode from an error chain. Non-AppError errors
// report ErrCodeInternalUnexpected.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternalUnexpected
}

// IsNetworkClass reports whether the error represents a connectivity-level
// provider failure, as opposed to a per-alert remediable one. The scheduler
// uses this to distinguish a systemic cycle Failure from a PartialFailure.
func IsNetworkClass(err error) bool {
	return CodeOf(err) == ErrCodeProviderNetworkFailure
}
