package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/dao-vault/internal/types"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	// CategoryUserInput represents malformed requests (4xx)
	CategoryUserInput ErrorCategory = "user_input"
	// CategorySystem represents system errors (5xx)
	CategorySystem ErrorCategory = "system"
	// CategoryDatabase represents database errors
	CategoryDatabase ErrorCategory = "database"
	// CategoryCache represents cache and stream errors
	CategoryCache ErrorCategory = "cache"
	// CategoryValidation represents rejected parameters
	CategoryValidation ErrorCategory = "validation"
	// CategoryAuthorization represents caller rights errors
	CategoryAuthorization ErrorCategory = "authorization"
	// CategoryNotFound represents not found errors
	CategoryNotFound ErrorCategory = "not_found"
	// CategoryConflict represents state-conflict errors
	CategoryConflict ErrorCategory = "conflict"
	// CategoryTransfer represents failed asset movements
	CategoryTransfer ErrorCategory = "transfer"
	// CategoryRateLimit represents rate limit errors
	CategoryRateLimit ErrorCategory = "rate_limit"
)

// CategorizedError represents an error with category and HTTP status code
type CategorizedError struct {
	Category   ErrorCategory
	StatusCode int
	Code       string
	Message    string
	Details    map[string]interface{}
	Cause      error
}

// Error implements the error interface
func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// ToServiceError converts to a ServiceError
func (e *CategorizedError) ToServiceError() *types.ServiceError {
	return &types.ServiceError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

// Contract rejections

var statusByCategory = map[ErrorCategory]int{
	CategoryValidation:    http.StatusBadRequest,
	CategoryUserInput:     http.StatusBadRequest,
	CategoryAuthorization: http.StatusForbidden,
	CategoryNotFound:      http.StatusNotFound,
	CategoryConflict:      http.StatusConflict,
	CategoryTransfer:      http.StatusUnprocessableEntity,
	CategoryRateLimit:     http.StatusTooManyRequests,
}

// NewRevert creates a contract precondition failure. The message is the
// human-readable reason reported on the receipt.
func NewRevert(category ErrorCategory, code string, reason string) *CategorizedError {
	status, ok := statusByCategory[category]
	if !ok {
		status = http.StatusInternalServerError
	}
	return &CategorizedError{
		Category:   category,
		StatusCode: status,
		Code:       code,
		Message:    reason,
	}
}

// NewValidation creates a validation revert
func NewValidation(code, reason string) *CategorizedError {
	return NewRevert(CategoryValidation, code, reason)
}

// NewAuthorization creates an authorization revert
func NewAuthorization(code, reason string) *CategorizedError {
	return NewRevert(CategoryAuthorization, code, reason)
}

// NewConflict creates a state-conflict revert
func NewConflict(code, reason string) *CategorizedError {
	return NewRevert(CategoryConflict, code, reason)
}

// NewMissing creates a not-found revert
func NewMissing(code, reason string) *CategorizedError {
	return NewRevert(CategoryNotFound, code, reason)
}

// NewTransfer creates a transfer-failure revert
func NewTransfer(code, reason string) *CategorizedError {
	return NewRevert(CategoryTransfer, code, reason)
}

// Reason returns the human-readable reason for err. Wrapped categorized
// errors report their own message; anything else reports its Error string.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var catErr *CategorizedError
	if stderrors.As(err, &catErr) {
		return catErr.Message
	}
	return err.Error()
}

// User Input Errors (4xx)

// NewInvalidParameterError creates an invalid parameter error
func NewInvalidParameterError(param string, reason string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusBadRequest,
		Code:       "INVALID_PARAMETER",
		Message:    fmt.Sprintf("invalid parameter '%s': %s", param, reason),
		Details: map[string]interface{}{
			"parameter": param,
			"reason":    reason,
		},
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string, id string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryNotFound,
		StatusCode: http.StatusNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found: %s", resource, id),
		Details: map[string]interface{}{
			"resource": resource,
			"id":       id,
		},
	}
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(retryAfter int) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryRateLimit,
		StatusCode: http.StatusTooManyRequests,
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded. Please try again later.",
		Details: map[string]interface{}{
			"retryAfter": retryAfter,
		},
	}
}

// System Errors (5xx)

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySystem,
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		Cause:      cause,
	}
}

// NewDatabaseError creates a database error
func NewDatabaseError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryDatabase,
		StatusCode: http.StatusInternalServerError,
		Code:       "DATABASE_ERROR",
		Message:    fmt.Sprintf("database error during %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewCacheError creates a cache error
func NewCacheError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryCache,
		StatusCode: http.StatusInternalServerError,
		Code:       "CACHE_ERROR",
		Message:    fmt.Sprintf("cache error during %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewServiceUnavailableError creates a service unavailable error
func NewServiceUnavailableError(service string) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySystem,
		StatusCode: http.StatusServiceUnavailable,
		Code:       "SERVICE_UNAVAILABLE",
		Message:    fmt.Sprintf("service unavailable: %s", service),
		Details: map[string]interface{}{
			"service": service,
		},
	}
}

// Categorize categorizes an existing error
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}

	// If already categorized (possibly wrapped), return the categorized value
	var catErr *CategorizedError
	if stderrors.As(err, &catErr) {
		return catErr
	}

	var svcErr *types.ServiceError
	if stderrors.As(err, &svcErr) {
		return categorizeServiceError(svcErr)
	}

	// Default to internal error
	return NewInternalError("unexpected error", err)
}

// categorizeServiceError categorizes a ServiceError
func categorizeServiceError(err *types.ServiceError) *CategorizedError {
	category := CategorySystem
	switch err.Code {
	case "INVALID_ADDRESS", "INVALID_PARAMETER", "INVALID_REQUEST":
		category = CategoryValidation
	case "NOT_FOUND", "CONTRACT_NOT_FOUND":
		category = CategoryNotFound
	case "FORBIDDEN":
		category = CategoryAuthorization
	case "CONFLICT":
		category = CategoryConflict
	}
	out := NewRevert(category, err.Code, err.Message)
	out.Details = err.Details
	return out
}

// GetHTTPStatusCode returns the HTTP status code for an error
func GetHTTPStatusCode(err error) int {
	if catErr := Categorize(err); catErr != nil {
		return catErr.StatusCode
	}
	return http.StatusInternalServerError
}

// IsRetryable determines if an error is retryable
func IsRetryable(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}

	switch catErr.Category {
	case CategoryDatabase, CategoryCache:
		return true
	case CategorySystem:
		return catErr.StatusCode == http.StatusServiceUnavailable ||
			catErr.StatusCode == http.StatusGatewayTimeout
	default:
		return false
	}
}

// IsUserError determines if an error is a user error (4xx)
func IsUserError(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}

	return catErr.StatusCode >= 400 && catErr.StatusCode < 500
}

// IsSystemError determines if an error is a system error (5xx)
func IsSystemError(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}

	return catErr.StatusCode >= 500
}
