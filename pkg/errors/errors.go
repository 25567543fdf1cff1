package errors

import (
	"errors"
	"fmt"
)

// Error codes
const (
	CodeAppError       = "APP_ERROR"
	CodeAPIError       = "API_ERROR"
	CodeValidation     = "VALIDATION_ERROR"
	CodeRateLimited    = "RATE_LIMITED_ERROR"
	CodeRetryExhausted = "RETRY_EXHAUSTED_ERROR"
	CodeCache          = "CACHE_ERROR"
	CodeConnectivity   = "CONNECTIVITY_ERROR"
	CodeService        = "SERVICE_ERROR"
)

type AppError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) AsAppError() *AppError {
	return e
}

func NewAppError(message, code string, statusCode int, context map[string]any) *AppError {
	return &AppError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

type APIError struct {
	*AppError
}

func NewAPIError(message string, statusCode int, context map[string]any) *APIError {
	return &APIError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeAPIError,
			StatusCode: statusCode,
			Context:    context,
		},
	}
}

type ValidationError struct {
	*AppError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

// RateLimitedError marks an upstream 429. It is the only API failure the
// retrying fetcher is allowed to retry.
type RateLimitedError struct {
	*APIError
}

func NewRateLimitedError(url string) *RateLimitedError {
	return &RateLimitedError{
		APIError: &APIError{
			AppError: &AppError{
				Message:    "rate limited by upstream",
				Code:       CodeRateLimited,
				StatusCode: 429,
				Context: map[string]any{
					"url": url,
				},
			},
		},
	}
}

// RetryExhaustedError means every configured attempt failed. Fatal for the
// current invocation; nothing is cached.
type RetryExhaustedError struct {
	*AppError
	Operation string
	Attempts  int
}

func NewRetryExhaustedError(message, operation string, attempts int, cause error) *RetryExhaustedError {
	return &RetryExhaustedError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeRetryExhausted,
			StatusCode: 502,
			Context: map[string]any{
				"operation": operation,
				"attempts":  attempts,
			},
			Cause: cause,
		},
		Operation: operation,
		Attempts:  attempts,
	}
}

type CacheError struct {
	*AppError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeCache,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

// ConnectivityError is surfaced when a backing store is unreachable after its
// bounded reconnect attempts, so health checks can report store connectivity
// separately from application failures.
type ConnectivityError struct {
	*AppError
	Service string
}

func NewConnectivityError(message, service string, cause error) *ConnectivityError {
	return &ConnectivityError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeConnectivity,
			StatusCode: 503,
			Context: map[string]any{
				"service": service,
			},
			Cause: cause,
		},
		Service: service,
	}
}

type ServiceError struct {
	*AppError
	Service   string
	Operation string
}

func NewServiceError(message, service, operation string, cause error) *ServiceError {
	return &ServiceError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeService,
			StatusCode: 500,
			Context: map[string]any{
				"service":   service,
				"operation": operation,
			},
			Cause: cause,
		},
		Service:   service,
		Operation: operation,
	}
}

// AsAppError returns the embedded AppError from any error in this package,
// searching the wrap chain.
func AsAppError(err error) (*AppError, bool) {
	var carrier interface{ AsAppError() *AppError }
	if errors.As(err, &carrier) {
		return carrier.AsAppError(), true
	}
	return nil, false
}

func IsRateLimited(err error) bool {
	var rle *RateLimitedError
	return errors.As(err, &rle)
}

func IsRetryExhausted(err error) bool {
	var ree *RetryExhaustedError
	return errors.As(err, &ree)
}

func IsConnectivity(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}
