package models

import (
	"fmt"
	"net/http"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeUpstream       = "UPSTREAM_FETCH_FAILED"
	ErrCodeNuxtNotFound   = "NUXT_SCRIPT_NOT_FOUND"
	ErrCodeIIFENotFound   = "IIFE_NOT_FOUND"
	ErrCodeRuntimeMissing = "RUNTIME_NOT_FOUND"
	ErrCodeEvaluation     = "EVALUATION_FAILED"
	ErrCodeEvalOutput     = "INVALID_EVAL_OUTPUT"
	ErrCodeModelNotFound  = "MODEL_NOT_FOUND"
	ErrCodeRateLimited    = "RATE_LIMITED"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// ToResponse converts an internal error to the API-facing error body.
func (e *ScrapeError) ToResponse() *ErrorResponse {
	return &ErrorResponse{Code: e.Code, Detail: e.Message}
}

// Status translates the error code to an HTTP status code.
func (e *ScrapeError) Status() int {
	switch e.Code {
	case ErrCodeInvalidInput, ErrCodeIIFENotFound:
		return http.StatusBadRequest // 400
	case ErrCodeNuxtNotFound, ErrCodeModelNotFound:
		return http.StatusNotFound // 404
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case ErrCodeUpstream:
		return http.StatusBadGateway // 502
	default:
		return http.StatusInternalServerError // 500
	}
}
