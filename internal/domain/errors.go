package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeAlreadyExists     = "ALREADY_EXISTS"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	ErrCodeEmptyIndex        = "EMPTY_INDEX"
	ErrCodeModelUnavailable  = "MODEL_UNAVAILABLE"
	ErrCodeModelError        = "MODEL_ERROR"
	ErrCodeParseFailure      = "PARSE_FAILURE"
	ErrCodePayloadTooLarge   = "PAYLOAD_TOO_LARGE"
)

// Validation errors
var (
	ErrInvalidIntent        = NewDomainError(ErrCodeValidation, "invalid intent")
	ErrInvalidGranularity   = NewDomainError(ErrCodeValidation, "invalid granularity")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrEmptyContent         = NewDomainError(ErrCodeValidation, "content is empty")
	ErrMissingOptions       = NewDomainError(ErrCodeValidation, "choice exercise requires options")
	ErrNoValidExercises     = NewDomainError(ErrCodeValidation, "no valid exercises in model output")
	ErrInvalidTrainingFmt   = NewDomainError(ErrCodeValidation, "invalid training export format")
	ErrPayloadTooLarge      = NewDomainError(ErrCodePayloadTooLarge, "request body too large")
)

// Not found errors
var (
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document not found")
	ErrSessionNotFound  = NewDomainError(ErrCodeNotFound, "session not found")
	ErrObjectNotFound   = NewDomainError(ErrCodeNotFound, "object not found")
)

// Authorization errors
var (
	ErrInvalidToken = NewDomainError(ErrCodeUnauthorized, "invalid api token")
)

// Index and model errors
var (
	ErrEmptyIndex        = NewDomainError(ErrCodeEmptyIndex, "the knowledge base is empty, add documents first")
	ErrUnsupportedFormat = NewDomainError(ErrCodeUnsupportedFormat, "unsupported file format")
	ErrModelUnavailable  = NewDomainError(ErrCodeModelUnavailable, "language model is unavailable")
	ErrModelError        = NewDomainError(ErrCodeModelError, "language model returned an error")
	ErrParseFailure      = NewDomainError(ErrCodeParseFailure, "model output is not valid JSON")
)

// HasCode reports whether err is a DomainError carrying the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
