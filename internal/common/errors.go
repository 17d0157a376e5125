package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error codes for pipeline stage failures. These are persisted verbatim in
// document/transaction error fields so callers can classify failures.
const (
	CodeConfig          = "CONFIG_ERROR"
	CodeToolUnavailable = "TOOL_UNAVAILABLE"
	CodeTimeout         = "TIMEOUT"
	CodeExternalAPI     = "EXTERNAL_API_ERROR"
	CodeJSONParse       = "JSON_PARSE_ERROR"
	CodeNoText          = "NO_TEXT_AVAILABLE"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeQueueFull       = "QUEUE_FULL"
)

// Common application errors
var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrToolUnavailable = errors.New("external tool unavailable")
	ErrTimeout         = errors.New("operation timed out")
	ErrExternalAPI     = errors.New("external api error")
	ErrJSONParse       = errors.New("json parse error")
	ErrNoTextAvailable = errors.New("no extracted text available")
	ErrAlreadyRunning  = errors.New("pipeline already running for document")
	ErrQueueFull       = errors.New("processing queue is full")
	ErrDatabase        = errors.New("database error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
