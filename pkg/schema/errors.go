package schema

import (
	"errors"
	"fmt"
)

// Error codes for structured error reporting.
const (
	ErrCodeFileNotFound = "FILE_NOT_FOUND"
	ErrCodeParse        = "PARSE_ERROR"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeStepFailed   = "STEP_FAILED"
	ErrCodeCondition    = "CONDITION_ERROR"
	ErrCodeTimeout      = "TIMEOUT_ERROR"
	ErrCodeTemplate     = "TEMPLATE_ERROR"
	ErrCodeExecution    = "EXECUTION_ERROR"
)

// FlowError is the structured error type for all flowkit operations.
type FlowError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Step    string `json:"step,omitempty"`
	Cause   error  `json:"-"`
}

func (e *FlowError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("[%s] step %s: %s", e.Code, e.Step, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *FlowError) Unwrap() error {
	return e.Cause
}

// NewError creates a new FlowError.
func NewError(code, message string) *FlowError {
	return &FlowError{Code: code, Message: message}
}

// NewErrorf creates a new FlowError with a formatted message.
func NewErrorf(code, format string, args ...any) *FlowError {
	return &FlowError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithStep attaches a step name to the error.
func (e *FlowError) WithStep(step string) *FlowError {
	e.Step = step
	return e
}

// WithCause attaches an underlying cause.
func (e *FlowError) WithCause(err error) *FlowError {
	e.Cause = err
	return e
}

// CodeOf returns the FlowError code carried by err, or "" if err does not
// wrap a FlowError.
func CodeOf(err error) string {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}
