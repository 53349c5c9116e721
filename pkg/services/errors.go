// Package services provides the business operations behind the REST API:
// workflow lifecycle, customer management, pipeline moves and the content
// libraries.
package services

import (
	"errors"
	"fmt"
)

// Business logic errors. These indicate client errors (4xx responses).
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest        = errors.New("invalid request")
	ErrWorkflowNil           = errors.New("workflow cannot be nil")
	ErrWorkflowNameRequired  = errors.New("workflow name is required")
	ErrNodesRequired         = errors.New("workflow must have at least one node")
	ErrTriggerNodeRequired   = errors.New("workflow must have at least one enabled trigger node")
	ErrInvalidConnectionData = errors.New("invalid connection data")
	ErrUnknownNodeType       = errors.New("unknown node type")
	ErrInvalidChannel        = errors.New("invalid channel")
	ErrStageRequired         = errors.New("stage ID is required")

	// Business logic conflicts (409 Conflict).
	ErrWorkflowNotActive      = errors.New("workflow is not active")
	ErrCannotActivateWorkflow = errors.New("workflow cannot be activated")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error should map to HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, ErrWorkflowNameRequired) ||
		errors.Is(err, ErrNodesRequired) ||
		errors.Is(err, ErrTriggerNodeRequired) ||
		errors.Is(err, ErrInvalidConnectionData) ||
		errors.Is(err, ErrUnknownNodeType) ||
		errors.Is(err, ErrInvalidChannel) ||
		errors.Is(err, ErrStageRequired)
}

// IsConflictError checks if an error should map to HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrWorkflowNotActive) ||
		errors.Is(err, ErrCannotActivateWorkflow)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
