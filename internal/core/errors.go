package core

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType represents the type of error that occurred.
type ErrorType string

const (
	// ErrorTypeInvalidRequest indicates a client error (4xx).
	ErrorTypeInvalidRequest ErrorType = "invalid_request_error"
	// ErrorTypeNotFound indicates a missing resource (404).
	ErrorTypeNotFound ErrorType = "not_found_error"
	// ErrorTypeAuthentication indicates an authentication error (401).
	ErrorTypeAuthentication ErrorType = "authentication_error"
	// ErrorTypeDetector indicates the external detection backend failed.
	ErrorTypeDetector ErrorType = "detector_error"
	// ErrorTypeInternal indicates an unexpected server-side failure.
	ErrorTypeInternal ErrorType = "internal_error"
)

// ServiceError is the base error type surfaced at the API boundary.
type ServiceError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code"`
	// Original error for debugging (not exposed to clients)
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the error unwrapping interface.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the appropriate HTTP status code for this error.
func (e *ServiceError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	switch e.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case ErrorTypeDetector:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ToJSON converts the error to a JSON-compatible map.
func (e *ServiceError) ToJSON() map[string]any {
	return map[string]any{
		"error": map[string]any{
			"type":    e.Type,
			"message": e.Message,
		},
	}
}

// NewInvalidRequestError creates a new invalid request error (400).
func NewInvalidRequestError(message string, err error) *ServiceError {
	return &ServiceError{
		Type:       ErrorTypeInvalidRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        err,
	}
}

// NewNotFoundError creates a new not found error (404).
func NewNotFoundError(message string) *ServiceError {
	return &ServiceError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewAuthenticationError creates a new authentication error (401).
func NewAuthenticationError(message string) *ServiceError {
	return &ServiceError{
		Type:       ErrorTypeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// BatchError reports a failed batch composition or detection pass.
// No partial composite is ever produced: the error names every field
// that made the call fail.
type BatchError struct {
	Message        string   `json:"message"`
	FailedFields   []string `json:"failed_fields"`
	SeparatorIssue bool     `json:"separator_issue"`
	Err            error    `json:"-"`
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.FailedFields) > 0 {
		fmt.Fprintf(&b, "; failed fields: %s", strings.Join(e.FailedFields, ", "))
	}
	if e.SeparatorIssue {
		b.WriteString("; the reserved field separator appears in input content")
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause, if any.
func (e *BatchError) Unwrap() error {
	return e.Err
}

// MarshalJSON keeps failed_fields non-null for API consumers.
func (e *BatchError) MarshalJSON() ([]byte, error) {
	fields := e.FailedFields
	if fields == nil {
		fields = []string{}
	}
	return json.Marshal(map[string]any{
		"message":         e.Message,
		"failed_fields":   fields,
		"separator_issue": e.SeparatorIssue,
	})
}

// NewDetectorError wraps a failure from the external detection backend
// with the fields that were being processed, preserving the cause.
func NewDetectorError(fields []string, err error) *BatchError {
	return &BatchError{
		Message:      "PII detection failed",
		FailedFields: fields,
		Err:          err,
	}
}

// ErrRemediationMismatch is returned when a caller-supplied remediation
// response list does not match the issue list 1:1. This is a programmer
// error: the call is aborted rather than applied partially.
type ErrRemediationMismatch struct {
	Issues    int
	Responses int
}

// Error implements the error interface.
func (e *ErrRemediationMismatch) Error() string {
	return fmt.Sprintf("remediation responses (%d) must match issues (%d) one-to-one", e.Responses, e.Issues)
}
