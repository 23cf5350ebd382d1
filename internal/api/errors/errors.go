package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"watchme-asr/internal/app/api/provider"
	"watchme-asr/internal/app/batch"
)

// ErrorKind represents different types of API errors
type ErrorKind string

const (
	KindValidation         ErrorKind = "validation"
	KindNotFound           ErrorKind = "not_found"
	KindInternal           ErrorKind = "internal"
	KindServiceUnavailable ErrorKind = "service_unavailable"
	KindBadRequest         ErrorKind = "bad_request"
	KindTooLarge           ErrorKind = "too_large"
)

// APIError represents a structured API error response
type APIError struct {
	Kind      ErrorKind         `json:"kind"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Code      string            `json:"code,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// HTTPStatus returns the appropriate HTTP status code for the error kind
func (e *APIError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewValidationError creates a validation error with field details
func NewValidationError(message string, fields map[string]string) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Message: message,
		Details: fields,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *APIError {
	return &APIError{
		Kind:    KindInternal,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error
func NewBadRequestError(message string) *APIError {
	return &APIError{
		Kind:    KindBadRequest,
		Message: message,
	}
}

// NewTooLargeError creates a payload size error
func NewTooLargeError(message string) *APIError {
	return &APIError{
		Kind:    KindTooLarge,
		Message: message,
	}
}

// NewServiceUnavailableError creates a service unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return &APIError{
		Kind:    KindServiceUnavailable,
		Message: message,
	}
}

// FromDomain maps errors returned by the batch core to API errors.
// Selector problems are 422, provider resolution and systemic batch failures 503.
// Anything else is returned unchanged so the recovery middleware reports it as internal.
func FromDomain(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}

	if stderrors.Is(err, batch.ErrInvalidSelector) {
		return &APIError{Kind: KindValidation, Message: err.Error(), Code: "invalid_selector"}
	}

	var unknown *provider.UnknownProviderError
	if stderrors.As(err, &unknown) {
		return &APIError{
			Kind:    KindServiceUnavailable,
			Message: err.Error(),
			Code:    "provider_unavailable",
			Details: map[string]string{"provider": unknown.Name, "reason": unknown.Reason},
		}
	}

	var orchErr *batch.OrchestratorError
	if stderrors.As(err, &orchErr) {
		return &APIError{Kind: KindServiceUnavailable, Message: err.Error(), Code: "batch_aborted"}
	}

	return err
}
