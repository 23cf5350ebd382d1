package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"unicode/utf8"
)

// ErrorKind is the provider-independent failure class of a transcription call.
type ErrorKind string

const (
	ErrorKindAuth             ErrorKind = "auth"
	ErrorKindQuota            ErrorKind = "quota"
	ErrorKindUnsupportedInput ErrorKind = "unsupported_input"
	ErrorKindTransient        ErrorKind = "transient"
	ErrorKindUnknown          ErrorKind = "unknown"
)

// TranscriptionError represents provider-specific errors
type TranscriptionError struct {
	Kind       ErrorKind `json:"kind"`
	Code       string    `json:"code"`
	Message    string    `json:"message"`
	Provider   string    `json:"provider"`
	StatusCode int       `json:"status_code,omitempty"`
	Err        error     `json:"-"`
}

func (e *TranscriptionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (%s, status %d)", e.Provider, e.Message, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Kind)
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}

// NewError builds a TranscriptionError.
func NewError(provider string, kind ErrorKind, code, message string, cause error) *TranscriptionError {
	return &TranscriptionError{
		Kind:     kind,
		Code:     code,
		Message:  message,
		Provider: provider,
		Err:      cause,
	}
}

// KindFromHTTPStatus maps an HTTP status of a REST backend to an error kind.
func KindFromHTTPStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrorKindAuth
	case status == http.StatusTooManyRequests || status == http.StatusPaymentRequired:
		return ErrorKindQuota
	case status == http.StatusBadRequest || status == http.StatusRequestEntityTooLarge ||
		status == http.StatusUnsupportedMediaType || status == http.StatusUnprocessableEntity:
		return ErrorKindUnsupportedInput
	case status == http.StatusRequestTimeout || status >= 500:
		return ErrorKindTransient
	default:
		return ErrorKindUnknown
	}
}

// HTTPError builds the error for a non-2xx response of a REST backend.
func HTTPError(provider string, status int, body string) *TranscriptionError {
	kind := KindFromHTTPStatus(status)
	if kind == ErrorKindUnknown || kind == ErrorKindUnsupportedInput {
		// Some backends report exhausted quota as 400/403 with a message only.
		if LooksLikeQuota(body) {
			kind = ErrorKindQuota
		}
	}
	return &TranscriptionError{
		Kind:       kind,
		Code:       fmt.Sprintf("http_%d", status),
		Message:    truncate(body, 256),
		Provider:   provider,
		StatusCode: status,
	}
}

// TransportError classifies a failure that happened before a response arrived.
func TransportError(provider string, err error) *TranscriptionError {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return NewError(provider, ErrorKindTransient, "timeout", "request timed out", err)
	case errors.Is(err, context.Canceled):
		return NewError(provider, ErrorKindTransient, "canceled", "request canceled", err)
	case errors.As(err, &netErr):
		return NewError(provider, ErrorKindTransient, "network", err.Error(), err)
	default:
		return NewError(provider, ErrorKindUnknown, "request_failed", err.Error(), err)
	}
}

// KindOf extracts the error kind, treating foreign errors as unknown.
func KindOf(err error) ErrorKind {
	var te *TranscriptionError
	if errors.As(err, &te) {
		return te.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTransient
	}
	return ErrorKindUnknown
}

var quotaMarkers = []string{"429", "quota", "rate limit", "limit exceeded", "利用上限"}

// LooksLikeQuota reports whether a backend message names an exhausted quota.
func LooksLikeQuota(message string) bool {
	lower := strings.ToLower(message)
	for _, marker := range quotaMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// UnknownProviderError is returned when a selection cannot be resolved to an adapter.
type UnknownProviderError struct {
	Name   string
	Reason string
	Err    error
}

func (e *UnknownProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %q unavailable: %s: %v", e.Name, e.Reason, e.Err)
	}
	return fmt.Sprintf("provider %q unavailable: %s", e.Name, e.Reason)
}

func (e *UnknownProviderError) Unwrap() error {
	return e.Err
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
