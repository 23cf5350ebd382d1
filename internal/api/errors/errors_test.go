package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"watchme-asr/internal/app/api/provider"
	"watchme-asr/internal/app/batch"
)

func TestAPIErrorHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *APIError
		want int
	}{
		{NewValidationError("bad", nil), http.StatusUnprocessableEntity},
		{NewBadRequestError("bad"), http.StatusBadRequest},
		{NewNotFoundError("provider"), http.StatusNotFound},
		{NewTooLargeError("big"), http.StatusRequestEntityTooLarge},
		{NewServiceUnavailableError("down"), http.StatusServiceUnavailable},
		{NewInternalError("oops"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
	assert.Equal(t, "provider not found", NewNotFoundError("provider").Error())
}

func TestFromDomain(t *testing.T) {
	assert.Nil(t, FromDomain(nil))

	t.Run("invalid selector", func(t *testing.T) {
		err := FromDomain(fmt.Errorf("%w: time block 9-00", batch.ErrInvalidSelector))
		var apiErr *APIError
		assert.True(t, stderrors.As(err, &apiErr))
		assert.Equal(t, http.StatusUnprocessableEntity, apiErr.HTTPStatus())
		assert.Equal(t, "invalid_selector", apiErr.Code)
	})

	t.Run("unknown provider inside orchestrator error", func(t *testing.T) {
		err := FromDomain(&batch.OrchestratorError{
			Op:  "resolve provider",
			Err: &provider.UnknownProviderError{Name: "gemini", Reason: "missing credentials"},
		})
		apiErr := err.(*APIError)
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.HTTPStatus())
		assert.Equal(t, "provider_unavailable", apiErr.Code)
		assert.Equal(t, "gemini", apiErr.Details["provider"])
	})

	t.Run("orchestrator error", func(t *testing.T) {
		apiErr := FromDomain(&batch.OrchestratorError{Op: "select work items", Err: stderrors.New("db down")}).(*APIError)
		assert.Equal(t, "batch_aborted", apiErr.Code)
	})

	t.Run("api errors pass through", func(t *testing.T) {
		original := NewNotFoundError("provider")
		assert.Same(t, original, FromDomain(fmt.Errorf("wrapped: %w", original)))
	})

	t.Run("unmapped errors unchanged", func(t *testing.T) {
		plain := stderrors.New("boom")
		assert.Equal(t, plain, FromDomain(plain))
	})
}
