package provider

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "watchme-asr/internal/app/errors"
)

// MockTranscriptionProvider implements TranscriptionProvider interface for testing
type MockTranscriptionProvider struct {
	name         string
	model        string
	apiKey       string
	validateFunc func() error
}

func (m *MockTranscriptionProvider) Transcribe(ctx context.Context, request *TranscriptionRequest) (*TranscriptionResponse, error) {
	return &TranscriptionResponse{Text: "mock transcription result", ModelUsed: m.model}, nil
}

func (m *MockTranscriptionProvider) GetProviderInfo() ProviderInfo {
	return ProviderInfo{
		Name:             m.name,
		DisplayName:      "Mock Provider",
		Type:             ProviderTypeRemote,
		SupportedFormats: []AudioFormat{FormatWAV},
		DefaultModel:     "mock-v1",
	}
}

func (m *MockTranscriptionProvider) ValidateConfiguration() error {
	if m.validateFunc != nil {
		return m.validateFunc()
	}
	return nil
}

var constructed atomic.Int32

func init() {
	RegisterProvider("test-keyless", ProviderSpec{
		DefaultModel: "mock-v1",
		Creator: func(cfg ProviderConfig, model string) (TranscriptionProvider, error) {
			constructed.Add(1)
			return &MockTranscriptionProvider{name: "test-keyless", model: model}, nil
		},
	})
	RegisterProvider("test-keyed", ProviderSpec{
		DefaultModel:  "keyed-v1",
		CredentialEnv: []string{"TEST_KEYED_API_KEY"},
		Creator: func(cfg ProviderConfig, model string) (TranscriptionProvider, error) {
			return &MockTranscriptionProvider{name: "test-keyed", model: model, apiKey: cfg.Auth.APIKey}, nil
		},
	})
	RegisterProvider("test-broken", ProviderSpec{
		Creator: func(cfg ProviderConfig, model string) (TranscriptionProvider, error) {
			return nil, errors.New("boom")
		},
	})
}

func TestRegistryResolve(t *testing.T) {
	t.Setenv("TEST_KEYED_API_KEY", "")

	registry := NewRegistry(map[string]ProviderConfig{
		"test-keyless": {Enabled: true},
		"disabled":     {Type: "test-keyless", Enabled: false},
		"test-keyed":   {Enabled: true},
	}, Selection{Provider: "test-keyless"}, nil)

	t.Run("default model applied", func(t *testing.T) {
		adapter, sel, err := registry.Resolve(Selection{Provider: "test-keyless"})
		require.NoError(t, err)
		assert.Equal(t, "mock-v1", sel.Model)
		assert.Equal(t, "test-keyless", adapter.GetProviderInfo().Name)
	})

	tests := []struct {
		name   string
		sel    Selection
		reason string
		target error
	}{
		{"unregistered", Selection{Provider: "nope"}, "not registered", apperrors.ErrProviderNotFound},
		{"empty", Selection{}, "no provider selected", apperrors.ErrProviderNotFound},
		{"disabled", Selection{Provider: "disabled"}, "disabled", apperrors.ErrProviderDisabled},
		{"missing credentials", Selection{Provider: "test-keyed"}, "missing credentials", apperrors.ErrMissingAPIKey},
		{"construction failure", Selection{Provider: "test-broken"}, "construction failed", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := registry.Resolve(tt.sel)
			var unknown *UnknownProviderError
			require.ErrorAs(t, err, &unknown)
			assert.Equal(t, tt.reason, unknown.Reason)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestRegistryCredentialFromEnvironment(t *testing.T) {
	t.Setenv("TEST_KEYED_API_KEY", "secret")

	registry := NewRegistry(nil, Selection{Provider: "test-keyed"}, nil)
	adapter, sel, err := registry.ResolveActive(Selection{})
	require.NoError(t, err)
	assert.Equal(t, "keyed-v1", sel.Model)
	assert.Equal(t, "secret", adapter.(*MockTranscriptionProvider).apiKey)
}

func TestRegistryRechecksCredentialsForCachedAdapters(t *testing.T) {
	t.Setenv("TEST_KEYED_API_KEY", "first")
	registry := NewRegistry(nil, Selection{Provider: "test-keyed"}, nil)

	first, _, err := registry.ResolveActive(Selection{})
	require.NoError(t, err)
	again, _, err := registry.ResolveActive(Selection{})
	require.NoError(t, err)
	assert.Same(t, first, again)

	t.Setenv("TEST_KEYED_API_KEY", "rotated")
	rotated, _, err := registry.ResolveActive(Selection{})
	require.NoError(t, err)
	assert.NotSame(t, first, rotated)
	assert.Equal(t, "rotated", rotated.(*MockTranscriptionProvider).apiKey)

	t.Setenv("TEST_KEYED_API_KEY", "")
	_, _, err = registry.ResolveActive(Selection{})
	assert.ErrorIs(t, err, apperrors.ErrMissingAPIKey)
}

func TestRegistryCachesAdapters(t *testing.T) {
	registry := NewRegistry(nil, Selection{Provider: "test-keyless"}, nil)
	before := constructed.Load()

	first, _, err := registry.Resolve(Selection{Provider: "test-keyless", Model: "a"})
	require.NoError(t, err)
	second, _, err := registry.Resolve(Selection{Provider: "test-keyless", Model: "a"})
	require.NoError(t, err)
	other, _, err := registry.Resolve(Selection{Provider: "test-keyless", Model: "b"})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
	assert.Equal(t, before+2, constructed.Load())
}

func TestRegistrySetSelection(t *testing.T) {
	t.Setenv("TEST_KEYED_API_KEY", "")
	registry := NewRegistry(nil, Selection{Provider: "test-keyless"}, nil)

	_, err := registry.SetSelection(Selection{Provider: "test-keyed"})
	require.Error(t, err)
	assert.Equal(t, "test-keyless", registry.Active().Provider, "failed switch keeps previous selection")

	sel, err := registry.SetSelection(Selection{Provider: "test-keyless", Model: "mock-v2"})
	require.NoError(t, err)
	assert.Equal(t, Selection{Provider: "test-keyless", Model: "mock-v2"}, sel)
	assert.Equal(t, sel, registry.Active())

	_, resolved, err := registry.ResolveActive(Selection{Model: "mock-v3"})
	require.NoError(t, err)
	assert.Equal(t, "mock-v3", resolved.Model)
	assert.Equal(t, "mock-v2", registry.Active().Model, "overrides do not mutate the selection")
}

func TestRegistryConcurrentReads(t *testing.T) {
	registry := NewRegistry(nil, Selection{Provider: "test-keyless"}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%10 == 0 {
				_, _ = registry.SetSelection(Selection{Provider: "test-keyless", Model: "mock-v1"})
				return
			}
			_, _, err := registry.ResolveActive(Selection{})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
}

func TestRegistryDescribe(t *testing.T) {
	t.Setenv("TEST_KEYED_API_KEY", "")
	registry := NewRegistry(map[string]ProviderConfig{
		"test-keyed": {Enabled: true},
	}, Selection{Provider: "test-keyed"}, nil)

	var keyed *ProviderStatus
	for _, status := range registry.Describe() {
		if status.Name == "test-keyed" {
			s := status
			keyed = &s
		}
	}
	require.NotNil(t, keyed)
	assert.True(t, keyed.Registered)
	assert.True(t, keyed.Active)
	assert.False(t, keyed.CredentialsPresent)
	assert.Equal(t, "keyed-v1", keyed.DefaultModel)
}

func TestRegistryHealthCheckAll(t *testing.T) {
	t.Setenv("TEST_KEYED_API_KEY", "")

	registry := NewRegistry(map[string]ProviderConfig{
		"test-keyless": {Enabled: true},
		"disabled":     {Type: "test-keyless", Enabled: false},
	}, Selection{Provider: "test-keyless"}, nil)

	results := registry.HealthCheckAll(context.Background())

	assert.NoError(t, results["test-keyless"])
	assert.NotContains(t, results, "disabled")
	assert.ErrorIs(t, results["test-keyed"], apperrors.ErrMissingAPIKey)
	var unknown *UnknownProviderError
	require.ErrorAs(t, results["test-broken"], &unknown)
	assert.Equal(t, "construction failed", unknown.Reason)
}

func TestRegistryHealthCheckAllCancelled(t *testing.T) {
	registry := NewRegistry(nil, Selection{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for name, err := range registry.HealthCheckAll(ctx) {
		assert.ErrorIs(t, err, context.Canceled, name)
	}
}
