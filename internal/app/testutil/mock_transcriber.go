package testutil

import (
	"context"
	"sync"
	"time"

	"watchme-asr/internal/app/api/provider"
)

// Reply is one scripted provider answer.
type Reply struct {
	Text       string
	Confidence *float64
	Err        error
}

// MockProvider is a scripted provider.TranscriptionProvider.
//
// Replies are keyed by request FileName and consumed in order; the last reply
// of a script repeats. Unscripted files get Default.
type MockProvider struct {
	mu sync.Mutex

	Info    provider.ProviderInfo
	Default Reply
	Latency time.Duration

	scripts map[string][]Reply
	calls   map[string]int
	total   int
	history []provider.TranscriptionRequest
}

// NewMockProvider creates a mock answering "mock transcription" by default
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		Info: provider.ProviderInfo{
			Name:             name,
			DisplayName:      "Mock " + name,
			Type:             provider.ProviderTypeRemote,
			SupportedFormats: []provider.AudioFormat{provider.FormatWAV},
			DefaultModel:     "mock-model",
		},
		Default: Reply{Text: "mock transcription"},
		scripts: make(map[string][]Reply),
		calls:   make(map[string]int),
	}
}

// On scripts the replies for one file name
func (m *MockProvider) On(fileName string, replies ...Reply) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[fileName] = replies
	return m
}

// Transcribe implements provider.TranscriptionProvider
func (m *MockProvider) Transcribe(ctx context.Context, request *provider.TranscriptionRequest) (*provider.TranscriptionResponse, error) {
	m.mu.Lock()
	n := m.calls[request.FileName]
	m.calls[request.FileName] = n + 1
	m.total++
	m.history = append(m.history, *request)
	reply := m.Default
	if script := m.scripts[request.FileName]; len(script) > 0 {
		if n >= len(script) {
			n = len(script) - 1
		}
		reply = script[n]
	}
	latency := m.Latency
	m.mu.Unlock()

	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return nil, provider.TransportError(m.Info.Name, ctx.Err())
		}
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	return &provider.TranscriptionResponse{
		Text:       reply.Text,
		Confidence: reply.Confidence,
		Language:   request.Language,
		ModelUsed:  request.Model,
	}, nil
}

// GetProviderInfo implements provider.TranscriptionProvider
func (m *MockProvider) GetProviderInfo() provider.ProviderInfo {
	return m.Info
}

// ValidateConfiguration implements provider.TranscriptionProvider
func (m *MockProvider) ValidateConfiguration() error {
	return nil
}

// Calls returns how often a file was transcribed
func (m *MockProvider) Calls(fileName string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[fileName]
}

// TotalCalls returns the number of Transcribe calls
func (m *MockProvider) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

// Requests returns a copy of every request received
func (m *MockProvider) Requests() []provider.TranscriptionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]provider.TranscriptionRequest(nil), m.history...)
}

// RegisterMock registers a provider kind whose creator always returns p.
// Names should be unique per test since the kind registry is process-wide.
func RegisterMock(name string, p *MockProvider) {
	provider.RegisterProvider(name, provider.ProviderSpec{
		Creator: func(cfg provider.ProviderConfig, model string) (provider.TranscriptionProvider, error) {
			return p, nil
		},
		DefaultModel: "mock-model",
		DisplayName:  p.Info.DisplayName,
	})
}

// QuotaError is the explicit quota rejection of a provider
func QuotaError(name string) error {
	return provider.NewError(name, provider.ErrorKindQuota, "rate_limit_exceeded", "quota exhausted", nil)
}

// TransientError is a retryable provider failure
func TransientError(name string) error {
	return provider.NewError(name, provider.ErrorKindTransient, "server_error", "upstream unavailable", nil)
}

// AuthError is a credential rejection
func AuthError(name string) error {
	return provider.NewError(name, provider.ErrorKindAuth, "unauthorized", "invalid key", nil)
}

// UnknownError is an unclassified provider failure
func UnknownError(name string) error {
	return provider.NewError(name, provider.ErrorKindUnknown, "unexpected", "unexpected response", nil)
}
