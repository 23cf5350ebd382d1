package provider

import (
	"context"
)

// TranscriptionProvider is the contract every speech-to-text backend adapter fulfils.
//
// Adapters hold no mutable state shared across calls and map every native
// failure to a *TranscriptionError so the classifier never sees vendor errors.
type TranscriptionProvider interface {
	// Transcribe submits audio bytes and returns the backend's result.
	Transcribe(ctx context.Context, request *TranscriptionRequest) (*TranscriptionResponse, error)

	// Provider metadata and capabilities
	GetProviderInfo() ProviderInfo

	// ValidateConfiguration checks credentials and settings without calling the backend.
	ValidateConfiguration() error
}

// ProviderMetrics records per-provider call statistics for the management API.
type ProviderMetrics interface {
	// Record a successful transcription
	RecordSuccess(provider string, latencyMs int64, audioBytes int)

	// Record a failed transcription
	RecordFailure(provider string, kind ErrorKind)

	// Get metrics for a provider
	GetProviderMetrics(provider string) ProviderStats

	// Get overall metrics
	GetOverallMetrics() OverallStats
}

// ProviderStats contains statistics for a specific provider
type ProviderStats struct {
	Provider           string              `json:"provider"`
	TotalRequests      int64               `json:"total_requests"`
	SuccessfulRequests int64               `json:"successful_requests"`
	FailedRequests     int64               `json:"failed_requests"`
	SuccessRate        float64             `json:"success_rate"`
	AverageLatencyMs   float64             `json:"average_latency_ms"`
	TotalAudioBytes    int64               `json:"total_audio_bytes"`
	LastUsed           int64               `json:"last_used_timestamp"`
	IsHealthy          bool                `json:"is_healthy"`
	ErrorBreakdown     map[ErrorKind]int64 `json:"error_breakdown"`
}

// OverallStats contains overall transcription statistics
type OverallStats struct {
	TotalProviders       int                      `json:"total_providers"`
	TotalRequests        int64                    `json:"total_requests"`
	SuccessfulRequests   int64                    `json:"successful_requests"`
	OverallSuccessRate   float64                  `json:"overall_success_rate"`
	FastestProvider      string                   `json:"fastest_provider"`
	MostReliableProvider string                   `json:"most_reliable_provider"`
	ProviderStats        map[string]ProviderStats `json:"provider_stats"`
}
