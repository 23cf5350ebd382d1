package dto

import (
	"watchme-asr/internal/app/api/provider"
)

// ProviderListResponse lists every known provider and the active selection.
type ProviderListResponse struct {
	Active    provider.Selection        `json:"active"`
	Providers []provider.ProviderStatus `json:"providers"`
}

// SelectionRequest switches the process-wide provider selection.
type SelectionRequest struct {
	Provider string `json:"provider" binding:"required"`
	Model    string `json:"model,omitempty"`
}

// SelectionResponse reports the selection before and after a switch.
type SelectionResponse struct {
	Previous provider.Selection `json:"previous"`
	Active   provider.Selection `json:"active"`
}

// ProviderStatsResponse represents provider usage statistics
type ProviderStatsResponse struct {
	provider.ProviderStats
	Name string `json:"name"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string                    `json:"status"`
	Timestamp int64                     `json:"timestamp"`
	Active    provider.Selection        `json:"active"`
	Providers map[string]ProviderHealth `json:"providers"`
}

// ProviderHealth reports whether a provider could be resolved right now.
type ProviderHealth struct {
	Enabled            bool   `json:"enabled"`
	CredentialsPresent bool   `json:"credentials_present"`
	Error              string `json:"error,omitempty"`
}
