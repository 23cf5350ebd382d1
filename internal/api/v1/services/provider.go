package services

import (
	"context"
	"time"

	"github.com/samber/lo"

	"watchme-asr/internal/api/errors"
	"watchme-asr/internal/api/v1/dto"
	"watchme-asr/internal/app/api/provider"
)

// ProviderServiceImpl implements ProviderService
type ProviderServiceImpl struct {
	registry ProviderRegistry
	stats    provider.ProviderMetrics
}

// NewProviderService creates a new provider service. stats may be nil.
func NewProviderService(registry ProviderRegistry, stats provider.ProviderMetrics) ProviderService {
	return &ProviderServiceImpl{
		registry: registry,
		stats:    stats,
	}
}

// ListProviders lists configured and registered providers without constructing adapters
func (s *ProviderServiceImpl) ListProviders(ctx context.Context) (*dto.ProviderListResponse, error) {
	return &dto.ProviderListResponse{
		Active:    s.registry.Active(),
		Providers: s.registry.Describe(),
	}, nil
}

// SetSelection switches the process-wide selection; unresolvable selections are rejected
func (s *ProviderServiceImpl) SetSelection(ctx context.Context, req *dto.SelectionRequest) (*dto.SelectionResponse, error) {
	previous := s.registry.Active()
	active, err := s.registry.SetSelection(provider.Selection{Provider: req.Provider, Model: req.Model})
	if err != nil {
		return nil, errors.NewValidationError("provider selection rejected", map[string]string{
			"provider": err.Error(),
		})
	}
	return &dto.SelectionResponse{Previous: previous, Active: active}, nil
}

// GetProviderStats returns the in-process call statistics of a provider
func (s *ProviderServiceImpl) GetProviderStats(ctx context.Context, name string) (*dto.ProviderStatsResponse, error) {
	known := lo.ContainsBy(s.registry.Describe(), func(st provider.ProviderStatus) bool {
		return st.Name == name
	})
	if !known {
		return nil, errors.NewNotFoundError("provider")
	}

	var stats provider.ProviderStats
	if s.stats != nil {
		stats = s.stats.GetProviderMetrics(name)
	}
	stats.Provider = name
	return &dto.ProviderStatsResponse{ProviderStats: stats, Name: name}, nil
}

// Health resolves every enabled provider. The service is degraded when the
// active provider cannot be resolved.
func (s *ProviderServiceImpl) Health(ctx context.Context) (*dto.HealthResponse, error) {
	active := s.registry.Active()
	results := s.registry.HealthCheckAll(ctx)

	providers := make(map[string]dto.ProviderHealth)
	for _, st := range s.registry.Describe() {
		h := dto.ProviderHealth{Enabled: st.Enabled, CredentialsPresent: st.CredentialsPresent}
		if err := results[st.Name]; err != nil {
			h.Error = err.Error()
		}
		providers[st.Name] = h
	}

	status := "healthy"
	if err, checked := results[active.Provider]; !checked || err != nil {
		status = "degraded"
	}

	return &dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().Unix(),
		Active:    active,
		Providers: providers,
	}, nil
}
