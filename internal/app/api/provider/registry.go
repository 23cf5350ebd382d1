package provider

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	apperrors "watchme-asr/internal/app/errors"
)

// Selection names the adapter and model used for transcription.
type Selection struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

func (s Selection) String() string {
	if s.Model == "" {
		return s.Provider
	}
	return s.Provider + "/" + s.Model
}

// ProviderStatus describes one known provider for health and management views.
type ProviderStatus struct {
	Name               string        `json:"name"`
	Kind               string        `json:"kind"`
	Registered         bool          `json:"registered"`
	Enabled            bool          `json:"enabled"`
	CredentialsPresent bool          `json:"credentials_present"`
	DefaultModel       string        `json:"default_model,omitempty"`
	Active             bool          `json:"active"`
	Info               *ProviderInfo `json:"info,omitempty"`
}

// Registry resolves selections to adapters and holds the process-wide selection.
//
// SetSelection is the only way to change the active selection. All methods are
// safe for concurrent use. Constructed adapters are cached per selection and
// rebuilt when the credential they were built with changes.
type Registry struct {
	mu        sync.RWMutex
	selection Selection
	configs   map[string]ProviderConfig
	adapters  map[Selection]cachedAdapter
	logger    *zap.Logger
}

type cachedAdapter struct {
	adapter    TranscriptionProvider
	credential string
}

// NewRegistry creates a registry over the given provider configurations.
// Credentials are checked when a selection is resolved, not here.
func NewRegistry(configs map[string]ProviderConfig, initial Selection, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	copied := make(map[string]ProviderConfig, len(configs))
	for name, cfg := range configs {
		copied[name] = cfg
	}
	return &Registry{
		selection: initial,
		configs:   copied,
		adapters:  make(map[Selection]cachedAdapter),
		logger:    logger,
	}
}

// Active returns the current process-wide selection.
func (r *Registry) Active() Selection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.selection
}

// SetSelection switches the process-wide selection after proving it resolves.
func (r *Registry) SetSelection(sel Selection) (Selection, error) {
	_, resolved, err := r.Resolve(sel)
	if err != nil {
		return Selection{}, err
	}

	r.mu.Lock()
	previous := r.selection
	r.selection = resolved
	r.mu.Unlock()

	r.logger.Info("provider selection changed",
		zap.String("from", previous.String()),
		zap.String("to", resolved.String()))
	return resolved, nil
}

// ResolveActive resolves the override when it names a provider, else the active selection.
// A model-only override applies to the active provider.
func (r *Registry) ResolveActive(override Selection) (TranscriptionProvider, Selection, error) {
	sel := r.Active()
	if override.Provider != "" {
		sel = override
	} else if override.Model != "" {
		sel.Model = override.Model
	}
	return r.Resolve(sel)
}

// Resolve returns the adapter for sel, constructing it on first use.
// It fails with *UnknownProviderError when the provider is unregistered,
// disabled, lacks credentials or cannot be constructed.
func (r *Registry) Resolve(sel Selection) (TranscriptionProvider, Selection, error) {
	if sel.Provider == "" {
		return nil, sel, &UnknownProviderError{Name: sel.Provider, Reason: "no provider selected", Err: apperrors.ErrProviderNotFound}
	}

	cfg, configured := r.Config(sel.Provider)
	if configured && !cfg.Enabled {
		return nil, sel, &UnknownProviderError{Name: sel.Provider, Reason: "disabled", Err: apperrors.ErrProviderDisabled}
	}

	spec, err := GetProviderSpec(cfg.Kind(sel.Provider))
	if err != nil {
		return nil, sel, &UnknownProviderError{Name: sel.Provider, Reason: "not registered", Err: apperrors.ErrProviderNotFound}
	}

	if sel.Model == "" {
		sel.Model = cfg.StringSetting("model", spec.DefaultModel)
	}

	// Credentials are read on every resolution, cached adapters included.
	var credential string
	if len(spec.CredentialEnv) > 0 {
		credential = cfg.ResolveAPIKey(spec.CredentialEnv)
		if credential == "" {
			return nil, sel, &UnknownProviderError{Name: sel.Provider, Reason: "missing credentials", Err: apperrors.ErrMissingAPIKey}
		}
		cfg.Auth.APIKey = credential
	}

	r.mu.RLock()
	cached, ok := r.adapters[sel]
	r.mu.RUnlock()
	if ok && cached.credential == credential {
		return cached.adapter, sel, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.adapters[sel]; ok && cached.credential == credential {
		return cached.adapter, sel, nil
	}

	adapter, err := spec.Creator(cfg, sel.Model)
	if err != nil {
		return nil, sel, &UnknownProviderError{Name: sel.Provider, Reason: "construction failed", Err: err}
	}
	if err := adapter.ValidateConfiguration(); err != nil {
		return nil, sel, &UnknownProviderError{Name: sel.Provider, Reason: "invalid configuration", Err: err}
	}

	r.adapters[sel] = cachedAdapter{adapter: adapter, credential: credential}
	r.logger.Info("provider adapter constructed",
		zap.String("provider", sel.Provider),
		zap.String("model", sel.Model))
	return adapter, sel, nil
}

// Config returns the configuration of a provider name. Unconfigured but
// registered providers get an enabled zero configuration.
func (r *Registry) Config(name string) (ProviderConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.configs[name]
	if !ok {
		return ProviderConfig{Enabled: true}, false
	}
	return cfg, true
}

// ListProviders returns configured and registered provider names, sorted.
func (r *Registry) ListProviders() []string {
	seen := make(map[string]struct{})
	r.mu.RLock()
	for name := range r.configs {
		seen[name] = struct{}{}
	}
	r.mu.RUnlock()
	for _, name := range ListRegisteredProviders() {
		seen[name] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe reports the state of every known provider without constructing adapters.
func (r *Registry) Describe() []ProviderStatus {
	active := r.Active()
	names := r.ListProviders()
	statuses := make([]ProviderStatus, 0, len(names))

	for _, name := range names {
		cfg, _ := r.Config(name)
		kind := cfg.Kind(name)
		status := ProviderStatus{
			Name:    name,
			Kind:    kind,
			Enabled: cfg.Enabled,
			Active:  name == active.Provider,
		}
		if spec, err := GetProviderSpec(kind); err == nil {
			status.Registered = true
			status.DefaultModel = cfg.StringSetting("model", spec.DefaultModel)
			status.CredentialsPresent = len(spec.CredentialEnv) == 0 || cfg.ResolveAPIKey(spec.CredentialEnv) != ""
		}

		r.mu.RLock()
		for sel, cached := range r.adapters {
			if sel.Provider == name {
				info := cached.adapter.GetProviderInfo()
				status.Info = &info
				break
			}
		}
		r.mu.RUnlock()

		statuses = append(statuses, status)
	}
	return statuses
}

// HealthCheckAll resolves every enabled, registered provider with its default model
// and returns the resolution error per name (nil when healthy).
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]error {
	results := make(map[string]error)
	for _, name := range r.ListProviders() {
		if err := ctx.Err(); err != nil {
			results[name] = err
			continue
		}
		cfg, _ := r.Config(name)
		if !cfg.Enabled {
			continue
		}
		_, _, err := r.Resolve(Selection{Provider: name})
		results[name] = err
	}
	return results
}
