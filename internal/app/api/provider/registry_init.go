package provider

import (
	"fmt"
	"sort"
	"sync"
)

// ProviderCreator builds an adapter from its configuration and the selected model.
type ProviderCreator func(config ProviderConfig, model string) (TranscriptionProvider, error)

// ProviderSpec describes how to build one adapter kind.
type ProviderSpec struct {
	Creator ProviderCreator

	// CredentialEnv names the environment variables consulted when the
	// configuration carries no API key. Empty means no credential is needed.
	CredentialEnv []string

	DefaultModel string
	DisplayName  string
}

// providerRegistry stores provider creation functions
var (
	providerRegistry = make(map[string]ProviderSpec)
	registryMutex    sync.RWMutex
)

// RegisterProvider registers a provider kind. Adapter packages call it from init.
func RegisterProvider(providerType string, spec ProviderSpec) {
	registryMutex.Lock()
	defer registryMutex.Unlock()
	providerRegistry[providerType] = spec
}

// GetProviderSpec returns the spec for a provider type
func GetProviderSpec(providerType string) (ProviderSpec, error) {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	spec, ok := providerRegistry[providerType]
	if !ok {
		return ProviderSpec{}, fmt.Errorf("provider type %s not registered", providerType)
	}
	return spec, nil
}

// ListRegisteredProviders returns all registered provider types, sorted.
func ListRegisteredProviders() []string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	providers := make([]string, 0, len(providerRegistry))
	for providerType := range providerRegistry {
		providers = append(providers, providerType)
	}
	sort.Strings(providers)
	return providers
}
