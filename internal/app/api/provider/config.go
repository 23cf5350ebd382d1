package provider

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// ProviderConfig represents configuration for a single provider
type ProviderConfig struct {
	// Adapter kind (groq, openai, azure, elevenlabs, gemini, google); defaults to the map key.
	Type string `yaml:"type,omitempty"`

	// Whether this provider is enabled
	Enabled bool `yaml:"enabled"`

	// Provider-specific settings
	Settings map[string]interface{} `yaml:"settings,omitempty"`

	Auth AuthConfig `yaml:"auth,omitempty"`

	Performance PerformanceConfig `yaml:"performance,omitempty"`

	ErrorHandling ErrorHandlingConfig `yaml:"error_handling,omitempty"`

	// Empty-result quota detection around the backend's quota reset time.
	QuotaHeuristic QuotaHeuristicConfig `yaml:"quota_heuristic,omitempty"`
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	// API key (can be environment variable reference like ${GROQ_API_KEY})
	APIKey string `yaml:"api_key,omitempty"`

	// Region for regional endpoints (Azure Speech)
	Region string `yaml:"region,omitempty"`

	// Additional headers for HTTP-based providers
	Headers map[string]string `yaml:"headers,omitempty"`

	// Override of the backend endpoint
	BaseURL string `yaml:"base_url,omitempty"`
}

// PerformanceConfig represents performance-related configuration
type PerformanceConfig struct {
	// Timeout for a single transcription request
	TimeoutSec int `yaml:"timeout_sec,omitempty"`

	// Rate limiting (requests per minute), 0 disables pacing
	RateLimitRPM int `yaml:"rate_limit_rpm,omitempty"`
}

// ErrorHandlingConfig represents error handling configuration
type ErrorHandlingConfig struct {
	// Maximum number of transient retries per item
	MaxRetries int `yaml:"max_retries,omitempty"`

	// Initial delay between retries
	RetryDelayMs int `yaml:"retry_delay_ms,omitempty"`

	// Upper bound of the exponential backoff
	MaxRetryDelayMs int `yaml:"max_retry_delay_ms,omitempty"`
}

// QuotaHeuristicConfig configures when an empty result is read as quota exhaustion.
type QuotaHeuristicConfig struct {
	Enabled bool `yaml:"enabled"`

	// Window bounds in HH:MM local time; the window may wrap midnight.
	WindowStart string `yaml:"window_start,omitempty"`
	WindowEnd   string `yaml:"window_end,omitempty"`
	Timezone    string `yaml:"timezone,omitempty"`

	// Results below this confidence count as empty inside the window.
	MinConfidence float64 `yaml:"min_confidence,omitempty"`
}

// Kind returns the adapter kind, falling back to the configured name.
func (c ProviderConfig) Kind(name string) string {
	if c.Type != "" {
		return c.Type
	}
	return name
}

// ResolveAPIKey returns the configured key or the first non-empty environment variable.
func (c ProviderConfig) ResolveAPIKey(envNames []string) string {
	if key := strings.TrimSpace(c.Auth.APIKey); key != "" {
		return key
	}
	for _, name := range envNames {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			return key
		}
	}
	return ""
}

// Timeout returns the per-request timeout or def when unset.
func (c ProviderConfig) Timeout(def time.Duration) time.Duration {
	if c.Performance.TimeoutSec > 0 {
		return time.Duration(c.Performance.TimeoutSec) * time.Second
	}
	return def
}

// StringSetting reads a string setting with a default.
func (c ProviderConfig) StringSetting(key, def string) string {
	if v, ok := c.Settings[key].(string); ok && v != "" {
		return v
	}
	return def
}

// FloatSetting reads a numeric setting with a default. YAML may decode ints.
func (c ProviderConfig) FloatSetting(key string, def float64) float64 {
	switch v := c.Settings[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}

// ExpandEnv resolves ${VAR} references in credentials, endpoints and string settings.
func (c ProviderConfig) ExpandEnv() ProviderConfig {
	c.Auth.APIKey = os.ExpandEnv(c.Auth.APIKey)
	c.Auth.Region = os.ExpandEnv(c.Auth.Region)
	c.Auth.BaseURL = os.ExpandEnv(c.Auth.BaseURL)
	if len(c.Auth.Headers) > 0 {
		headers := make(map[string]string, len(c.Auth.Headers))
		for key, value := range c.Auth.Headers {
			headers[key] = os.ExpandEnv(value)
		}
		c.Auth.Headers = headers
	}
	if len(c.Settings) > 0 {
		settings := make(map[string]interface{}, len(c.Settings))
		for key, value := range c.Settings {
			if s, ok := value.(string); ok {
				value = os.ExpandEnv(s)
			}
			settings[key] = value
		}
		c.Settings = settings
	}
	return c
}

// Validate checks the numeric bounds of a provider configuration.
func (c ProviderConfig) Validate(name string) error {
	if c.Performance.TimeoutSec < 0 {
		return fmt.Errorf("provider '%s' has invalid timeout", name)
	}
	if c.Performance.RateLimitRPM < 0 {
		return fmt.Errorf("provider '%s' has invalid rate limit", name)
	}
	if c.ErrorHandling.MaxRetries < 0 {
		return fmt.Errorf("provider '%s' has invalid max retries", name)
	}
	if c.ErrorHandling.RetryDelayMs < 0 || c.ErrorHandling.MaxRetryDelayMs < 0 {
		return fmt.Errorf("provider '%s' has invalid retry delay", name)
	}
	if h := c.QuotaHeuristic; h.Enabled {
		if h.WindowStart == "" || h.WindowEnd == "" {
			return fmt.Errorf("provider '%s' quota heuristic needs window_start and window_end", name)
		}
		if h.MinConfidence < 0 || h.MinConfidence > 1 {
			return fmt.Errorf("provider '%s' quota heuristic min_confidence must be within [0,1]", name)
		}
	}
	return nil
}
