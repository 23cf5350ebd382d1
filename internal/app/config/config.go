package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"watchme-asr/internal/app/api/provider"
	"watchme-asr/internal/app/batch"
	apperrors "watchme-asr/internal/app/errors"
	"watchme-asr/internal/app/policy"
	envconfig "watchme-asr/internal/config"
)

// Config is the YAML configuration of providers, batch runs and the skip policy.
type Config struct {
	DefaultProvider string                             `yaml:"default_provider"`
	DefaultModel    string                             `yaml:"default_model,omitempty"`
	Providers       map[string]provider.ProviderConfig `yaml:"providers"`
	Orchestrator    batch.Options                      `yaml:"orchestrator"`
	SkipPolicy      map[string]policy.DeviceRule       `yaml:"skip_policy,omitempty"`

	// Schedule runs a batch per device on a cron expression in the worker.
	Schedule ScheduleConfig `yaml:"schedule,omitempty"`
}

// ScheduleConfig lists the devices the Temporal worker processes periodically.
type ScheduleConfig struct {
	Cron    string   `yaml:"cron,omitempty"`
	Devices []string `yaml:"devices,omitempty"`
}

// Selection returns the configured startup selection.
func (c *Config) Selection() provider.Selection {
	return provider.Selection{Provider: c.DefaultProvider, Model: c.DefaultModel}
}

// QuotaHeuristics returns the quota heuristic of every configured provider.
func (c *Config) QuotaHeuristics() map[string]provider.QuotaHeuristicConfig {
	heuristics := make(map[string]provider.QuotaHeuristicConfig, len(c.Providers))
	for name, pc := range c.Providers {
		heuristics[name] = pc.QuotaHeuristic
	}
	return heuristics
}

// Load reads the YAML file at path. A missing file yields Default().
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := Default()
		cfg.expandEnvironmentVariables()
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes, expands and validates a YAML document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidConfig, fmt.Sprintf("failed to parse YAML: %v", err))
	}
	cfg.setDefaults()
	cfg.expandEnvironmentVariables()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg as YAML, creating the parent directory.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Providers == nil {
		c.Providers = make(map[string]provider.ProviderConfig)
	}
	if c.DefaultProvider == "" {
		c.DefaultProvider = "groq"
	}
	c.Orchestrator = c.Orchestrator.WithDefaults()
}

// expandEnvironmentVariables resolves ${VAR} references in provider credentials.
func (c *Config) expandEnvironmentVariables() {
	for name, pc := range c.Providers {
		c.Providers[name] = pc.ExpandEnv()
	}
}

// Validate checks provider, orchestrator and policy sections.
func (c *Config) Validate() error {
	if c.DefaultProvider != "" {
		if pc, ok := c.Providers[c.DefaultProvider]; ok && !pc.Enabled {
			return apperrors.Wrapf(apperrors.ErrInvalidConfig, "default provider '%s' is disabled", c.DefaultProvider)
		}
	}

	for name, pc := range c.Providers {
		if err := pc.Validate(name); err != nil {
			return apperrors.Wrap(apperrors.ErrInvalidConfig, err.Error())
		}
		if h := pc.QuotaHeuristic; h.Enabled {
			if err := envconfig.ValidateClock(h.WindowStart, name+" quota window_start"); err != nil {
				return apperrors.Wrap(apperrors.ErrInvalidConfig, err.Error())
			}
			if err := envconfig.ValidateClock(h.WindowEnd, name+" quota window_end"); err != nil {
				return apperrors.Wrap(apperrors.ErrInvalidConfig, err.Error())
			}
			if h.Timezone != "" {
				if _, err := time.LoadLocation(h.Timezone); err != nil {
					return apperrors.Wrapf(apperrors.ErrInvalidConfig, "provider '%s' quota timezone: %v", name, err)
				}
			}
		}
	}

	o := c.Orchestrator
	checks := []error{
		envconfig.ValidateConcurrency(o.Concurrency, "orchestrator"),
		envconfig.ValidateAttempts(o.FetchMaxAttempts, "fetch"),
		envconfig.ValidateAttempts(o.TranscribeMaxAttempts, "transcribe"),
		envconfig.ValidateTimeout(o.TranscribeTimeout, "transcribe"),
	}
	for _, err := range checks {
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInvalidConfig, err.Error())
		}
	}
	if _, err := o.Location(); err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidConfig, err.Error())
	}
	if q := o.Quota; q.Threshold < 0 || q.Window < 0 || q.Cooldown < 0 {
		return apperrors.Wrap(apperrors.ErrInvalidConfig, "quota_backoff values cannot be negative")
	}

	if _, err := policy.NewFilter(c.SkipPolicy); err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidConfig, err.Error())
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	if root, err := envconfig.GetProjectRoot(); err == nil {
		return filepath.Join(root, "config", "asr.yaml")
	}
	return "./config/asr.yaml"
}

// Default returns the built-in configuration used when no file exists.
func Default() *Config {
	groq := envconfig.GetProviderDefaults("groq")
	openai := envconfig.GetProviderDefaults("openai")
	azure := envconfig.GetProviderDefaults("azure")
	elevenlabs := envconfig.GetProviderDefaults("elevenlabs")
	gemini := envconfig.GetProviderDefaults("gemini")
	google := envconfig.GetProviderDefaults("google")

	cfg := &Config{
		DefaultProvider: "groq",
		DefaultModel:    envconfig.DefaultGroqModel,
		Providers: map[string]provider.ProviderConfig{
			"groq": {
				Type:    "groq",
				Enabled: true,
				Auth:    provider.AuthConfig{APIKey: "${GROQ_API_KEY}"},
				Settings: map[string]interface{}{
					"language": envconfig.DefaultLanguage,
					"prompt":   envconfig.DefaultWhisperPrompt,
				},
				Performance:   performance(groq),
				ErrorHandling: errorHandling(groq),
			},
			"openai": {
				Type:          "openai",
				Enabled:       true,
				Auth:          provider.AuthConfig{APIKey: "${OPENAI_API_KEY}"},
				Settings:      map[string]interface{}{"language": envconfig.DefaultLanguage},
				Performance:   performance(openai),
				ErrorHandling: errorHandling(openai),
			},
			"azure": {
				Type:    "azure",
				Enabled: true,
				Auth: provider.AuthConfig{
					APIKey: "${AZURE_SPEECH_KEY}",
					Region: "${AZURE_SERVICE_REGION}",
				},
				Settings:      map[string]interface{}{"language": envconfig.DefaultAzureLanguage},
				Performance:   performance(azure),
				ErrorHandling: errorHandling(azure),
				QuotaHeuristic: provider.QuotaHeuristicConfig{
					Enabled:     true,
					WindowStart: envconfig.DefaultAzureQuotaWindowStart,
					WindowEnd:   envconfig.DefaultAzureQuotaWindowEnd,
					Timezone:    envconfig.DefaultTimezone,
				},
			},
			"elevenlabs": {
				Type:          "elevenlabs",
				Enabled:       true,
				Auth:          provider.AuthConfig{APIKey: "${ELEVENLABS_API_KEY}"},
				Performance:   performance(elevenlabs),
				ErrorHandling: errorHandling(elevenlabs),
			},
			"gemini": {
				Type:          "gemini",
				Enabled:       true,
				Auth:          provider.AuthConfig{APIKey: "${GEMINI_API_KEY}"},
				Performance:   performance(gemini),
				ErrorHandling: errorHandling(gemini),
			},
			"google": {
				Type:          "google",
				Enabled:       false,
				Settings:      map[string]interface{}{"language": envconfig.DefaultGoogleLocale},
				Performance:   performance(google),
				ErrorHandling: errorHandling(google),
			},
		},
		Orchestrator: batch.Options{}.WithDefaults(),
	}
	return cfg
}

func performance(d envconfig.ProviderDefaults) provider.PerformanceConfig {
	return provider.PerformanceConfig{TimeoutSec: int(d.Timeout / time.Second)}
}

func errorHandling(d envconfig.ProviderDefaults) provider.ErrorHandlingConfig {
	return provider.ErrorHandlingConfig{
		MaxRetries:      d.Retries,
		RetryDelayMs:    d.RetryDelayMs,
		MaxRetryDelayMs: d.MaxRetryDelayMs,
	}
}
