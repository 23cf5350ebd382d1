package config

import "time"

// Provider default configuration constants
const (
	// Timeout defaults
	DefaultGroqTimeout       = 60 * time.Second
	DefaultOpenAITimeout     = 60 * time.Second
	DefaultAzureTimeout      = 60 * time.Second
	DefaultElevenLabsTimeout = 120 * time.Second
	DefaultGeminiTimeout     = 120 * time.Second
	DefaultGoogleTimeout     = 90 * time.Second

	// Retry defaults
	DefaultRetries         = 2
	DefaultRetryDelayMs    = 2000
	DefaultMaxRetryDelayMs = 10000
	DefaultGroqMaxRetries  = 3

	// Model defaults
	DefaultGroqModel       = "whisper-large-v3-turbo"
	DefaultOpenAIModel     = "whisper-1"
	DefaultAzureModel      = "speech-short-audio"
	DefaultElevenLabsModel = "scribe_v1"
	DefaultGeminiModel     = "gemini-2.5-flash"
	DefaultGoogleModel     = "latest_long"

	// Language defaults
	DefaultLanguage      = "ja"
	DefaultAzureLanguage = "ja-JP"
	DefaultGoogleLocale  = "ja-JP"

	// Prompt sent to Whisper-family backends so silence does not produce hallucinated text.
	DefaultWhisperPrompt = "日本語の会話。無音や雑音のみの場合は空文字を返してください。"

	// Endpoints
	GroqBaseURL       = "https://api.groq.com/openai/v1"
	ElevenLabsBaseURL = "https://api.elevenlabs.io/v1"

	// Azure daily quota resets at 09:00 JST; empty results before that are quota signals.
	DefaultAzureQuotaWindowStart = "00:00"
	DefaultAzureQuotaWindowEnd   = "09:00"
	DefaultTimezone              = "Asia/Tokyo"

	// Object limits
	DefaultMaxAudioBytes = 25 * 1024 * 1024
	DefaultFetchTimeout  = 60 * time.Second
)

// Credential environment variables per provider kind.
var ProviderCredentialEnv = map[string][]string{
	"groq":       {"GROQ_API_KEY"},
	"openai":     {"OPENAI_API_KEY"},
	"azure":      {"AZURE_SPEECH_KEY"},
	"elevenlabs": {"ELEVENLABS_API_KEY"},
	"gemini":     {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

// ProviderDefaults holds all default configurations for providers
type ProviderDefaults struct {
	Timeout         time.Duration
	Retries         int
	RetryDelayMs    int
	MaxRetryDelayMs int
	Model           string
}

// GetProviderDefaults returns default configuration for a given provider type
func GetProviderDefaults(providerType string) ProviderDefaults {
	defaults := ProviderDefaults{
		Retries:         DefaultRetries,
		RetryDelayMs:    DefaultRetryDelayMs,
		MaxRetryDelayMs: DefaultMaxRetryDelayMs,
	}
	switch providerType {
	case "groq":
		defaults.Timeout = DefaultGroqTimeout
		defaults.Retries = DefaultGroqMaxRetries
		defaults.Model = DefaultGroqModel
	case "openai":
		defaults.Timeout = DefaultOpenAITimeout
		defaults.Retries = DefaultGroqMaxRetries
		defaults.Model = DefaultOpenAIModel
	case "azure":
		defaults.Timeout = DefaultAzureTimeout
		defaults.MaxRetryDelayMs = 5000
		defaults.Model = DefaultAzureModel
	case "elevenlabs":
		defaults.Timeout = DefaultElevenLabsTimeout
		defaults.Model = DefaultElevenLabsModel
	case "gemini":
		defaults.Timeout = DefaultGeminiTimeout
		defaults.Model = DefaultGeminiModel
	case "google":
		defaults.Timeout = DefaultGoogleTimeout
		defaults.Model = DefaultGoogleModel
	default:
		defaults.Timeout = DefaultOpenAITimeout
	}
	return defaults
}
