package whisper

import (
	"watchme-asr/internal/app/api/provider"
	"watchme-asr/internal/config"
)

func init() {
	// Groq serves Whisper behind an OpenAI-compatible endpoint
	provider.RegisterProvider("groq", provider.ProviderSpec{
		Creator:       createGroqProvider,
		CredentialEnv: config.ProviderCredentialEnv["groq"],
		DefaultModel:  config.DefaultGroqModel,
		DisplayName:   "Groq Whisper",
	})
	provider.RegisterProvider("openai", provider.ProviderSpec{
		Creator:       createOpenAIProvider,
		CredentialEnv: config.ProviderCredentialEnv["openai"],
		DefaultModel:  config.DefaultOpenAIModel,
		DisplayName:   "OpenAI Whisper API",
	})
}

func createGroqProvider(cfg provider.ProviderConfig, model string) (provider.TranscriptionProvider, error) {
	return NewTranscriber(settingsFrom("groq", "Groq Whisper", config.GroqBaseURL, cfg, model))
}

func createOpenAIProvider(cfg provider.ProviderConfig, model string) (provider.TranscriptionProvider, error) {
	return NewTranscriber(settingsFrom("openai", "OpenAI Whisper API", "", cfg, model))
}

func settingsFrom(name, display, baseURL string, cfg provider.ProviderConfig, model string) Config {
	if cfg.Auth.BaseURL != "" {
		baseURL = cfg.Auth.BaseURL
	}
	return Config{
		Name:        name,
		DisplayName: display,
		APIKey:      cfg.Auth.APIKey,
		BaseURL:     baseURL,
		Model:       model,
		Language:    cfg.StringSetting("language", config.DefaultLanguage),
		Prompt:      cfg.StringSetting("prompt", config.DefaultWhisperPrompt),
		Temperature: float32(cfg.FloatSetting("temperature", 0)),
		Timeout:     cfg.Timeout(config.GetProviderDefaults(name).Timeout),
	}
}
