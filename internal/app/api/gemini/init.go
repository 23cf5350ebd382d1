package gemini

import (
	"context"

	"watchme-asr/internal/app/api/provider"
	"watchme-asr/internal/config"
)

func init() {
	provider.RegisterProvider("gemini", provider.ProviderSpec{
		Creator:       createGeminiProvider,
		CredentialEnv: config.ProviderCredentialEnv["gemini"],
		DefaultModel:  config.DefaultGeminiModel,
		DisplayName:   "Gemini audio transcription",
	})
}

func createGeminiProvider(cfg provider.ProviderConfig, model string) (provider.TranscriptionProvider, error) {
	return NewProvider(context.Background(), Config{
		APIKey:      cfg.Auth.APIKey,
		BaseURL:     cfg.Auth.BaseURL,
		Model:       model,
		Language:    cfg.StringSetting("language", config.DefaultLanguage),
		Instruction: cfg.StringSetting("instruction", defaultInstruction),
		Timeout:     cfg.Timeout(config.DefaultGeminiTimeout),
	})
}
