package google

import (
	"context"

	"watchme-asr/internal/app/api/provider"
	"watchme-asr/internal/config"
)

func init() {
	// Uses Application Default Credentials
	provider.RegisterProvider("google", provider.ProviderSpec{
		Creator:       createGoogleProvider,
		CredentialEnv: []string{"GOOGLE_APPLICATION_CREDENTIALS"},
		DefaultModel:  config.DefaultGoogleModel,
		DisplayName:   "Google Cloud Speech-to-Text",
	})
}

func createGoogleProvider(cfg provider.ProviderConfig, model string) (provider.TranscriptionProvider, error) {
	return NewSpeechProvider(context.Background(), SpeechConfig{
		Model:           model,
		Language:        cfg.StringSetting("language", config.DefaultGoogleLocale),
		SampleRateHertz: int32(cfg.FloatSetting("sample_rate_hertz", 0)),
	})
}
