package elevenlabs

import (
	"watchme-asr/internal/app/api/provider"
	"watchme-asr/internal/config"
)

func init() {
	provider.RegisterProvider("elevenlabs", provider.ProviderSpec{
		Creator:       createElevenLabsProvider,
		CredentialEnv: config.ProviderCredentialEnv["elevenlabs"],
		DefaultModel:  config.DefaultElevenLabsModel,
		DisplayName:   "ElevenLabs Speech-to-Text",
	})
}

func createElevenLabsProvider(cfg provider.ProviderConfig, model string) (provider.TranscriptionProvider, error) {
	return NewElevenLabsSTTProvider(ElevenLabsConfig{
		APIKey:   cfg.Auth.APIKey,
		BaseURL:  cfg.Auth.BaseURL,
		Model:    model,
		Language: cfg.StringSetting("language", "jpn"),
		Timeout:  cfg.Timeout(config.DefaultElevenLabsTimeout),
	})
}
