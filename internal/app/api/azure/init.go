package azure

import (
	"os"

	"watchme-asr/internal/app/api/provider"
	"watchme-asr/internal/config"
)

func init() {
	provider.RegisterProvider("azure", provider.ProviderSpec{
		Creator:       createAzureProvider,
		CredentialEnv: config.ProviderCredentialEnv["azure"],
		DefaultModel:  config.DefaultAzureModel,
		DisplayName:   "Azure Speech",
	})
}

func createAzureProvider(cfg provider.ProviderConfig, model string) (provider.TranscriptionProvider, error) {
	region := cfg.Auth.Region
	if region == "" {
		region = os.Getenv("AZURE_SERVICE_REGION")
	}
	return NewSpeechProvider(SpeechConfig{
		SubscriptionKey: cfg.Auth.APIKey,
		Region:          region,
		Endpoint:        cfg.Auth.BaseURL,
		Language:        cfg.StringSetting("language", config.DefaultAzureLanguage),
		Model:           model,
		Profanity:       cfg.StringSetting("profanity", "raw"),
		Timeout:         cfg.Timeout(config.DefaultAzureTimeout),
	})
}
