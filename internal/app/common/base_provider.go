package common

import (
	"fmt"
	"path/filepath"

	"watchme-asr/internal/app/api/provider"
)

// BaseProvider provides common implementation for all providers
type BaseProvider struct {
	Info     provider.ProviderInfo
	Model    string
	Language string
}

// NewBaseProvider creates a new base provider for a remote backend
func NewBaseProvider(name, displayName, model, language string) BaseProvider {
	return BaseProvider{
		Info: provider.ProviderInfo{
			Name:             name,
			DisplayName:      displayName,
			Type:             provider.ProviderTypeRemote,
			SupportedFormats: []provider.AudioFormat{provider.FormatWAV, provider.FormatMP3, provider.FormatM4A},
			RequiresAPIKey:   true,
			DefaultModel:     model,
		},
		Model:    model,
		Language: language,
	}
}

// GetProviderInfo returns provider information
func (b BaseProvider) GetProviderInfo() provider.ProviderInfo {
	return b.Info
}

// Name returns the provider name used in errors and metadata
func (b BaseProvider) Name() string {
	return b.Info.Name
}

// ModelFor returns the request model or the configured one
func (b BaseProvider) ModelFor(req *provider.TranscriptionRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return b.Model
}

// LanguageFor returns the request language hint or the configured one
func (b BaseProvider) LanguageFor(req *provider.TranscriptionRequest) string {
	if req.Language != "" {
		return req.Language
	}
	return b.Language
}

// FormatFor returns the format hint, inferring it from the file name, defaulting to wav
func (b BaseProvider) FormatFor(req *provider.TranscriptionRequest) provider.AudioFormat {
	if req.Format != "" {
		return req.Format
	}
	if f := provider.GetAudioFormatFromFilename(req.FileName); f != "" {
		return f
	}
	return provider.FormatWAV
}

// FileNameFor returns a file name carrying the right extension for multipart uploads
func (b BaseProvider) FileNameFor(req *provider.TranscriptionRequest) string {
	if req.FileName != "" && provider.GetAudioFormatFromFilename(req.FileName) != "" {
		return filepath.Base(req.FileName)
	}
	return "audio." + string(b.FormatFor(req))
}

// CheckInput rejects requests the backend cannot accept before any network call
func (b BaseProvider) CheckInput(req *provider.TranscriptionRequest) error {
	if req == nil || len(req.Audio) == 0 {
		return provider.NewError(b.Name(), provider.ErrorKindUnsupportedInput, "empty_audio", "audio payload is empty", nil)
	}
	if limit := b.Info.MaxFileSizeMB; limit > 0 && len(req.Audio) > limit*1024*1024 {
		return provider.NewError(b.Name(), provider.ErrorKindUnsupportedInput, "file_too_large",
			fmt.Sprintf("audio of %d bytes exceeds %dMB limit", len(req.Audio), limit), nil)
	}
	if len(b.Info.SupportedFormats) > 0 {
		format := b.FormatFor(req)
		for _, f := range b.Info.SupportedFormats {
			if f == format {
				return nil
			}
		}
		return provider.NewError(b.Name(), provider.ErrorKindUnsupportedInput, "unsupported_format",
			fmt.Sprintf("format %s is not supported", format), nil)
	}
	return nil
}
