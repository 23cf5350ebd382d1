package provider

import (
	"path/filepath"
	"strings"
	"time"
)

// AudioFormat defines supported audio formats
type AudioFormat string

const (
	FormatWAV  AudioFormat = "wav"
	FormatMP3  AudioFormat = "mp3"
	FormatM4A  AudioFormat = "m4a"
	FormatFLAC AudioFormat = "flac"
	FormatOGG  AudioFormat = "ogg"
	FormatWEBM AudioFormat = "webm"
)

// ProviderType defines the type of transcription provider
type ProviderType string

const (
	ProviderTypeLocal  ProviderType = "local"
	ProviderTypeRemote ProviderType = "remote"
)

// TranscriptionRequest carries the audio of one segment and its hints.
type TranscriptionRequest struct {
	Audio    []byte `json:"-"`
	FileName string `json:"file_name"`

	// Hints; adapters fall back to their configured defaults when empty.
	Language string      `json:"language,omitempty"`
	Format   AudioFormat `json:"format,omitempty"`
	Model    string      `json:"model,omitempty"`
}

// TranscriptionResponse represents the response from a transcription provider
type TranscriptionResponse struct {
	Text string `json:"text"`

	// Confidence is in [0,1] when the backend (or the adapter) can supply one.
	Confidence *float64 `json:"confidence,omitempty"`
	Language   string   `json:"language,omitempty"`

	// Opaque to the orchestrator.
	ProviderMetadata map[string]interface{} `json:"provider_metadata,omitempty"`

	ProcessingTime time.Duration `json:"processing_time,omitempty"`
	ModelUsed      string        `json:"model_used,omitempty"`
}

// ProviderInfo contains metadata about a transcription provider
type ProviderInfo struct {
	Name        string       `json:"name"`
	DisplayName string       `json:"display_name"`
	Type        ProviderType `json:"type"`

	SupportedFormats   []AudioFormat `json:"supported_formats"`
	SupportedLanguages []string      `json:"supported_languages,omitempty"` // Empty means all languages
	MaxFileSizeMB      int           `json:"max_file_size_mb,omitempty"`    // 0 means no limit

	SupportsConfidence bool `json:"supports_confidence"`
	RequiresAPIKey     bool `json:"requires_api_key"`

	DefaultModel    string   `json:"default_model,omitempty"`
	AvailableModels []string `json:"available_models,omitempty"`
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}

// IsValidAudioFormat checks if the given format is supported
func IsValidAudioFormat(format string) bool {
	switch AudioFormat(format) {
	case FormatWAV, FormatMP3, FormatM4A, FormatFLAC, FormatOGG, FormatWEBM:
		return true
	default:
		return false
	}
}

// GetAudioFormatFromFilename extracts audio format from filename
func GetAudioFormatFromFilename(filename string) AudioFormat {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if IsValidAudioFormat(ext) {
		return AudioFormat(ext)
	}
	return ""
}

// MIMEType returns the content type adapters send for the format.
func (f AudioFormat) MIMEType() string {
	switch f {
	case FormatMP3:
		return "audio/mpeg"
	case FormatM4A:
		return "audio/mp4"
	case FormatFLAC:
		return "audio/flac"
	case FormatOGG:
		return "audio/ogg"
	case FormatWEBM:
		return "audio/webm"
	default:
		return "audio/wav"
	}
}
