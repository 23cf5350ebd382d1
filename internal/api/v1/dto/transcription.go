package dto

import (
	"strings"
	"unicode/utf8"
)

// Upload limits of POST /api/v1/transcribe.
const (
	MaxUploadBytes = 25 * 1024 * 1024
)

// AllowedUploadExtensions are the file extensions accepted for direct transcription.
var AllowedUploadExtensions = []string{".wav", ".mp3", ".m4a"}

// TranscribeQuery holds optional query parameters of a direct transcription.
type TranscribeQuery struct {
	Provider string `form:"provider"`
	Model    string `form:"model"`
	Language string `form:"language"`
}

// TranscribeUpload is a validated direct transcription request.
type TranscribeUpload struct {
	FileName string
	Audio    []byte
	TranscribeQuery
}

// TranscribeResponse is the result of a direct transcription. Nothing is persisted.
type TranscribeResponse struct {
	Transcription     string   `json:"transcription"`
	Confidence        *float64 `json:"confidence,omitempty"`
	ProcessingTime    float64  `json:"processing_time"`
	WordCount         int      `json:"word_count"`
	EstimatedDuration float64  `json:"estimated_duration"`
	Provider          string   `json:"provider"`
	Model             string   `json:"model"`
	Outcome           string   `json:"outcome"`
	Reason            string   `json:"reason,omitempty"`
}

// WordCount counts whitespace-separated words, or characters for unspaced scripts
// such as Japanese.
func WordCount(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	if words := strings.Fields(text); len(words) > 1 {
		return len(words)
	}
	return utf8.RuneCountInString(text)
}

// EstimateDuration guesses spoken seconds from the text length at ~5 characters per second.
func EstimateDuration(text string) float64 {
	return float64(utf8.RuneCountInString(strings.TrimSpace(text))) / 5.0
}
