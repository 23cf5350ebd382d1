package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"watchme-asr/internal/app/api/provider"
	"watchme-asr/internal/app/common"
	"watchme-asr/internal/config"
)

// ElevenLabsSTTProvider implements the TranscriptionProvider interface for ElevenLabs Speech-to-Text API
type ElevenLabsSTTProvider struct {
	common.BaseProvider
	config ElevenLabsConfig
	client *http.Client
}

// ElevenLabsConfig represents configuration for ElevenLabs STT provider
type ElevenLabsConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
	Timeout  time.Duration
}

// ElevenLabsResponse represents the response from ElevenLabs STT API
type ElevenLabsResponse struct {
	Text                string  `json:"text"`
	LanguageCode        string  `json:"language_code,omitempty"`
	LanguageProbability float64 `json:"language_probability,omitempty"`
	Words               []Word  `json:"words,omitempty"`
}

// Word represents word-level timing information from ElevenLabs
type Word struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Type  string  `json:"type"`
}

// NewElevenLabsSTTProvider creates a new ElevenLabs STT provider
func NewElevenLabsSTTProvider(cfg ElevenLabsConfig) (*ElevenLabsSTTProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("elevenlabs provider requires an API key")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.ElevenLabsBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = config.DefaultElevenLabsModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = config.DefaultElevenLabsTimeout
	}

	base := common.NewBaseProvider("elevenlabs", "ElevenLabs Speech-to-Text", cfg.Model, cfg.Language)
	base.Info.SupportedFormats = append(base.Info.SupportedFormats, provider.FormatFLAC, provider.FormatOGG, provider.FormatWEBM)
	base.Info.MaxFileSizeMB = 1000
	base.Info.AvailableModels = []string{"scribe_v1", "scribe_v1_experimental"}

	return &ElevenLabsSTTProvider{
		BaseProvider: base,
		config:       cfg,
		client:       &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Transcribe implements the transcription contract
func (el *ElevenLabsSTTProvider) Transcribe(ctx context.Context, request *provider.TranscriptionRequest) (*provider.TranscriptionResponse, error) {
	if err := el.CheckInput(request); err != nil {
		return nil, err
	}
	startTime := time.Now()

	httpReq, err := el.createHTTPRequest(ctx, request)
	if err != nil {
		return nil, provider.NewError(el.Name(), provider.ErrorKindUnknown, "request_creation_error", err.Error(), err)
	}

	resp, err := el.client.Do(httpReq)
	if err != nil {
		return nil, provider.TransportError(el.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, provider.HTTPError(el.Name(), resp.StatusCode, string(body))
	}

	var elevenLabsResp ElevenLabsResponse
	if err := json.NewDecoder(resp.Body).Decode(&elevenLabsResp); err != nil {
		return nil, provider.NewError(el.Name(), provider.ErrorKindUnknown, "response_parse_error",
			fmt.Sprintf("failed to parse API response: %v", err), err)
	}

	text := strings.TrimSpace(elevenLabsResp.Text)
	return &provider.TranscriptionResponse{
		Text:           text,
		Confidence:     provider.EstimateConfidence(text),
		Language:       elevenLabsResp.LanguageCode,
		ProcessingTime: time.Since(startTime),
		ModelUsed:      el.ModelFor(request),
		ProviderMetadata: map[string]interface{}{
			"language_probability": elevenLabsResp.LanguageProbability,
			"word_count":           countWords(elevenLabsResp.Words),
		},
	}, nil
}

// createHTTPRequest creates the multipart request for the ElevenLabs API
func (el *ElevenLabsSTTProvider) createHTTPRequest(ctx context.Context, request *provider.TranscriptionRequest) (*http.Request, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", el.FileNameFor(request))
	if err != nil {
		return nil, fmt.Errorf("failed to create form: %w", err)
	}
	if _, err := part.Write(request.Audio); err != nil {
		return nil, fmt.Errorf("failed to copy audio data: %w", err)
	}
	if err := writer.WriteField("model_id", el.ModelFor(request)); err != nil {
		return nil, fmt.Errorf("failed to add model field: %w", err)
	}
	if language := el.LanguageFor(request); language != "" {
		if err := writer.WriteField("language_code", language); err != nil {
			return nil, fmt.Errorf("failed to add language field: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	url := strings.TrimRight(el.config.BaseURL, "/") + "/speech-to-text"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("xi-api-key", el.config.APIKey)
	return req, nil
}

// ValidateConfiguration validates the provider configuration
func (el *ElevenLabsSTTProvider) ValidateConfiguration() error {
	if el.config.APIKey == "" {
		return fmt.Errorf("elevenlabs API key is required")
	}
	return nil
}

func countWords(words []Word) int {
	n := 0
	for _, w := range words {
		if w.Type == "" || w.Type == "word" {
			n++
		}
	}
	return n
}
