package whisper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"watchme-asr/internal/app/api/provider"
	"watchme-asr/internal/app/common"
)

// Config represents configuration of an OpenAI-compatible Whisper backend
type Config struct {
	Name        string
	DisplayName string
	APIKey      string
	BaseURL     string
	Model       string
	Language    string
	Prompt      string
	Temperature float32
	Timeout     time.Duration
}

// Transcriber calls the audio transcription endpoint of an OpenAI-compatible API
type Transcriber struct {
	common.BaseProvider
	config Config
	client *openai.Client
}

// NewTranscriber creates a transcriber; it fails when no API key is configured
func NewTranscriber(config Config) (*Transcriber, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%s provider requires an API key", config.Name)
	}
	if config.Model == "" {
		config.Model = openai.Whisper1
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(config.BaseURL, "/")
	}
	clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}

	base := common.NewBaseProvider(config.Name, config.DisplayName, config.Model, config.Language)
	base.Info.SupportedFormats = append(base.Info.SupportedFormats, provider.FormatFLAC, provider.FormatOGG, provider.FormatWEBM)
	base.Info.MaxFileSizeMB = 25
	base.Info.SupportsConfidence = false
	base.Info.AvailableModels = []string{config.Model}

	return &Transcriber{
		BaseProvider: base,
		config:       config,
		client:       openai.NewClientWithConfig(clientConfig),
	}, nil
}

// Transcribe sends the audio as verbose_json so language and segments come back
func (t *Transcriber) Transcribe(ctx context.Context, request *provider.TranscriptionRequest) (*provider.TranscriptionResponse, error) {
	if err := t.CheckInput(request); err != nil {
		return nil, err
	}
	startTime := time.Now()

	audioRequest := openai.AudioRequest{
		Model:       t.ModelFor(request),
		FilePath:    t.FileNameFor(request),
		Reader:      bytes.NewReader(request.Audio),
		Prompt:      t.config.Prompt,
		Temperature: t.config.Temperature,
		Language:    t.LanguageFor(request),
		Format:      openai.AudioResponseFormatVerboseJSON,
	}

	resp, err := t.client.CreateTranscription(ctx, audioRequest)
	if err != nil {
		return nil, t.handleAPIError(err)
	}

	text := strings.TrimSpace(resp.Text)
	metadata := map[string]interface{}{
		"api_model":      audioRequest.Model,
		"duration_sec":   resp.Duration,
		"segment_count":  len(resp.Segments),
		"no_speech_prob": maxNoSpeechProb(resp),
	}

	return &provider.TranscriptionResponse{
		Text:             text,
		Confidence:       provider.EstimateConfidence(text),
		Language:         resp.Language,
		ProviderMetadata: metadata,
		ProcessingTime:   time.Since(startTime),
		ModelUsed:        audioRequest.Model,
	}, nil
}

// ValidateConfiguration validates the provider configuration
func (t *Transcriber) ValidateConfiguration() error {
	if t.config.APIKey == "" {
		return fmt.Errorf("%s API key is required", t.config.Name)
	}
	return nil
}

// handleAPIError converts go-openai errors to TranscriptionError
func (t *Transcriber) handleAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		te := provider.HTTPError(t.Name(), apiErr.HTTPStatusCode, apiErr.Message)
		if code, ok := apiErr.Code.(string); ok && code != "" {
			te.Code = code
			if strings.Contains(code, "rate_limit") || strings.Contains(code, "quota") {
				te.Kind = provider.ErrorKindQuota
			}
		}
		te.Err = err
		return te
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		te := provider.HTTPError(t.Name(), reqErr.HTTPStatusCode, reqErr.Error())
		te.Err = err
		return te
	}

	return provider.TransportError(t.Name(), err)
}

func maxNoSpeechProb(resp openai.AudioResponse) float64 {
	var highest float64
	for _, segment := range resp.Segments {
		if segment.NoSpeechProb > highest {
			highest = segment.NoSpeechProb
		}
	}
	return highest
}
