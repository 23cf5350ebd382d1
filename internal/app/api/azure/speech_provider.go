package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"watchme-asr/internal/app/api/provider"
	"watchme-asr/internal/app/common"
)

const recognitionPath = "/speech/recognition/conversation/cognitiveservices/v1"

// SpeechConfig represents configuration for the Azure Speech short-audio REST API
type SpeechConfig struct {
	SubscriptionKey string
	Region          string
	Endpoint        string // overrides the regional endpoint
	Language        string
	Model           string
	Profanity       string
	Timeout         time.Duration
}

// SpeechProvider implements TranscriptionProvider on Azure Speech-to-Text
type SpeechProvider struct {
	common.BaseProvider
	config SpeechConfig
	client *http.Client
}

// recognitionResponse is the detailed-format response body
type recognitionResponse struct {
	RecognitionStatus string  `json:"RecognitionStatus"`
	DisplayText       string  `json:"DisplayText"`
	Offset            int64   `json:"Offset"`
	Duration          int64   `json:"Duration"`
	NBest             []nBest `json:"NBest"`
}

type nBest struct {
	Confidence float64 `json:"Confidence"`
	Lexical    string  `json:"Lexical"`
	Display    string  `json:"Display"`
}

// NewSpeechProvider creates a new Azure Speech provider
func NewSpeechProvider(config SpeechConfig) (*SpeechProvider, error) {
	if config.SubscriptionKey == "" {
		return nil, fmt.Errorf("azure provider requires a subscription key")
	}
	if config.Endpoint == "" {
		if config.Region == "" {
			return nil, fmt.Errorf("azure provider requires a service region")
		}
		config.Endpoint = fmt.Sprintf("https://%s.stt.speech.microsoft.com", config.Region)
	}
	if config.Profanity == "" {
		config.Profanity = "raw"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}

	base := common.NewBaseProvider("azure", "Azure Speech", config.Model, config.Language)
	base.Info.SupportedFormats = []provider.AudioFormat{provider.FormatWAV, provider.FormatOGG}
	base.Info.MaxFileSizeMB = 25
	base.Info.SupportsConfidence = true

	return &SpeechProvider{
		BaseProvider: base,
		config:       config,
		client:       &http.Client{Timeout: config.Timeout},
	}, nil
}

// Transcribe posts the audio to the short-audio recognition endpoint
func (p *SpeechProvider) Transcribe(ctx context.Context, request *provider.TranscriptionRequest) (*provider.TranscriptionResponse, error) {
	if err := p.CheckInput(request); err != nil {
		return nil, err
	}
	startTime := time.Now()

	httpReq, err := p.createHTTPRequest(ctx, request)
	if err != nil {
		return nil, provider.NewError(p.Name(), provider.ErrorKindUnknown, "request_creation_error", err.Error(), err)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, provider.TransportError(p.Name(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.TransportError(p.Name(), err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, provider.HTTPError(p.Name(), resp.StatusCode, string(body))
	}

	var recognition recognitionResponse
	if err := json.Unmarshal(body, &recognition); err != nil {
		return nil, provider.NewError(p.Name(), provider.ErrorKindUnknown, "response_parse_error",
			fmt.Sprintf("failed to parse API response: %v", err), err)
	}

	response := &provider.TranscriptionResponse{
		Language:       p.LanguageFor(request),
		ProcessingTime: time.Since(startTime),
		ModelUsed:      p.ModelFor(request),
		ProviderMetadata: map[string]interface{}{
			"recognition_status": recognition.RecognitionStatus,
			"offset_ticks":       recognition.Offset,
			"duration_ticks":     recognition.Duration,
		},
	}

	switch recognition.RecognitionStatus {
	case "Success":
		response.Text = strings.TrimSpace(recognition.DisplayText)
		if len(recognition.NBest) > 0 {
			if response.Text == "" {
				response.Text = strings.TrimSpace(recognition.NBest[0].Display)
			}
			response.Confidence = provider.Float64(recognition.NBest[0].Confidence)
		} else {
			response.Confidence = provider.EstimateConfidence(response.Text)
		}
	case "NoMatch", "InitialSilenceTimeout", "BabbleTimeout":
		// Recognized as silence; the classifier decides between no-speech and quota.
	case "Error":
		return nil, provider.NewError(p.Name(), provider.ErrorKindTransient, "recognition_error", "recognition service reported an error", nil)
	default:
		return nil, provider.NewError(p.Name(), provider.ErrorKindUnknown, "unexpected_status",
			fmt.Sprintf("unexpected recognition status %q", recognition.RecognitionStatus), nil)
	}

	return response, nil
}

// createHTTPRequest creates the HTTP request for the recognition endpoint
func (p *SpeechProvider) createHTTPRequest(ctx context.Context, request *provider.TranscriptionRequest) (*http.Request, error) {
	query := url.Values{}
	query.Set("language", p.LanguageFor(request))
	query.Set("format", "detailed")
	query.Set("profanity", p.config.Profanity)

	endpoint := strings.TrimRight(p.config.Endpoint, "/") + recognitionPath + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(request.Audio))
	if err != nil {
		return nil, err
	}

	contentType := "audio/wav; codecs=audio/pcm; samplerate=16000"
	if p.FormatFor(request) == provider.FormatOGG {
		contentType = "audio/ogg; codecs=opus"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", p.config.SubscriptionKey)
	return req, nil
}

// ValidateConfiguration validates the provider configuration
func (p *SpeechProvider) ValidateConfiguration() error {
	if p.config.SubscriptionKey == "" {
		return fmt.Errorf("azure subscription key is required")
	}
	if p.config.Endpoint == "" {
		return fmt.Errorf("azure endpoint or region is required")
	}
	return nil
}
