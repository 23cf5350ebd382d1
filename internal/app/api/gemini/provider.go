package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"watchme-asr/internal/app/api/provider"
	"watchme-asr/internal/app/common"
)

const defaultInstruction = "Transcribe the speech in this audio verbatim in its spoken language. " +
	"Return only the transcript. If the audio contains silence or noise only, return an empty response."

// contentGenerator is the subset of *genai.Models the adapter uses
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config represents configuration for the Gemini adapter
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Language    string
	Instruction string
	Timeout     time.Duration
}

// Provider transcribes audio by sending it inline to a Gemini model
type Provider struct {
	common.BaseProvider
	config Config
	models contentGenerator
}

// NewProvider creates a Gemini adapter backed by the Gemini API
func NewProvider(ctx context.Context, config Config) (*Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini provider requires an API key")
	}
	clientConfig := &genai.ClientConfig{
		APIKey:     config.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: config.Timeout},
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return newProvider(config, client.Models), nil
}

func newProvider(config Config, models contentGenerator) *Provider {
	if config.Instruction == "" {
		config.Instruction = defaultInstruction
	}
	base := common.NewBaseProvider("gemini", "Gemini audio transcription", config.Model, config.Language)
	base.Info.SupportedFormats = append(base.Info.SupportedFormats, provider.FormatFLAC, provider.FormatOGG)
	base.Info.MaxFileSizeMB = 20
	return &Provider{BaseProvider: base, config: config, models: models}
}

// Transcribe sends the audio as an inline part next to the transcription instruction
func (p *Provider) Transcribe(ctx context.Context, request *provider.TranscriptionRequest) (*provider.TranscriptionResponse, error) {
	if err := p.CheckInput(request); err != nil {
		return nil, err
	}
	startTime := time.Now()
	model := p.ModelFor(request)

	instruction := p.config.Instruction
	if language := p.LanguageFor(request); language != "" {
		instruction += fmt.Sprintf(" The expected language is %q.", language)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(instruction),
			genai.NewPartFromBytes(request.Audio, p.FormatFor(request).MIMEType()),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	}

	resp, err := p.models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, p.handleAPIError(err)
	}
	return p.toResponse(resp, model, time.Since(startTime))
}

func (p *Provider) toResponse(resp *genai.GenerateContentResponse, model string, elapsed time.Duration) (*provider.TranscriptionResponse, error) {
	if resp == nil {
		return nil, provider.NewError(p.Name(), provider.ErrorKindUnknown, "empty_response", "no response returned", nil)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, provider.NewError(p.Name(), provider.ErrorKindUnsupportedInput, "blocked",
			fmt.Sprintf("request blocked: %s", resp.PromptFeedback.BlockReason), nil)
	}

	var builder strings.Builder
	var finishReason string
	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
		candidate := resp.Candidates[0]
		finishReason = string(candidate.FinishReason)
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if part != nil && part.Text != "" {
					builder.WriteString(part.Text)
				}
			}
		}
	}

	text := strings.TrimSpace(builder.String())
	return &provider.TranscriptionResponse{
		Text:           text,
		Confidence:     provider.EstimateConfidence(text),
		ProcessingTime: elapsed,
		ModelUsed:      model,
		ProviderMetadata: map[string]interface{}{
			"finish_reason": finishReason,
		},
	}, nil
}

// handleAPIError converts genai errors to TranscriptionError
func (p *Provider) handleAPIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return p.fromAPIError(apiErr, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return p.fromAPIError(*apiErrPtr, err)
	}
	return provider.TransportError(p.Name(), err)
}

func (p *Provider) fromAPIError(apiErr genai.APIError, cause error) error {
	te := provider.HTTPError(p.Name(), apiErr.Code, apiErr.Message)
	if apiErr.Status == "RESOURCE_EXHAUSTED" {
		te.Kind = provider.ErrorKindQuota
	}
	if apiErr.Status != "" {
		te.Code = strings.ToLower(apiErr.Status)
	}
	te.Err = cause
	return te
}

// ValidateConfiguration validates the provider configuration
func (p *Provider) ValidateConfiguration() error {
	if p.models == nil {
		return fmt.Errorf("gemini client is not initialised")
	}
	return nil
}
