package google

import (
	"context"
	"fmt"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"watchme-asr/internal/app/api/provider"
	"watchme-asr/internal/app/common"
)

// recognizer is the unary recognition call of the Speech client
type recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)
}

type clientRecognizer struct {
	client *speech.Client
}

func (c clientRecognizer) Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	return c.client.Recognize(ctx, req)
}

// SpeechConfig represents configuration for Google Cloud Speech-to-Text
type SpeechConfig struct {
	Model           string
	Language        string
	SampleRateHertz int32
}

// SpeechProvider implements TranscriptionProvider on Google Cloud Speech-to-Text
type SpeechProvider struct {
	common.BaseProvider
	config     SpeechConfig
	recognizer recognizer
}

// NewSpeechProvider creates a Google Cloud Speech client using default credentials
func NewSpeechProvider(ctx context.Context, config SpeechConfig) (*SpeechProvider, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	return newSpeechProvider(config, clientRecognizer{client: client}), nil
}

func newSpeechProvider(config SpeechConfig, r recognizer) *SpeechProvider {
	base := common.NewBaseProvider("google", "Google Cloud Speech-to-Text", config.Model, config.Language)
	base.Info.SupportedFormats = []provider.AudioFormat{provider.FormatWAV, provider.FormatFLAC, provider.FormatOGG, provider.FormatMP3}
	base.Info.MaxFileSizeMB = 10
	base.Info.SupportsConfidence = true
	return &SpeechProvider{BaseProvider: base, config: config, recognizer: r}
}

// Transcribe runs a synchronous recognition over the whole segment
func (p *SpeechProvider) Transcribe(ctx context.Context, request *provider.TranscriptionRequest) (*provider.TranscriptionResponse, error) {
	if err := p.CheckInput(request); err != nil {
		return nil, err
	}
	startTime := time.Now()

	recognitionConfig := &speechpb.RecognitionConfig{
		Encoding:                   encodingFor(p.FormatFor(request)),
		SampleRateHertz:            p.config.SampleRateHertz,
		LanguageCode:               p.LanguageFor(request),
		Model:                      p.ModelFor(request),
		EnableAutomaticPunctuation: true,
	}

	resp, err := p.recognizer.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: recognitionConfig,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: request.Audio},
		},
	})
	if err != nil {
		return nil, p.handleRPCError(err)
	}

	var builder strings.Builder
	var confidenceSum float64
	var scored int
	for _, result := range resp.GetResults() {
		alternatives := result.GetAlternatives()
		if len(alternatives) == 0 {
			continue
		}
		builder.WriteString(alternatives[0].GetTranscript())
		if c := alternatives[0].GetConfidence(); c > 0 {
			confidenceSum += float64(c)
			scored++
		}
	}

	text := strings.TrimSpace(builder.String())
	response := &provider.TranscriptionResponse{
		Text:           text,
		Language:       recognitionConfig.LanguageCode,
		ProcessingTime: time.Since(startTime),
		ModelUsed:      recognitionConfig.Model,
		ProviderMetadata: map[string]interface{}{
			"result_count": len(resp.GetResults()),
		},
	}
	if scored > 0 {
		response.Confidence = provider.Float64(confidenceSum / float64(scored))
	} else {
		response.Confidence = provider.EstimateConfidence(text)
	}
	return response, nil
}

// handleRPCError maps gRPC status codes to error kinds
func (p *SpeechProvider) handleRPCError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return provider.TransportError(p.Name(), err)
	}

	kind := provider.ErrorKindUnknown
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		kind = provider.ErrorKindAuth
	case codes.ResourceExhausted:
		kind = provider.ErrorKindQuota
	case codes.InvalidArgument, codes.OutOfRange, codes.FailedPrecondition:
		kind = provider.ErrorKindUnsupportedInput
	case codes.Unavailable, codes.DeadlineExceeded, codes.Internal, codes.Aborted, codes.Canceled:
		kind = provider.ErrorKindTransient
	}
	return provider.NewError(p.Name(), kind, strings.ToLower(st.Code().String()), st.Message(), err)
}

// ValidateConfiguration validates the provider configuration
func (p *SpeechProvider) ValidateConfiguration() error {
	if p.config.Language == "" {
		return fmt.Errorf("google speech language code is required")
	}
	return nil
}

func encodingFor(format provider.AudioFormat) speechpb.RecognitionConfig_AudioEncoding {
	switch format {
	case provider.FormatFLAC:
		return speechpb.RecognitionConfig_FLAC
	case provider.FormatOGG:
		return speechpb.RecognitionConfig_OGG_OPUS
	case provider.FormatMP3:
		return speechpb.RecognitionConfig_MP3
	default:
		// WAV headers carry the encoding
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}
