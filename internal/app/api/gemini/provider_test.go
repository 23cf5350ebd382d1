package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"watchme-asr/internal/app/api/provider"
)

type fakeModels struct {
	resp     *genai.GenerateContentResponse
	err      error
	model    string
	contents []*genai.Content
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	return f.resp, f.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      genai.NewContentFromText(text, genai.RoleModel),
			FinishReason: genai.FinishReasonStop,
		}},
	}
}

func TestGeminiTranscribe(t *testing.T) {
	models := &fakeModels{resp: textResponse(" こんにちは \n")}
	p := newProvider(Config{Model: "gemini-2.5-flash", Language: "ja"}, models)

	resp, err := p.Transcribe(context.Background(), &provider.TranscriptionRequest{Audio: []byte("RIFF")})
	require.NoError(t, err)
	assert.Equal(t, "こんにちは", resp.Text)
	assert.Equal(t, "gemini-2.5-flash", models.model)
	assert.Equal(t, "STOP", resp.ProviderMetadata["finish_reason"])

	require.Len(t, models.contents, 1)
	parts := models.contents[0].Parts
	require.Len(t, parts, 2)
	assert.Contains(t, parts[0].Text, `"ja"`)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "audio/wav", parts[1].InlineData.MIMEType)
}

func TestGeminiEmptyAnswer(t *testing.T) {
	p := newProvider(Config{Model: "m"}, &fakeModels{resp: &genai.GenerateContentResponse{}})

	resp, err := p.Transcribe(context.Background(), &provider.TranscriptionRequest{Audio: []byte("RIFF")})
	require.NoError(t, err)
	assert.Empty(t, resp.Text)
	assert.Nil(t, resp.Confidence)
}

func TestGeminiErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want provider.ErrorKind
	}{
		{"exhausted", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "quota"}, provider.ErrorKindQuota},
		{"denied", genai.APIError{Code: 403, Status: "PERMISSION_DENIED"}, provider.ErrorKindAuth},
		{"unavailable", genai.APIError{Code: 503, Status: "UNAVAILABLE"}, provider.ErrorKindTransient},
		{"deadline", context.DeadlineExceeded, provider.ErrorKindTransient},
		{"other", errors.New("boom"), provider.ErrorKindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProvider(Config{Model: "m"}, &fakeModels{err: tt.err})
			_, err := p.Transcribe(context.Background(), &provider.TranscriptionRequest{Audio: []byte("RIFF")})
			assert.Equal(t, tt.want, provider.KindOf(err))
		})
	}
}

func TestGeminiBlockedPrompt(t *testing.T) {
	p := newProvider(Config{Model: "m"}, &fakeModels{resp: &genai.GenerateContentResponse{
		PromptFeedback: &genai.GenerateContentResponsePromptFeedback{BlockReason: genai.BlockedReasonSafety},
	}})
	_, err := p.Transcribe(context.Background(), &provider.TranscriptionRequest{Audio: []byte("RIFF")})
	assert.Equal(t, provider.ErrorKindUnsupportedInput, provider.KindOf(err))
}
