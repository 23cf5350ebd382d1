package services

import (
	"context"
	"time"

	"watchme-asr/internal/api/errors"
	"watchme-asr/internal/api/v1/dto"
	"watchme-asr/internal/app/api/provider"
	"watchme-asr/internal/app/batch"
	"watchme-asr/internal/app/classifier"
)

// TranscriptionServiceImpl implements TranscriptionService
type TranscriptionServiceImpl struct {
	registry   batch.Resolver
	classifier *classifier.Classifier
	stats      provider.ProviderMetrics
	timeout    time.Duration
	now        func() time.Time
}

// NewTranscriptionService creates a new transcription service. stats may be nil.
func NewTranscriptionService(registry batch.Resolver, c *classifier.Classifier, stats provider.ProviderMetrics, timeout time.Duration) TranscriptionService {
	if c == nil {
		c = &classifier.Classifier{}
	}
	if timeout <= 0 {
		timeout = batch.DefaultTranscribeTimeout
	}
	return &TranscriptionServiceImpl{
		registry:   registry,
		classifier: c,
		stats:      stats,
		timeout:    timeout,
		now:        time.Now,
	}
}

// Transcribe runs one provider call through the classifier.
// Success, no-speech and quota outcomes are reported in the body; failures become API errors.
func (s *TranscriptionServiceImpl) Transcribe(ctx context.Context, upload *dto.TranscribeUpload) (*dto.TranscribeResponse, error) {
	adapter, sel, err := s.registry.ResolveActive(provider.Selection{Provider: upload.Provider, Model: upload.Model})
	if err != nil {
		return nil, err
	}

	cfg, _ := s.registry.Config(sel.Provider)
	callCtx, cancel := context.WithTimeout(ctx, cfg.Timeout(s.timeout))
	defer cancel()

	start := time.Now()
	resp, callErr := adapter.Transcribe(callCtx, &provider.TranscriptionRequest{
		Audio:    upload.Audio,
		FileName: upload.FileName,
		Language: upload.Language,
		Format:   provider.GetAudioFormatFromFilename(upload.FileName),
		Model:    sel.Model,
	})
	elapsed := time.Since(start)

	if s.stats != nil {
		if callErr != nil {
			s.stats.RecordFailure(sel.Provider, provider.KindOf(callErr))
		} else {
			s.stats.RecordSuccess(sel.Provider, elapsed.Milliseconds(), len(upload.Audio))
		}
	}

	outcome := s.classifier.Classify(classifier.Input{
		Provider: sel.Provider,
		Response: resp,
		Err:      callErr,
		At:       s.now(),
	})

	switch outcome.Kind {
	case classifier.TransientFailure:
		apiErr := errors.NewServiceUnavailableError("provider temporarily unavailable: " + outcome.Reason)
		apiErr.Code = string(outcome.Kind)
		return nil, apiErr
	case classifier.FatalFailure:
		var apiErr *errors.APIError
		if provider.KindOf(callErr) == provider.ErrorKindUnsupportedInput {
			apiErr = errors.NewBadRequestError("audio rejected by provider: " + outcome.Reason)
		} else {
			apiErr = errors.NewServiceUnavailableError("provider failed: " + outcome.Reason)
		}
		apiErr.Code = string(outcome.Kind)
		return nil, apiErr
	}

	out := &dto.TranscribeResponse{
		Transcription:     outcome.Text,
		ProcessingTime:    elapsed.Seconds(),
		WordCount:         dto.WordCount(outcome.Text),
		EstimatedDuration: dto.EstimateDuration(outcome.Text),
		Provider:          sel.Provider,
		Model:             sel.Model,
		Outcome:           string(outcome.Kind),
		Reason:            outcome.Reason,
	}
	if resp != nil {
		out.Confidence = resp.Confidence
	}
	return out, nil
}
