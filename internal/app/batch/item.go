package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"watchme-asr/internal/app/api/provider"
	"watchme-asr/internal/app/classifier"
	"watchme-asr/internal/app/model"
	"watchme-asr/internal/app/storage"
)

// itemRun holds what every item of one batch shares. It is read-only.
type itemRun struct {
	o        *Orchestrator
	adapter  provider.TranscriptionProvider
	sel      provider.Selection
	cfg      provider.ProviderConfig
	logger   *zap.Logger
	observer Observer
}

// process takes one item to a committed state. ctx only gates retries;
// calls in flight run on a detached context bounded by their own timeouts.
func (r *itemRun) process(ctx context.Context, key model.WorkItemKey) model.ItemResult {
	start := r.o.now()
	work := context.WithoutCancel(ctx)

	outcome, attempts, gated := r.attempt(ctx, work, key)
	update := r.statusUpdate(key, outcome)

	result := model.ItemResult{
		Key:      key,
		Status:   update.Status,
		Reason:   update.Reason,
		Attempts: attempts,
	}

	if err := r.o.deps.Store.UpdateStatus(work, update); err != nil {
		r.logger.Error("failed to commit work item",
			zap.String("key", key.String()),
			zap.String("status", string(update.Status)),
			zap.Error(err))
		result.Status = model.StatusFailed
		result.Reason = fmt.Sprintf("store write failed: %v", err)
	} else {
		r.o.deps.Metrics.ItemCommitted(string(update.Status), r.sel.Provider)
	}

	if outcome.Kind == classifier.QuotaExceeded && !gated {
		if err := r.o.deps.Gate.RecordQuota(work, r.sel.Provider); err != nil {
			r.logger.Warn("failed to record quota outcome", zap.Error(err))
		}
	}

	result.Duration = r.o.now().Sub(start).Seconds()
	r.logger.Info("work item committed",
		zap.String("key", key.String()),
		zap.String("status", string(result.Status)),
		zap.Int("attempts", result.Attempts),
		zap.String("reason", result.Reason),
		zap.Float64("duration_seconds", result.Duration))
	if r.observer != nil {
		r.observer.ItemFinished(result)
	}
	return result
}

// attempt runs policy, quota gate, fetch and transcription. It returns the
// final outcome, the attempts spent on the step that decided it, and whether
// the quota gate short-circuited the item.
func (r *itemRun) attempt(ctx, work context.Context, key model.WorkItemKey) (classifier.Outcome, int, bool) {
	local, err := key.LocalStart(r.o.loc)
	if err != nil {
		return classifier.Outcome{Kind: classifier.FatalFailure, Reason: err.Error()}, 0, false
	}
	if decision := r.o.deps.Policy.ShouldSkip(key.DeviceID, local); decision.Skip {
		return classifier.Outcome{Kind: skippedKind, Reason: decision.Reason}, 0, false
	}

	allowed, until, err := r.o.deps.Gate.Allow(work, r.sel.Provider)
	if err != nil {
		r.logger.Warn("quota gate unavailable, calling provider", zap.Error(err))
	}
	r.o.deps.Metrics.SetCooldown(r.sel.Provider, !allowed)
	if !allowed {
		return classifier.Outcome{
			Kind:   classifier.QuotaExceeded,
			Reason: "provider cooling down until " + until.Format(time.RFC3339),
		}, 0, true
	}

	audio, outcome, fetches := r.fetch(ctx, work, key)
	if audio == nil {
		return outcome, fetches, false
	}
	outcome, calls := r.transcribe(ctx, work, key, audio)
	return outcome, calls, false
}

// skippedKind is internal to the orchestrator; the classifier never produces it.
const skippedKind classifier.Kind = "skipped"

func (r *itemRun) fetch(ctx, work context.Context, key model.WorkItemKey) ([]byte, classifier.Outcome, int) {
	storageKey := key.StorageKey()
	var outcome classifier.Outcome

	for attempt := 1; attempt <= r.o.opts.FetchMaxAttempts; attempt++ {
		data, err := r.o.deps.Fetcher.Fetch(work, storageKey)
		if err == nil {
			r.o.deps.Metrics.FetchAttempt("ok")
			return data, classifier.Outcome{}, attempt
		}

		outcome = classifier.ClassifyFetch(err)
		if fe, ok := storage.AsFetchError(err); ok {
			r.o.deps.Metrics.FetchAttempt(fe.Code)
		} else {
			r.o.deps.Metrics.FetchAttempt(storage.CodeUnavailable)
		}
		r.logger.Debug("fetch attempt failed",
			zap.String("key", storageKey),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if !outcome.Retryable() {
			return nil, outcome, attempt
		}
		if attempt == r.o.opts.FetchMaxAttempts {
			outcome.Reason = fmt.Sprintf("%s (after %d fetch attempts)", outcome.Reason, attempt)
			return nil, outcome, attempt
		}
		if err := r.o.sleep(ctx, backoff(r.o.opts.InitialBackoff, r.o.opts.MaxBackoff, attempt)); err != nil {
			outcome.Reason = fmt.Sprintf("%s: %s", errCancelled, outcome.Reason)
			return nil, outcome, attempt
		}
	}
	return nil, outcome, r.o.opts.FetchMaxAttempts
}

func (r *itemRun) transcribe(ctx, work context.Context, key model.WorkItemKey, audio []byte) (classifier.Outcome, int) {
	maxAttempts := r.o.opts.TranscribeMaxAttempts
	if retries := r.cfg.ErrorHandling.MaxRetries; retries > 0 {
		maxAttempts = retries + 1
	}
	initial, ceiling := r.o.opts.InitialBackoff, r.o.opts.MaxBackoff
	if ms := r.cfg.ErrorHandling.RetryDelayMs; ms > 0 {
		initial = time.Duration(ms) * time.Millisecond
	}
	if ms := r.cfg.ErrorHandling.MaxRetryDelayMs; ms > 0 {
		ceiling = time.Duration(ms) * time.Millisecond
	}
	timeout := r.cfg.Timeout(r.o.opts.TranscribeTimeout)
	limiter := r.o.limiter(r.sel.Provider, r.cfg.Performance.RateLimitRPM)

	request := &provider.TranscriptionRequest{
		Audio:    audio,
		FileName: key.StorageKey(),
		Format:   provider.FormatWAV,
		Model:    r.sel.Model,
	}

	var (
		outcome     classifier.Outcome
		unknownSeen bool
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if limiter != nil {
			if err := limiter.Wait(work); err != nil {
				return classifier.Outcome{Kind: classifier.TransientFailure, Reason: "rate limiter: " + err.Error()}, attempt - 1
			}
		}

		callCtx, cancel := context.WithTimeout(work, timeout)
		started := r.o.now()
		resp, err := r.adapter.Transcribe(callCtx, request)
		cancel()
		elapsed := r.o.now().Sub(started)
		if err != nil && errors.Is(err, context.DeadlineExceeded) {
			err = provider.NewError(r.sel.Provider, provider.ErrorKindTransient, "timeout",
				fmt.Sprintf("no response within %s", timeout), err)
		}

		outcome = r.o.deps.Classifier.Classify(classifier.Input{
			Provider:    r.sel.Provider,
			Response:    resp,
			Err:         err,
			At:          r.o.now(),
			UnknownSeen: unknownSeen,
		})
		r.record(outcome, err, elapsed, len(audio))

		if !outcome.Retryable() {
			return outcome, attempt
		}
		if outcome.Unknown {
			unknownSeen = true
		}
		r.logger.Debug("transcription attempt failed",
			zap.String("key", key.String()),
			zap.Int("attempt", attempt),
			zap.String("reason", outcome.Reason))
		if attempt == maxAttempts {
			break
		}
		if err := r.o.sleep(ctx, backoff(initial, ceiling, attempt)); err != nil {
			outcome.Reason = fmt.Sprintf("%s: %s", errCancelled, outcome.Reason)
			return outcome, attempt
		}
	}
	outcome.Reason = fmt.Sprintf("%s (after %d attempts)", outcome.Reason, maxAttempts)
	return outcome, maxAttempts
}

// record feeds one provider call into the stats and Prometheus collectors.
func (r *itemRun) record(outcome classifier.Outcome, err error, elapsed time.Duration, audioBytes int) {
	r.o.deps.Metrics.ObserveTranscribe(r.sel.Provider, string(outcome.Kind), elapsed)
	if r.o.deps.Stats == nil {
		return
	}
	switch {
	case err != nil:
		r.o.deps.Stats.RecordFailure(r.sel.Provider, provider.KindOf(err))
	case outcome.Kind == classifier.QuotaExceeded:
		r.o.deps.Stats.RecordFailure(r.sel.Provider, provider.ErrorKindQuota)
	default:
		r.o.deps.Stats.RecordSuccess(r.sel.Provider, elapsed.Milliseconds(), audioBytes)
	}
}

// statusUpdate maps an outcome to the row written for key.
func (r *itemRun) statusUpdate(key model.WorkItemKey, outcome classifier.Outcome) model.StatusUpdate {
	update := model.StatusUpdate{
		Key:      key,
		Reason:   outcome.Reason,
		Provider: r.sel.Provider,
		Model:    r.sel.Model,
	}
	switch outcome.Kind {
	case classifier.Success:
		text := outcome.Text
		update.Status = model.StatusCompleted
		update.Transcription = &text
	case classifier.SuccessNoSpeech:
		text := model.NoSpeechSentinel
		update.Status = model.StatusCompleted
		update.Transcription = &text
	case classifier.QuotaExceeded:
		update.Status = model.StatusQuotaExceeded
	case skippedKind:
		update.Status = model.StatusSkipped
	default:
		update.Status = model.StatusFailed
	}
	return update
}
