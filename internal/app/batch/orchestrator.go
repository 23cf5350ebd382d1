// Package batch runs transcription batches over work items.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"watchme-asr/internal/app/api/provider"
	"watchme-asr/internal/app/classifier"
	"watchme-asr/internal/app/metrics"
	"watchme-asr/internal/app/model"
	"watchme-asr/internal/app/policy"
	"watchme-asr/internal/app/quota"
	"watchme-asr/internal/app/repository"
	"watchme-asr/internal/app/storage"
)

// Resolver turns a per-run override into an adapter. *provider.Registry implements it.
type Resolver interface {
	ResolveActive(override provider.Selection) (provider.TranscriptionProvider, provider.Selection, error)
	Config(name string) (provider.ProviderConfig, bool)
}

// Deps are the collaborators of an Orchestrator. Metrics, Stats, Gate and Logger may be nil.
type Deps struct {
	Resolver   Resolver
	Store      repository.WorkItemDAO
	Fetcher    storage.Fetcher
	Policy     *policy.Filter
	Classifier *classifier.Classifier
	Gate       quota.Gate
	Metrics    *metrics.Metrics
	Stats      provider.ProviderMetrics
	Logger     *zap.Logger
}

// Observer receives progress of a run. Calls may come from several goroutines.
type Observer interface {
	BatchStarted(total int)
	ItemFinished(result model.ItemResult)
}

// RunOption customizes a single RunBatch call.
type RunOption func(*runConfig)

type runConfig struct {
	observer Observer
}

// WithObserver reports progress of the run to obs.
func WithObserver(obs Observer) RunOption {
	return func(c *runConfig) { c.observer = obs }
}

// Orchestrator drives work items through policy, fetch, transcription and commit.
type Orchestrator struct {
	deps Deps
	opts Options
	loc  *time.Location

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// New validates dependencies and options.
func New(deps Deps, opts Options) (*Orchestrator, error) {
	if deps.Resolver == nil || deps.Store == nil || deps.Fetcher == nil {
		return nil, fmt.Errorf("orchestrator requires a resolver, a store and a fetcher")
	}
	if deps.Classifier == nil {
		deps.Classifier = &classifier.Classifier{}
	}
	if deps.Gate == nil {
		deps.Gate = quota.NewMemoryGate(quota.Config{})
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	opts = opts.WithDefaults()
	loc, err := opts.Location()
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		deps:     deps,
		opts:     opts,
		loc:      loc,
		now:      time.Now,
		sleep:    sleepContext,
		limiters: make(map[string]*rate.Limiter),
	}, nil
}

// Options returns the effective options.
func (o *Orchestrator) Options() Options {
	return o.opts
}

// RunBatch processes every item chosen by sel and returns once each started
// item is committed. Per-item failures are reported in the summary; the
// error is non-nil only for invalid selectors, systemic failures
// (*OrchestratorError) and cancellation, which also returns the partial summary.
func (o *Orchestrator) RunBatch(ctx context.Context, sel model.Selector, options ...RunOption) (*model.BatchSummary, error) {
	var rc runConfig
	for _, opt := range options {
		opt(&rc)
	}

	if err := sel.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSelector, err)
	}

	adapter, selection, err := o.deps.Resolver.ResolveActive(provider.Selection{Provider: sel.Provider, Model: sel.Model})
	if err != nil {
		o.deps.Metrics.BatchFinished("error")
		return nil, &OrchestratorError{Op: "resolve provider", Err: err}
	}

	keys, err := o.candidates(ctx, sel)
	if err != nil {
		o.deps.Metrics.BatchFinished("error")
		return nil, &OrchestratorError{Op: "select work items", Err: err}
	}

	summary := &model.BatchSummary{
		RunID:     uuid.NewString(),
		Provider:  selection.Provider,
		Model:     selection.Model,
		Total:     len(keys),
		StartedAt: o.now(),
	}
	logger := o.deps.Logger.With(
		zap.String("run_id", summary.RunID),
		zap.String("provider", selection.Provider),
		zap.String("model", selection.Model),
	)
	logger.Info("batch started",
		zap.String("device_id", sel.DeviceID),
		zap.String("date", sel.Date),
		zap.Int("items", len(keys)),
		zap.Bool("legacy_selector", sel.Legacy()))
	if rc.observer != nil {
		rc.observer.BatchStarted(len(keys))
	}

	run := &itemRun{
		o:        o,
		adapter:  adapter,
		sel:      selection,
		cfg:      o.providerConfig(selection.Provider),
		logger:   logger,
		observer: rc.observer,
	}

	results := make([]*model.ItemResult, len(keys))
	var g errgroup.Group
	g.SetLimit(o.opts.Concurrency)
	for i, key := range keys {
		if ctx.Err() != nil {
			break
		}
		i, key := i, key
		g.Go(func() error {
			// A slot may free up after cancellation; such items stay unstarted.
			if ctx.Err() != nil {
				return nil
			}
			result := run.process(ctx, key)
			results[i] = &result
			return nil
		})
	}
	_ = g.Wait()

	for _, result := range results {
		if result == nil {
			summary.NotAttempted++
			continue
		}
		summary.Add(*result)
	}
	summary.FinishedAt = o.now()

	status := "ok"
	switch {
	case ctx.Err() != nil:
		status = "cancelled"
	case summary.Failed > 0 || summary.QuotaExceeded > 0:
		status = "partial"
	}
	o.deps.Metrics.BatchFinished(status)
	logger.Info("batch finished",
		zap.String("result", status),
		zap.Int("total", summary.Total),
		zap.Int("completed", summary.Completed),
		zap.Int("failed", summary.Failed),
		zap.Int("quota_exceeded", summary.QuotaExceeded),
		zap.Int("skipped", summary.Skipped),
		zap.Int("not_attempted", summary.NotAttempted),
		zap.Duration("elapsed", summary.Elapsed()))

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// candidates lists the keys of a run. Explicit keys already completed or
// skipped are dropped unless the selector forces reprocessing.
func (o *Orchestrator) candidates(ctx context.Context, sel model.Selector) ([]model.WorkItemKey, error) {
	explicit, err := sel.ExplicitKeys()
	if err != nil {
		return nil, err
	}
	if explicit == nil {
		items, err := o.deps.Store.ListPending(ctx, sel.DeviceID, sel.Date)
		if err != nil {
			return nil, err
		}
		keys := make([]model.WorkItemKey, 0, len(items))
		for _, item := range items {
			keys = append(keys, item.Key)
		}
		return keys, nil
	}
	if sel.Force {
		return explicit, nil
	}

	keys := make([]model.WorkItemKey, 0, len(explicit))
	for _, key := range explicit {
		item, err := o.deps.Store.Get(ctx, key)
		if err != nil {
			o.deps.Logger.Warn("could not read work item, processing it anyway",
				zap.String("key", key.String()), zap.Error(err))
			keys = append(keys, key)
			continue
		}
		if item != nil && !item.Status.RetryEligible() {
			o.deps.Logger.Debug("work item already final",
				zap.String("key", key.String()), zap.String("status", string(item.Status)))
			continue
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (o *Orchestrator) providerConfig(name string) provider.ProviderConfig {
	cfg, _ := o.deps.Resolver.Config(name)
	return cfg
}

// limiter returns the shared pacing limiter of a provider, or nil when unpaced.
func (o *Orchestrator) limiter(name string, rpm int) *rate.Limiter {
	if rpm <= 0 {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.limiters[name]
	if !ok {
		l = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
		o.limiters[name] = l
	}
	return l
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// errCancelled marks retries abandoned because the batch was cancelled.
var errCancelled = errors.New("batch cancelled before retry")
