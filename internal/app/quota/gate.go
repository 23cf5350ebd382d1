// Package quota backs off a provider process-wide after repeated quota outcomes.
package quota

import (
	"context"
	"sync"
	"time"
)

// Config controls when a provider is cooled down.
type Config struct {
	// Threshold quota outcomes within Window trigger a cooldown; 0 disables the gate.
	Threshold int           `yaml:"threshold"`
	Window    time.Duration `yaml:"window"`
	Cooldown  time.Duration `yaml:"cooldown"`
}

// Enabled reports whether the configuration can ever block a provider.
func (c Config) Enabled() bool {
	return c.Threshold > 0 && c.Window > 0 && c.Cooldown > 0
}

// Gate decides whether a provider may be called right now.
type Gate interface {
	// Allow reports whether the provider may be called; until is the end of an active cooldown.
	Allow(ctx context.Context, provider string) (allowed bool, until time.Time, err error)
	// RecordQuota registers one quota outcome for the provider.
	RecordQuota(ctx context.Context, provider string) error
}

// MemoryGate keeps quota events in process memory.
type MemoryGate struct {
	cfg Config
	now func() time.Time

	mu       sync.Mutex
	events   map[string][]time.Time
	cooldown map[string]time.Time
}

// NewMemoryGate creates a gate local to this process.
func NewMemoryGate(cfg Config) *MemoryGate {
	return &MemoryGate{
		cfg:      cfg,
		now:      time.Now,
		events:   make(map[string][]time.Time),
		cooldown: make(map[string]time.Time),
	}
}

// Allow implements Gate.
func (g *MemoryGate) Allow(_ context.Context, provider string) (bool, time.Time, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	until, ok := g.cooldown[provider]
	if !ok {
		return true, time.Time{}, nil
	}
	if g.now().Before(until) {
		return false, until, nil
	}
	delete(g.cooldown, provider)
	return true, time.Time{}, nil
}

// RecordQuota implements Gate.
func (g *MemoryGate) RecordQuota(_ context.Context, provider string) error {
	if !g.cfg.Enabled() {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	cutoff := now.Add(-g.cfg.Window)
	kept := g.events[provider][:0]
	for _, at := range g.events[provider] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	kept = append(kept, now)

	if len(kept) >= g.cfg.Threshold {
		g.cooldown[provider] = now.Add(g.cfg.Cooldown)
		kept = kept[:0]
	}
	g.events[provider] = kept
	return nil
}
