package classifier

import (
	"fmt"
	"time"

	"watchme-asr/internal/app/api/provider"
)

// Window is a daily local-time range [Start, End). It wraps midnight when Start > End.
type Window struct {
	Start    time.Duration
	End      time.Duration
	Location *time.Location
}

// ParseWindow builds a Window from "HH:MM" bounds and an IANA timezone.
func ParseWindow(start, end, timezone string) (Window, error) {
	s, err := parseClock(start)
	if err != nil {
		return Window{}, fmt.Errorf("window start: %w", err)
	}
	e, err := parseClock(end)
	if err != nil {
		return Window{}, fmt.Errorf("window end: %w", err)
	}
	loc := time.UTC
	if timezone != "" {
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return Window{}, fmt.Errorf("window timezone %q: %w", timezone, err)
		}
	}
	return Window{Start: s, End: e, Location: loc}, nil
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%q is not HH:MM", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// Contains reports whether t falls inside the window in the window's timezone.
func (w Window) Contains(t time.Time) bool {
	if w.Start == w.End {
		return false
	}
	loc := w.Location
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	offset := time.Duration(local.Hour())*time.Hour +
		time.Duration(local.Minute())*time.Minute +
		time.Duration(local.Second())*time.Second

	if w.Start < w.End {
		return offset >= w.Start && offset < w.End
	}
	return offset >= w.Start || offset < w.End
}

// QuotaHeuristic reads weak results inside a provider's reset window as quota exhaustion.
type QuotaHeuristic struct {
	Window        Window
	MinConfidence float64
}

// NewQuotaHeuristic converts provider configuration; disabled configs yield nil.
func NewQuotaHeuristic(cfg provider.QuotaHeuristicConfig) (*QuotaHeuristic, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	w, err := ParseWindow(cfg.WindowStart, cfg.WindowEnd, cfg.Timezone)
	if err != nil {
		return nil, err
	}
	return &QuotaHeuristic{Window: w, MinConfidence: cfg.MinConfidence}, nil
}

// Matches reports whether a successful response at time at looks like exhausted quota.
func (h *QuotaHeuristic) Matches(resp *provider.TranscriptionResponse, empty bool, at time.Time) bool {
	if h == nil || !h.Window.Contains(at) {
		return false
	}
	if empty {
		return true
	}
	return h.MinConfidence > 0 && resp != nil && resp.Confidence != nil && *resp.Confidence < h.MinConfidence
}
