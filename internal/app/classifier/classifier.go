package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"watchme-asr/internal/app/api/provider"
	"watchme-asr/internal/app/storage"
)

// Kind is the result class of one transcription attempt.
type Kind string

const (
	Success          Kind = "success"
	SuccessNoSpeech  Kind = "success_no_speech"
	QuotaExceeded    Kind = "quota_exceeded"
	TransientFailure Kind = "transient_failure"
	FatalFailure     Kind = "fatal_failure"
)

// Outcome is what the orchestrator commits or retries on.
type Outcome struct {
	Kind   Kind
	Text   string
	Reason string
	// Unknown marks outcomes derived from an unknown provider error.
	Unknown bool
}

// Retryable reports whether another attempt may change the outcome.
func (o Outcome) Retryable() bool {
	return o.Kind == TransientFailure
}

// Input is one attempt's result. Exactly one of Response and Err is set.
type Input struct {
	Provider string
	Response *provider.TranscriptionResponse
	Err      error
	// At is when the result was observed; quota windows are evaluated against it.
	At time.Time
	// UnknownSeen is true when an earlier attempt of the same item ended in an unknown error.
	UnknownSeen bool
}

// Classifier maps raw provider results to outcomes.
type Classifier struct {
	heuristics map[string]*QuotaHeuristic
}

// New builds a classifier from per-provider quota heuristics.
func New(configs map[string]provider.QuotaHeuristicConfig) (*Classifier, error) {
	c := &Classifier{heuristics: make(map[string]*QuotaHeuristic)}
	for name, cfg := range configs {
		h, err := NewQuotaHeuristic(cfg)
		if err != nil {
			return nil, fmt.Errorf("quota heuristic for %s: %w", name, err)
		}
		if h != nil {
			c.heuristics[name] = h
		}
	}
	return c, nil
}

// Heuristic returns the quota heuristic configured for a provider, if any.
func (c *Classifier) Heuristic(name string) *QuotaHeuristic {
	if c == nil {
		return nil
	}
	return c.heuristics[name]
}

// Classify maps an attempt to an outcome.
func (c *Classifier) Classify(in Input) Outcome {
	if in.Err != nil {
		return classifyError(in.Err, in.UnknownSeen)
	}
	if in.Response == nil {
		return Outcome{Kind: FatalFailure, Reason: "provider returned no result"}
	}

	text := strings.TrimSpace(in.Response.Text)
	at := in.At
	if at.IsZero() {
		at = time.Now()
	}
	if c.Heuristic(in.Provider).Matches(in.Response, text == "", at) {
		return Outcome{Kind: QuotaExceeded, Reason: "empty result inside quota reset window"}
	}
	if text == "" {
		return Outcome{Kind: SuccessNoSpeech}
	}
	return Outcome{Kind: Success, Text: text}
}

// ClassifyFetch maps an object fetch failure to an outcome.
func ClassifyFetch(err error) Outcome {
	fe, ok := storage.AsFetchError(err)
	if !ok {
		return Outcome{Kind: TransientFailure, Reason: "fetch: " + err.Error()}
	}
	if fe.Kind == storage.FetchNotFound {
		return Outcome{Kind: FatalFailure, Reason: "audio not found: " + fe.Key}
	}
	return Outcome{Kind: TransientFailure, Reason: fmt.Sprintf("fetch %s: %v", fe.Code, fe.Err)}
}

func classifyError(err error, unknownSeen bool) Outcome {
	var te *provider.TranscriptionError
	if !errors.As(err, &te) {
		if errors.Is(err, context.DeadlineExceeded) {
			return Outcome{Kind: TransientFailure, Reason: "transcription timed out"}
		}
		return unknownOutcome(err.Error(), unknownSeen)
	}

	reason := fmt.Sprintf("%s: %s", te.Code, te.Message)
	switch te.Kind {
	case provider.ErrorKindQuota:
		return Outcome{Kind: QuotaExceeded, Reason: reason}
	case provider.ErrorKindAuth, provider.ErrorKindUnsupportedInput:
		return Outcome{Kind: FatalFailure, Reason: reason}
	case provider.ErrorKindTransient:
		return Outcome{Kind: TransientFailure, Reason: reason}
	default:
		return unknownOutcome(reason, unknownSeen)
	}
}

func unknownOutcome(reason string, unknownSeen bool) Outcome {
	if unknownSeen {
		return Outcome{Kind: FatalFailure, Reason: reason, Unknown: true}
	}
	return Outcome{Kind: TransientFailure, Reason: reason, Unknown: true}
}
