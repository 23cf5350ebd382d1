package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	apperrors "watchme-asr/internal/app/errors"
)

// FetchErrorKind separates missing objects from failures worth retrying.
type FetchErrorKind string

const (
	FetchNotFound  FetchErrorKind = "not_found"
	FetchTransient FetchErrorKind = "transient"
)

// Codes carried by FetchError.
const (
	CodeNotFound    = "not_found"
	CodeUnavailable = "unavailable"
	CodeTooLarge    = "too_large"
	CodeTimeout     = "timeout"
)

// Fetcher retrieves the raw bytes of an audio object. Bytes are never cached.
type Fetcher interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// FetchError is returned by every Fetcher for any failure.
type FetchError struct {
	Kind FetchErrorKind
	Code string
	Key  string
	Err  error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.Key, e.Code, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.Key, e.Code)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the orchestrator may try again.
func (e *FetchError) Retryable() bool {
	return e.Kind == FetchTransient
}

// NotFoundError builds the fatal missing-object error.
func NotFoundError(key string, cause error) *FetchError {
	if cause == nil {
		cause = apperrors.ErrObjectNotFound
	}
	return &FetchError{Kind: FetchNotFound, Code: CodeNotFound, Key: key, Err: cause}
}

// TransientError builds a retryable fetch error.
func TransientError(key, code string, cause error) *FetchError {
	return &FetchError{Kind: FetchTransient, Code: code, Key: key, Err: cause}
}

// AsFetchError extracts a FetchError from err.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// readLimited reads at most maxBytes from r, failing with too_large beyond it.
func readLimited(key string, r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, TransientError(key, CodeUnavailable, err)
		}
		return data, nil
	}
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, TransientError(key, CodeUnavailable, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, tooLarge(key, maxBytes)
	}
	return data, nil
}

func tooLarge(key string, maxBytes int64) *FetchError {
	return TransientError(key, CodeTooLarge, apperrors.Wrapf(apperrors.ErrObjectTooLarge, "limit %d bytes", maxBytes))
}

// Limits bound every fetch.
type Limits struct {
	MaxBytes int64
	Timeout  time.Duration
}

// Limited enforces Limits around another Fetcher.
type Limited struct {
	next   Fetcher
	limits Limits
}

// NewLimited wraps next with size and time limits.
func NewLimited(next Fetcher, limits Limits) *Limited {
	return &Limited{next: next, limits: limits}
}

// Fetch applies the timeout, then checks the size of what came back.
func (l *Limited) Fetch(ctx context.Context, key string) ([]byte, error) {
	if l.limits.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.limits.Timeout)
		defer cancel()
	}

	data, err := l.next.Fetch(ctx, key)
	if err != nil {
		// Backends report an expired context as unavailable; the deadline wins.
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			if fe, ok := AsFetchError(err); ok && fe.Kind == FetchNotFound {
				return nil, fe
			}
			return nil, TransientError(key, CodeTimeout, err)
		}
		if fe, ok := AsFetchError(err); ok {
			return nil, fe
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, TransientError(key, CodeTimeout, err)
		}
		return nil, TransientError(key, CodeUnavailable, err)
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, TransientError(key, CodeTimeout, ctx.Err())
	}
	if l.limits.MaxBytes > 0 && int64(len(data)) > l.limits.MaxBytes {
		return nil, tooLarge(key, l.limits.MaxBytes)
	}
	return data, nil
}
