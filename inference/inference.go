// Package inference defines the contract for single prompt/response round
// trips against an external language-model backend, plus error
// classification and the retry policy every pipeline stage relies on.
// Concrete backends live in subpackages (ollama, openai, anthropic).
package inference

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrBackendUnavailable indicates the backend service cannot be reached.
	ErrBackendUnavailable = errors.New("inference backend unavailable")

	// ErrBackendTimeout indicates the wait duration elapsed without a response.
	ErrBackendTimeout = errors.New("inference backend timeout")

	// ErrBackendMalformed indicates the backend replied but the payload could
	// not be decoded as text. Treated as a data problem, never retried.
	ErrBackendMalformed = errors.New("inference backend returned malformed response")
)

// CallOptions tune a single inference round trip.
type CallOptions struct {
	// Timeout bounds the round trip. Zero means the caller's context governs.
	Timeout time.Duration
	// Temperature is the desired determinism level passed to the backend.
	Temperature float64
}

// Info describes a backend implementation.
type Info struct {
	Backend string `json:"backend"`
	Model   string `json:"model"`
}

// Client issues one prompt/response round trip to a language-model backend.
// Implementations classify their failures into the package sentinels via
// Classify; they do not retry.
type Client interface {
	Complete(ctx context.Context, prompt string, opts CallOptions) (string, error)
	Info() Info
}

// Classify folds an arbitrary backend error into the package taxonomy.
// Errors already carrying a sentinel pass through untouched; context
// deadline expiry becomes ErrBackendTimeout; everything else is treated as
// the backend being unreachable.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrBackendTimeout),
		errors.Is(err, ErrBackendUnavailable),
		errors.Is(err, ErrBackendMalformed):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrBackendTimeout, err)
	default:
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
}

// Transient reports whether the error class warrants the single automatic
// retry: timeouts and transient connection failures do, malformed payloads
// do not.
func Transient(err error) bool {
	return errors.Is(err, ErrBackendTimeout) || errors.Is(err, ErrBackendUnavailable)
}
