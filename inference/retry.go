package inference

import (
	"context"
	"time"

	"github.com/docfoundry/docfoundry/logging"
)

// RetryClient wraps a Client with the pipeline's retry policy: exactly one
// automatic retry on timeout or a transient connection error, no retry on a
// malformed response. It also applies the per-call timeout from CallOptions
// so concrete backends stay timeout-agnostic.
type RetryClient struct {
	inner  Client
	logger logging.Logger
}

// NewRetryClient wraps inner with the single-retry policy. A nil logger
// falls back to the no-op logger.
func NewRetryClient(inner Client, logger logging.Logger) *RetryClient {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &RetryClient{inner: inner, logger: logger}
}

// Complete implements Client.
func (r *RetryClient) Complete(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		start := time.Now()
		text, err := r.complete(ctx, prompt, opts)
		if err == nil {
			r.logger.Debug("inference call succeeded",
				"backend", r.inner.Info().Backend, "attempt", attempt, "duration", time.Since(start))
			return text, nil
		}
		lastErr = Classify(err)
		r.logger.Warn("inference call failed",
			"backend", r.inner.Info().Backend, "attempt", attempt, "error", lastErr)
		// The caller's context being done means the pipeline is going away;
		// a retry would only burn backend quota.
		if !Transient(lastErr) || ctx.Err() != nil {
			return "", lastErr
		}
	}
	return "", lastErr
}

func (r *RetryClient) complete(ctx context.Context, prompt string, opts CallOptions) (string, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	return r.inner.Complete(ctx, prompt, opts)
}

// Info implements Client.
func (r *RetryClient) Info() Info { return r.inner.Info() }
