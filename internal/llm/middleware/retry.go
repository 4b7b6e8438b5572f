package llm

import (
	"context"
	"time"

	llmclient "proposalforge/internal/llm/client"
)

// WithRetry retries transient failures with exponential backoff. Permanent
// errors (bad key, unknown model) and context cancellation are never
// retried.
//
// The debate loop deliberately does not use this middleware: turn failures
// there surface to the user for a manual resume instead of silently
// looping. It exists for background callers (export assembly, prewarming).
func WithRetry(attempts int, baseDelay time.Duration) Middleware {
	if attempts < 1 {
		attempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return func(next llmclient.Client) llmclient.Client {
		return &retrying{next: next, attempts: attempts, base: baseDelay}
	}
}

type retrying struct {
	next     llmclient.Client
	attempts int
	base     time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }

func (r *retrying) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	delay := r.base
	for i := 0; i < r.attempts; i++ {
		if i > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return "", ctx.Err()
			case <-timer.C:
			}
			delay *= 2
		}
		out, err := r.next.Generate(ctx, prompt)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if llmclient.IsPermanent(err) || ctx.Err() != nil {
			return "", err
		}
	}
	return "", lastErr
}
