package llmclient

import "context"

// Client defines the interface for text-generation providers.
// Cross-cutting concerns (rate limiting, retries, logging, metrics) are
// applied via the middleware package, never inside a concrete client.
type Client interface {
	Name() string
	Close() error
	// Generate performs one prompt-in, text-out call. It never retries;
	// a response without usable text is ErrEmptyResponse.
	Generate(ctx context.Context, prompt string) (string, error)
}
