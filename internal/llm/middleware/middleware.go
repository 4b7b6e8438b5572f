// Package llm provides cross-cutting middleware for LLM clients.
// Concrete clients stay focused on the API call; pacing, logging, metrics
// and retries are layered on here.
package llm

import (
	llmclient "proposalforge/internal/llm/client"
)

// Middleware decorates an LLM client.
type Middleware func(llmclient.Client) llmclient.Client

// Wrap applies middlewares to base, first middleware outermost.
func Wrap(base llmclient.Client, mws ...Middleware) llmclient.Client {
	out := base
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		out = mws[i](out)
	}
	return out
}
