package llm

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	llmclient "proposalforge/internal/llm/client"
)

var (
	llmRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_requests_total",
		Help: "Outbound LLM generation calls.",
	}, []string{"client"})

	llmErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "llm_errors_total",
		Help: "Failed LLM generation calls by error kind.",
	}, []string{"client", "kind"})

	llmLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "llm_request_duration_seconds",
		Help:    "LLM call latency.",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	}, []string{"client"})
)

// WithMetrics records request, error and latency metrics per client.
func WithMetrics() Middleware {
	return func(next llmclient.Client) llmclient.Client {
		return &metered{next: next}
	}
}

type metered struct {
	next llmclient.Client
}

func (m *metered) Name() string { return m.next.Name() }
func (m *metered) Close() error { return m.next.Close() }

func (m *metered) Generate(ctx context.Context, prompt string) (string, error) {
	name := m.next.Name()
	llmRequests.WithLabelValues(name).Inc()
	timer := prometheus.NewTimer(llmLatency.WithLabelValues(name))
	out, err := m.next.Generate(ctx, prompt)
	timer.ObserveDuration()
	if err != nil {
		llmErrors.WithLabelValues(name, llmclient.KindOf(err).String()).Inc()
	}
	return out, err
}
