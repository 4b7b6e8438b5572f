// Package debate drives the writer/critic dialogue that produces each
// stage of a proposal. A Session wraps the per-project parameters and the
// two model clients; the Orchestrator runs the alternating turn loop.
package debate

import (
	"context"
	"fmt"
	"strings"
	"sync"

	llmclient "proposalforge/internal/llm/client"
	"proposalforge/internal/prompt"
	"proposalforge/internal/types"
)

// Credentials are the user-supplied API keys. CriticKey may be empty, in
// which case the critic shares the writer's key.
type Credentials struct {
	WriterKey string
	CriticKey string
}

// ClientFactory builds an LLM client for a key. Injected at construction so
// the session never reads ambient credential state and tests can supply
// fakes.
type ClientFactory func(apiKey string) (llmclient.Client, error)

// Session holds one project's generation state. It is rehydrated from the
// persisted record on load and is otherwise ephemeral.
type Session struct {
	mu        sync.RWMutex
	params    types.Params
	writer    llmclient.Client
	critic    llmclient.Client
	sameKey   bool
	finalized map[types.Stage]types.Finalized
}

// NewSession builds a session from explicit parameters and credentials.
// A missing writer key is not an error here: generation calls fail fast
// with ErrMissingCredential instead, so a keyless session can still be
// inspected and rehydrated.
func NewSession(params types.Params, creds Credentials, factory ClientFactory) (*Session, error) {
	if factory == nil {
		return nil, fmt.Errorf("debate: client factory is required")
	}
	s := &Session{
		params:    params,
		finalized: make(map[types.Stage]types.Finalized),
	}

	writerKey := strings.TrimSpace(creds.WriterKey)
	criticKey := strings.TrimSpace(creds.CriticKey)
	s.sameKey = criticKey == "" || criticKey == writerKey

	if writerKey != "" {
		w, err := factory(writerKey)
		if err != nil {
			return nil, fmt.Errorf("debate: writer client: %w", err)
		}
		s.writer = w
		if s.sameKey {
			s.critic = w
		}
	}
	if criticKey != "" && !s.sameKey {
		c, err := factory(criticKey)
		if err != nil {
			return nil, fmt.Errorf("debate: critic client: %w", err)
		}
		s.critic = c
	}
	return s, nil
}

// Params returns a copy of the session parameters.
func (s *Session) Params() types.Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

// UpdateTopic refines the topic during the topic stage.
func (s *Session) UpdateTopic(topic string) {
	topic = types.Sanitize(topic)
	if topic == "" {
		return
	}
	s.mu.Lock()
	s.params.Topic = topic
	s.mu.Unlock()
}

// UsingSameKey reports whether writer and critic share one API key; the
// orchestrator paces requests more conservatively in that case.
func (s *Session) UsingSameKey() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sameKey
}

// GenerateWriterTurn produces a writer draft for the stage. With an empty
// critique it is the initial draft; otherwise a revision of previous
// addressing the critique.
func (s *Session) GenerateWriterTurn(ctx context.Context, stage types.Stage, previous, critique string) (string, error) {
	s.mu.RLock()
	cli := s.writer
	p := s.params
	s.mu.RUnlock()
	if cli == nil {
		return "", llmclient.ErrMissingCredential
	}
	return cli.Generate(ctx, prompt.Writer(prompt.Input{
		Stage:    stage,
		Params:   p,
		Previous: previous,
		Critique: critique,
	}))
}

// GenerateCriticTurn evaluates the writer's current draft.
func (s *Session) GenerateCriticTurn(ctx context.Context, stage types.Stage, draft string) (string, error) {
	s.mu.RLock()
	cli := s.critic
	p := s.params
	s.mu.RUnlock()
	if cli == nil {
		return "", llmclient.ErrMissingCredential
	}
	return cli.Generate(ctx, prompt.Critic(prompt.Input{
		Stage:  stage,
		Params: p,
		Draft:  draft,
	}))
}

// SetFinalized records the user-approved output for a stage. The text must
// survive sanitization; aux carries the diagram source for stages that have
// one.
func (s *Session) SetFinalized(stage types.Stage, text, diagram, note string) error {
	text = types.Sanitize(text)
	if text == "" {
		return fmt.Errorf("debate: finalized text for %s is empty after sanitization", stage)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalized[stage] = types.Finalized{Text: text, Diagram: diagram, Note: note}
	if stage == types.StageTopic {
		s.params.Topic = text
	}
	return nil
}

// FinalizedStage returns the recorded output for a stage, if any.
func (s *Session) FinalizedStage(stage types.Stage) (types.Finalized, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.finalized[stage]
	return f, ok
}

// FinalizedAll returns a copy of every finalized stage.
func (s *Session) FinalizedAll() map[types.Stage]types.Finalized {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[types.Stage]types.Finalized, len(s.finalized))
	for k, v := range s.finalized {
		out[k] = v
	}
	return out
}

// RestoreFinalized seeds finalized state from a persisted record.
func (s *Session) RestoreFinalized(all map[types.Stage]types.Finalized) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range all {
		s.finalized[k] = v
	}
}

// Close releases the underlying clients.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writer != nil {
		_ = s.writer.Close()
	}
	if s.critic != nil && s.critic != s.writer {
		_ = s.critic.Close()
	}
	return nil
}
