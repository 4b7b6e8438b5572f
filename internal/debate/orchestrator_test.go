package debate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	llmclient "proposalforge/internal/llm/client"
	"proposalforge/internal/types"
)

type fakeClient struct {
	mu      sync.Mutex
	name    string
	calls   int
	outputs []string
	errAt   map[int]error // 1-based call index -> error
}

func (f *fakeClient) Name() string { return f.name }
func (f *fakeClient) Close() error { return nil }
func (f *fakeClient) Generate(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.errAt[f.calls]; ok {
		return "", err
	}
	if len(f.outputs) > 0 {
		out := f.outputs[0]
		if len(f.outputs) > 1 {
			f.outputs = f.outputs[1:]
		}
		return out, nil
	}
	return f.name + " output", nil
}

func testParams() types.Params {
	return types.Params{
		Topic:    "digital trust in e-commerce",
		Goal:     "Master's thesis",
		Audience: "committee",
		Level:    types.LevelMaster,
		Type:     types.TypeResearch,
		Language: types.LangEnglish,
	}
}

func newTestSession(t *testing.T, cli llmclient.Client, creds Credentials) *Session {
	t.Helper()
	s, err := NewSession(testParams(), creds, func(key string) (llmclient.Client, error) {
		return cli, nil
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func TestRun_TranscriptShape(t *testing.T) {
	cli := &fakeClient{name: "fake"}
	s := newTestSession(t, cli, Credentials{WriterKey: "k"})

	for _, n := range []int{1, 2, 3} {
		o := NewOrchestrator(s, types.StageTopic, Options{MaxRounds: n, Sleep: noSleep})
		if err := o.Start(context.Background()); err != nil {
			t.Fatalf("Start(N=%d): %v", n, err)
		}
		ts := o.Transcript()
		if len(ts) != 2*n {
			t.Fatalf("N=%d: transcript length %d, want %d", n, len(ts), 2*n)
		}
		for i, m := range ts {
			want := types.RoleWriter
			if i%2 == 1 {
				want = types.RoleCritic
			}
			if m.Role != want {
				t.Fatalf("N=%d entry %d: role %s, want %s", n, i, m.Role, want)
			}
			if m.Round != i/2+1 {
				t.Fatalf("N=%d entry %d: round %d, want %d", n, i, m.Round, i/2+1)
			}
		}
		if o.Phase() != PhaseCompleted {
			t.Fatalf("N=%d: phase %s, want completed", n, o.Phase())
		}
	}
}

func TestRun_PacingKeyedOnSharedKey(t *testing.T) {
	var delays []time.Duration
	record := func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	cli := &fakeClient{name: "fake"}
	same := newTestSession(t, cli, Credentials{WriterKey: "k"})
	o := NewOrchestrator(same, types.StageTopic, Options{MaxRounds: 2, Sleep: record})
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// 4 turns: initial writer unpaced, then 3 paced calls.
	if len(delays) != 3 {
		t.Fatalf("expected 3 pacing delays, got %d", len(delays))
	}
	for _, d := range delays {
		if d != 4*time.Second {
			t.Fatalf("same-key delay %v, want 4s", d)
		}
	}

	delays = nil
	distinct := newTestSession(t, cli, Credentials{WriterKey: "a", CriticKey: "b"})
	o = NewOrchestrator(distinct, types.StageTopic, Options{MaxRounds: 2, Sleep: record})
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for _, d := range delays {
		if d != time.Second {
			t.Fatalf("distinct-key delay %v, want 1s", d)
		}
	}
}

func TestRun_FailurePausesThenResumes(t *testing.T) {
	quota := &llmclient.ModelError{Kind: llmclient.KindQuota, Code: 429, Message: "quota exceeded"}
	cli := &fakeClient{name: "fake", errAt: map[int]error{2: quota}}
	s := newTestSession(t, cli, Credentials{WriterKey: "k"})
	o := NewOrchestrator(s, types.StageTopic, Options{MaxRounds: 2, Sleep: noSleep})

	err := o.Start(context.Background())
	if llmclient.KindOf(err) != llmclient.KindQuota {
		t.Fatalf("expected quota error, got %v", err)
	}
	if o.Phase() != PhaseError {
		t.Fatalf("phase %s, want error", o.Phase())
	}
	// The failed critic turn must not appear as a transcript entry.
	if got := len(o.Transcript()); got != 1 {
		t.Fatalf("transcript length %d after failure, want 1", got)
	}
	for _, m := range o.Transcript() {
		if strings.Contains(m.Content, "quota") {
			t.Fatalf("error text leaked into transcript: %q", m.Content)
		}
	}

	if err := o.Resume(context.Background()); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if o.Phase() != PhaseCompleted {
		t.Fatalf("phase after resume %s, want completed", o.Phase())
	}
	if got := len(o.Transcript()); got != 4 {
		t.Fatalf("transcript length %d after resume, want 4", got)
	}
}

func TestRun_CancelLandsInError(t *testing.T) {
	cli := &fakeClient{name: "fake"}
	s := newTestSession(t, cli, Credentials{WriterKey: "k"})
	blocked := make(chan struct{})
	o := NewOrchestrator(s, types.StageTopic, Options{
		MaxRounds: 2,
		Sleep: func(ctx context.Context, d time.Duration) error {
			close(blocked)
			<-ctx.Done()
			return ctx.Err()
		},
	})

	done := make(chan error, 1)
	go func() { done <- o.Start(context.Background()) }()
	<-blocked
	o.Cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled, got %v", err)
	}
	if o.Phase() != PhaseError {
		t.Fatalf("phase %s, want error", o.Phase())
	}
}

func TestRun_ReleasesRunContextOnCompletion(t *testing.T) {
	var runCtx context.Context
	capture := func(ctx context.Context, d time.Duration) error {
		runCtx = ctx
		return nil
	}

	cli := &fakeClient{name: "fake"}
	s := newTestSession(t, cli, Credentials{WriterKey: "k"})
	o := NewOrchestrator(s, types.StageTopic, Options{MaxRounds: 2, Sleep: capture})
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if o.Phase() != PhaseCompleted {
		t.Fatalf("phase %s, want completed", o.Phase())
	}
	if runCtx == nil {
		t.Fatalf("pacing sleep never observed the run context")
	}
	// The derived context must be canceled once the loop finishes, or it
	// stays parented to the caller's context for the life of the process.
	if runCtx.Err() == nil {
		t.Fatalf("run context still live after completion")
	}
}

func TestRun_ReleasesRunContextOnFailure(t *testing.T) {
	var runCtx context.Context
	capture := func(ctx context.Context, d time.Duration) error {
		runCtx = ctx
		return nil
	}

	quota := &llmclient.ModelError{Kind: llmclient.KindQuota, Code: 429, Message: "quota exceeded"}
	cli := &fakeClient{name: "fake", errAt: map[int]error{2: quota}}
	s := newTestSession(t, cli, Credentials{WriterKey: "k"})
	o := NewOrchestrator(s, types.StageTopic, Options{MaxRounds: 2, Sleep: capture})

	if err := o.Start(context.Background()); llmclient.KindOf(err) != llmclient.KindQuota {
		t.Fatalf("expected quota error, got %v", err)
	}
	if runCtx == nil {
		t.Fatalf("pacing sleep never observed the run context")
	}
	if runCtx.Err() == nil {
		t.Fatalf("run context still live after failure")
	}
}

func TestRun_DiagramExtraction(t *testing.T) {
	withDiagram := "Model text.\n```mermaid\ngraph LR\nA-->B\n```\nMore text."
	noDiagram := "Revised model text without a diagram."
	critic := "Feedback."
	cli := &fakeClient{name: "fake", outputs: []string{withDiagram, critic, noDiagram, critic}}
	s := newTestSession(t, cli, Credentials{WriterKey: "k"})
	o := NewOrchestrator(s, types.StageModel, Options{MaxRounds: 2, Sleep: noSleep})
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Second writer turn had no fence; the first extraction must survive.
	if got := o.Diagram(); got != "graph LR\nA-->B" {
		t.Fatalf("diagram %q, want extracted source preserved", got)
	}
}

func TestRun_NoDiagramForTopicStage(t *testing.T) {
	withDiagram := "Text.\n```mermaid\ngraph LR\nA-->B\n```"
	cli := &fakeClient{name: "fake", outputs: []string{withDiagram}}
	s := newTestSession(t, cli, Credentials{WriterKey: "k"})
	o := NewOrchestrator(s, types.StageTopic, Options{MaxRounds: 1, Sleep: noSleep})
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if o.Diagram() != "" {
		t.Fatalf("topic stage must not capture diagrams")
	}
}

func TestRun_OnChangeFiresPerAppend(t *testing.T) {
	var snaps []Snapshot
	cli := &fakeClient{name: "fake"}
	s := newTestSession(t, cli, Credentials{WriterKey: "k"})
	o := NewOrchestrator(s, types.StageTopic, Options{
		MaxRounds: 2,
		Sleep:     noSleep,
		OnChange:  func(s Snapshot) { snaps = append(snaps, s) },
	})
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// start + 4 appends + completion.
	if len(snaps) != 6 {
		t.Fatalf("expected 6 change notifications, got %d", len(snaps))
	}
	last := snaps[len(snaps)-1]
	if last.Phase != PhaseCompleted || len(last.Transcript) != 4 {
		t.Fatalf("final snapshot %+v", last)
	}
}

func TestMissingWriterKeyFailsFast(t *testing.T) {
	s, err := NewSession(testParams(), Credentials{}, func(key string) (llmclient.Client, error) {
		t.Fatalf("factory must not be called without a key")
		return nil, nil
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	_, err = s.GenerateWriterTurn(context.Background(), types.StageTopic, "", "")
	if !errors.Is(err, llmclient.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestCriticFallsBackToWriterKey(t *testing.T) {
	var keys []string
	cli := &fakeClient{name: "fake"}
	s, err := NewSession(testParams(), Credentials{WriterKey: "w"}, func(key string) (llmclient.Client, error) {
		keys = append(keys, key)
		return cli, nil
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if !s.UsingSameKey() {
		t.Fatalf("expected same-key session")
	}
	if len(keys) != 1 || keys[0] != "w" {
		t.Fatalf("expected a single client for the writer key, factory saw %v", keys)
	}
	if _, err := s.GenerateCriticTurn(context.Background(), types.StageTopic, "draft"); err != nil {
		t.Fatalf("critic turn with fallback key: %v", err)
	}
}

func TestSetFinalized_RejectsEmpty(t *testing.T) {
	cli := &fakeClient{name: "fake"}
	s := newTestSession(t, cli, Credentials{WriterKey: "k"})
	if err := s.SetFinalized(types.StageTopic, "   \n\t  ", "", ""); err == nil {
		t.Fatalf("whitespace-only finalize must be rejected")
	}
	if _, ok := s.FinalizedStage(types.StageTopic); ok {
		t.Fatalf("rejected finalize must not mutate state")
	}
	if err := s.SetFinalized(types.StageTopic, "  Refined topic  ", "", "note"); err != nil {
		t.Fatalf("SetFinalized: %v", err)
	}
	f, ok := s.FinalizedStage(types.StageTopic)
	if !ok || f.Text != "Refined topic" {
		t.Fatalf("finalized = %+v", f)
	}
	// Finalizing the topic stage refines the session topic.
	if s.Params().Topic != "Refined topic" {
		t.Fatalf("topic not refined, got %q", s.Params().Topic)
	}
}
