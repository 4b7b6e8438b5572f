package project

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"proposalforge/internal/debate"
	"proposalforge/internal/gateway/repository/projectstore"
	"proposalforge/internal/types"
	"proposalforge/internal/workflow"
)

// Runtime is the live state of one project: the debate session, the stage
// sequencer and the orchestrator for the active stage. The persisted record
// is a shadow of this; the runtime is authoritative while it exists.
type Runtime struct {
	sessionID string
	userID    string

	session *debate.Session
	seq     *workflow.Sequencer
	orch    *debate.Orchestrator
	store   *projectstore.Store

	mu      sync.Mutex
	subs    map[int]chan debate.Snapshot
	nextSub int
}

func newRuntime(sessionID, userID string, session *debate.Session, seq *workflow.Sequencer, store *projectstore.Store, opts debate.Options) *Runtime {
	rt := &Runtime{
		sessionID: sessionID,
		userID:    userID,
		session:   session,
		seq:       seq,
		store:     store,
		subs:      make(map[int]chan debate.Snapshot),
	}
	opts.OnChange = rt.onChange
	rt.orch = debate.NewOrchestrator(session, seq.Current(), opts)
	return rt
}

func (rt *Runtime) SessionID() string { return rt.sessionID }
func (rt *Runtime) UserID() string    { return rt.userID }

// Snapshot returns the current orchestrator view.
func (rt *Runtime) Snapshot() debate.Snapshot { return rt.orch.Snapshot() }

// Stage returns the active workflow stage.
func (rt *Runtime) Stage() types.Stage { return rt.seq.Current() }

// Params returns the project parameters.
func (rt *Runtime) Params() types.Params { return rt.session.Params() }

// Finalized returns every finalized stage output.
func (rt *Runtime) Finalized() map[types.Stage]types.Finalized {
	return rt.session.FinalizedAll()
}

// onChange is the orchestrator's state change hook. It persists the
// snapshot best-effort and fans it out to watchers. A save failure is
// logged and never fails the debate loop; writes stay in event order so a
// later stage transition cannot be overwritten by an earlier snapshot.
func (rt *Runtime) onChange(snap debate.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	stage := snap.Stage
	patch := projectstore.Patch{
		Stage:      &stage,
		Transcript: &snap.Transcript,
		Diagram:    &snap.Diagram,
	}
	if err := rt.store.Save(ctx, rt.sessionID, patch); err != nil {
		log.Printf("projectstore: save %s: %v", rt.sessionID, err)
	}

	rt.mu.Lock()
	for _, ch := range rt.subs {
		select {
		case ch <- snap:
		default: // slow watcher, drop the event
		}
	}
	rt.mu.Unlock()
}

// Subscribe registers a watcher for orchestrator snapshots. The returned
// cancel func must be called when the watcher goes away.
func (rt *Runtime) Subscribe() (<-chan debate.Snapshot, func()) {
	ch := make(chan debate.Snapshot, 16)
	rt.mu.Lock()
	id := rt.nextSub
	rt.nextSub++
	rt.subs[id] = ch
	rt.mu.Unlock()

	return ch, func() {
		rt.mu.Lock()
		delete(rt.subs, id)
		rt.mu.Unlock()
	}
}

// StartDebate launches the writer/critic loop for the active stage in the
// background. The loop outlives the HTTP request that triggered it; failures
// surface through the snapshot's phase and error, not through this call.
func (rt *Runtime) StartDebate() error {
	switch rt.orch.Phase() {
	case debate.PhaseIdle, debate.PhaseReviewing:
	default:
		return fmt.Errorf("project: cannot start debate from %s", rt.orch.Phase())
	}
	go func() {
		if err := rt.orch.Start(context.Background()); err != nil {
			log.Printf("debate: session %s stage %s: %v", rt.sessionID, rt.Stage(), err)
		}
	}()
	return nil
}

// ResumeDebate continues a loop paused in the error phase.
func (rt *Runtime) ResumeDebate() error {
	if rt.orch.Phase() != debate.PhaseError {
		return fmt.Errorf("project: cannot resume from %s", rt.orch.Phase())
	}
	go func() {
		if err := rt.orch.Resume(context.Background()); err != nil {
			log.Printf("debate: session %s stage %s resume: %v", rt.sessionID, rt.Stage(), err)
		}
	}()
	return nil
}

// CancelDebate aborts an in-flight loop.
func (rt *Runtime) CancelDebate() { rt.orch.Cancel() }

// Finalize locks in the user-approved output for the active stage. Allowed
// once the debate completed; the text must survive sanitization.
func (rt *Runtime) Finalize(ctx context.Context, text, note string) error {
	if rt.orch.Phase() == debate.PhaseCompleted {
		if err := rt.orch.OpenReview(); err != nil {
			return err
		}
	}
	if rt.orch.Phase() != debate.PhaseReviewing {
		return fmt.Errorf("project: cannot finalize from %s", rt.orch.Phase())
	}

	stage := rt.seq.Current()
	diagram := rt.orch.Diagram()
	if err := rt.session.SetFinalized(stage, text, diagram, note); err != nil {
		return err
	}
	if err := rt.orch.MarkFinalized(); err != nil {
		return err
	}

	fin, _ := rt.session.FinalizedStage(stage)
	patch := projectstore.Patch{
		Finalized: map[types.Stage]types.Finalized{stage: fin},
	}
	if stage == types.StageTopic {
		params := rt.session.Params()
		patch.Params = &params
	}
	if rt.seq.IsLast() {
		now := time.Now()
		patch.CompletedAt = &now
	}
	if err := rt.store.Save(ctx, rt.sessionID, patch); err != nil {
		return fmt.Errorf("project: persist finalized %s: %w", stage, err)
	}
	return nil
}

// Next advances to the following stage. Requires the current stage to be
// both completed and finalized; the new stage starts with a clean
// transcript and an idle orchestrator.
func (rt *Runtime) Next(ctx context.Context) (types.Stage, error) {
	stage := rt.seq.Current()
	if rt.orch.Phase() != debate.PhaseCompleted {
		return stage, fmt.Errorf("project: stage %s is not completed", stage)
	}
	if _, ok := rt.session.FinalizedStage(stage); !ok {
		return stage, fmt.Errorf("project: stage %s is not finalized", stage)
	}
	if rt.seq.IsLast() {
		return stage, fmt.Errorf("project: %s is the final stage, open export instead", stage)
	}

	next, err := rt.seq.Advance()
	if err != nil {
		return stage, err
	}
	rt.orch.Reset(next)

	empty := []types.Message(nil)
	blank := ""
	if err := rt.store.Save(ctx, rt.sessionID, projectstore.Patch{
		Stage:      &next,
		Transcript: &empty,
		Diagram:    &blank,
	}); err != nil {
		return next, fmt.Errorf("project: persist advance to %s: %w", next, err)
	}
	return next, nil
}

// Previous steps back one stage. The current transcript is discarded and
// the previous stage re-opens its finalized result for review instead of
// re-running the debate.
func (rt *Runtime) Previous(ctx context.Context) (types.Stage, error) {
	prev, err := rt.seq.Retreat()
	if err != nil {
		return rt.seq.Current(), err
	}

	fin, _ := rt.session.FinalizedStage(prev)
	rt.orch.RestoreReview(prev, fin.Diagram)

	empty := []types.Message(nil)
	if err := rt.store.Save(ctx, rt.sessionID, projectstore.Patch{
		Stage:      &prev,
		Transcript: &empty,
		Diagram:    &fin.Diagram,
	}); err != nil {
		return prev, fmt.Errorf("project: persist retreat to %s: %w", prev, err)
	}
	return prev, nil
}

// ExportReady reports whether the project can be exported: every stage of
// its workflow finalized, the last one included.
func (rt *Runtime) ExportReady() bool {
	fin := rt.session.FinalizedAll()
	for _, stage := range workflow.Order(rt.session.Params().Type) {
		if _, ok := fin[stage]; !ok {
			return false
		}
	}
	return true
}

// Close releases the session's model clients.
func (rt *Runtime) Close() error {
	rt.orch.Cancel()
	return rt.session.Close()
}
