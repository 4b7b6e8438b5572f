package debate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"proposalforge/internal/types"
)

const (
	// DefaultMaxRounds is the number of critic turns (and writer turns,
	// including the initial draft) per stage. A completed stage transcript
	// therefore holds exactly 2*MaxRounds entries.
	DefaultMaxRounds = 2

	// Client-side pacing between model calls. Shared-key sessions get the
	// longer delay because both roles draw on one quota.
	sameKeyDelay     = 4000 * time.Millisecond
	distinctKeyDelay = 1000 * time.Millisecond
)

// Snapshot is an immutable view of the orchestrator, handed to the state
// change hook and to the API layer.
type Snapshot struct {
	Stage      types.Stage     `json:"stage"`
	Phase      Phase           `json:"phase"`
	Round      int             `json:"round"`
	MaxRounds  int             `json:"max_rounds"`
	Transcript []types.Message `json:"transcript"`
	Diagram    string          `json:"diagram,omitempty"`
	Err        string          `json:"error,omitempty"`
}

// Options tune an Orchestrator. The zero value selects defaults.
type Options struct {
	MaxRounds int
	// OnChange is invoked after every meaningful transition (turn append,
	// diagram update, phase change). Implementations persist best-effort;
	// the loop never blocks on their outcome.
	OnChange func(Snapshot)
	// Sleep is the pacing primitive, injectable for tests. Defaults to a
	// context-aware timer sleep.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

// Orchestrator drives the writer/critic loop for one stage at a time.
// All model calls are strictly sequential; transcript order is completion
// order is initiation order.
type Orchestrator struct {
	mu         sync.Mutex
	session    *Session
	stage      types.Stage
	phase      Phase
	maxRounds  int
	transcript []types.Message
	diagram    string
	lastErr    error
	cancel     context.CancelFunc

	onChange func(Snapshot)
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
}

// NewOrchestrator creates an idle orchestrator for the session.
func NewOrchestrator(session *Session, stage types.Stage, opts Options) *Orchestrator {
	o := &Orchestrator{
		session:   session,
		stage:     stage,
		phase:     PhaseIdle,
		maxRounds: opts.MaxRounds,
		onChange:  opts.OnChange,
		sleep:     opts.Sleep,
		now:       opts.Now,
	}
	if o.maxRounds <= 0 {
		o.maxRounds = DefaultMaxRounds
	}
	if o.sleep == nil {
		o.sleep = sleepCtx
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	ts := make([]types.Message, len(o.transcript))
	copy(ts, o.transcript)
	snap := Snapshot{
		Stage:      o.stage,
		Phase:      o.phase,
		Round:      o.roundLocked(),
		MaxRounds:  o.maxRounds,
		Transcript: ts,
		Diagram:    o.diagram,
	}
	if o.lastErr != nil {
		snap.Err = o.lastErr.Error()
	}
	return snap
}

// Stage returns the stage this orchestrator is bound to.
func (o *Orchestrator) Stage() types.Stage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stage
}

// Phase returns the current phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Diagram returns the current diagram source for the stage.
func (o *Orchestrator) Diagram() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.diagram
}

// roundLocked derives the active round from the transcript: the round of
// the most recent writer turn, zero before the debate starts.
func (o *Orchestrator) roundLocked() int {
	round := 0
	for _, m := range o.transcript {
		if m.Round > round {
			round = m.Round
		}
	}
	return round
}

// Start begins the debate loop from scratch. Valid from Idle, or from
// Reviewing when the user re-runs a stage (which clears the transcript).
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.phase == PhaseReviewing {
		o.transcript = nil
		o.diagram = ""
	}
	next, err := Transition(o.phase, EventStart)
	if err != nil {
		o.mu.Unlock()
		return err
	}
	o.phase = next
	o.lastErr = nil
	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.notifyLocked()
	o.mu.Unlock()

	return o.run(runCtx)
}

// Resume continues a loop that paused in the Error phase. Progress made
// before the failure is kept; the loop picks up at the failed turn.
func (o *Orchestrator) Resume(ctx context.Context) error {
	o.mu.Lock()
	next, err := Transition(o.phase, EventResume)
	if err != nil {
		o.mu.Unlock()
		return err
	}
	o.phase = next
	o.lastErr = nil
	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.notifyLocked()
	o.mu.Unlock()

	return o.run(runCtx)
}

// Cancel aborts an in-flight loop. The orchestrator lands in the Error
// phase with the cancellation recorded; Resume continues later.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// OpenReview moves a completed stage to the review screen.
func (o *Orchestrator) OpenReview() error {
	return o.apply(EventReview)
}

// MarkFinalized records that the user locked in the stage output.
func (o *Orchestrator) MarkFinalized() error {
	return o.apply(EventFinalize)
}

// Reset returns the orchestrator to Idle for a new stage, clearing the
// transcript, diagram and round state.
func (o *Orchestrator) Reset(stage types.Stage) {
	o.mu.Lock()
	o.stage = stage
	o.phase = PhaseIdle
	o.transcript = nil
	o.diagram = ""
	o.lastErr = nil
	o.notifyLocked()
	o.mu.Unlock()
}

// RestoreReview puts the orchestrator directly into the review state for a
// stage whose output already exists — used when the user steps back to the
// previous stage, which re-opens its last result instead of re-running the
// debate.
func (o *Orchestrator) RestoreReview(stage types.Stage, diagram string) {
	o.mu.Lock()
	o.stage = stage
	o.phase = PhaseReviewing
	o.transcript = nil
	o.diagram = diagram
	o.lastErr = nil
	o.notifyLocked()
	o.mu.Unlock()
}

// RestoreTranscript rehydrates an interrupted stage from the persisted
// record. The orchestrator lands in Idle when nothing was generated yet,
// otherwise in Error so the user explicitly resumes.
func (o *Orchestrator) RestoreTranscript(stage types.Stage, transcript []types.Message, diagram string) {
	o.mu.Lock()
	o.stage = stage
	o.transcript = append([]types.Message(nil), transcript...)
	o.diagram = diagram
	if len(o.transcript) == 0 {
		o.phase = PhaseIdle
	} else if o.doneLocked() {
		o.phase = PhaseCompleted
	} else {
		o.phase = PhaseError
		o.lastErr = fmt.Errorf("debate: stage interrupted, resume to continue")
	}
	o.mu.Unlock()
}

func (o *Orchestrator) apply(ev Event) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	next, err := Transition(o.phase, ev)
	if err != nil {
		return err
	}
	o.phase = next
	o.notifyLocked()
	return nil
}

// notifyLocked fires the state change hook. The hook is fire-and-forget:
// its persistence outcome never interrupts the loop.
func (o *Orchestrator) notifyLocked() {
	if o.onChange != nil {
		o.onChange(o.snapshotLocked())
	}
}

type action int

const (
	actDone action = iota
	actWriter
	actCritic
)

// nextActionLocked derives the next turn purely from the transcript, which
// makes the loop resumable: after a failure the same decision logic picks
// up where it stopped.
func (o *Orchestrator) nextActionLocked() (action, int) {
	writers, critics := 0, 0
	for _, m := range o.transcript {
		switch m.Role {
		case types.RoleWriter:
			writers++
		case types.RoleCritic:
			critics++
		}
	}
	switch {
	case writers == 0:
		return actWriter, 1
	case critics < writers:
		return actCritic, critics + 1
	case writers < o.maxRounds:
		return actWriter, writers + 1
	default:
		return actDone, 0
	}
}

func (o *Orchestrator) doneLocked() bool {
	act, _ := o.nextActionLocked()
	return act == actDone
}

// run executes the turn loop until completion, failure or cancellation.
// Each outbound call suspends the loop; there is never more than one model
// call in flight for a stage.
func (o *Orchestrator) run(ctx context.Context) error {
	for {
		o.mu.Lock()
		act, round := o.nextActionLocked()
		stage := o.stage
		paced := len(o.transcript) > 0
		var lastWriter, lastCritic string
		for i := len(o.transcript) - 1; i >= 0; i-- {
			m := o.transcript[i]
			if m.Role == types.RoleWriter && lastWriter == "" {
				lastWriter = m.Content
			}
			if m.Role == types.RoleCritic && lastCritic == "" {
				lastCritic = m.Content
			}
		}
		o.mu.Unlock()

		if act == actDone {
			return o.complete()
		}

		if paced {
			delay := distinctKeyDelay
			if o.session.UsingSameKey() {
				delay = sameKeyDelay
			}
			if err := o.sleep(ctx, delay); err != nil {
				return o.fail(err)
			}
		}

		var content string
		var err error
		var role types.Role
		switch act {
		case actWriter:
			role = types.RoleWriter
			content, err = o.session.GenerateWriterTurn(ctx, stage, lastWriter, lastCritic)
		case actCritic:
			role = types.RoleCritic
			content, err = o.session.GenerateCriticTurn(ctx, stage, lastWriter)
		}
		if err != nil {
			return o.fail(err)
		}
		o.append(role, content, round)
	}
}

func (o *Orchestrator) append(role types.Role, content string, round int) {
	o.mu.Lock()
	o.transcript = append(o.transcript, types.Message{
		Role:      role,
		Content:   content,
		Round:     round,
		Timestamp: o.now(),
	})
	if role == types.RoleWriter && o.stage.HasDiagram() {
		if src, ok := ExtractDiagram(content); ok {
			o.diagram = src
		}
	}
	o.notifyLocked()
	o.mu.Unlock()
}

func (o *Orchestrator) complete() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	next, err := Transition(o.phase, EventComplete)
	if err != nil {
		return err
	}
	o.phase = next
	o.releaseLocked()
	o.notifyLocked()
	return nil
}

// fail pauses the loop in the Error phase. The failed turn is never
// written into the transcript; the typed error travels in the snapshot.
func (o *Orchestrator) fail(cause error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if next, terr := Transition(o.phase, EventFail); terr == nil {
		o.phase = next
	}
	o.lastErr = cause
	o.releaseLocked()
	o.notifyLocked()
	return cause
}

// releaseLocked cancels the run context so it detaches from its parent;
// a finished run must not keep the derived context alive.
func (o *Orchestrator) releaseLocked() {
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
}

// Transcript returns a copy of the active transcript.
func (o *Orchestrator) Transcript() []types.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	ts := make([]types.Message, len(o.transcript))
	copy(ts, o.transcript)
	return ts
}
