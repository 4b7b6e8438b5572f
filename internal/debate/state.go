package debate

import "fmt"

// Phase is the explicit state of one stage attempt. It replaces the
// implicit isProcessing/stepCompleted/showReview flag soup with a single
// enum and one transition function.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseRunning   Phase = "running"
	PhaseError     Phase = "error"
	PhaseCompleted Phase = "completed"
	PhaseReviewing Phase = "reviewing"
)

// Event triggers a phase transition.
type Event string

const (
	EventStart    Event = "start"    // user starts the debate
	EventFail     Event = "fail"     // a turn failed; loop pauses
	EventResume   Event = "resume"   // user resumes after a failure
	EventComplete Event = "complete" // loop finished all rounds
	EventReview   Event = "review"   // review screen opened
	EventFinalize Event = "finalize" // user locked in the stage output
	EventReset    Event = "reset"    // stage advanced or retried from scratch
)

var transitions = map[Phase]map[Event]Phase{
	PhaseIdle: {
		EventStart: PhaseRunning,
	},
	PhaseRunning: {
		EventFail:     PhaseError,
		EventComplete: PhaseCompleted,
		EventReset:    PhaseIdle,
	},
	PhaseError: {
		EventResume: PhaseRunning,
		EventReset:  PhaseIdle,
	},
	PhaseCompleted: {
		EventReview: PhaseReviewing,
		EventReset:  PhaseIdle,
	},
	PhaseReviewing: {
		EventFinalize: PhaseCompleted,
		EventStart:    PhaseRunning, // user re-runs the debate from review
		EventReset:    PhaseIdle,
	},
}

// Transition applies ev to p, returning the next phase or an error for
// moves the state machine does not allow.
func Transition(p Phase, ev Event) (Phase, error) {
	if next, ok := transitions[p][ev]; ok {
		return next, nil
	}
	return p, fmt.Errorf("debate: invalid transition %s from %s", ev, p)
}
