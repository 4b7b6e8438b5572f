package debate

import "testing"

func TestTransition_HappyPath(t *testing.T) {
	steps := []struct {
		ev   Event
		want Phase
	}{
		{EventStart, PhaseRunning},
		{EventComplete, PhaseCompleted},
		{EventReview, PhaseReviewing},
		{EventFinalize, PhaseCompleted},
	}
	p := PhaseIdle
	for _, s := range steps {
		next, err := Transition(p, s.ev)
		if err != nil {
			t.Fatalf("%s from %s: %v", s.ev, p, err)
		}
		if next != s.want {
			t.Fatalf("%s from %s: got %s, want %s", s.ev, p, next, s.want)
		}
		p = next
	}
}

func TestTransition_ErrorLoop(t *testing.T) {
	p, err := Transition(PhaseRunning, EventFail)
	if err != nil || p != PhaseError {
		t.Fatalf("fail from running: %s %v", p, err)
	}
	p, err = Transition(p, EventResume)
	if err != nil || p != PhaseRunning {
		t.Fatalf("resume from error: %s %v", p, err)
	}
}

func TestTransition_Invalid(t *testing.T) {
	invalid := []struct {
		p  Phase
		ev Event
	}{
		{PhaseIdle, EventComplete},
		{PhaseIdle, EventFinalize},
		{PhaseRunning, EventStart},
		{PhaseCompleted, EventFail},
		{PhaseError, EventComplete},
	}
	for _, c := range invalid {
		if next, err := Transition(c.p, c.ev); err == nil {
			t.Errorf("%s from %s unexpectedly allowed (-> %s)", c.ev, c.p, next)
		} else if next != c.p {
			t.Errorf("failed transition must not move state: %s -> %s", c.p, next)
		}
	}
}
