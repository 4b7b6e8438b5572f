// Package workflow owns the fixed stage ordering of a proposal project
// and the position of a project within it.
package workflow

import (
	"fmt"
	"sync"

	"proposalforge/internal/types"
)

var (
	researchOrder = []types.Stage{
		types.StageTopic, types.StageModel, types.StageOutline, types.StageSurvey,
	}
	startupOrder = []types.Stage{
		types.StageTopic, types.StageModel, types.StageOutline, types.StageGTM, types.StageSurvey,
	}
)

// Order returns the stage sequence for the project type. STARTUP inserts
// the GTM stage between Outline and Survey; RESEARCH omits it.
func Order(pt types.ProjectType) []types.Stage {
	if pt == types.TypeStartup {
		return append([]types.Stage(nil), startupOrder...)
	}
	return append([]types.Stage(nil), researchOrder...)
}

// Sequencer tracks a project's position in its stage order. Advancing and
// retreating only move the pointer; the invariants around finalization are
// enforced by the project service, which owns the orchestrator.
type Sequencer struct {
	mu     sync.Mutex
	stages []types.Stage
	idx    int
}

// New creates a sequencer positioned at the first stage.
func New(pt types.ProjectType) *Sequencer {
	return &Sequencer{stages: Order(pt)}
}

// Restore creates a sequencer positioned at the given stage. Unknown
// stages (for example a GTM stage on a RESEARCH project) are an error.
func Restore(pt types.ProjectType, at types.Stage) (*Sequencer, error) {
	s := New(pt)
	for i, st := range s.stages {
		if st == at {
			s.idx = i
			return s, nil
		}
	}
	return nil, fmt.Errorf("workflow: stage %s not in %s sequence", at, pt)
}

// Current returns the active stage.
func (s *Sequencer) Current() types.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stages[s.idx]
}

// IsLast reports whether the active stage is the final one; finalizing it
// yields control to export.
func (s *Sequencer) IsLast() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx == len(s.stages)-1
}

// Advance moves to the next stage.
func (s *Sequencer) Advance() (types.Stage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idx >= len(s.stages)-1 {
		return s.stages[s.idx], fmt.Errorf("workflow: already at final stage %s", s.stages[s.idx])
	}
	s.idx++
	return s.stages[s.idx], nil
}

// Retreat moves to the immediately preceding stage.
func (s *Sequencer) Retreat() (types.Stage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.idx == 0 {
		return s.stages[s.idx], fmt.Errorf("workflow: already at first stage")
	}
	s.idx--
	return s.stages[s.idx], nil
}
