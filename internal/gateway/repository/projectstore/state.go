// Package projectstore persists project records under a session identifier.
// The store is a crash-recovery mechanism: the in-memory runtime is the
// authoritative state during a live session, writes here are best-effort,
// and the last write wins at sessionID granularity.
package projectstore

import (
	"time"

	"proposalforge/internal/types"
)

// Record is the full persisted state of one project.
type Record struct {
	SessionID   string                          `json:"session_id"`
	UserID      string                          `json:"user_id"`
	Params      types.Params                    `json:"params"`
	Stage       types.Stage                     `json:"stage"`
	Transcript  []types.Message                 `json:"transcript"`
	Diagram     string                          `json:"diagram,omitempty"`
	Finalized   map[types.Stage]types.Finalized `json:"finalized,omitempty"`
	CreatedAt   time.Time                       `json:"created_at"`
	UpdatedAt   time.Time                       `json:"updated_at"`
	CompletedAt *time.Time                      `json:"completed_at,omitempty"`
}

// Patch carries a partial update. Nil fields leave the stored value
// untouched; Finalized entries merge by stage key.
type Patch struct {
	UserID      *string
	Params      *types.Params
	Stage       *types.Stage
	Transcript  *[]types.Message
	Diagram     *string
	Finalized   map[types.Stage]types.Finalized
	CompletedAt *time.Time
}

// apply merges p into r and stamps UpdatedAt.
func (p Patch) apply(r *Record, now time.Time) {
	if p.UserID != nil {
		r.UserID = *p.UserID
	}
	if p.Params != nil {
		r.Params = *p.Params
	}
	if p.Stage != nil {
		r.Stage = *p.Stage
	}
	if p.Transcript != nil {
		r.Transcript = append([]types.Message(nil), (*p.Transcript)...)
	}
	if p.Diagram != nil {
		r.Diagram = *p.Diagram
	}
	if len(p.Finalized) > 0 {
		if r.Finalized == nil {
			r.Finalized = make(map[types.Stage]types.Finalized, len(p.Finalized))
		}
		for k, v := range p.Finalized {
			r.Finalized[k] = v
		}
	}
	if p.CompletedAt != nil {
		r.CompletedAt = p.CompletedAt
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
}
