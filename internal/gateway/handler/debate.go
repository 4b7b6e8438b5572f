package handler

import "net/http"

// HandleStart kicks off the debate loop for the active stage.
// POST /v1/projects/{id}/debate/start
func (h *ProjectHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	rt, ok := h.runtimeOf(w, r)
	if !ok {
		return
	}
	if err := rt.StartDebate(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, rt.Snapshot())
}

// HandleResume continues a loop paused by a failed turn.
// POST /v1/projects/{id}/debate/resume
func (h *ProjectHandler) HandleResume(w http.ResponseWriter, r *http.Request) {
	rt, ok := h.runtimeOf(w, r)
	if !ok {
		return
	}
	if err := rt.ResumeDebate(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, rt.Snapshot())
}

// HandleCancel aborts an in-flight loop.
// POST /v1/projects/{id}/debate/cancel
func (h *ProjectHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	rt, ok := h.runtimeOf(w, r)
	if !ok {
		return
	}
	rt.CancelDebate()
	writeJSON(w, http.StatusOK, rt.Snapshot())
}

// HandleSnapshot returns the orchestrator state including the transcript.
// GET /v1/projects/{id}/snapshot
func (h *ProjectHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	rt, ok := h.runtimeOf(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rt.Snapshot())
}

type finalizeRequest struct {
	Text string `json:"text"`
	Note string `json:"note,omitempty"`
}

// HandleFinalize locks in the user-approved output for the active stage.
// POST /v1/projects/{id}/finalize
func (h *ProjectHandler) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	rt, ok := h.runtimeOf(w, r)
	if !ok {
		return
	}
	var in finalizeRequest
	if err := decodeJSON(r, &in); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if err := h.svc.Finalize(r.Context(), rt, in.Text, in.Note); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(rt))
}

// HandleNext advances to the following stage.
// POST /v1/projects/{id}/next
func (h *ProjectHandler) HandleNext(w http.ResponseWriter, r *http.Request) {
	rt, ok := h.runtimeOf(w, r)
	if !ok {
		return
	}
	stage, err := rt.Next(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stage": stage, "snapshot": rt.Snapshot()})
}

// HandlePrevious steps back and re-opens the prior stage's result.
// POST /v1/projects/{id}/previous
func (h *ProjectHandler) HandlePrevious(w http.ResponseWriter, r *http.Request) {
	rt, ok := h.runtimeOf(w, r)
	if !ok {
		return
	}
	stage, err := rt.Previous(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stage": stage, "snapshot": rt.Snapshot()})
}
