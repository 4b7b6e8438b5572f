package handler

import (
	"net/http"
	"strings"

	"proposalforge/internal/debate"
	"proposalforge/internal/types"
)

type createProjectRequest struct {
	UserID    string       `json:"user_id"`
	Params    types.Params `json:"params"`
	WriterKey string       `json:"writer_key"`
	CriticKey string       `json:"critic_key,omitempty"`
}

// HandleCreate starts a new project. POST /v1/projects
func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in createProjectRequest
	if err := decodeJSON(r, &in); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	rt, err := h.svc.Create(r.Context(), in.UserID, in.Params, debate.Credentials{
		WriterKey: in.WriterKey,
		CriticKey: in.CriticKey,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(rt))
}

// HandleList lists a user's persisted projects. GET /v1/projects?user_id=
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	recs, err := h.svc.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": recs})
}

type openProjectRequest struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	WriterKey string `json:"writer_key"`
	CriticKey string `json:"critic_key,omitempty"`
}

// HandleOpen loads a persisted project into a live runtime, rehydrating an
// interrupted stage. POST /v1/projects/open
func (h *ProjectHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	var in openProjectRequest
	if err := decodeJSON(r, &in); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	rt, err := h.svc.Open(r.Context(), in.UserID, in.SessionID, debate.Credentials{
		WriterKey: in.WriterKey,
		CriticKey: in.CriticKey,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(rt))
}

// HandleGet returns the live view of one project. GET /v1/projects/{id}
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	rt, ok := h.runtimeOf(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(rt))
}

// HandleDelete removes a project and its record.
// DELETE /v1/projects/{id}?user_id=
func (h *ProjectHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	if err := h.svc.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
