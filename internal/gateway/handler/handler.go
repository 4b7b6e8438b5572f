// Package handler exposes the project workflow over HTTP JSON endpoints.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"proposalforge/internal/debate"
	"proposalforge/internal/gateway/repository/artifact"
	gatewayproject "proposalforge/internal/gateway/service/project"
	llmclient "proposalforge/internal/llm/client"
	"proposalforge/internal/types"
)

// ProjectHandler serves project CRUD, debate control and export endpoints.
type ProjectHandler struct {
	svc       *gatewayproject.Service
	artifacts artifact.Store
}

func NewProjectHandler(svc *gatewayproject.Service, artifacts artifact.Store) *ProjectHandler {
	return &ProjectHandler{svc: svc, artifacts: artifacts}
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusConflict
	switch {
	case errors.Is(err, gatewayproject.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, gatewayproject.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, llmclient.ErrMissingCredential):
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// projectView is the wire shape of one project for list/get responses.
type projectView struct {
	SessionID string                          `json:"session_id"`
	UserID    string                          `json:"user_id"`
	Params    types.Params                    `json:"params"`
	Stage     types.Stage                     `json:"stage"`
	Snapshot  *debate.Snapshot                `json:"snapshot,omitempty"`
	Finalized map[types.Stage]types.Finalized `json:"finalized,omitempty"`
}

func viewOf(rt *gatewayproject.Runtime) projectView {
	snap := rt.Snapshot()
	return projectView{
		SessionID: rt.SessionID(),
		UserID:    rt.UserID(),
		Params:    rt.Params(),
		Stage:     rt.Stage(),
		Snapshot:  &snap,
		Finalized: rt.Finalized(),
	}
}

// runtimeOf resolves the live runtime for a request path id, writing the
// error response itself when there is none.
func (h *ProjectHandler) runtimeOf(w http.ResponseWriter, r *http.Request) (*gatewayproject.Runtime, bool) {
	id := r.PathValue("id")
	rt, ok := h.svc.Get(id)
	if !ok {
		writeError(w, fmt.Errorf("project %s is not loaded: %w", id, gatewayproject.ErrNotFound))
		return nil, false
	}
	return rt, true
}
