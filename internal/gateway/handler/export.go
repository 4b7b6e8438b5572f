package handler

import (
	"errors"
	"net/http"
	"strings"

	"proposalforge/internal/gateway/repository/artifact"
)

// HandleExport assembles the finalized document bundle.
// POST /v1/projects/{id}/export
func (h *ProjectHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	rt, ok := h.runtimeOf(w, r)
	if !ok {
		return
	}
	res, err := h.svc.Export(r.Context(), rt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleExportFile streams one exported artifact.
// GET /v1/projects/{id}/export/file?path=
func (h *ProjectHandler) HandleExportFile(w http.ResponseWriter, r *http.Request) {
	if h.artifacts == nil {
		http.Error(w, "export storage is not configured", http.StatusServiceUnavailable)
		return
	}
	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if path == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}
	data, err := h.artifacts.Get(r.Context(), r.PathValue("id"), path)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			http.Error(w, "artifact not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if strings.HasSuffix(path, ".md") {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "application/octet-stream")
	}
	_, _ = w.Write(data)
}

// HandleExportURL returns a presigned download link for one exported
// artifact. Only stores backed by object storage support this; the local
// memory store answers 501 so callers can fall back to the file endpoint.
// GET /v1/projects/{id}/export/url?path=
func (h *ProjectHandler) HandleExportURL(w http.ResponseWriter, r *http.Request) {
	if h.artifacts == nil {
		http.Error(w, "export storage is not configured", http.StatusServiceUnavailable)
		return
	}
	provider, ok := h.artifacts.(artifact.URLProvider)
	if !ok {
		http.Error(w, "export storage does not support download links", http.StatusNotImplemented)
		return
	}
	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if path == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}
	url, err := provider.GetURL(r.Context(), r.PathValue("id"), path)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			http.Error(w, "artifact not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"url": url})
}

// HandleExportList lists the stored artifacts for a project.
// GET /v1/projects/{id}/export/files
func (h *ProjectHandler) HandleExportList(w http.ResponseWriter, r *http.Request) {
	if h.artifacts == nil {
		http.Error(w, "export storage is not configured", http.StatusServiceUnavailable)
		return
	}
	paths, err := h.artifacts.List(r.Context(), r.PathValue("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"paths": paths})
}
