package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"proposalforge/internal/gateway/handler"
	"proposalforge/internal/gateway/middleware"
)

func NewMux(projectHandler *handler.ProjectHandler) http.Handler {
	mux := http.NewServeMux()

	// Project lifecycle
	mux.HandleFunc("POST /v1/projects", projectHandler.HandleCreate)
	mux.HandleFunc("GET /v1/projects", projectHandler.HandleList)
	mux.HandleFunc("POST /v1/projects/open", projectHandler.HandleOpen)
	mux.HandleFunc("GET /v1/projects/{id}", projectHandler.HandleGet)
	mux.HandleFunc("DELETE /v1/projects/{id}", projectHandler.HandleDelete)

	// Debate control
	mux.HandleFunc("POST /v1/projects/{id}/debate/start", projectHandler.HandleStart)
	mux.HandleFunc("POST /v1/projects/{id}/debate/resume", projectHandler.HandleResume)
	mux.HandleFunc("POST /v1/projects/{id}/debate/cancel", projectHandler.HandleCancel)
	mux.HandleFunc("GET /v1/projects/{id}/snapshot", projectHandler.HandleSnapshot)
	mux.HandleFunc("GET /v1/projects/{id}/watch", projectHandler.HandleWatch)

	// Stage navigation
	mux.HandleFunc("POST /v1/projects/{id}/finalize", projectHandler.HandleFinalize)
	mux.HandleFunc("POST /v1/projects/{id}/next", projectHandler.HandleNext)
	mux.HandleFunc("POST /v1/projects/{id}/previous", projectHandler.HandlePrevious)

	// Export
	mux.HandleFunc("POST /v1/projects/{id}/export", projectHandler.HandleExport)
	mux.HandleFunc("GET /v1/projects/{id}/export/files", projectHandler.HandleExportList)
	mux.HandleFunc("GET /v1/projects/{id}/export/file", projectHandler.HandleExportFile)
	mux.HandleFunc("GET /v1/projects/{id}/export/url", projectHandler.HandleExportURL)

	// Operational
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return middleware.CORS(mux)
}
