package server

import (
	"encoding/json"
	"net/http"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *Server) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/tasks/{id}/dependencies", s.handleCreateDependency)
	mux.HandleFunc("GET /v1/tasks/{id}/dependencies", s.handleGetTaskDependencies)
	mux.HandleFunc("PATCH /v1/dependencies/{id}", s.handleUpdateDependency)
	mux.HandleFunc("DELETE /v1/dependencies/{id}", s.handleDeleteDependency)
	mux.HandleFunc("POST /v1/dependencies/bulk", s.handleBulkOperations)
	mux.HandleFunc("GET /v1/tasks/{id}/graph", s.handleGetGraph)
	mux.HandleFunc("GET /v1/tasks/{id}/graph/export", s.handleExportGraph)
	mux.HandleFunc("POST /v1/tasks/{id}/conflicts/check", s.handleCheckConflicts)
	mux.HandleFunc("POST /v1/tasks/{id}/conflicts/resolve", s.handleResolveConflicts)
	mux.HandleFunc("GET /v1/workspaces/{id}/dependencies", s.handleListWorkspaceDependencies)
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	return AuthMiddleware(authToken, mux)
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
