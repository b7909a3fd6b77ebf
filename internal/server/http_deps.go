package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/davenhall/taskgraph/internal/model"
)

// createDependencyInput is the body for POST /v1/tasks/{id}/dependencies.
type createDependencyInput struct {
	DependsOn string               `json:"depends_on"`
	Type      model.DependencyType `json:"type"`
	LinkID    string               `json:"link_id"`
	CreatedBy string               `json:"created_by"`
	Force     bool                 `json:"force"`
}

// handleCreateDependency handles POST /v1/tasks/{id}/dependencies.
func (s *Server) handleCreateDependency(w http.ResponseWriter, r *http.Request) {
	var in createDependencyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	dep, err := s.engine.CreateDependency(r.Context(), model.DependencySpec{
		TaskID:    r.PathValue("id"),
		DependsOn: in.DependsOn,
		Type:      in.Type,
		LinkID:    in.LinkID,
		CreatedBy: in.CreatedBy,
		Force:     in.Force,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dep)
}

// handleGetTaskDependencies handles GET /v1/tasks/{id}/dependencies.
func (s *Server) handleGetTaskDependencies(w http.ResponseWriter, r *http.Request) {
	deps, err := s.engine.GetTaskDependencies(r.Context(), r.PathValue("id"), filterFromQuery(r))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dependencies": deps})
}

// updateDependencyInput is the body for PATCH /v1/dependencies/{id}.
type updateDependencyInput struct {
	Type   *model.DependencyType   `json:"type"`
	Status *model.DependencyStatus `json:"status"`
	Force  bool                    `json:"force"`
}

// handleUpdateDependency handles PATCH /v1/dependencies/{id}.
func (s *Server) handleUpdateDependency(w http.ResponseWriter, r *http.Request) {
	var in updateDependencyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	dep, err := s.engine.UpdateDependency(r.Context(), r.PathValue("id"), model.DependencyPatch{
		Type:   in.Type,
		Status: in.Status,
		Force:  in.Force,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dep)
}

// handleDeleteDependency handles DELETE /v1/dependencies/{id}.
func (s *Server) handleDeleteDependency(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteDependency(r.Context(), r.PathValue("id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// bulkInput is the body for POST /v1/dependencies/bulk.
type bulkInput struct {
	Operations      []model.BulkOp `json:"operations"`
	ContinueOnError bool           `json:"continue_on_error"`
}

// handleBulkOperations handles POST /v1/dependencies/bulk.
func (s *Server) handleBulkOperations(w http.ResponseWriter, r *http.Request) {
	var in bulkInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.engine.BulkMutate(r.Context(), in.Operations, in.ContinueOnError)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleListWorkspaceDependencies handles GET /v1/workspaces/{id}/dependencies.
func (s *Server) handleListWorkspaceDependencies(w http.ResponseWriter, r *http.Request) {
	deps, total, err := s.engine.ListWorkspaceDependencies(r.Context(), r.PathValue("id"), filterFromQuery(r))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dependencies": deps, "total": total})
}

// filterFromQuery builds a DependencyFilter from URL query parameters.
func filterFromQuery(r *http.Request) model.DependencyFilter {
	q := r.URL.Query()
	filter := model.DependencyFilter{
		LinkID:          q.Get("link_id"),
		IncludeResolved: q.Get("include_resolved") == "true",
		IncludeBroken:   q.Get("include_broken") == "true",
	}
	if v := q.Get("type"); v != "" {
		for _, t := range strings.Split(v, ",") {
			filter.Types = append(filter.Types, model.DependencyType(t))
		}
	}
	if v := q.Get("status"); v != "" {
		for _, st := range strings.Split(v, ",") {
			filter.Statuses = append(filter.Statuses, model.DependencyStatus(st))
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}
	return filter
}
