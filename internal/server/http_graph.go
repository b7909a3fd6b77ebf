package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/davenhall/taskgraph/internal/graph"
	"github.com/davenhall/taskgraph/internal/model"
)

// defaultTraversalDepth applies when the depth query parameter is absent.
const defaultTraversalDepth = 3

// handleGetGraph handles GET /v1/tasks/{id}/graph.
func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	snap, err := s.engine.GetDependencyGraph(r.Context(), r.PathValue("id"), traverseOptionsFromQuery(r))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleExportGraph handles GET /v1/tasks/{id}/graph/export.
func (s *Server) handleExportGraph(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = model.ExportJSON
	}
	export, err := s.engine.ExportGraph(r.Context(), r.PathValue("id"), format, traverseOptionsFromQuery(r))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, export)
}

// checkConflictsInput is the body for POST /v1/tasks/{id}/conflicts/check.
// The body is optional; an empty one audits committed edges only.
type checkConflictsInput struct {
	Proposed []model.DependencySpec `json:"proposed"`
}

// handleCheckConflicts handles POST /v1/tasks/{id}/conflicts/check.
func (s *Server) handleCheckConflicts(w http.ResponseWriter, r *http.Request) {
	var in checkConflictsInput
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	report, err := s.engine.CheckConflicts(r.Context(), r.PathValue("id"), in.Proposed)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleResolveConflicts handles POST /v1/tasks/{id}/conflicts/resolve.
func (s *Server) handleResolveConflicts(w http.ResponseWriter, r *http.Request) {
	var opts model.ResolutionOptions
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.engine.ResolveConflicts(r.Context(), r.PathValue("id"), opts)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// traverseOptionsFromQuery builds TraverseOptions from URL query
// parameters. Out-of-range values are passed through so validation can
// reject them with a clear message.
func traverseOptionsFromQuery(r *http.Request) graph.TraverseOptions {
	q := r.URL.Query()
	opts := graph.TraverseOptions{
		Depth:           defaultTraversalDepth,
		Direction:       model.Upstream,
		IncludeResolved: q.Get("include_resolved") == "true",
		IncludeBroken:   q.Get("include_broken") == "true",
	}
	if v := q.Get("depth"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			opts.Depth = n
		}
	}
	if v := q.Get("direction"); v != "" {
		opts.Direction = model.TraversalDirection(v)
	}
	return opts
}
