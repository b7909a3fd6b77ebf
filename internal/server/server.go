// Package server exposes the dependency graph engine over HTTP/JSON.
package server

import (
	"errors"
	"net/http"

	"github.com/davenhall/taskgraph/internal/engine"
	"github.com/davenhall/taskgraph/internal/model"
)

// Server routes HTTP requests to the engine.
type Server struct {
	engine *engine.Engine
}

// NewServer returns a Server backed by the given engine.
func NewServer(e *engine.Engine) *Server {
	return &Server{engine: e}
}

// respondError maps typed engine errors onto HTTP statuses:
// validation failures to 400, unknown ids to 404, duplicates and cycle
// rejections to 409, store outages to 503. Anything untyped is a 500.
func respondError(w http.ResponseWriter, err error) {
	var (
		notFound    *model.NotFoundError
		duplicate   *model.DuplicateDependencyError
		selfDep     *model.SelfDependencyError
		cycle       *model.CycleError
		transition  *model.InvalidTransitionError
		unavailable *model.StoreUnavailableError
	)
	switch {
	case model.IsInputError(err), errors.As(err, &selfDep), errors.As(err, &transition):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &duplicate):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &cycle):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": err.Error(),
			"cycle": cycle.Path,
		})
	case errors.As(err, &unavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
