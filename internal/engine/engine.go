// Package engine implements the task dependency graph operations: CRUD with
// write-time validation, traversal snapshots, conflict analysis and
// remediation, and ordered bulk mutation.
//
// Every operation runs synchronously to completion and recomputes graph
// state from the store at call time. The engine holds no cross-call mutable
// state and never retries store failures; timeouts and retries belong to the
// store collaborator.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/davenhall/taskgraph/internal/events"
	"github.com/davenhall/taskgraph/internal/graph"
	"github.com/davenhall/taskgraph/internal/idgen"
	"github.com/davenhall/taskgraph/internal/model"
	"github.com/davenhall/taskgraph/internal/store"
)

// Default warning thresholds for conflict analysis.
const (
	DefaultWarnFanout = 10
	DefaultWarnChain  = 5
)

// Options tune engine behavior. Zero values fall back to defaults.
type Options struct {
	// WarnFanout is the in/out edge count beyond which a fan-in/fan-out
	// warning is emitted.
	WarnFanout int
	// WarnChain is the blocking chain length beyond which a chain-length
	// warning is emitted.
	WarnChain int
	Logger    *slog.Logger
}

// Engine coordinates the dependency store, the graph algorithms, and the
// event publisher.
type Engine struct {
	store      store.Store
	publisher  events.Publisher
	traverser  *graph.Traverser
	logger     *slog.Logger
	warnFanout int
	warnChain  int
}

// New returns an Engine backed by the given store and publisher.
func New(s store.Store, pub events.Publisher, opts Options) *Engine {
	if opts.WarnFanout <= 0 {
		opts.WarnFanout = DefaultWarnFanout
	}
	if opts.WarnChain <= 0 {
		opts.WarnChain = DefaultWarnChain
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{
		store:      s,
		publisher:  pub,
		traverser:  graph.NewTraverser(&storeSource{s: s}),
		logger:     opts.Logger,
		warnFanout: opts.WarnFanout,
		warnChain:  opts.WarnChain,
	}
}

// storeSource adapts store.Store to graph.Source.
type storeSource struct {
	s store.Store
}

func (ss *storeSource) IncidentDependencies(ctx context.Context, taskID string, filter model.DependencyFilter) ([]*model.Dependency, error) {
	return ss.s.ListForTask(ctx, taskID, filter)
}

func (ss *storeSource) TaskSummaries(ctx context.Context, ids []string) (map[string]*model.TaskSummary, error) {
	return ss.s.GetTasks(ctx, ids)
}

// publish emits an event, best-effort. Failures are logged but never block
// the caller.
func (e *Engine) publish(ctx context.Context, topic string, event any) {
	if err := e.publisher.Publish(ctx, topic, event); err != nil {
		e.logger.Warn("failed to publish event", "topic", topic, "error", err)
	}
}

// storeErr wraps a store failure in StoreUnavailableError, preserving the
// upstream cause. Typed model errors pass through unchanged.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		dup     *model.DuplicateDependencyError
		nf      *model.NotFoundError
		selfDep *model.SelfDependencyError
	)
	if errors.As(err, &dup) || errors.As(err, &nf) || errors.As(err, &selfDep) {
		return err
	}
	return &model.StoreUnavailableError{Op: op, Err: err}
}

// CreateDependency validates the proposed edge, rejects writes that would
// introduce a cycle (unless spec.Force is set), persists the record, and
// publishes a DependencyCreated event.
func (e *Engine) CreateDependency(ctx context.Context, spec model.DependencySpec) (*model.Dependency, error) {
	if spec.Type == "" {
		spec.Type = model.DepBlocking
	}

	now := time.Now().UTC()
	dep := &model.Dependency{
		TaskID:    spec.TaskID,
		DependsOn: spec.DependsOn,
		Type:      spec.Type,
		Status:    model.DepActive,
		LinkID:    spec.LinkID,
		CreatedBy: spec.CreatedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := model.ValidateDependency(dep); err != nil {
		return nil, err
	}

	tasks, err := e.store.GetTasks(ctx, []string{spec.TaskID, spec.DependsOn})
	if err != nil {
		return nil, storeErr("get tasks", err)
	}
	for _, id := range []string{spec.TaskID, spec.DependsOn} {
		if _, ok := tasks[id]; !ok {
			return nil, &model.NotFoundError{Kind: "task", ID: id}
		}
	}
	dep.WorkspaceID = tasks[spec.TaskID].WorkspaceID

	if dep.Type.Blocking() && !spec.Force {
		if err := e.checkCycle(ctx, dep, ""); err != nil {
			return nil, err
		}
	}

	id, err := idgen.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate ID: %w", err)
	}
	dep.ID = id

	if err := e.store.CreateDependency(ctx, dep); err != nil {
		return nil, storeErr("create dependency", err)
	}

	e.publish(ctx, events.TopicDependencyCreated, events.DependencyCreated{Dependency: dep})
	return dep, nil
}

// GetTaskDependencies returns edges incident to the task.
func (e *Engine) GetTaskDependencies(ctx context.Context, taskID string, filter model.DependencyFilter) ([]*model.Dependency, error) {
	if taskID == "" {
		return nil, model.InputError("task_id is required")
	}
	deps, err := e.store.ListForTask(ctx, taskID, filter)
	if err != nil {
		return nil, storeErr("list dependencies", err)
	}
	return deps, nil
}

// ListWorkspaceDependencies returns a workspace's edges with a total count.
func (e *Engine) ListWorkspaceDependencies(ctx context.Context, workspaceID string, filter model.DependencyFilter) ([]*model.Dependency, int, error) {
	if workspaceID == "" {
		return nil, 0, model.InputError("workspace_id is required")
	}
	deps, total, err := e.store.ListForWorkspace(ctx, workspaceID, filter)
	if err != nil {
		return nil, 0, storeErr("list workspace dependencies", err)
	}
	return deps, total, nil
}

// UpdateDependency applies a partial update. Reactivating a resolved or
// broken edge requires patch.Force; a type change that would make the edge
// blocking re-runs the cycle preflight.
func (e *Engine) UpdateDependency(ctx context.Context, id string, patch model.DependencyPatch) (*model.Dependency, error) {
	dep, err := e.store.GetDependency(ctx, id)
	if err != nil {
		return nil, storeErr("get dependency", err)
	}
	if dep == nil {
		return nil, &model.NotFoundError{Kind: "dependency", ID: id}
	}

	changes := make(map[string]any)

	if patch.Status != nil && *patch.Status != dep.Status {
		if !patch.Status.IsValid() {
			return nil, model.InputError("unknown dependency status " + string(*patch.Status))
		}
		reactivating := *patch.Status == model.DepActive &&
			(dep.Status == model.DepResolved || dep.Status == model.DepBroken)
		if reactivating && !patch.Force {
			return nil, &model.InvalidTransitionError{DependencyID: id, From: dep.Status, To: *patch.Status}
		}
		dep.Status = *patch.Status
		changes["status"] = dep.Status
	}

	if patch.Type != nil && *patch.Type != dep.Type {
		if !patch.Type.IsValid() {
			return nil, model.InputError("unknown dependency type " + string(*patch.Type))
		}
		dep.Type = *patch.Type
		changes["type"] = dep.Type
	}

	if len(changes) == 0 {
		return dep, nil
	}

	if dep.Type.Blocking() && dep.Status == model.DepActive && !patch.Force {
		if err := e.checkCycle(ctx, dep, dep.ID); err != nil {
			return nil, err
		}
	}

	dep.UpdatedAt = time.Now().UTC()
	if err := e.store.UpdateDependency(ctx, dep); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &model.NotFoundError{Kind: "dependency", ID: id}
		}
		return nil, storeErr("update dependency", err)
	}

	e.publish(ctx, events.TopicDependencyUpdated, events.DependencyUpdated{Dependency: dep, Changes: changes})
	return dep, nil
}

// DeleteDependency removes a dependency by id.
func (e *Engine) DeleteDependency(ctx context.Context, id string) error {
	dep, err := e.store.GetDependency(ctx, id)
	if err != nil {
		return storeErr("get dependency", err)
	}
	if dep == nil {
		return &model.NotFoundError{Kind: "dependency", ID: id}
	}

	if err := e.store.DeleteDependency(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &model.NotFoundError{Kind: "dependency", ID: id}
		}
		return storeErr("delete dependency", err)
	}

	e.publish(ctx, events.TopicDependencyDeleted, events.DependencyDeleted{
		DependencyID: id,
		TaskID:       dep.TaskID,
		DependsOn:    dep.DependsOn,
	})
	return nil
}

// GetDependencyGraph traverses the graph around the root task and returns a
// fresh snapshot.
func (e *Engine) GetDependencyGraph(ctx context.Context, taskID string, opts graph.TraverseOptions) (*model.DependencyGraphSnapshot, error) {
	if taskID == "" {
		return nil, model.InputError("task_id is required")
	}
	snap, err := e.traverser.Traverse(ctx, taskID, opts)
	if err != nil {
		if model.IsInputError(err) {
			return nil, err
		}
		return nil, storeErr("traverse", err)
	}
	return snap, nil
}

// checkCycle rejects the proposed edge when the committed blocking subgraph
// plus the proposal contains a cycle. excludeID removes the edge being
// updated from the committed set so it is not counted twice.
func (e *Engine) checkCycle(ctx context.Context, proposed *model.Dependency, excludeID string) error {
	committed, err := e.collectComponent(ctx, proposed.TaskID)
	if err != nil {
		return err
	}

	edges := make([]*model.Dependency, 0, len(committed))
	for _, d := range committed {
		if excludeID != "" && d.ID == excludeID {
			continue
		}
		edges = append(edges, d)
	}

	g := graph.Build(edges)
	pe := graph.Normalize(proposed)
	if path, bad := graph.WouldCreateCycle(g.BlockingAdjacency(), pe.Source, pe.Target); bad {
		return &model.CycleError{TaskID: proposed.TaskID, DependsOn: proposed.DependsOn, Path: path}
	}
	return nil
}

// collectComponent fetches the connected component of edges around a task
// by breadth-first expansion over incident edges. The result reflects store
// state at call time; nothing is cached across calls.
func (e *Engine) collectComponent(ctx context.Context, taskID string) ([]*model.Dependency, error) {
	filter := model.DependencyFilter{IncludeResolved: true, IncludeBroken: true}

	visited := map[string]bool{taskID: true}
	frontier := []string{taskID}
	seenEdge := make(map[string]bool)
	var edges []*model.Dependency

	for len(frontier) > 0 {
		var next []string
		for _, id := range frontier {
			deps, err := e.store.ListForTask(ctx, id, filter)
			if err != nil {
				return nil, storeErr("list dependencies", err)
			}
			for _, d := range deps {
				if seenEdge[d.ID] {
					continue
				}
				seenEdge[d.ID] = true
				edges = append(edges, d)
				for _, far := range []string{d.TaskID, d.DependsOn} {
					if !visited[far] {
						visited[far] = true
						next = append(next, far)
					}
				}
			}
		}
		frontier = next
	}
	return edges, nil
}
