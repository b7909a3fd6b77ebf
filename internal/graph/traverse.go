package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/davenhall/taskgraph/internal/model"
)

// Source supplies the edges and task metadata a traversal needs. It is
// implemented by the dependency store; the traverser issues one incident
// fetch per frontier task and one bulk metadata fetch at the end.
type Source interface {
	// IncidentDependencies returns edges touching the task in either
	// direction, subject to the filter's status toggles.
	IncidentDependencies(ctx context.Context, taskID string, filter model.DependencyFilter) ([]*model.Dependency, error)

	// TaskSummaries returns metadata for the given task ids. Missing tasks
	// are simply absent from the result.
	TaskSummaries(ctx context.Context, ids []string) (map[string]*model.TaskSummary, error)
}

// TraverseOptions bound a traversal.
type TraverseOptions struct {
	Depth           int
	Direction       model.TraversalDirection
	IncludeResolved bool
	IncludeBroken   bool
}

// Validate clamps nothing: out-of-range options are the caller's error.
func (o TraverseOptions) Validate() error {
	if o.Depth < model.MinTraversalDepth || o.Depth > model.MaxTraversalDepth {
		return model.InputError(fmt.Sprintf("depth must be between %d and %d", model.MinTraversalDepth, model.MaxTraversalDepth))
	}
	if !o.Direction.IsValid() {
		return model.InputError("direction must be upstream, downstream or both")
	}
	return nil
}

// Traverser walks the dependency graph breadth-first from a root task,
// rebuilding adjacency from store data on every call.
type Traverser struct {
	src Source
}

// NewTraverser returns a Traverser reading from the given source.
func NewTraverser(src Source) *Traverser {
	return &Traverser{src: src}
}

// Traverse produces a snapshot of the graph around root, up to opts.Depth
// hops in the requested direction. Edges that cross the depth boundary are
// recorded as truncation markers. The snapshot embeds detected cycles for
// the traversed subgraph and, only when that subgraph is acyclic, the
// hop-count critical path.
func (t *Traverser) Traverse(ctx context.Context, root string, opts TraverseOptions) (*model.DependencyGraphSnapshot, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	filter := model.DependencyFilter{
		IncludeResolved: opts.IncludeResolved,
		IncludeBroken:   opts.IncludeBroken,
	}

	level := map[string]int{root: 0}
	frontier := []string{root}

	var collected []*model.Dependency
	seenEdge := make(map[string]bool)
	var truncated []*model.TruncatedEdge

	for depth := 0; len(frontier) > 0; depth++ {
		var nextFrontier []string
		for _, taskID := range frontier {
			deps, err := t.src.IncidentDependencies(ctx, taskID, filter)
			if err != nil {
				return nil, fmt.Errorf("fetch edges for %s: %w", taskID, err)
			}
			for _, d := range deps {
				if seenEdge[d.ID] {
					continue
				}
				e := Normalize(d)
				neighbor, follow := t.follows(e, taskID, opts.Direction)
				if !follow {
					continue
				}
				if depth >= opts.Depth {
					// The edge leaves the depth boundary; mark it instead of
					// dropping it, unless the far side is already in range.
					if _, ok := level[neighbor]; !ok {
						seenEdge[d.ID] = true
						truncated = append(truncated, &model.TruncatedEdge{
							ID:     e.ID,
							Source: e.Source,
							Target: e.Target,
							Type:   e.Type,
						})
						continue
					}
				}
				seenEdge[d.ID] = true
				collected = append(collected, d)
				if _, ok := level[neighbor]; !ok {
					level[neighbor] = depth + 1
					nextFrontier = append(nextFrontier, neighbor)
				}
			}
		}
		if depth >= opts.Depth {
			break
		}
		frontier = nextFrontier
	}

	return t.snapshot(ctx, root, collected, level, truncated)
}

// follows reports whether an edge incident to taskID should be followed for
// the direction, and names the far endpoint. Linked edges are bidirectional
// and are followed either way.
func (t *Traverser) follows(e *model.GraphEdge, taskID string, dir model.TraversalDirection) (string, bool) {
	if e.Type == model.DepLinked {
		if e.Source == taskID {
			return e.Target, true
		}
		return e.Source, true
	}

	// Canonical blocking edge: Source depends on Target. Upstream follows
	// dependencies (task as source), downstream follows dependents (task as
	// target).
	switch {
	case e.Source == taskID && (dir == model.Upstream || dir == model.Both):
		return e.Target, true
	case e.Target == taskID && (dir == model.Downstream || dir == model.Both):
		return e.Source, true
	}
	return "", false
}

// snapshot assembles the final result: nodes with metadata and edge lists,
// cycles, and the critical path when the subgraph is acyclic.
func (t *Traverser) snapshot(ctx context.Context, root string, deps []*model.Dependency, level map[string]int, truncated []*model.TruncatedEdge) (*model.DependencyGraphSnapshot, error) {
	g := Build(deps)

	ids := make([]string, 0, len(level))
	for id := range level {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	summaries, err := t.src.TaskSummaries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch task summaries: %w", err)
	}

	outgoing := make(map[string][]string)
	incoming := make(map[string][]string)
	for _, e := range g.Edges() {
		outgoing[e.Source] = append(outgoing[e.Source], e.ID)
		incoming[e.Target] = append(incoming[e.Target], e.ID)
	}

	nodes := make([]*model.GraphNode, 0, len(ids))
	for _, id := range ids {
		node := &model.GraphNode{
			TaskID:       id,
			Level:        level[id],
			Dependencies: outgoing[id],
			Dependents:   incoming[id],
		}
		if s, ok := summaries[id]; ok {
			node.Name = s.Name
			node.Status = s.Status
			node.Assignees = s.Assignees
			node.DueDate = s.DueDate
			node.URL = s.URL
		}
		nodes = append(nodes, node)
	}

	snap := &model.DependencyGraphSnapshot{
		RootTaskID: root,
		Nodes:      nodes,
		Edges:      g.Edges(),
		Cycles:     DetectCycles(g.BlockingAdjacency()),
		Truncated:  truncated,
	}
	if len(snap.Cycles) == 0 {
		snap.CriticalPath = LongestChain(g.BlockingAdjacency())
	}
	return snap, nil
}
