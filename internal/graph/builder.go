// Package graph derives directed-graph views from flat dependency records.
// The store is the sole authority on edges; every structure here is rebuilt
// from a fetched edge set and discarded after use.
package graph

import (
	"sort"

	"github.com/davenhall/taskgraph/internal/model"
)

// Graph holds normalized adjacency built from a dependency set. Edges are
// stored in the canonical direction: source depends on target, meaning the
// target must complete first. A waiting_on edge (A waits on B's behalf,
// i.e. B waits for A) is rewritten to the equivalent blocking edge so
// downstream algorithms never branch on edge type. Linked edges are kept in
// the edge list but excluded from blocking adjacency.
type Graph struct {
	edges []*model.GraphEdge

	// blocking adjacency over active blocking-equivalent edges.
	deps       map[string][]string // source -> targets it depends on
	dependents map[string][]string // target -> sources depending on it

	// edge lookup by canonical (source, target) over blocking edges.
	blockingEdges map[[2]string][]*model.GraphEdge
}

// Build normalizes a dependency set into a Graph. Only active edges enter
// the blocking adjacency; resolved, broken and ignored edges no longer
// block anything but are still present in Edges for display.
func Build(deps []*model.Dependency) *Graph {
	g := &Graph{
		deps:          make(map[string][]string),
		dependents:    make(map[string][]string),
		blockingEdges: make(map[[2]string][]*model.GraphEdge),
	}
	for _, d := range deps {
		g.add(d)
	}
	return g
}

// add normalizes one dependency record into the graph.
func (g *Graph) add(d *model.Dependency) {
	e := Normalize(d)
	g.edges = append(g.edges, e)

	if !d.Type.Blocking() || d.Status != model.DepActive {
		return
	}

	g.deps[e.Source] = append(g.deps[e.Source], e.Target)
	g.dependents[e.Target] = append(g.dependents[e.Target], e.Source)
	key := [2]string{e.Source, e.Target}
	g.blockingEdges[key] = append(g.blockingEdges[key], e)
}

// Normalize rewrites a dependency record to a canonical graph edge.
// blocking(A, B) means A is blocked by B: source A, target B.
// waiting_on(A, B) is the inverse: B waits for A, so source B, target A,
// reported as type blocking. linked edges keep their stored orientation.
func Normalize(d *model.Dependency) *model.GraphEdge {
	e := &model.GraphEdge{
		ID:     d.ID,
		Source: d.TaskID,
		Target: d.DependsOn,
		Type:   d.Type,
		Status: d.Status,
	}
	if d.Type == model.DepWaitingOn {
		e.Source, e.Target = e.Target, e.Source
		e.Type = model.DepBlocking
	}
	return e
}

// Edges returns every normalized edge, linked ones included.
func (g *Graph) Edges() []*model.GraphEdge {
	return g.edges
}

// Dependencies returns the tasks the given task depends on through active
// blocking-equivalent edges.
func (g *Graph) Dependencies(taskID string) []string {
	return g.deps[taskID]
}

// Dependents returns the tasks that depend on the given task through active
// blocking-equivalent edges.
func (g *Graph) Dependents(taskID string) []string {
	return g.dependents[taskID]
}

// BlockingAdjacency returns the adjacency map of the blocking-equivalent
// subgraph: source task -> tasks it depends on.
func (g *Graph) BlockingAdjacency() map[string][]string {
	return g.deps
}

// BlockingEdges returns the active blocking edges between source and target
// in the canonical direction.
func (g *Graph) BlockingEdges(source, target string) []*model.GraphEdge {
	return g.blockingEdges[[2]string{source, target}]
}

// Tasks returns every task id that appears in the blocking subgraph, in
// sorted order for deterministic iteration.
func (g *Graph) Tasks() []string {
	seen := make(map[string]struct{})
	for s, targets := range g.deps {
		seen[s] = struct{}{}
		for _, t := range targets {
			seen[t] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
