package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/davenhall/taskgraph/internal/events"
	"github.com/davenhall/taskgraph/internal/graph"
	"github.com/davenhall/taskgraph/internal/model"
)

// CheckConflicts audits the dependency component around the task and
// reports defects and advisories without mutating anything. Proposed edges,
// when given, are analyzed as if already committed, so a caller can probe
// the effect of a write before making it. A detected conflict additionally
// publishes a ConflictDetected event.
func (e *Engine) CheckConflicts(ctx context.Context, taskID string, proposed []model.DependencySpec) (*model.ConflictReport, error) {
	if taskID == "" {
		return nil, model.InputError("task_id is required")
	}
	hypo, err := hypotheticals(proposed)
	if err != nil {
		return nil, err
	}
	comp, err := e.loadComponent(ctx, taskID, hypo)
	if err != nil {
		return nil, err
	}

	report := &model.ConflictReport{
		Conflicts: []model.Conflict{},
		Warnings:  []model.Warning{},
	}
	report.Conflicts = append(report.Conflicts, componentConflicts(comp)...)
	report.Warnings = append(report.Warnings, fanWarnings(comp.graph, e.warnFanout)...)
	report.Warnings = append(report.Warnings, chainWarnings(comp.graph, e.warnChain)...)
	report.Warnings = append(report.Warnings, dueDateWarnings(comp.graph, comp.tasks)...)
	report.HasConflicts = len(report.Conflicts) > 0

	if report.HasConflicts {
		e.publish(ctx, events.TopicConflictDetected, events.ConflictDetected{TaskID: taskID, Report: report})
	}
	return report, nil
}

// component is one connected component of the dependency graph together
// with the summaries of every task it touches.
type component struct {
	deps  []*model.Dependency
	graph *graph.Graph
	tasks map[string]*model.TaskSummary
}

// hypotheticals materializes proposed specs as uncommitted active records.
// Their synthetic ids keep them distinguishable in conflict reports.
func hypotheticals(proposed []model.DependencySpec) ([]*model.Dependency, error) {
	if len(proposed) == 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	out := make([]*model.Dependency, 0, len(proposed))
	for i, spec := range proposed {
		if spec.Type == "" {
			spec.Type = model.DepBlocking
		}
		d := &model.Dependency{
			ID:        fmt.Sprintf("proposed-%d", i+1),
			TaskID:    spec.TaskID,
			DependsOn: spec.DependsOn,
			Type:      spec.Type,
			Status:    model.DepActive,
			CreatedBy: spec.CreatedBy,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := model.ValidateDependency(d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// loadComponent fetches the component around taskID and layers any
// uncommitted extra records on top before building the graph.
func (e *Engine) loadComponent(ctx context.Context, taskID string, extra []*model.Dependency) (*component, error) {
	deps, err := e.collectComponent(ctx, taskID)
	if err != nil {
		return nil, err
	}
	deps = append(deps, extra...)
	g := graph.Build(deps)

	ids := map[string]struct{}{taskID: {}}
	for _, d := range deps {
		ids[d.TaskID] = struct{}{}
		ids[d.DependsOn] = struct{}{}
	}
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	tasks, err := e.store.GetTasks(ctx, sorted)
	if err != nil {
		return nil, storeErr("get tasks", err)
	}
	return &component{deps: deps, graph: g, tasks: tasks}, nil
}

// componentConflicts lists the defects in one component. Warnings are
// computed separately; they never feed the resolver.
func componentConflicts(comp *component) []model.Conflict {
	var out []model.Conflict
	out = append(out, circularConflicts(comp.graph)...)
	out = append(out, duplicateConflicts(comp.deps)...)
	out = append(out, invalidStatusConflicts(comp.deps, comp.tasks)...)
	return out
}

func circularConflicts(g *graph.Graph) []model.Conflict {
	var out []model.Conflict
	for _, cycle := range graph.DetectCycles(g.BlockingAdjacency()) {
		var ids []string
		for i, src := range cycle {
			dst := cycle[(i+1)%len(cycle)]
			for _, edge := range g.BlockingEdges(src, dst) {
				ids = append(ids, edge.ID)
			}
		}
		out = append(out, model.Conflict{
			Type:                model.ConflictCircular,
			Description:         "circular dependency: " + strings.Join(append(append([]string{}, cycle...), cycle[0]), " -> "),
			AffectedTasks:       append([]string{}, cycle...),
			SuggestedResolution: fmt.Sprintf("remove one dependency in the cycle, for example %s -> %s", cycle[0], cycle[1%len(cycle)]),
			DependencyIDs:       ids,
		})
	}
	return out
}

func duplicateConflicts(deps []*model.Dependency) []model.Conflict {
	groups := make(map[model.DependencyKey][]*model.Dependency)
	for _, d := range deps {
		if d.Status != model.DepActive {
			continue
		}
		groups[d.Key()] = append(groups[d.Key()], d)
	}

	keys := make([]model.DependencyKey, 0, len(groups))
	for k, g := range groups {
		if len(g) > 1 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].TaskID != keys[j].TaskID {
			return keys[i].TaskID < keys[j].TaskID
		}
		if keys[i].DependsOn != keys[j].DependsOn {
			return keys[i].DependsOn < keys[j].DependsOn
		}
		return keys[i].Type < keys[j].Type
	})

	var out []model.Conflict
	for _, k := range keys {
		group := groups[k]
		keep := earliest(group)
		ids := make([]string, 0, len(group))
		for _, d := range group {
			ids = append(ids, d.ID)
		}
		sort.Strings(ids)
		out = append(out, model.Conflict{
			Type: model.ConflictDuplicate,
			Description: fmt.Sprintf("%d identical active %s dependencies from %s to %s",
				len(group), k.Type, k.TaskID, k.DependsOn),
			AffectedTasks:       []string{k.TaskID, k.DependsOn},
			SuggestedResolution: fmt.Sprintf("keep the earliest (%s) and remove the rest", keep.ID),
			DependencyIDs:       ids,
		})
	}
	return out
}

func invalidStatusConflicts(deps []*model.Dependency, tasks map[string]*model.TaskSummary) []model.Conflict {
	var out []model.Conflict
	for _, d := range deps {
		if d.Status != model.DepActive || !d.Type.Blocking() {
			continue
		}
		blocker := graph.Normalize(d).Target
		task, ok := tasks[blocker]
		if !ok || !task.Status.Terminal() {
			continue
		}
		out = append(out, model.Conflict{
			Type: model.ConflictInvalidStatus,
			Description: fmt.Sprintf("dependency %s is still active but its blocker %s is %s",
				d.ID, blocker, task.Status),
			AffectedTasks:       []string{d.TaskID, d.DependsOn},
			SuggestedResolution: "mark the dependency resolved",
			DependencyIDs:       []string{d.ID},
		})
	}
	return out
}

func fanWarnings(g *graph.Graph, threshold int) []model.Warning {
	var out []model.Warning
	for _, id := range g.Tasks() {
		if n := len(g.Dependencies(id)); n > threshold {
			out = append(out, model.Warning{
				Type:          model.WarnFanOut,
				Description:   fmt.Sprintf("task %s depends on %d tasks (threshold %d)", id, n, threshold),
				AffectedTasks: []string{id},
			})
		}
		if n := len(g.Dependents(id)); n > threshold {
			out = append(out, model.Warning{
				Type:          model.WarnFanIn,
				Description:   fmt.Sprintf("task %s blocks %d tasks (threshold %d)", id, n, threshold),
				AffectedTasks: []string{id},
			})
		}
	}
	return out
}

func chainWarnings(g *graph.Graph, threshold int) []model.Warning {
	adj := g.BlockingAdjacency()
	if len(graph.DetectCycles(adj)) > 0 {
		// Chain length is not well defined while a cycle exists; the
		// circular conflict already covers it.
		return nil
	}
	chain := graph.LongestChain(adj)
	if len(chain) <= threshold {
		return nil
	}
	return []model.Warning{{
		Type:          model.WarnChainLength,
		Description:   fmt.Sprintf("blocking chain of %d tasks exceeds threshold %d", len(chain), threshold),
		AffectedTasks: append([]string{}, chain...),
	}}
}

// dueDateWarnings flags active blocking edges where the blocked task is due
// before the task it waits on.
func dueDateWarnings(g *graph.Graph, tasks map[string]*model.TaskSummary) []model.Warning {
	var out []model.Warning
	for _, e := range g.Edges() {
		if e.Type != model.DepBlocking || e.Status != model.DepActive {
			continue
		}
		blocked, ok1 := tasks[e.Source]
		blocker, ok2 := tasks[e.Target]
		if !ok1 || !ok2 || blocked.DueDate == nil || blocker.DueDate == nil {
			continue
		}
		if blocked.DueDate.Before(*blocker.DueDate) {
			out = append(out, model.Warning{
				Type: model.WarnDueDate,
				Description: fmt.Sprintf("task %s is due %s but waits on %s due %s",
					e.Source, blocked.DueDate.Format("2006-01-02"),
					e.Target, blocker.DueDate.Format("2006-01-02")),
				AffectedTasks: []string{e.Source, e.Target},
			})
		}
	}
	return out
}

// earliest picks the oldest record by creation time, breaking ties by id.
func earliest(group []*model.Dependency) *model.Dependency {
	best := group[0]
	for _, d := range group[1:] {
		if d.CreatedAt.Before(best.CreatedAt) ||
			(d.CreatedAt.Equal(best.CreatedAt) && d.ID < best.ID) {
			best = d
		}
	}
	return best
}
