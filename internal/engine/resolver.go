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
	"github.com/davenhall/taskgraph/internal/store"
)

// ResolveConflicts remediates the conflict classes selected in opts within
// the component around the task. All store writes happen in one
// transaction; a re-run with unchanged edges performs no further actions.
func (e *Engine) ResolveConflicts(ctx context.Context, taskID string, opts model.ResolutionOptions) (*model.ResolutionResult, error) {
	if taskID == "" {
		return nil, model.InputError("task_id is required")
	}
	comp, err := e.loadComponent(ctx, taskID, nil)
	if err != nil {
		return nil, err
	}
	before := componentConflicts(comp)

	var actions []model.ResolutionAction
	err = e.store.RunInTransaction(ctx, func(tx store.Store) error {
		r := &resolver{tx: tx, comp: comp, deleted: make(map[string]bool)}
		if opts.BreakCycles {
			if err := r.breakCycles(ctx); err != nil {
				return err
			}
		}
		if opts.RemoveDuplicates {
			if err := r.removeDuplicates(ctx); err != nil {
				return err
			}
		}
		if opts.UpdateInvalidStatuses {
			if err := r.updateInvalidStatuses(ctx); err != nil {
				return err
			}
		}
		actions = r.actions
		return nil
	})
	if err != nil {
		return nil, storeErr("resolve conflicts", err)
	}

	after, err := e.loadComponent(ctx, taskID, nil)
	if err != nil {
		return nil, err
	}
	remaining := componentConflicts(after)

	result := &model.ResolutionResult{
		ResolvedConflicts:  diffConflicts(before, remaining),
		RemainingConflicts: remaining,
		ActionsTaken:       actions,
	}
	if len(actions) > 0 {
		e.publish(ctx, events.TopicConflictResolved, events.ConflictResolved{TaskID: taskID, Result: result})
	}
	return result, nil
}

// resolver carries the per-invocation state of one resolution pass.
type resolver struct {
	tx      store.Store
	comp    *component
	deleted map[string]bool
	actions []model.ResolutionAction
}

// breakCycles deletes the most recently created edge of each cycle. A cycle
// already broken by an earlier deletion in the same pass is skipped.
func (r *resolver) breakCycles(ctx context.Context) error {
	byID := make(map[string]*model.Dependency, len(r.comp.deps))
	for _, d := range r.comp.deps {
		byID[d.ID] = d
	}

	for _, cycle := range graph.DetectCycles(r.comp.graph.BlockingAdjacency()) {
		var members []*model.Dependency
		broken := false
		for i, src := range cycle {
			dst := cycle[(i+1)%len(cycle)]
			for _, edge := range r.comp.graph.BlockingEdges(src, dst) {
				if r.deleted[edge.ID] {
					broken = true
				}
				if d := byID[edge.ID]; d != nil {
					members = append(members, d)
				}
			}
		}
		if broken || len(members) == 0 {
			continue
		}
		victim := latest(members)
		if err := r.delete(ctx, victim,
			"break circular dependency "+strings.Join(cycle, " -> ")); err != nil {
			return err
		}
	}
	return nil
}

// removeDuplicates keeps the earliest edge of each identical active group
// and deletes the rest.
func (r *resolver) removeDuplicates(ctx context.Context) error {
	groups := make(map[model.DependencyKey][]*model.Dependency)
	for _, d := range r.comp.deps {
		if d.Status == model.DepActive && !r.deleted[d.ID] {
			groups[d.Key()] = append(groups[d.Key()], d)
		}
	}
	keys := make([]model.DependencyKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.TaskID != b.TaskID {
			return a.TaskID < b.TaskID
		}
		if a.DependsOn != b.DependsOn {
			return a.DependsOn < b.DependsOn
		}
		return a.Type < b.Type
	})
	for _, k := range keys {
		group := groups[k]
		if len(group) < 2 {
			continue
		}
		keep := earliest(group)
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
		for _, d := range group {
			if d.ID == keep.ID {
				continue
			}
			if err := r.delete(ctx, d, "duplicate of "+keep.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// updateInvalidStatuses marks resolved every active blocking edge whose
// blocker task is already terminal.
func (r *resolver) updateInvalidStatuses(ctx context.Context) error {
	for _, d := range r.comp.deps {
		if d.Status != model.DepActive || !d.Type.Blocking() || r.deleted[d.ID] {
			continue
		}
		blocker := graph.Normalize(d).Target
		task, ok := r.comp.tasks[blocker]
		if !ok || !task.Status.Terminal() {
			continue
		}
		d.Status = model.DepResolved
		d.UpdatedAt = time.Now().UTC()
		if err := r.tx.UpdateDependency(ctx, d); err != nil {
			return err
		}
		r.actions = append(r.actions, model.ResolutionAction{
			Action:       "resolve_dependency",
			DependencyID: d.ID,
			TaskID:       d.TaskID,
			DependsOn:    d.DependsOn,
			Reason:       fmt.Sprintf("blocker %s is %s", blocker, task.Status),
		})
	}
	return nil
}

func (r *resolver) delete(ctx context.Context, d *model.Dependency, reason string) error {
	if err := r.tx.DeleteDependency(ctx, d.ID); err != nil {
		return err
	}
	r.deleted[d.ID] = true
	r.actions = append(r.actions, model.ResolutionAction{
		Action:       "delete_dependency",
		DependencyID: d.ID,
		TaskID:       d.TaskID,
		DependsOn:    d.DependsOn,
		Reason:       reason,
	})
	return nil
}

// diffConflicts returns the conflicts present before but absent after.
func diffConflicts(before, after []model.Conflict) []model.Conflict {
	seen := make(map[string]bool, len(after))
	for _, c := range after {
		seen[conflictKey(c)] = true
	}
	resolved := []model.Conflict{}
	for _, c := range before {
		if !seen[conflictKey(c)] {
			resolved = append(resolved, c)
		}
	}
	return resolved
}

func conflictKey(c model.Conflict) string {
	ids := append([]string{}, c.DependencyIDs...)
	sort.Strings(ids)
	return string(c.Type) + "|" + strings.Join(ids, ",")
}

// latest picks the newest record by creation time, breaking ties by id.
func latest(group []*model.Dependency) *model.Dependency {
	best := group[0]
	for _, d := range group[1:] {
		if d.CreatedAt.After(best.CreatedAt) ||
			(d.CreatedAt.Equal(best.CreatedAt) && d.ID > best.ID) {
			best = d
		}
	}
	return best
}
