package sync

import (
	"context"
	"database/sql"
	"sort"

	"github.com/davenhall/taskgraph/internal/model"
	"github.com/davenhall/taskgraph/internal/store"
)

// mockStore is a minimal in-memory store for sync tests.
type mockStore struct {
	deps  map[string]*model.Dependency
	tasks map[string]*model.TaskSummary
}

func newMockStore() *mockStore {
	return &mockStore{
		deps:  make(map[string]*model.Dependency),
		tasks: make(map[string]*model.TaskSummary),
	}
}

func (m *mockStore) CreateDependency(_ context.Context, dep *model.Dependency) error {
	m.deps[dep.ID] = dep
	return nil
}

func (m *mockStore) GetDependency(_ context.Context, id string) (*model.Dependency, error) {
	d, ok := m.deps[id]
	if !ok {
		return nil, nil
	}
	return d, nil
}

func (m *mockStore) UpdateDependency(_ context.Context, dep *model.Dependency) error {
	if _, ok := m.deps[dep.ID]; !ok {
		return sql.ErrNoRows
	}
	m.deps[dep.ID] = dep
	return nil
}

func (m *mockStore) DeleteDependency(_ context.Context, id string) error {
	delete(m.deps, id)
	return nil
}

func (m *mockStore) ListForTask(_ context.Context, taskID string, filter model.DependencyFilter) ([]*model.Dependency, error) {
	var out []*model.Dependency
	for _, d := range m.deps {
		if (d.TaskID == taskID || d.DependsOn == taskID) && filter.Matches(d) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockStore) ListForWorkspace(_ context.Context, workspaceID string, filter model.DependencyFilter) ([]*model.Dependency, int, error) {
	var out []*model.Dependency
	for _, d := range m.deps {
		if d.WorkspaceID == workspaceID && filter.Matches(d) {
			out = append(out, d)
		}
	}
	return out, len(out), nil
}

func (m *mockStore) ListAllDependencies(_ context.Context) ([]*model.Dependency, error) {
	var out []*model.Dependency
	for _, d := range m.deps {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) GetTask(_ context.Context, id string) (*model.TaskSummary, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, nil
	}
	return t, nil
}

func (m *mockStore) GetTasks(_ context.Context, ids []string) (map[string]*model.TaskSummary, error) {
	out := make(map[string]*model.TaskSummary)
	for _, id := range ids {
		if t, ok := m.tasks[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

func (m *mockStore) UpsertTask(_ context.Context, task *model.TaskSummary) error {
	m.tasks[task.ID] = task
	return nil
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error { return nil }
