package engine

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/davenhall/taskgraph/internal/model"
	"github.com/davenhall/taskgraph/internal/store"
)

// mockStore is a minimal in-memory store for engine tests.
type mockStore struct {
	mu    sync.Mutex
	deps  map[string]*model.Dependency
	tasks map[string]*model.TaskSummary

	failing bool
}

func newMockStore() *mockStore {
	return &mockStore{
		deps:  make(map[string]*model.Dependency),
		tasks: make(map[string]*model.TaskSummary),
	}
}

// errStoreDown simulates a backend outage for every call.
type errStoreDown struct{}

func (errStoreDown) Error() string { return "store down" }

func (m *mockStore) addTask(t *model.TaskSummary) {
	m.tasks[t.ID] = t
}

func (m *mockStore) addDep(d *model.Dependency) {
	m.deps[d.ID] = d
}

func (m *mockStore) CreateDependency(_ context.Context, dep *model.Dependency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errStoreDown{}
	}
	for _, d := range m.deps {
		if d.Status == model.DepActive && d.Key() == dep.Key() {
			return &model.DuplicateDependencyError{
				TaskID:    dep.TaskID,
				DependsOn: dep.DependsOn,
				Type:      dep.Type,
			}
		}
	}
	m.deps[dep.ID] = dep
	return nil
}

func (m *mockStore) GetDependency(_ context.Context, id string) (*model.Dependency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return nil, errStoreDown{}
	}
	d, ok := m.deps[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (m *mockStore) UpdateDependency(_ context.Context, dep *model.Dependency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errStoreDown{}
	}
	if _, ok := m.deps[dep.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *dep
	m.deps[dep.ID] = &cp
	return nil
}

func (m *mockStore) DeleteDependency(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errStoreDown{}
	}
	if _, ok := m.deps[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.deps, id)
	return nil
}

func (m *mockStore) ListForTask(_ context.Context, taskID string, filter model.DependencyFilter) ([]*model.Dependency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return nil, errStoreDown{}
	}
	var out []*model.Dependency
	for _, d := range m.deps {
		if d.TaskID != taskID && d.DependsOn != taskID {
			continue
		}
		if !filter.Matches(d) {
			continue
		}
		out = append(out, d)
	}
	sortDeps(out)
	return out, nil
}

func (m *mockStore) ListForWorkspace(_ context.Context, workspaceID string, filter model.DependencyFilter) ([]*model.Dependency, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return nil, 0, errStoreDown{}
	}
	var out []*model.Dependency
	for _, d := range m.deps {
		if d.WorkspaceID != workspaceID || !filter.Matches(d) {
			continue
		}
		out = append(out, d)
	}
	sortDeps(out)
	return out, len(out), nil
}

func (m *mockStore) ListAllDependencies(_ context.Context) ([]*model.Dependency, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Dependency
	for _, d := range m.deps {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) GetTask(_ context.Context, id string) (*model.TaskSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, nil
	}
	return t, nil
}

func (m *mockStore) GetTasks(_ context.Context, ids []string) (map[string]*model.TaskSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return nil, errStoreDown{}
	}
	out := make(map[string]*model.TaskSummary)
	for _, id := range ids {
		if t, ok := m.tasks[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

func (m *mockStore) UpsertTask(_ context.Context, task *model.TaskSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = task
	return nil
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error { return nil }

func sortDeps(deps []*model.Dependency) {
	sort.Slice(deps, func(i, j int) bool {
		if !deps[i].CreatedAt.Equal(deps[j].CreatedAt) {
			return deps[i].CreatedAt.Before(deps[j].CreatedAt)
		}
		return deps[i].ID < deps[j].ID
	})
}

// mockPublisher records published events in order.
type mockPublisher struct {
	mu     sync.Mutex
	topics []string
	events []any
}

func (p *mockPublisher) Publish(_ context.Context, topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func (p *mockPublisher) Close() error { return nil }

func (p *mockPublisher) published(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, t := range p.topics {
		if t == topic {
			n++
		}
	}
	return n
}
