package engine

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/davenhall/taskgraph/internal/events"
	"github.com/davenhall/taskgraph/internal/graph"
	"github.com/davenhall/taskgraph/internal/model"
)

func newTestEngine(t *testing.T) (*Engine, *mockStore, *mockPublisher) {
	t.Helper()
	s := newMockStore()
	pub := &mockPublisher{}
	eng := New(s, pub, Options{Logger: slog.New(slog.NewTextHandler(testWriter{t}, nil))})
	return eng, s, pub
}

// testWriter routes engine log output through the test log.
type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func seedTasks(s *mockStore, ids ...string) {
	for _, id := range ids {
		s.addTask(&model.TaskSummary{ID: id, WorkspaceID: "ws-1", Name: "Task " + id, Status: model.TaskOpen})
	}
}

func seedDep(s *mockStore, id, taskID, dependsOn string, typ model.DependencyType, status model.DependencyStatus, created time.Time) *model.Dependency {
	d := &model.Dependency{
		ID: id, WorkspaceID: "ws-1", TaskID: taskID, DependsOn: dependsOn,
		Type: typ, Status: status, CreatedAt: created, UpdatedAt: created,
	}
	s.addDep(d)
	return d
}

func TestCreateDependency(t *testing.T) {
	eng, s, pub := newTestEngine(t)
	seedTasks(s, "t-1", "t-2")

	dep, err := eng.CreateDependency(context.Background(), model.DependencySpec{
		TaskID: "t-1", DependsOn: "t-2", CreatedBy: "alice",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dep.ID == "" {
		t.Error("expected generated id")
	}
	if dep.Type != model.DepBlocking {
		t.Errorf("type defaults to blocking, got %s", dep.Type)
	}
	if dep.Status != model.DepActive {
		t.Errorf("status = %s, want active", dep.Status)
	}
	if dep.WorkspaceID != "ws-1" {
		t.Errorf("workspace inherited from task, got %q", dep.WorkspaceID)
	}
	if pub.published(events.TopicDependencyCreated) != 1 {
		t.Error("expected a created event")
	}
}

func TestCreateDependency_SelfDependency(t *testing.T) {
	eng, s, _ := newTestEngine(t)
	seedTasks(s, "t-1")

	_, err := eng.CreateDependency(context.Background(), model.DependencySpec{TaskID: "t-1", DependsOn: "t-1"})
	var selfDep *model.SelfDependencyError
	if !errors.As(err, &selfDep) {
		t.Fatalf("expected SelfDependencyError, got %v", err)
	}
}

func TestCreateDependency_UnknownTask(t *testing.T) {
	eng, s, pub := newTestEngine(t)
	seedTasks(s, "t-1")

	_, err := eng.CreateDependency(context.Background(), model.DependencySpec{TaskID: "t-1", DependsOn: "ghost"})
	var nf *model.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Kind != "task" || nf.ID != "ghost" {
		t.Errorf("unexpected not-found fields: %+v", nf)
	}
	if len(pub.topics) != 0 {
		t.Error("no event should be published on failure")
	}
}

func TestCreateDependency_Duplicate(t *testing.T) {
	eng, s, _ := newTestEngine(t)
	seedTasks(s, "t-1", "t-2")
	seedDep(s, "dep-1", "t-1", "t-2", model.DepBlocking, model.DepActive, time.Now().UTC())

	_, err := eng.CreateDependency(context.Background(), model.DependencySpec{
		TaskID: "t-1", DependsOn: "t-2", Force: true,
	})
	var dup *model.DuplicateDependencyError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateDependencyError, got %v", err)
	}
}

func TestCreateDependency_CycleRejected(t *testing.T) {
	eng, s, _ := newTestEngine(t)
	seedTasks(s, "a", "b", "c")
	now := time.Now().UTC()
	seedDep(s, "dep-bc", "b", "c", model.DepBlocking, model.DepActive, now)
	seedDep(s, "dep-ca", "c", "a", model.DepBlocking, model.DepActive, now)

	_, err := eng.CreateDependency(context.Background(), model.DependencySpec{TaskID: "a", DependsOn: "b"})
	var cycle *model.CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected CycleError, got %v", err)
	}
	wantPath := []string{"a", "b", "c", "a"}
	if len(cycle.Path) != len(wantPath) {
		t.Fatalf("cycle path = %v, want %v", cycle.Path, wantPath)
	}
	for i := range wantPath {
		if cycle.Path[i] != wantPath[i] {
			t.Fatalf("cycle path = %v, want %v", cycle.Path, wantPath)
		}
	}
}

func TestCreateDependency_CycleForced(t *testing.T) {
	eng, s, _ := newTestEngine(t)
	seedTasks(s, "a", "b")
	seedDep(s, "dep-ba", "b", "a", model.DepBlocking, model.DepActive, time.Now().UTC())

	dep, err := eng.CreateDependency(context.Background(), model.DependencySpec{
		TaskID: "a", DependsOn: "b", Force: true,
	})
	if err != nil {
		t.Fatalf("force must bypass the cycle check: %v", err)
	}
	if dep == nil || dep.ID == "" {
		t.Fatal("expected a persisted dependency")
	}
}

func TestCreateDependency_LinkedSkipsCycleCheck(t *testing.T) {
	eng, s, _ := newTestEngine(t)
	seedTasks(s, "a", "b")
	seedDep(s, "dep-ba", "b", "a", model.DepBlocking, model.DepActive, time.Now().UTC())

	// A linked edge in the reverse direction never blocks, so no cycle.
	_, err := eng.CreateDependency(context.Background(), model.DependencySpec{
		TaskID: "a", DependsOn: "b", Type: model.DepLinked,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateDependency_StoreDown(t *testing.T) {
	eng, s, _ := newTestEngine(t)
	seedTasks(s, "t-1", "t-2")
	s.failing = true

	_, err := eng.CreateDependency(context.Background(), model.DependencySpec{TaskID: "t-1", DependsOn: "t-2"})
	var unavailable *model.StoreUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected StoreUnavailableError, got %v", err)
	}
}

func TestGetTaskDependencies(t *testing.T) {
	eng, s, _ := newTestEngine(t)
	seedTasks(s, "t-1", "t-2", "t-3")
	now := time.Now().UTC()
	seedDep(s, "dep-1", "t-1", "t-2", model.DepBlocking, model.DepActive, now)
	seedDep(s, "dep-2", "t-3", "t-1", model.DepBlocking, model.DepActive, now.Add(time.Second))
	seedDep(s, "dep-3", "t-1", "t-3", model.DepBlocking, model.DepResolved, now)

	deps, err := eng.GetTaskDependencies(context.Background(), "t-1", model.DependencyFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Incident in both directions; resolved excluded by default.
	if len(deps) != 2 {
		t.Fatalf("expected 2 dependencies, got %d", len(deps))
	}
	if deps[0].ID != "dep-1" || deps[1].ID != "dep-2" {
		t.Errorf("expected creation order, got %s, %s", deps[0].ID, deps[1].ID)
	}

	deps, err = eng.GetTaskDependencies(context.Background(), "t-1", model.DependencyFilter{IncludeResolved: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deps) != 3 {
		t.Fatalf("expected 3 dependencies with resolved, got %d", len(deps))
	}

	if _, err := eng.GetTaskDependencies(context.Background(), "", model.DependencyFilter{}); !model.IsInputError(err) {
		t.Errorf("expected input error for empty task id, got %v", err)
	}
}

func TestUpdateDependency_StatusChange(t *testing.T) {
	eng, s, pub := newTestEngine(t)
	seedTasks(s, "t-1", "t-2")
	seedDep(s, "dep-1", "t-1", "t-2", model.DepBlocking, model.DepActive, time.Now().UTC())

	resolved := model.DepResolved
	dep, err := eng.UpdateDependency(context.Background(), "dep-1", model.DependencyPatch{Status: &resolved})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dep.Status != model.DepResolved {
		t.Errorf("status = %s, want resolved", dep.Status)
	}
	if pub.published(events.TopicDependencyUpdated) != 1 {
		t.Error("expected an updated event")
	}
}

func TestUpdateDependency_ReactivationNeedsForce(t *testing.T) {
	eng, s, _ := newTestEngine(t)
	seedTasks(s, "t-1", "t-2")
	seedDep(s, "dep-1", "t-1", "t-2", model.DepBlocking, model.DepResolved, time.Now().UTC())

	active := model.DepActive
	_, err := eng.UpdateDependency(context.Background(), "dep-1", model.DependencyPatch{Status: &active})
	var transition *model.InvalidTransitionError
	if !errors.As(err, &transition) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if transition.From != model.DepResolved || transition.To != model.DepActive {
		t.Errorf("unexpected transition fields: %+v", transition)
	}

	dep, err := eng.UpdateDependency(context.Background(), "dep-1", model.DependencyPatch{Status: &active, Force: true})
	if err != nil {
		t.Fatalf("force must allow reactivation: %v", err)
	}
	if dep.Status != model.DepActive {
		t.Errorf("status = %s, want active", dep.Status)
	}
}

func TestUpdateDependency_NoChanges(t *testing.T) {
	eng, s, pub := newTestEngine(t)
	seedTasks(s, "t-1", "t-2")
	seedDep(s, "dep-1", "t-1", "t-2", model.DepBlocking, model.DepActive, time.Now().UTC())

	blocking := model.DepBlocking
	dep, err := eng.UpdateDependency(context.Background(), "dep-1", model.DependencyPatch{Type: &blocking})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dep.ID != "dep-1" {
		t.Errorf("expected the unchanged record back, got %+v", dep)
	}
	if len(pub.topics) != 0 {
		t.Error("a no-op update must not publish")
	}
}

func TestUpdateDependency_TypeChangeCycleCheck(t *testing.T) {
	eng, s, _ := newTestEngine(t)
	seedTasks(s, "a", "b")
	now := time.Now().UTC()
	seedDep(s, "dep-ab", "a", "b", model.DepLinked, model.DepActive, now)
	seedDep(s, "dep-ba", "b", "a", model.DepBlocking, model.DepActive, now)

	blocking := model.DepBlocking
	_, err := eng.UpdateDependency(context.Background(), "dep-ab", model.DependencyPatch{Type: &blocking})
	var cycle *model.CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected CycleError when retyping closes a loop, got %v", err)
	}
}

func TestUpdateDependency_NotFound(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	resolved := model.DepResolved
	_, err := eng.UpdateDependency(context.Background(), "ghost", model.DependencyPatch{Status: &resolved})
	var nf *model.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestDeleteDependency(t *testing.T) {
	eng, s, pub := newTestEngine(t)
	seedTasks(s, "t-1", "t-2")
	seedDep(s, "dep-1", "t-1", "t-2", model.DepBlocking, model.DepActive, time.Now().UTC())

	if err := eng.DeleteDependency(context.Background(), "dep-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.deps["dep-1"]; ok {
		t.Error("dependency should be gone")
	}
	if pub.published(events.TopicDependencyDeleted) != 1 {
		t.Error("expected a deleted event")
	}

	err := eng.DeleteDependency(context.Background(), "dep-1")
	var nf *model.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError on second delete, got %v", err)
	}
}

func TestListWorkspaceDependencies(t *testing.T) {
	eng, s, _ := newTestEngine(t)
	seedTasks(s, "t-1", "t-2")
	seedDep(s, "dep-1", "t-1", "t-2", model.DepBlocking, model.DepActive, time.Now().UTC())

	deps, total, err := eng.ListWorkspaceDependencies(context.Background(), "ws-1", model.DependencyFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(deps) != 1 {
		t.Fatalf("expected 1 dependency, got %d (total %d)", len(deps), total)
	}

	if _, _, err := eng.ListWorkspaceDependencies(context.Background(), "", model.DependencyFilter{}); !model.IsInputError(err) {
		t.Errorf("expected input error for empty workspace id, got %v", err)
	}
}

func TestGetDependencyGraph(t *testing.T) {
	eng, s, _ := newTestEngine(t)
	seedTasks(s, "a", "b", "c")
	now := time.Now().UTC()
	seedDep(s, "dep-ab", "a", "b", model.DepBlocking, model.DepActive, now)
	seedDep(s, "dep-bc", "b", "c", model.DepBlocking, model.DepActive, now)

	snap, err := eng.GetDependencyGraph(context.Background(), "a", graph.TraverseOptions{Depth: 3, Direction: model.Upstream})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(snap.Nodes))
	}
	if len(snap.CriticalPath) != 3 {
		t.Errorf("critical path = %v, want 3 hops", snap.CriticalPath)
	}

	_, err = eng.GetDependencyGraph(context.Background(), "a", graph.TraverseOptions{Depth: 99, Direction: model.Upstream})
	if !model.IsInputError(err) {
		t.Errorf("expected input error for out-of-range depth, got %v", err)
	}
}
