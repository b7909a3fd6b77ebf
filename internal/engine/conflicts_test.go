package engine

import (
	"context"
	"testing"
	"time"

	"github.com/davenhall/taskgraph/internal/events"
	"github.com/davenhall/taskgraph/internal/model"
)

func TestCheckConflicts_Clean(t *testing.T) {
	eng, s, pub := newTestEngine(t)
	seedTasks(s, "a", "b")
	seedDep(s, "dep-ab", "a", "b", model.DepBlocking, model.DepActive, time.Now().UTC())

	report, err := eng.CheckConflicts(context.Background(), "a", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.HasConflicts {
		t.Errorf("expected clean report, got %+v", report)
	}
	if len(report.Conflicts) != 0 || len(report.Warnings) != 0 {
		t.Errorf("expected empty lists, got %+v", report)
	}
	if len(pub.topics) != 0 {
		t.Error("clean report must not publish")
	}
}

func TestCheckConflicts_Circular(t *testing.T) {
	eng, s, pub := newTestEngine(t)
	seedTasks(s, "a", "b", "c")
	now := time.Now().UTC()
	seedDep(s, "dep-ab", "a", "b", model.DepBlocking, model.DepActive, now)
	seedDep(s, "dep-bc", "b", "c", model.DepBlocking, model.DepActive, now)
	seedDep(s, "dep-ca", "c", "a", model.DepBlocking, model.DepActive, now)

	report, err := eng.CheckConflicts(context.Background(), "a", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.HasConflicts || len(report.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %+v", report)
	}
	c := report.Conflicts[0]
	if c.Type != model.ConflictCircular {
		t.Errorf("type = %s, want circular", c.Type)
	}
	if len(c.AffectedTasks) != 3 {
		t.Errorf("affected tasks = %v, want the 3 cycle members", c.AffectedTasks)
	}
	if len(c.DependencyIDs) != 3 {
		t.Errorf("dependency ids = %v, want the 3 cycle edges", c.DependencyIDs)
	}
	if pub.published(events.TopicConflictDetected) != 1 {
		t.Error("expected a detected event")
	}
}

func TestCheckConflicts_Duplicates(t *testing.T) {
	eng, s, _ := newTestEngine(t)
	seedTasks(s, "a", "b")
	now := time.Now().UTC()
	seedDep(s, "dep-new", "a", "b", model.DepBlocking, model.DepActive, now.Add(time.Minute))
	seedDep(s, "dep-old", "a", "b", model.DepBlocking, model.DepActive, now)
	// Different type is not a duplicate.
	seedDep(s, "dep-link", "a", "b", model.DepLinked, model.DepActive, now)

	report, err := eng.CheckConflicts(context.Background(), "a", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %+v", report.Conflicts)
	}
	c := report.Conflicts[0]
	if c.Type != model.ConflictDuplicate {
		t.Errorf("type = %s, want duplicate", c.Type)
	}
	if len(c.DependencyIDs) != 2 {
		t.Errorf("dependency ids = %v, want both duplicates", c.DependencyIDs)
	}
	// The suggestion names the earliest record, to be kept.
	if want := "keep the earliest (dep-old) and remove the rest"; c.SuggestedResolution != want {
		t.Errorf("suggestion = %q, want %q", c.SuggestedResolution, want)
	}
}

func TestCheckConflicts_InvalidStatus(t *testing.T) {
	eng, s, _ := newTestEngine(t)
	s.addTask(&model.TaskSummary{ID: "a", WorkspaceID: "ws-1", Status: model.TaskOpen})
	s.addTask(&model.TaskSummary{ID: "b", WorkspaceID: "ws-1", Status: model.TaskDone})
	seedDep(s, "dep-ab", "a", "b", model.DepBlocking, model.DepActive, time.Now().UTC())

	report, err := eng.CheckConflicts(context.Background(), "a", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %+v", report.Conflicts)
	}
	c := report.Conflicts[0]
	if c.Type != model.ConflictInvalidStatus {
		t.Errorf("type = %s, want invalid_status", c.Type)
	}
	if len(c.DependencyIDs) != 1 || c.DependencyIDs[0] != "dep-ab" {
		t.Errorf("dependency ids = %v, want [dep-ab]", c.DependencyIDs)
	}
}

func TestCheckConflicts_InvalidStatusWaitingOn(t *testing.T) {
	eng, s, _ := newTestEngine(t)
	s.addTask(&model.TaskSummary{ID: "a", WorkspaceID: "ws-1", Status: model.TaskClosed})
	s.addTask(&model.TaskSummary{ID: "b", WorkspaceID: "ws-1", Status: model.TaskOpen})
	// waiting_on(a, b) normalizes to b blocked by a; the blocker is a.
	seedDep(s, "dep-w", "a", "b", model.DepWaitingOn, model.DepActive, time.Now().UTC())

	report, err := eng.CheckConflicts(context.Background(), "a", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Conflicts) != 1 || report.Conflicts[0].Type != model.ConflictInvalidStatus {
		t.Fatalf("expected invalid_status for the normalized blocker, got %+v", report.Conflicts)
	}
}

func TestCheckConflicts_FanOutWarning(t *testing.T) {
	s := newMockStore()
	pub := &mockPublisher{}
	eng := New(s, pub, Options{WarnFanout: 2, WarnChain: 99})

	seedTasks(s, "hub", "d1", "d2", "d3")
	now := time.Now().UTC()
	seedDep(s, "dep-1", "hub", "d1", model.DepBlocking, model.DepActive, now)
	seedDep(s, "dep-2", "hub", "d2", model.DepBlocking, model.DepActive, now)
	seedDep(s, "dep-3", "hub", "d3", model.DepBlocking, model.DepActive, now)

	report, err := eng.CheckConflicts(context.Background(), "hub", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.HasConflicts {
		t.Errorf("warnings must not count as conflicts: %+v", report)
	}
	if len(report.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %+v", report.Warnings)
	}
	if report.Warnings[0].Type != model.WarnFanOut {
		t.Errorf("warning type = %s, want excessive_fan_out", report.Warnings[0].Type)
	}
}

func TestCheckConflicts_FanInWarning(t *testing.T) {
	s := newMockStore()
	eng := New(s, &mockPublisher{}, Options{WarnFanout: 2, WarnChain: 99})

	seedTasks(s, "hub", "d1", "d2", "d3")
	now := time.Now().UTC()
	seedDep(s, "dep-1", "d1", "hub", model.DepBlocking, model.DepActive, now)
	seedDep(s, "dep-2", "d2", "hub", model.DepBlocking, model.DepActive, now)
	seedDep(s, "dep-3", "d3", "hub", model.DepBlocking, model.DepActive, now)

	report, err := eng.CheckConflicts(context.Background(), "hub", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Warnings) != 1 || report.Warnings[0].Type != model.WarnFanIn {
		t.Fatalf("expected a fan-in warning, got %+v", report.Warnings)
	}
}

func TestCheckConflicts_ChainWarning(t *testing.T) {
	s := newMockStore()
	eng := New(s, &mockPublisher{}, Options{WarnFanout: 99, WarnChain: 2})

	seedTasks(s, "a", "b", "c")
	now := time.Now().UTC()
	seedDep(s, "dep-ab", "a", "b", model.DepBlocking, model.DepActive, now)
	seedDep(s, "dep-bc", "b", "c", model.DepBlocking, model.DepActive, now)

	report, err := eng.CheckConflicts(context.Background(), "a", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Warnings) != 1 || report.Warnings[0].Type != model.WarnChainLength {
		t.Fatalf("expected a chain warning, got %+v", report.Warnings)
	}
	if len(report.Warnings[0].AffectedTasks) != 3 {
		t.Errorf("affected tasks = %v, want the full chain", report.Warnings[0].AffectedTasks)
	}
}

func TestCheckConflicts_DueDateWarning(t *testing.T) {
	eng, s, _ := newTestEngine(t)
	soon := time.Now().UTC().Add(24 * time.Hour)
	later := soon.Add(72 * time.Hour)
	s.addTask(&model.TaskSummary{ID: "a", WorkspaceID: "ws-1", Status: model.TaskOpen, DueDate: &soon})
	s.addTask(&model.TaskSummary{ID: "b", WorkspaceID: "ws-1", Status: model.TaskOpen, DueDate: &later})
	seedDep(s, "dep-ab", "a", "b", model.DepBlocking, model.DepActive, time.Now().UTC())

	report, err := eng.CheckConflicts(context.Background(), "a", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Warnings) != 1 || report.Warnings[0].Type != model.WarnDueDate {
		t.Fatalf("expected a due date warning, got %+v", report.Warnings)
	}
}

func TestCheckConflicts_Proposed(t *testing.T) {
	eng, s, _ := newTestEngine(t)
	seedTasks(s, "a", "b")
	seedDep(s, "dep-ba", "b", "a", model.DepBlocking, model.DepActive, time.Now().UTC())

	// The committed graph is clean; the proposed edge closes a loop.
	report, err := eng.CheckConflicts(context.Background(), "a", []model.DependencySpec{
		{TaskID: "a", DependsOn: "b"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.HasConflicts || len(report.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict from the proposed edge, got %+v", report)
	}
	c := report.Conflicts[0]
	if c.Type != model.ConflictCircular {
		t.Errorf("type = %s, want circular", c.Type)
	}
	found := false
	for _, id := range c.DependencyIDs {
		if id == "proposed-1" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the synthetic proposed id in %v", c.DependencyIDs)
	}
}

func TestCheckConflicts_ProposedInvalid(t *testing.T) {
	eng, s, _ := newTestEngine(t)
	seedTasks(s, "a")

	_, err := eng.CheckConflicts(context.Background(), "a", []model.DependencySpec{
		{TaskID: "a", DependsOn: "a"},
	})
	if err == nil {
		t.Fatal("expected validation error for self-dependent proposal")
	}
}

func TestCheckConflicts_EmptyTaskID(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	_, err := eng.CheckConflicts(context.Background(), "", nil)
	if !model.IsInputError(err) {
		t.Fatalf("expected input error, got %v", err)
	}
}
