package model

import "time"

// DependencyType categorizes the relationship between two tasks.
type DependencyType string

const (
	// DepBlocking means the dependent task cannot proceed until the
	// target task completes.
	DepBlocking DependencyType = "blocking"
	// DepWaitingOn is the semantic inverse of blocking: the target task
	// is waiting on the dependent task.
	DepWaitingOn DependencyType = "waiting_on"
	// DepLinked is a bidirectional, non-blocking association.
	DepLinked DependencyType = "linked"
)

// IsValid reports whether the dependency type is one of the known values.
func (d DependencyType) IsValid() bool {
	switch d {
	case DepBlocking, DepWaitingOn, DepLinked:
		return true
	}
	return false
}

// Blocking reports whether the type participates in the blocking-equivalent
// subgraph. Linked edges never block.
func (d DependencyType) Blocking() bool {
	return d == DepBlocking || d == DepWaitingOn
}

// DependencyStatus is the lifecycle state of a dependency edge.
type DependencyStatus string

const (
	DepActive   DependencyStatus = "active"
	DepResolved DependencyStatus = "resolved"
	DepBroken   DependencyStatus = "broken"
	DepIgnored  DependencyStatus = "ignored"
)

// IsValid reports whether the dependency status is one of the known values.
func (s DependencyStatus) IsValid() bool {
	switch s {
	case DepActive, DepResolved, DepBroken, DepIgnored:
		return true
	}
	return false
}

// Dependency is a directed relationship recording that one task's progress
// depends on another. It is the only persisted entity; graph structures are
// derived from dependency sets on demand.
type Dependency struct {
	ID          string           `json:"id"`
	WorkspaceID string           `json:"workspace_id,omitempty"`
	TaskID      string           `json:"task_id"`
	DependsOn   string           `json:"depends_on"`
	Type        DependencyType   `json:"type"`
	Status      DependencyStatus `json:"status"`
	LinkID      string           `json:"link_id,omitempty"`
	CreatedBy   string           `json:"created_by,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`

	// DependsOnTask carries the denormalized summary of the target task
	// when the store returns it alongside the edge, saving a second fetch.
	DependsOnTask *TaskSummary `json:"depends_on_task,omitempty"`
}

// DependencyKey identifies the (task, target, type) triple for which at most
// one active edge may exist.
type DependencyKey struct {
	TaskID    string
	DependsOn string
	Type      DependencyType
}

// Key returns the uniqueness key of the dependency.
func (d *Dependency) Key() DependencyKey {
	return DependencyKey{TaskID: d.TaskID, DependsOn: d.DependsOn, Type: d.Type}
}

// ValidateDependency checks structural invariants on a dependency record.
func ValidateDependency(d *Dependency) error {
	if d.TaskID == "" {
		return inputError("task_id is required")
	}
	if d.DependsOn == "" {
		return inputError("depends_on is required")
	}
	if d.TaskID == d.DependsOn {
		return &SelfDependencyError{TaskID: d.TaskID}
	}
	if !d.Type.IsValid() {
		return inputError("unknown dependency type " + string(d.Type))
	}
	if !d.Status.IsValid() {
		return inputError("unknown dependency status " + string(d.Status))
	}
	return nil
}

// DependencyPatch holds a partial update to a dependency. Pointer fields
// indicate optionality: nil means "don't change".
type DependencyPatch struct {
	Type   *DependencyType   `json:"type,omitempty"`
	Status *DependencyStatus `json:"status,omitempty"`
	// Force permits transitions that are otherwise rejected, such as
	// reactivating a resolved edge.
	Force bool `json:"force,omitempty"`
}
