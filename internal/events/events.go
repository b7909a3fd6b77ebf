package events

import (
	"context"

	"github.com/davenhall/taskgraph/internal/model"
)

// Event topic constants
const (
	TopicDependencyCreated = "taskgraph.dependency.created"
	TopicDependencyUpdated = "taskgraph.dependency.updated"
	TopicDependencyDeleted = "taskgraph.dependency.deleted"
	TopicConflictDetected  = "taskgraph.conflict.detected"
	TopicConflictResolved  = "taskgraph.conflict.resolved"
	TopicBulkCompleted     = "taskgraph.bulk.completed"
)

// Event types

type DependencyCreated struct {
	Dependency *model.Dependency `json:"dependency"`
}

type DependencyUpdated struct {
	Dependency *model.Dependency `json:"dependency"`
	Changes    map[string]any    `json:"changes"` // field name -> new value
}

type DependencyDeleted struct {
	DependencyID string `json:"dependency_id"`
	TaskID       string `json:"task_id"`
	DependsOn    string `json:"depends_on"`
}

type ConflictDetected struct {
	TaskID string                `json:"task_id"`
	Report *model.ConflictReport `json:"report"`
}

type ConflictResolved struct {
	TaskID string                  `json:"task_id"`
	Result *model.ResolutionResult `json:"result"`
}

type BulkCompleted struct {
	Operation    string `json:"operation"`
	TotalCount   int    `json:"total_count"`
	SuccessCount int    `json:"success_count"`
	ErrorCount   int    `json:"error_count"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
