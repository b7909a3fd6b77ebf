package store

import (
	"context"

	"github.com/davenhall/taskgraph/internal/model"
)

// Store is the persistence boundary for dependency records and the
// denormalized task summaries that ride along with them.
//
// The engine recomputes every graph from data fetched at call time, so
// duplicate-detection and cycle-freshness guarantees are only as strong as
// the store's own read-after-write consistency. That assumption is made
// here, not enforced.
type Store interface {
	// Dependency CRUD. CreateDependency returns *model.DuplicateDependencyError
	// when an active edge with the same (task_id, depends_on, type) exists.
	// GetDependency returns (nil, nil) when the id is unknown.
	CreateDependency(ctx context.Context, dep *model.Dependency) error
	GetDependency(ctx context.Context, id string) (*model.Dependency, error)
	UpdateDependency(ctx context.Context, dep *model.Dependency) error
	DeleteDependency(ctx context.Context, id string) error

	// ListForTask returns edges incident to the task in either direction,
	// ordered by creation time ascending.
	ListForTask(ctx context.Context, taskID string, filter model.DependencyFilter) ([]*model.Dependency, error)

	// ListForWorkspace returns edges in a workspace with a total count,
	// ordered by creation time ascending.
	ListForWorkspace(ctx context.Context, workspaceID string, filter model.DependencyFilter) ([]*model.Dependency, int, error)

	// ListAllDependencies returns every edge regardless of status, ordered
	// by id. Used by the periodic exporter.
	ListAllDependencies(ctx context.Context) ([]*model.Dependency, error)

	// Task metadata. GetTask returns (nil, nil) when the id is unknown.
	GetTask(ctx context.Context, id string) (*model.TaskSummary, error)
	GetTasks(ctx context.Context, ids []string) (map[string]*model.TaskSummary, error)
	UpsertTask(ctx context.Context, task *model.TaskSummary) error

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Close() error
}
