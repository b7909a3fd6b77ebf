package postgres

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/davenhall/taskgraph/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanDependency scans a single row into a model.Dependency.
// The row must contain columns in the order defined by depColumns.
func scanDependency(row scannable) (*model.Dependency, error) {
	var d model.Dependency
	var (
		workspaceID sql.NullString
		linkID      sql.NullString
		createdBy   sql.NullString
	)

	err := row.Scan(
		&d.ID,
		&workspaceID,
		&d.TaskID,
		&d.DependsOn,
		&d.Type,
		&d.Status,
		&linkID,
		&createdBy,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	d.WorkspaceID = workspaceID.String
	d.LinkID = linkID.String
	d.CreatedBy = createdBy.String
	return &d, nil
}

// scanDependencyWithTask scans a dependency row joined with the target
// task's summary columns (which may all be NULL when the task row is
// missing).
func scanDependencyWithTask(row scannable) (*model.Dependency, error) {
	var d model.Dependency
	var (
		workspaceID sql.NullString
		linkID      sql.NullString
		createdBy   sql.NullString
		taskID      sql.NullString
		taskName    sql.NullString
		taskStatus  sql.NullString
		assignees   pq.StringArray
		dueDate     sql.NullTime
		taskURL     sql.NullString
	)

	err := row.Scan(
		&d.ID,
		&workspaceID,
		&d.TaskID,
		&d.DependsOn,
		&d.Type,
		&d.Status,
		&linkID,
		&createdBy,
		&d.CreatedAt,
		&d.UpdatedAt,
		&taskID,
		&taskName,
		&taskStatus,
		&assignees,
		&dueDate,
		&taskURL,
	)
	if err != nil {
		return nil, err
	}

	d.WorkspaceID = workspaceID.String
	d.LinkID = linkID.String
	d.CreatedBy = createdBy.String

	if taskID.Valid {
		summary := &model.TaskSummary{
			ID:     taskID.String,
			Name:   taskName.String,
			Status: model.TaskStatus(taskStatus.String),
			URL:    taskURL.String,
		}
		if len(assignees) > 0 {
			summary.Assignees = []string(assignees)
		}
		if dueDate.Valid {
			t := dueDate.Time
			summary.DueDate = &t
		}
		d.DependsOnTask = summary
	}

	return &d, nil
}

// scanDependencyWithTotal scans a row that has a leading total_count column
// followed by the standard dependency columns. Used by queryListForWorkspace
// with COUNT(*) OVER().
func scanDependencyWithTotal(row scannable) (*model.Dependency, int, error) {
	var total int
	var d model.Dependency
	var (
		workspaceID sql.NullString
		linkID      sql.NullString
		createdBy   sql.NullString
	)

	err := row.Scan(
		&total,
		&d.ID,
		&workspaceID,
		&d.TaskID,
		&d.DependsOn,
		&d.Type,
		&d.Status,
		&linkID,
		&createdBy,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, 0, err
	}

	d.WorkspaceID = workspaceID.String
	d.LinkID = linkID.String
	d.CreatedBy = createdBy.String
	return &d, total, nil
}

// scanTask scans a single row into a model.TaskSummary.
func scanTask(row scannable) (*model.TaskSummary, error) {
	var t model.TaskSummary
	var (
		workspaceID sql.NullString
		assignees   pq.StringArray
		dueDate     sql.NullTime
		url         sql.NullString
	)

	err := row.Scan(
		&t.ID,
		&workspaceID,
		&t.Name,
		&t.Status,
		&assignees,
		&dueDate,
		&url,
	)
	if err != nil {
		return nil, err
	}

	t.WorkspaceID = workspaceID.String
	t.URL = url.String
	if len(assignees) > 0 {
		t.Assignees = []string(assignees)
	}
	if dueDate.Valid {
		d := dueDate.Time
		t.DueDate = &d
	}
	return &t, nil
}

// nullTimePtr converts a *time.Time to sql.NullTime.
func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
