package model

import "time"

// TaskStatus is the externally reported status of a task. Task statuses are
// owned by the remote task store; only the closed/open distinction matters
// to conflict analysis.
type TaskStatus string

const (
	TaskOpen       TaskStatus = "open"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskClosed     TaskStatus = "closed"
)

// Terminal reports whether the status means the task is finished, so an
// active dependency on it no longer makes sense.
func (s TaskStatus) Terminal() bool {
	return s == TaskDone || s == TaskClosed
}

// TaskSummary is the denormalized task metadata the store returns alongside
// dependency records, used to populate graph nodes without a second round
// trip.
type TaskSummary struct {
	ID          string     `json:"id"`
	WorkspaceID string     `json:"workspace_id,omitempty"`
	Name        string     `json:"name"`
	Status      TaskStatus `json:"status"`
	Assignees   []string   `json:"assignees,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	URL         string     `json:"url,omitempty"`
}
