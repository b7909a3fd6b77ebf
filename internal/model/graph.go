package model

import "time"

// GraphEdge is a dependency normalized to the canonical direction:
// Source depends on Target (Target must complete first). Linked edges keep
// their stored orientation and carry type "linked".
type GraphEdge struct {
	ID     string           `json:"id"`
	Source string           `json:"source"`
	Target string           `json:"target"`
	Type   DependencyType   `json:"type"`
	Status DependencyStatus `json:"status"`
}

// GraphNode is a task in a traversal result, with display metadata and its
// hop distance from the traversal root.
type GraphNode struct {
	TaskID    string     `json:"task_id"`
	Name      string     `json:"name,omitempty"`
	Status    TaskStatus `json:"status,omitempty"`
	Assignees []string   `json:"assignees,omitempty"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	URL       string     `json:"url,omitempty"`
	Level     int        `json:"level"`

	// Dependencies and Dependents list the IDs of edges leaving and
	// entering this node in the canonical orientation.
	Dependencies []string `json:"dependencies,omitempty"`
	Dependents   []string `json:"dependents,omitempty"`
}

// TruncatedEdge marks an edge that crosses the traversal depth boundary.
// The edge is reported here instead of being silently dropped so callers can
// distinguish "no further dependencies" from "truncated by depth limit".
type TruncatedEdge struct {
	ID     string         `json:"id"`
	Source string         `json:"source"`
	Target string         `json:"target"`
	Type   DependencyType `json:"type"`
}

// DependencyGraphSnapshot is the result of one traversal. It is derived
// fresh on every call and never cached.
type DependencyGraphSnapshot struct {
	RootTaskID string           `json:"root_task_id"`
	Nodes      []*GraphNode     `json:"nodes"`
	Edges      []*GraphEdge     `json:"edges"`
	Cycles     [][]string       `json:"cycles,omitempty"`
	Truncated  []*TruncatedEdge `json:"truncated,omitempty"`

	// CriticalPath is the longest blocking chain by hop count, present only
	// when the traversed subgraph is acyclic.
	CriticalPath []string `json:"critical_path,omitempty"`
}

// TraversalDirection selects which way a traversal walks from the root.
type TraversalDirection string

const (
	// Upstream walks dependencies: what the root task depends on.
	Upstream TraversalDirection = "upstream"
	// Downstream walks dependents: what depends on the root task.
	Downstream TraversalDirection = "downstream"
	// Both walks the union of upstream and downstream.
	Both TraversalDirection = "both"
)

// IsValid reports whether the direction is one of the known values.
func (d TraversalDirection) IsValid() bool {
	switch d {
	case Upstream, Downstream, Both:
		return true
	}
	return false
}

// Traversal depth bounds.
const (
	MinTraversalDepth = 1
	MaxTraversalDepth = 10
)

// GraphExport is a serialized snapshot in one of the supported formats.
type GraphExport struct {
	Format string `json:"format"`
	Data   string `json:"data"`
}

// Export formats accepted by exportDependencyGraph.
const (
	ExportJSON    = "json"
	ExportCSV     = "csv"
	ExportGraphML = "graphml"
)
