package model

// BulkOpKind is the kind of mutation a bulk item performs.
type BulkOpKind string

const (
	BulkCreate BulkOpKind = "create"
	BulkUpdate BulkOpKind = "update"
	BulkDelete BulkOpKind = "delete"
)

// BulkOp is one item in an ordered bulk batch.
type BulkOp struct {
	Kind BulkOpKind `json:"kind"`

	// Create is set for BulkCreate items.
	Create *DependencySpec `json:"create,omitempty"`

	// ID names the target dependency for update and delete items.
	ID string `json:"id,omitempty"`

	// Patch is set for BulkUpdate items.
	Patch *DependencyPatch `json:"patch,omitempty"`
}

// DependencySpec holds the caller-supplied fields for creating a dependency.
type DependencySpec struct {
	TaskID    string         `json:"task_id"`
	DependsOn string         `json:"depends_on"`
	Type      DependencyType `json:"type"`
	LinkID    string         `json:"link_id,omitempty"`
	CreatedBy string         `json:"created_by,omitempty"`
	Force     bool           `json:"force,omitempty"`
}

// BulkItemResult is the outcome of one bulk item. Results keep the input
// order: Index is the item's position in the request.
type BulkItemResult struct {
	Index      int    `json:"index"`
	Identifier string `json:"identifier,omitempty"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

// BulkOperationResult aggregates per-item outcomes for one batch. Bulk
// application never raises; every failure is captured here.
type BulkOperationResult struct {
	Results         []BulkItemResult `json:"results"`
	SuccessCount    int              `json:"success_count"`
	ErrorCount      int              `json:"error_count"`
	TotalCount      int              `json:"total_count"`
	ExecutionTimeMS int64            `json:"execution_time_ms"`
}
