package model

// ConflictType classifies a structural or semantic defect in the
// dependency set.
type ConflictType string

const (
	ConflictCircular      ConflictType = "circular"
	ConflictDuplicate     ConflictType = "duplicate"
	ConflictInvalidStatus ConflictType = "invalid_status"
)

// WarningType classifies a non-blocking advisory. Warnings never reject
// a write.
type WarningType string

const (
	WarnFanIn       WarningType = "excessive_fan_in"
	WarnFanOut      WarningType = "excessive_fan_out"
	WarnChainLength WarningType = "chain_length"
	WarnDueDate     WarningType = "due_date_order"
)

// Conflict is one defect found by audit, distinct from a synchronous
// write-time validation error.
type Conflict struct {
	Type                ConflictType `json:"type"`
	Description         string       `json:"description"`
	AffectedTasks       []string     `json:"affected_tasks"`
	SuggestedResolution string       `json:"suggested_resolution,omitempty"`

	// DependencyIDs names the edges involved so a resolver can act on them.
	DependencyIDs []string `json:"dependency_ids,omitempty"`
}

// Warning is a non-blocking advisory attached to a conflict report.
type Warning struct {
	Type          WarningType `json:"type"`
	Description   string      `json:"description"`
	AffectedTasks []string    `json:"affected_tasks"`
}

// ConflictReport is the result of one conflict analysis.
type ConflictReport struct {
	HasConflicts bool       `json:"has_conflicts"`
	Conflicts    []Conflict `json:"conflicts"`
	Warnings     []Warning  `json:"warnings"`
}

// ResolutionOptions selects which remediations the resolver performs.
type ResolutionOptions struct {
	BreakCycles           bool `json:"break_cycles"`
	RemoveDuplicates      bool `json:"remove_duplicates"`
	UpdateInvalidStatuses bool `json:"update_invalid_statuses"`
}

// ResolutionAction records one store write performed by the resolver.
type ResolutionAction struct {
	Action       string `json:"action"` // "delete_dependency" or "resolve_dependency"
	DependencyID string `json:"dependency_id"`
	TaskID       string `json:"task_id"`
	DependsOn    string `json:"depends_on"`
	Reason       string `json:"reason"`
}

// ResolutionResult summarizes one resolver invocation. Re-invoking with no
// intervening edge changes yields zero further actions.
type ResolutionResult struct {
	ResolvedConflicts  []Conflict         `json:"resolved_conflicts"`
	RemainingConflicts []Conflict         `json:"remaining_conflicts"`
	ActionsTaken       []ResolutionAction `json:"actions_taken"`
}
