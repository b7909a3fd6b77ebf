package model

import (
	"fmt"
	"strings"
)

// inputError indicates invalid caller input. Transport layers map it
// to 400.
type inputError string

func (e inputError) Error() string { return string(e) }

// InputError wraps a message as a validation error.
func InputError(msg string) error { return inputError(msg) }

// IsInputError reports whether err is a validation error.
func IsInputError(err error) bool {
	_, ok := err.(inputError)
	return ok
}

// NotFoundError indicates an unresolvable dependency or task id.
type NotFoundError struct {
	Kind string // "dependency" or "task"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// DuplicateDependencyError indicates a create collided with an existing
// active edge for the same (task_id, depends_on, type) triple.
type DuplicateDependencyError struct {
	TaskID    string
	DependsOn string
	Type      DependencyType
}

func (e *DuplicateDependencyError) Error() string {
	return fmt.Sprintf("active %s dependency from %s to %s already exists", e.Type, e.TaskID, e.DependsOn)
}

// SelfDependencyError indicates task_id == depends_on.
type SelfDependencyError struct {
	TaskID string
}

func (e *SelfDependencyError) Error() string {
	return fmt.Sprintf("task %s cannot depend on itself", e.TaskID)
}

// CycleError indicates a write was rejected because it would introduce a
// cycle. Path holds the full cycle so the caller can decide whether to
// force the operation.
type CycleError struct {
	TaskID    string
	DependsOn string
	Path      []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency from %s to %s would create a cycle: %s",
		e.TaskID, e.DependsOn, strings.Join(e.Path, " -> "))
}

// InvalidTransitionError indicates a disallowed dependency status change,
// such as reactivating a resolved edge without force.
type InvalidTransitionError struct {
	DependencyID string
	From         DependencyStatus
	To           DependencyStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("dependency %s cannot transition from %s to %s", e.DependencyID, e.From, e.To)
}

// StoreUnavailableError wraps a collaborator failure (network, auth, rate
// limit) with the upstream cause preserved.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }
