package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/davenhall/taskgraph/internal/events"
	"github.com/davenhall/taskgraph/internal/model"
)

// BulkMutate applies the operations strictly in order. Each item succeeds
// or fails on its own; with continueOnError false the first failure marks
// every remaining item as skipped without executing it. The result always
// accounts for every submitted operation.
func (e *Engine) BulkMutate(ctx context.Context, ops []model.BulkOp, continueOnError bool) (*model.BulkOperationResult, error) {
	if len(ops) == 0 {
		return nil, model.InputError("at least one operation is required")
	}

	start := time.Now()
	result := &model.BulkOperationResult{
		Results:    make([]model.BulkItemResult, 0, len(ops)),
		TotalCount: len(ops),
	}

	failed := false
	for i, op := range ops {
		item := model.BulkItemResult{Index: i, Identifier: opIdentifier(op)}
		if failed && !continueOnError {
			item.Error = "skipped due to previous error"
			result.Results = append(result.Results, item)
			result.ErrorCount++
			continue
		}

		if err := e.applyOp(ctx, op, &item); err != nil {
			item.Error = err.Error()
			result.ErrorCount++
			failed = true
		} else {
			item.Success = true
			result.SuccessCount++
		}
		result.Results = append(result.Results, item)
	}
	result.ExecutionTimeMS = time.Since(start).Milliseconds()

	e.publish(ctx, events.TopicBulkCompleted, events.BulkCompleted{
		Operation:    "bulk_mutate",
		TotalCount:   result.TotalCount,
		SuccessCount: result.SuccessCount,
		ErrorCount:   result.ErrorCount,
	})
	return result, nil
}

func (e *Engine) applyOp(ctx context.Context, op model.BulkOp, item *model.BulkItemResult) error {
	switch op.Kind {
	case model.BulkCreate:
		if op.Create == nil {
			return model.InputError("create operation requires a dependency spec")
		}
		dep, err := e.CreateDependency(ctx, *op.Create)
		if err != nil {
			return err
		}
		item.Identifier = dep.ID
		return nil
	case model.BulkUpdate:
		if op.ID == "" {
			return model.InputError("update operation requires an id")
		}
		if op.Patch == nil {
			return model.InputError("update operation requires a patch")
		}
		_, err := e.UpdateDependency(ctx, op.ID, *op.Patch)
		return err
	case model.BulkDelete:
		if op.ID == "" {
			return model.InputError("delete operation requires an id")
		}
		return e.DeleteDependency(ctx, op.ID)
	default:
		return model.InputError(fmt.Sprintf("unknown bulk operation kind %q", op.Kind))
	}
}

func opIdentifier(op model.BulkOp) string {
	if op.ID != "" {
		return op.ID
	}
	if op.Create != nil {
		return op.Create.TaskID + " -> " + op.Create.DependsOn
	}
	return ""
}
