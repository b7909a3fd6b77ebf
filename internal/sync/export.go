package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/davenhall/taskgraph/internal/model"
	"github.com/davenhall/taskgraph/internal/store"
)

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version         string    `json:"version"`
	Type            string    `json:"type"`
	Timestamp       time.Time `json:"timestamp"`
	DependencyCount int       `json:"dependency_count"`
	TaskCount       int       `json:"task_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// ExportJSONL writes every dependency record, with the summaries of the
// tasks they reference, as JSONL to w. Records are sorted by ID for stable
// diffs between runs.
func ExportJSONL(ctx context.Context, s store.Store, w io.Writer) error {
	deps, err := s.ListAllDependencies(ctx)
	if err != nil {
		return fmt.Errorf("list dependencies: %w", err)
	}

	sort.Slice(deps, func(i, j int) bool {
		return deps[i].ID < deps[j].ID
	})

	idSet := make(map[string]struct{})
	for _, d := range deps {
		idSet[d.TaskID] = struct{}{}
		idSet[d.DependsOn] = struct{}{}
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	tasks := make(map[string]*model.TaskSummary)
	if len(ids) > 0 {
		tasks, err = s.GetTasks(ctx, ids)
		if err != nil {
			return fmt.Errorf("get tasks: %w", err)
		}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:         "1",
		Type:            "header",
		Timestamp:       time.Now().UTC(),
		DependencyCount: len(deps),
		TaskCount:       len(tasks),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, id := range ids {
		t, ok := tasks[id]
		if !ok {
			continue
		}
		if err := enc.Encode(record{Type: "task", Data: t}); err != nil {
			return fmt.Errorf("encode task %s: %w", id, err)
		}
	}

	for _, d := range deps {
		if err := enc.Encode(record{Type: "dependency", Data: d}); err != nil {
			return fmt.Errorf("encode dependency %s: %w", d.ID, err)
		}
	}

	return nil
}
