package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/davenhall/taskgraph/internal/model"
)

// depColumns is the column list used for SELECT statements on the
// dependencies table.
const depColumns = `id, workspace_id, task_id, depends_on, type, status,
	link_id, created_by, created_at, updated_at`

// taskColumns is the column list used for SELECT statements on the tasks table.
const taskColumns = `id, workspace_id, name, status, assignees, due_date, url`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryCreateDependency(ctx context.Context, db executor, d *model.Dependency) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO dependencies (
			id, workspace_id, task_id, depends_on, type, status,
			link_id, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		d.ID,
		d.WorkspaceID,
		d.TaskID,
		d.DependsOn,
		string(d.Type),
		string(d.Status),
		d.LinkID,
		d.CreatedBy,
		d.CreatedAt,
		d.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return &model.DuplicateDependencyError{
				TaskID:    d.TaskID,
				DependsOn: d.DependsOn,
				Type:      d.Type,
			}
		}
		return err
	}
	return nil
}

func queryGetDependency(ctx context.Context, db executor, id string) (*model.Dependency, error) {
	row := db.QueryRowContext(ctx, `SELECT `+depColumns+` FROM dependencies WHERE id = $1`, id)
	d, err := scanDependency(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func queryUpdateDependency(ctx context.Context, db executor, d *model.Dependency) error {
	res, err := db.ExecContext(ctx, `
		UPDATE dependencies
		SET type = $2, status = $3, link_id = $4, updated_at = $5
		WHERE id = $1`,
		d.ID,
		string(d.Type),
		string(d.Status),
		d.LinkID,
		d.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func queryDeleteDependency(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM dependencies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// queryListForTask returns edges incident to the task in either direction,
// each joined with the target task's summary, ordered by creation time.
func queryListForTask(ctx context.Context, db executor, taskID string, filter model.DependencyFilter) ([]*model.Dependency, error) {
	where, args := filterClauses(filter, []string{"(d.task_id = $1 OR d.depends_on = $1)"}, []any{taskID})

	q := `
		SELECT d.id, d.workspace_id, d.task_id, d.depends_on, d.type, d.status,
			d.link_id, d.created_by, d.created_at, d.updated_at,
			t.id, t.name, t.status, t.assignees, t.due_date, t.url
		FROM dependencies d
		LEFT JOIN tasks t ON t.id = d.depends_on
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY d.created_at ASC, d.id ASC`

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deps []*model.Dependency
	for rows.Next() {
		d, err := scanDependencyWithTask(rows)
		if err != nil {
			return nil, err
		}
		deps = append(deps, d)
	}
	return deps, rows.Err()
}

func queryListForWorkspace(ctx context.Context, db executor, workspaceID string, filter model.DependencyFilter) ([]*model.Dependency, int, error) {
	where, args := filterClauses(filter, []string{"d.workspace_id = $1"}, []any{workspaceID})

	q := `
		SELECT COUNT(*) OVER() AS total_count, d.id, d.workspace_id, d.task_id,
			d.depends_on, d.type, d.status, d.link_id, d.created_by,
			d.created_at, d.updated_at
		FROM dependencies d
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY d.created_at ASC, d.id ASC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		deps  []*model.Dependency
		total int
	)
	for rows.Next() {
		d, n, err := scanDependencyWithTotal(rows)
		if err != nil {
			return nil, 0, err
		}
		total = n
		deps = append(deps, d)
	}
	return deps, total, rows.Err()
}

func queryListAllDependencies(ctx context.Context, db executor) ([]*model.Dependency, error) {
	q := `SELECT ` + depColumns + ` FROM dependencies ORDER BY id ASC`

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deps []*model.Dependency
	for rows.Next() {
		d, err := scanDependency(rows)
		if err != nil {
			return nil, err
		}
		deps = append(deps, d)
	}
	return deps, rows.Err()
}

// filterClauses appends WHERE clauses and args for the common filter fields.
// Base clauses must already reference positional args 1..len(args).
func filterClauses(filter model.DependencyFilter, where []string, args []any) ([]string, []any) {
	nextArg := func() string {
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.Types) > 0 {
		placeholders := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			args = append(args, string(t))
			placeholders[i] = nextArg()
		}
		where = append(where, "d.type IN ("+strings.Join(placeholders, ", ")+")")
	}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			args = append(args, string(s))
			placeholders[i] = nextArg()
		}
		where = append(where, "d.status IN ("+strings.Join(placeholders, ", ")+")")
	} else {
		excluded := []string{}
		if !filter.IncludeResolved {
			excluded = append(excluded, string(model.DepResolved))
		}
		if !filter.IncludeBroken {
			excluded = append(excluded, string(model.DepBroken))
		}
		for _, s := range excluded {
			args = append(args, s)
			where = append(where, "d.status <> "+nextArg())
		}
	}

	if filter.LinkID != "" {
		args = append(args, filter.LinkID)
		where = append(where, "d.link_id = "+nextArg())
	}

	return where, args
}

func queryGetTask(ctx context.Context, db executor, id string) (*model.TaskSummary, error) {
	row := db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func queryGetTasks(ctx context.Context, db executor, ids []string) (map[string]*model.TaskSummary, error) {
	if len(ids) == 0 {
		return map[string]*model.TaskSummary{}, nil
	}

	rows, err := db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make(map[string]*model.TaskSummary, len(ids))
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks[t.ID] = t
	}
	return tasks, rows.Err()
}

func queryUpsertTask(ctx context.Context, db executor, t *model.TaskSummary) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO tasks (id, workspace_id, name, status, assignees, due_date, url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			workspace_id = EXCLUDED.workspace_id,
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			assignees = EXCLUDED.assignees,
			due_date = EXCLUDED.due_date,
			url = EXCLUDED.url`,
		t.ID,
		t.WorkspaceID,
		t.Name,
		string(t.Status),
		pq.Array(t.Assignees),
		nullTimePtr(t.DueDate),
		t.URL,
	)
	return err
}
