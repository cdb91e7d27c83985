package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/shared-todo/internal/model"
)

const todoColumns = `id, text, completed, status, priority, due_date, assigned_to, created_by,
	notes, recurrence, subtasks, created_at, updated_at, updated_by`

type TodoRepo struct { // Репозиторий для работы непосредственно с БД
	pool *pgxpool.Pool
}

func NewTodoRepo(pool *pgxpool.Pool) *TodoRepo {
	return &TodoRepo{
		pool: pool,
	}
}

func scanTodo(row pgx.Row) (model.Todo, error) {
	var (
		t          model.Todo
		due        pgtype.Date
		assignedTo *string
		notes      *string
		updatedBy  *string
		subtasks   []byte
	)
	err := row.Scan(
		&t.ID, &t.Text, &t.Completed, &t.Status, &t.Priority, &due, &assignedTo, &t.CreatedBy,
		&notes, &t.Recurrence, &subtasks, &t.CreatedAt, &t.UpdatedAt, &updatedBy,
	)
	if err != nil {
		return t, mapError(err)
	}
	t.DueDate = fromPgDate(due)
	t.AssignedTo = derefString(assignedTo)
	t.Notes = derefString(notes)
	t.UpdatedBy = derefString(updatedBy)
	if len(subtasks) > 0 {
		if err := json.Unmarshal(subtasks, &t.Subtasks); err != nil {
			return t, err
		}
	}
	if len(t.Subtasks) == 0 {
		t.Subtasks = nil
	}
	return t, nil
}

func marshalSubtasks(subs []model.Subtask) ([]byte, error) {
	if subs == nil {
		subs = []model.Subtask{}
	}
	return json.Marshal(subs)
}

func (r *TodoRepo) Create(ctx context.Context, t model.Todo) (model.Todo, error) {
	subs, err := marshalSubtasks(t.Subtasks)
	if err != nil {
		return t, err
	}
	return scanTodo(r.pool.QueryRow(ctx, `
		INSERT INTO todos (id, text, completed, status, priority, due_date, assigned_to,
			created_by, notes, recurrence, subtasks, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+todoColumns,
		t.ID, t.Text, t.Completed, t.Status, t.Priority, toPgDate(t.DueDate), nullString(t.AssignedTo),
		t.CreatedBy, nullString(t.Notes), t.Recurrence, subs, t.CreatedAt,
	))
}

func (r *TodoRepo) Get(ctx context.Context, id string) (model.Todo, error) {
	return scanTodo(r.pool.QueryRow(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = $1`, id))
}

func (r *TodoRepo) List(ctx context.Context, filter model.TodoFilter, limit int) ([]model.Todo, error) {
	query := `
		SELECT ` + todoColumns + `
		FROM todos
		WHERE ($1::text IS NULL OR assigned_to = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`
	var status *string
	if filter.Status != nil {
		s := string(*filter.Status)
		status = &s
	}

	rows, err := r.pool.Query(ctx, query, filter.AssignedTo, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	todos := make([]model.Todo, 0, limit)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

func (r *TodoRepo) Update(ctx context.Context, id string, patch model.TodoPatch) (model.Todo, model.Todo, error) {
	var before, after model.Todo
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		before, err = scanTodo(tx.QueryRow(ctx, `SELECT `+todoColumns+` FROM todos WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}

		next := patch.ApplyTo(before)
		subs, err := marshalSubtasks(next.Subtasks)
		if err != nil {
			return err
		}
		after, err = scanTodo(tx.QueryRow(ctx, `
			UPDATE todos
			SET text = $2, completed = $3, status = $4, priority = $5, due_date = $6,
				assigned_to = $7, notes = $8, recurrence = $9, subtasks = $10,
				updated_at = now(), updated_by = $11
			WHERE id = $1
			RETURNING `+todoColumns,
			id, next.Text, next.Completed, next.Status, next.Priority, toPgDate(next.DueDate),
			nullString(next.AssignedTo), nullString(next.Notes), next.Recurrence, subs,
			nullString(next.UpdatedBy),
		))
		return err
	})
	return before, after, mapError(err)
}

func (r *TodoRepo) Delete(ctx context.Context, id string) (model.Todo, error) {
	return scanTodo(r.pool.QueryRow(ctx, `DELETE FROM todos WHERE id = $1 RETURNING `+todoColumns, id))
}

func (r *TodoRepo) GetStats(ctx context.Context, today time.Time) (Stats, error) {
	stats := Stats{
		ByStatus:   make(map[string]int),
		ByPriority: make(map[string]int),
	}

	rows, err := r.pool.Query(ctx, `SELECT status, priority, COUNT(*) FROM todos GROUP BY status, priority`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var status, priority string
		var n int
		if err := rows.Scan(&status, &priority, &n); err != nil {
			return stats, err
		}
		stats.ByStatus[status] += n
		stats.ByPriority[priority] += n
		stats.TotalTasks += n
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM todos WHERE NOT completed AND due_date < $1::date
	`, pgtype.Date{Time: today, Valid: true}).Scan(&stats.Overdue)
	return stats, err
}
