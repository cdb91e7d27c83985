package repo

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/shared-todo/internal/model"
)

const templateColumns = `id, name, description, default_priority, default_assigned_to, subtasks,
	created_by, is_shared, created_at`

type TemplateRepo struct {
	pool *pgxpool.Pool
}

func NewTemplateRepo(pool *pgxpool.Pool) *TemplateRepo {
	return &TemplateRepo{pool: pool}
}

func scanTemplate(row pgx.Row) (model.TaskTemplate, error) {
	var (
		t           model.TaskTemplate
		description *string
		assignedTo  *string
		subtasks    []byte
	)
	err := row.Scan(&t.ID, &t.Name, &description, &t.DefaultPriority, &assignedTo, &subtasks,
		&t.CreatedBy, &t.IsShared, &t.CreatedAt)
	if err != nil {
		return t, mapError(err)
	}
	t.Description = derefString(description)
	t.DefaultAssignedTo = derefString(assignedTo)
	if err := json.Unmarshal(subtasks, &t.Subtasks); err != nil {
		return t, err
	}
	return t, nil
}

func (r *TemplateRepo) Create(ctx context.Context, t model.TaskTemplate) (model.TaskTemplate, error) {
	if t.Subtasks == nil {
		t.Subtasks = []model.TemplateSubtask{}
	}
	subs, err := json.Marshal(t.Subtasks)
	if err != nil {
		return t, err
	}
	return scanTemplate(r.pool.QueryRow(ctx, `
		INSERT INTO task_templates (name, description, default_priority, default_assigned_to,
			subtasks, created_by, is_shared)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+templateColumns,
		t.Name, nullString(t.Description), t.DefaultPriority, nullString(t.DefaultAssignedTo),
		subs, t.CreatedBy, t.IsShared,
	))
}

func (r *TemplateRepo) Get(ctx context.Context, id string) (model.TaskTemplate, error) {
	return scanTemplate(r.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM task_templates WHERE id = $1`, id))
}

func (r *TemplateRepo) List(ctx context.Context, userName string) ([]model.TaskTemplate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+templateColumns+`
		FROM task_templates
		WHERE is_shared OR created_by = $1
		ORDER BY name
	`, userName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.TaskTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TemplateRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, "DELETE FROM task_templates WHERE id = $1", id)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}
