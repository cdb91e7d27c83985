package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/shared-todo/internal/model"
)

const (
	categoryColumns  = `id, name, color, icon, display_order`
	goalColumns      = `id, title, description, category_id, status, priority, target_date, progress, notes, created_by, created_at, updated_at`
	milestoneColumns = `id, goal_id, title, completed, target_date, display_order, created_at`
)

type GoalRepo struct {
	pool *pgxpool.Pool
}

func NewGoalRepo(pool *pgxpool.Pool) *GoalRepo {
	return &GoalRepo{pool: pool}
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (T, error)) ([]T, error) {
	defer rows.Close()
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *GoalRepo) execOne(ctx context.Context, sql string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}

func scanCategory(row pgx.Row) (model.GoalCategory, error) {
	var c model.GoalCategory
	var icon *string
	err := row.Scan(&c.ID, &c.Name, &c.Color, &icon, &c.DisplayOrder)
	c.Icon = derefString(icon)
	return c, mapError(err)
}

func (r *GoalRepo) ListCategories(ctx context.Context) ([]model.GoalCategory, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM goal_categories ORDER BY display_order, name`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanCategory)
}

func (r *GoalRepo) CreateCategory(ctx context.Context, c model.GoalCategory) (model.GoalCategory, error) {
	return scanCategory(r.pool.QueryRow(ctx, `
		INSERT INTO goal_categories (name, color, icon, display_order)
		VALUES ($1, COALESCE($2, '#6b7280'), $3, $4)
		RETURNING `+categoryColumns,
		c.Name, nullString(c.Color), nullString(c.Icon), c.DisplayOrder,
	))
}

func (r *GoalRepo) UpdateCategory(ctx context.Context, c model.GoalCategory) (model.GoalCategory, error) {
	return scanCategory(r.pool.QueryRow(ctx, `
		UPDATE goal_categories
		SET name = $2, color = COALESCE($3, color), icon = $4, display_order = $5
		WHERE id = $1
		RETURNING `+categoryColumns,
		c.ID, c.Name, nullString(c.Color), nullString(c.Icon), c.DisplayOrder,
	))
}

func (r *GoalRepo) DeleteCategory(ctx context.Context, id string) error {
	return r.execOne(ctx, `DELETE FROM goal_categories WHERE id = $1`, id)
}

func scanGoal(row pgx.Row) (model.Goal, error) {
	var (
		g           model.Goal
		description *string
		notes       *string
		target      pgtype.Date
	)
	err := row.Scan(&g.ID, &g.Title, &description, &g.CategoryID, &g.Status, &g.Priority, &target,
		&g.Progress, &notes, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt)
	g.Description = derefString(description)
	g.Notes = derefString(notes)
	g.TargetDate = fromPgDate(target)
	return g, mapError(err)
}

func (r *GoalRepo) ListGoals(ctx context.Context) ([]model.Goal, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+goalColumns+` FROM strategic_goals ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanGoal)
}

func (r *GoalRepo) CreateGoal(ctx context.Context, g model.Goal) (model.Goal, error) {
	return scanGoal(r.pool.QueryRow(ctx, `
		INSERT INTO strategic_goals (title, description, category_id, status, priority, target_date,
			progress, notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+goalColumns,
		g.Title, nullString(g.Description), g.CategoryID, g.Status, g.Priority, toPgDate(g.TargetDate),
		g.Progress, nullString(g.Notes), g.CreatedBy,
	))
}

func (r *GoalRepo) UpdateGoal(ctx context.Context, g model.Goal) (model.Goal, error) {
	return scanGoal(r.pool.QueryRow(ctx, `
		UPDATE strategic_goals
		SET title = $2, description = $3, category_id = $4, status = $5, priority = $6,
			target_date = $7, progress = $8, notes = $9, updated_at = now()
		WHERE id = $1
		RETURNING `+goalColumns,
		g.ID, g.Title, nullString(g.Description), g.CategoryID, g.Status, g.Priority,
		toPgDate(g.TargetDate), g.Progress, nullString(g.Notes),
	))
}

func (r *GoalRepo) DeleteGoal(ctx context.Context, id string) error {
	return r.execOne(ctx, `DELETE FROM strategic_goals WHERE id = $1`, id)
}

func scanMilestone(row pgx.Row) (model.Milestone, error) {
	var m model.Milestone
	var target pgtype.Date
	err := row.Scan(&m.ID, &m.GoalID, &m.Title, &m.Completed, &target, &m.DisplayOrder, &m.CreatedAt)
	m.TargetDate = fromPgDate(target)
	return m, mapError(err)
}

func (r *GoalRepo) ListMilestones(ctx context.Context, goalID string) ([]model.Milestone, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+milestoneColumns+` FROM goal_milestones
		WHERE goal_id = $1
		ORDER BY display_order, created_at
	`, goalID)
	if err != nil {
		return nil, mapError(err)
	}
	return collect(rows, scanMilestone)
}

func (r *GoalRepo) CreateMilestone(ctx context.Context, m model.Milestone) (model.Milestone, error) {
	return scanMilestone(r.pool.QueryRow(ctx, `
		INSERT INTO goal_milestones (goal_id, title, completed, target_date, display_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+milestoneColumns,
		m.GoalID, m.Title, m.Completed, toPgDate(m.TargetDate), m.DisplayOrder,
	))
}

func (r *GoalRepo) UpdateMilestone(ctx context.Context, m model.Milestone) (model.Milestone, error) {
	return scanMilestone(r.pool.QueryRow(ctx, `
		UPDATE goal_milestones
		SET title = $2, completed = $3, target_date = $4, display_order = $5
		WHERE id = $1
		RETURNING `+milestoneColumns,
		m.ID, m.Title, m.Completed, toPgDate(m.TargetDate), m.DisplayOrder,
	))
}

func (r *GoalRepo) DeleteMilestone(ctx context.Context, id string) error {
	return r.execOne(ctx, `DELETE FROM goal_milestones WHERE id = $1`, id)
}
