package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/shared-todo/internal/model"
)

type ActivityRepo struct {
	pool *pgxpool.Pool
}

func NewActivityRepo(pool *pgxpool.Pool) *ActivityRepo {
	return &ActivityRepo{pool: pool}
}

func (r *ActivityRepo) Append(ctx context.Context, e model.ActivityEntry) error {
	var details []byte
	if len(e.Details) > 0 {
		var err error
		if details, err = json.Marshal(e.Details); err != nil {
			return err
		}
	}
	var todoID *string
	if e.TodoID != "" {
		todoID = &e.TodoID
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO activity_log (action, todo_id, todo_text, user_name, details)
		VALUES ($1, $2, $3, $4, $5)
	`, e.Action, todoID, nullString(e.TodoText), e.UserName, details)
	return mapError(err)
}

func (r *ActivityRepo) List(ctx context.Context, filter model.ActivityFilter, limit int) ([]model.ActivityEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, action, todo_id, todo_text, user_name, details, created_at
		FROM activity_log
		WHERE ($1::uuid IS NULL OR todo_id = $1)
		ORDER BY created_at DESC
		LIMIT $2
	`, filter.TodoID, limit)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	entries := make([]model.ActivityEntry, 0, limit)
	for rows.Next() {
		var (
			e        model.ActivityEntry
			todoID   *string
			todoText *string
			details  []byte
		)
		if err := rows.Scan(&e.ID, &e.Action, &todoID, &todoText, &e.UserName, &details, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.TodoID = derefString(todoID)
		e.TodoText = derefString(todoText)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, err
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *ActivityRepo) PurgeBefore(ctx context.Context, before time.Time) (int64, error) {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM activity_log WHERE created_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
