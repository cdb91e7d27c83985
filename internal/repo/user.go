package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BuzzLyutic/shared-todo/internal/model"
)

const userColumns = `id, name, color, pin_hash, role, created_at, last_login, last_welcome_at`

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	var role *string
	err := row.Scan(&u.ID, &u.Name, &u.Color, &u.PinHash, &role, &u.CreatedAt, &u.LastLogin, &u.LastWelcomeAt)
	u.Role = derefString(role)
	return u, mapError(err)
}

func (r *UserRepo) Create(ctx context.Context, u model.User) (model.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		INSERT INTO users (name, color, pin_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		u.Name, u.Color, u.PinHash, nullString(u.Role),
	))
}

func (r *UserRepo) Get(ctx context.Context, id string) (model.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByName matches case-sensitively.
func (r *UserRepo) GetByName(ctx context.Context, name string) (model.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE name = $1`, name))
}

func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepo) TouchLogin(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
}

func (r *UserRepo) MarkWelcomed(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, `UPDATE users SET last_welcome_at = $2 WHERE id = $1`, id, at)
}

func (r *UserRepo) exec(ctx context.Context, sql string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrorNotFound
	}
	return nil
}
