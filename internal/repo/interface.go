package repo

import (
	"context"
	"time"

	"github.com/BuzzLyutic/shared-todo/internal/model"
)

// TodoRepository определяет интерфейс для работы с задачами
type TodoRepository interface {
	Create(ctx context.Context, t model.Todo) (model.Todo, error)
	Get(ctx context.Context, id string) (model.Todo, error)
	List(ctx context.Context, filter model.TodoFilter, limit int) ([]model.Todo, error)
	// Update applies patch under a row lock and returns the row before and after.
	Update(ctx context.Context, id string, patch model.TodoPatch) (model.Todo, model.Todo, error)
	Delete(ctx context.Context, id string) (model.Todo, error)
	GetStats(ctx context.Context, today time.Time) (Stats, error)
}

type UserRepository interface {
	Create(ctx context.Context, u model.User) (model.User, error)
	Get(ctx context.Context, id string) (model.User, error)
	GetByName(ctx context.Context, name string) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	TouchLogin(ctx context.Context, id string, at time.Time) error
	MarkWelcomed(ctx context.Context, id string, at time.Time) error
}

type TemplateRepository interface {
	Create(ctx context.Context, t model.TaskTemplate) (model.TaskTemplate, error)
	Get(ctx context.Context, id string) (model.TaskTemplate, error)
	// List returns shared templates plus the ones created by userName.
	List(ctx context.Context, userName string) ([]model.TaskTemplate, error)
	Delete(ctx context.Context, id string) error
}

type ActivityRepository interface {
	Append(ctx context.Context, e model.ActivityEntry) error
	List(ctx context.Context, filter model.ActivityFilter, limit int) ([]model.ActivityEntry, error)
	PurgeBefore(ctx context.Context, before time.Time) (int64, error)
}

type GoalRepository interface {
	ListCategories(ctx context.Context) ([]model.GoalCategory, error)
	CreateCategory(ctx context.Context, c model.GoalCategory) (model.GoalCategory, error)
	UpdateCategory(ctx context.Context, c model.GoalCategory) (model.GoalCategory, error)
	DeleteCategory(ctx context.Context, id string) error

	ListGoals(ctx context.Context) ([]model.Goal, error)
	CreateGoal(ctx context.Context, g model.Goal) (model.Goal, error)
	UpdateGoal(ctx context.Context, g model.Goal) (model.Goal, error)
	DeleteGoal(ctx context.Context, id string) error

	ListMilestones(ctx context.Context, goalID string) ([]model.Milestone, error)
	CreateMilestone(ctx context.Context, m model.Milestone) (model.Milestone, error)
	UpdateMilestone(ctx context.Context, m model.Milestone) (model.Milestone, error)
	DeleteMilestone(ctx context.Context, id string) error
}

type Stats struct {
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
	Overdue    int            `json:"overdue"`
	TotalTasks int            `json:"total_tasks"`
}
