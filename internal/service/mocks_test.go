package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/BuzzLyutic/shared-todo/internal/model"
	"github.com/BuzzLyutic/shared-todo/internal/repo"
)

// MockTodoRepository - мок репозитория
type MockTodoRepository struct {
	mock.Mock
}

func (m *MockTodoRepository) Create(ctx context.Context, t model.Todo) (model.Todo, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(model.Todo), args.Error(1)
}

func (m *MockTodoRepository) Get(ctx context.Context, id string) (model.Todo, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Todo), args.Error(1)
}

func (m *MockTodoRepository) List(ctx context.Context, filter model.TodoFilter, limit int) ([]model.Todo, error) {
	args := m.Called(ctx, filter, limit)
	return args.Get(0).([]model.Todo), args.Error(1)
}

func (m *MockTodoRepository) Update(ctx context.Context, id string, patch model.TodoPatch) (model.Todo, model.Todo, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(model.Todo), args.Get(1).(model.Todo), args.Error(2)
}

func (m *MockTodoRepository) Delete(ctx context.Context, id string) (model.Todo, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Todo), args.Error(1)
}

func (m *MockTodoRepository) GetStats(ctx context.Context, today time.Time) (repo.Stats, error) {
	args := m.Called(ctx, today)
	return args.Get(0).(repo.Stats), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) Get(ctx context.Context, id string) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) GetByName(ctx context.Context, name string) (model.User, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserRepository) TouchLogin(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *MockUserRepository) MarkWelcomed(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) Append(ctx context.Context, e model.ActivityEntry) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockActivityRepository) List(ctx context.Context, filter model.ActivityFilter, limit int) ([]model.ActivityEntry, error) {
	args := m.Called(ctx, filter, limit)
	return args.Get(0).([]model.ActivityEntry), args.Error(1)
}

func (m *MockActivityRepository) PurgeBefore(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}
