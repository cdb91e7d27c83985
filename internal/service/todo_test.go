package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/shared-todo/internal/model"
	"github.com/BuzzLyutic/shared-todo/internal/repo"
)

func newTodoService() (*TodoService, *MockTodoRepository, *MockUserRepository, *MockActivityRepository) {
	todos := new(MockTodoRepository)
	users := new(MockUserRepository)
	activity := new(MockActivityRepository)
	return NewTodoService(todos, users, activity, zap.NewNop()), todos, users, activity
}

func TestTodoService_Create(t *testing.T) {
	id := uuid.NewString()

	tests := []struct {
		name      string
		todo      model.Todo
		setupMock func(*MockTodoRepository, *MockUserRepository, *MockActivityRepository)
		wantErr   error
	}{
		{
			name: "successful creation",
			todo: model.Todo{ID: id, Text: "  Buy milk  ", CreatedBy: "ann"},
			setupMock: func(tr *MockTodoRepository, _ *MockUserRepository, ar *MockActivityRepository) {
				tr.On("Create", mock.Anything, mock.MatchedBy(func(t model.Todo) bool {
					return t.ID == id && t.Text == "Buy milk" && t.Priority == model.PriorityMedium && t.Status == model.StatusTodo
				})).Return(model.Todo{ID: id, Text: "Buy milk", CreatedBy: "ann"}, nil)
				ar.On("Append", mock.Anything, mock.MatchedBy(func(e model.ActivityEntry) bool {
					return e.Action == model.ActionTaskCreated && e.TodoID == id
				})).Return(nil)
			},
		},
		{
			name:      "validation error - empty text",
			todo:      model.Todo{ID: id, Text: "   ", CreatedBy: "ann"},
			setupMock: func(*MockTodoRepository, *MockUserRepository, *MockActivityRepository) {},
			wantErr:   ErrValidation,
		},
		{
			name:      "validation error - bad priority",
			todo:      model.Todo{ID: id, Text: "x", CreatedBy: "ann", Priority: "critical"},
			setupMock: func(*MockTodoRepository, *MockUserRepository, *MockActivityRepository) {},
			wantErr:   ErrValidation,
		},
		{
			name:      "validation error - id not a uuid",
			todo:      model.Todo{ID: "abc", Text: "x", CreatedBy: "ann"},
			setupMock: func(*MockTodoRepository, *MockUserRepository, *MockActivityRepository) {},
			wantErr:   ErrValidation,
		},
		{
			name: "validation error - unknown assignee",
			todo: model.Todo{ID: id, Text: "x", CreatedBy: "ann", AssignedTo: "ghost"},
			setupMock: func(_ *MockTodoRepository, ur *MockUserRepository, _ *MockActivityRepository) {
				ur.On("GetByName", mock.Anything, "ghost").Return(model.User{}, repo.ErrorNotFound)
			},
			wantErr: ErrValidation,
		},
		{
			name: "repeated id returns stored row",
			todo: model.Todo{ID: id, Text: "x", CreatedBy: "ann"},
			setupMock: func(tr *MockTodoRepository, _ *MockUserRepository, _ *MockActivityRepository) {
				tr.On("Create", mock.Anything, mock.Anything).Return(model.Todo{}, repo.ErrorConflict)
				tr.On("Get", mock.Anything, id).Return(model.Todo{ID: id, Text: "x"}, nil)
			},
		},
		{
			name: "activity failure does not fail create",
			todo: model.Todo{ID: id, Text: "x", CreatedBy: "ann"},
			setupMock: func(tr *MockTodoRepository, _ *MockUserRepository, ar *MockActivityRepository) {
				tr.On("Create", mock.Anything, mock.Anything).Return(model.Todo{ID: id, Text: "x"}, nil)
				ar.On("Append", mock.Anything, mock.Anything).Return(assert.AnError)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, todos, users, activity := newTodoService()
			tt.setupMock(todos, users, activity)

			result, err := svc.Create(context.Background(), tt.todo)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, id, result.ID)
			}

			todos.AssertExpectations(t)
			users.AssertExpectations(t)
			activity.AssertExpectations(t)
		})
	}
}

func TestTodoService_Update(t *testing.T) {
	id := uuid.NewString()

	t.Run("completion is normalised and logged", func(t *testing.T) {
		svc, todos, _, activity := newTodoService()
		before := model.Todo{ID: id, Text: "x", Status: model.StatusInProgress, CreatedBy: "ann"}
		after := model.Todo{ID: id, Text: "x", Status: model.StatusDone, Completed: true, CreatedBy: "ann"}

		todos.On("Update", mock.Anything, id, mock.MatchedBy(func(p model.TodoPatch) bool {
			return p.Status != nil && *p.Status == model.StatusDone && *p.Completed
		})).Return(before, after, nil)
		activity.On("Append", mock.Anything, mock.MatchedBy(func(e model.ActivityEntry) bool {
			return e.Action == model.ActionTaskCompleted && e.UserName == "bob"
		})).Return(nil)

		done := true
		got, err := svc.Update(context.Background(), id, model.TodoPatch{Completed: &done, UpdatedBy: "bob"})
		require.NoError(t, err)
		assert.True(t, got.Completed)
		todos.AssertExpectations(t)
		activity.AssertExpectations(t)
	})

	t.Run("empty patch rejected", func(t *testing.T) {
		svc, _, _, _ := newTodoService()
		_, err := svc.Update(context.Background(), id, model.TodoPatch{UpdatedBy: "bob"})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("reassign to known user", func(t *testing.T) {
		svc, todos, users, activity := newTodoService()
		carol := "carol"
		users.On("GetByName", mock.Anything, "carol").Return(model.User{Name: "carol"}, nil)
		todos.On("Update", mock.Anything, id, mock.Anything).Return(
			model.Todo{ID: id, AssignedTo: "ann"},
			model.Todo{ID: id, AssignedTo: "carol"},
			nil,
		)
		activity.On("Append", mock.Anything, mock.MatchedBy(func(e model.ActivityEntry) bool {
			return e.Action == model.ActionTaskReassigned && e.Details["to"] == "carol"
		})).Return(nil)

		_, err := svc.Update(context.Background(), id, model.TodoPatch{AssignedTo: &carol})
		require.NoError(t, err)
		activity.AssertExpectations(t)
	})

	t.Run("not found passes through", func(t *testing.T) {
		svc, todos, _, _ := newTodoService()
		notes := "n"
		todos.On("Update", mock.Anything, id, mock.Anything).Return(model.Todo{}, model.Todo{}, repo.ErrorNotFound)
		_, err := svc.Update(context.Background(), id, model.TodoPatch{Notes: &notes})
		assert.ErrorIs(t, err, repo.ErrorNotFound)
	})
}

func TestTodoService_List(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantLimit int
	}{
		{"default limit", 0, 500},
		{"custom limit", 50, 50},
		{"limit too high", 5000, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, todos, _, _ := newTodoService()
			todos.On("List", mock.Anything, mock.Anything, tt.wantLimit).Return([]model.Todo{}, nil)

			_, err := svc.List(context.Background(), model.TodoFilter{}, tt.limit)
			require.NoError(t, err)
			todos.AssertExpectations(t)
		})
	}
}

func TestDiffActivity(t *testing.T) {
	before := model.Todo{ID: "1", Status: model.StatusTodo, Subtasks: []model.Subtask{{ID: "s", Text: "a"}}}

	moved := before
	moved.Status = model.StatusInProgress
	got := diffActivity(before, moved, "ann")
	require.Len(t, got, 1)
	assert.Equal(t, model.ActionStatusChanged, got[0].Action)
	assert.Equal(t, "in_progress", got[0].Details["to"])

	ticked := before.Clone()
	ticked.Subtasks[0].Completed = true
	got = diffActivity(before, ticked, "ann")
	require.Len(t, got, 1)
	assert.Equal(t, model.ActionSubtaskUpdated, got[0].Action)

	got = diffActivity(before, before, "")
	require.Len(t, got, 1)
	assert.Equal(t, model.ActionTaskUpdated, got[0].Action)
}
