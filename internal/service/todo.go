package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/shared-todo/internal/model"
	"github.com/BuzzLyutic/shared-todo/internal/repo"
)

type TodoService struct {
	repo     repo.TodoRepository
	users    repo.UserRepository
	activity repo.ActivityRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewTodoService(todos repo.TodoRepository, users repo.UserRepository, activity repo.ActivityRepository, logger *zap.Logger) *TodoService {
	return &TodoService{
		repo:     todos,
		users:    users,
		activity: activity,
		logger:   logger,
		now:      time.Now,
	}
}

// Create stores a new task. The client-chosen id doubles as an idempotency key:
// repeating a create returns the stored row instead of failing.
func (s *TodoService) Create(ctx context.Context, t model.Todo) (model.Todo, error) {
	t.Text = strings.TrimSpace(t.Text)
	t = t.Normalize()
	if t.ID == "" {
		t.ID = uuid.NewString()
	} else if _, err := uuid.Parse(t.ID); err != nil {
		return t, invalid("id must be a UUID")
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.now()
	}
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == "" {
			t.Subtasks[i].ID = uuid.NewString()
		}
	}
	if err := s.validate(ctx, t); err != nil {
		return t, err
	}

	created, err := s.repo.Create(ctx, t)
	if errors.Is(err, repo.ErrorConflict) {
		return s.repo.Get(ctx, t.ID)
	}
	if err != nil {
		return created, err
	}

	s.log(ctx, model.ActivityEntry{
		Action:   model.ActionTaskCreated,
		TodoID:   created.ID,
		TodoText: created.Text,
		UserName: created.CreatedBy,
		Details:  map[string]string{"priority": string(created.Priority)},
	})
	return created, nil
}

func (s *TodoService) Get(ctx context.Context, id string) (model.Todo, error) {
	return s.repo.Get(ctx, id)
}

func (s *TodoService) List(ctx context.Context, filter model.TodoFilter, limit int) ([]model.Todo, error) {
	if limit <= 0 || limit > 1000 {
		limit = 500
	}
	return s.repo.List(ctx, filter, limit)
}

func (s *TodoService) Update(ctx context.Context, id string, patch model.TodoPatch) (model.Todo, error) {
	if patch.IsEmpty() {
		return model.Todo{}, invalid("empty update")
	}
	patch = patch.Normalize()
	if patch.Text != nil {
		trimmed := strings.TrimSpace(*patch.Text)
		patch.Text = &trimmed
	}
	if err := validateStruct(patch); err != nil {
		return model.Todo{}, err
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return model.Todo{}, invalid("unknown status %q", *patch.Status)
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return model.Todo{}, invalid("unknown priority %q", *patch.Priority)
	}
	if patch.Recurrence != nil && !patch.Recurrence.Valid() {
		return model.Todo{}, invalid("unknown recurrence %q", *patch.Recurrence)
	}
	if patch.AssignedTo != nil {
		if err := s.checkAssignee(ctx, *patch.AssignedTo); err != nil {
			return model.Todo{}, err
		}
	}
	if patch.Subtasks != nil {
		if err := s.checkSubtasks(*patch.Subtasks); err != nil {
			return model.Todo{}, err
		}
	}

	before, after, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return after, err
	}
	for _, e := range diffActivity(before, after, patch.UpdatedBy) {
		s.log(ctx, e)
	}
	return after, nil
}

func (s *TodoService) Delete(ctx context.Context, id, actor string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.log(ctx, model.ActivityEntry{
		Action:   model.ActionTaskDeleted,
		TodoID:   deleted.ID,
		TodoText: deleted.Text,
		UserName: actorOr(actor, deleted.CreatedBy),
	})
	return nil
}

func (s *TodoService) GetStats(ctx context.Context) (repo.Stats, error) {
	return s.repo.GetStats(ctx, s.now())
}

func (s *TodoService) validate(ctx context.Context, t model.Todo) error {
	if err := validateStruct(t); err != nil {
		return err
	}
	if !t.Status.Valid() {
		return invalid("unknown status %q", t.Status)
	}
	if !t.Priority.Valid() {
		return invalid("unknown priority %q", t.Priority)
	}
	if !t.Recurrence.Valid() {
		return invalid("unknown recurrence %q", t.Recurrence)
	}
	if err := s.checkSubtasks(t.Subtasks); err != nil {
		return err
	}
	return s.checkAssignee(ctx, t.AssignedTo)
}

func (s *TodoService) checkSubtasks(subs []model.Subtask) error {
	for _, st := range subs {
		if strings.TrimSpace(st.Text) == "" {
			return invalid("subtask text is required")
		}
		if st.Priority != "" && !st.Priority.Valid() {
			return invalid("unknown subtask priority %q", st.Priority)
		}
	}
	return nil
}

// checkAssignee accepts an empty assignee or the name of a registered user.
func (s *TodoService) checkAssignee(ctx context.Context, name string) error {
	if name == "" {
		return nil
	}
	_, err := s.users.GetByName(ctx, name)
	if errors.Is(err, repo.ErrorNotFound) {
		return invalid("unknown assignee %q", name)
	}
	return err
}

// log records activity; a failed write never fails the mutation it describes.
func (s *TodoService) log(ctx context.Context, e model.ActivityEntry) {
	if err := s.activity.Append(ctx, e); err != nil {
		s.logger.Warn("failed to write activity", zap.String("action", string(e.Action)), zap.Error(err))
	}
}

func diffActivity(before, after model.Todo, actor string) []model.ActivityEntry {
	actor = actorOr(actor, after.CreatedBy)
	entry := func(a model.ActivityAction, details map[string]string) model.ActivityEntry {
		return model.ActivityEntry{Action: a, TodoID: after.ID, TodoText: after.Text, UserName: actor, Details: details}
	}

	var out []model.ActivityEntry
	switch {
	case !before.Completed && after.Completed:
		out = append(out, entry(model.ActionTaskCompleted, nil))
	case before.Completed && !after.Completed:
		out = append(out, entry(model.ActionTaskReopened, nil))
	case before.Status != after.Status:
		out = append(out, entry(model.ActionStatusChanged, map[string]string{
			"from": string(before.Status), "to": string(after.Status),
		}))
	}
	if before.AssignedTo != after.AssignedTo {
		out = append(out, entry(model.ActionTaskReassigned, map[string]string{
			"from": before.AssignedTo, "to": after.AssignedTo,
		}))
	}
	if !sameSubtasks(before.Subtasks, after.Subtasks) {
		out = append(out, entry(model.ActionSubtaskUpdated, nil))
	}
	if len(out) == 0 {
		out = append(out, entry(model.ActionTaskUpdated, nil))
	}
	return out
}

func sameSubtasks(a, b []model.Subtask) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Text != b[i].Text || a[i].Completed != b[i].Completed || a[i].Priority != b[i].Priority {
			return false
		}
	}
	return true
}

func actorOr(actor, fallback string) string {
	if actor != "" {
		return actor
	}
	return fallback
}
