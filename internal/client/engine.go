package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/shared-todo/internal/metrics"
	"github.com/BuzzLyutic/shared-todo/internal/model"
	"github.com/BuzzLyutic/shared-todo/internal/worker"
)

// Persister writes task mutations to the shared store.
type Persister interface {
	InsertTodo(ctx context.Context, t model.Todo) error
	UpdateTodo(ctx context.Context, id string, patch model.TodoPatch) error
	DeleteTodo(ctx context.Context, id string) error
}

// Dispatcher runs persistence jobs. worker.Pool satisfies it.
type Dispatcher interface {
	Submit(j worker.Job) error
	Wait()
}

// Change is one optimistic mutation. Forward is applied to the local
// collection immediately, Persist runs in the background, and Inverse is
// applied if Persist fails. OnSuccess runs after a successful Persist.
type Change struct {
	Name      string
	TodoID    string
	Forward   Transform
	Inverse   Transform
	Persist   func(ctx context.Context) error
	OnSuccess func()
}

// Engine applies optimistic mutations to a Collection.
type Engine struct {
	todos  *Collection
	store  Persister
	jobs   Dispatcher
	logger *zap.Logger
	actor  string

	// OnCelebrate fires when a task moves into the completed state.
	OnCelebrate func(t model.Todo)
	// OnError fires after a failed mutation has been rolled back.
	OnError func(op string, err error)

	now   func() time.Time
	newID func() string

	mu    sync.RWMutex
	users map[string]struct{}
}

func NewEngine(todos *Collection, store Persister, jobs Dispatcher, actor string, logger *zap.Logger) *Engine {
	return &Engine{
		todos:  todos,
		store:  store,
		jobs:   jobs,
		logger: logger,
		actor:  actor,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// SetUsers restricts assignment to the given names. An empty list disables the check.
func (e *Engine) SetUsers(users []model.User) {
	known := make(map[string]struct{}, len(users))
	for _, u := range users {
		known[u.Name] = struct{}{}
	}
	e.mu.Lock()
	e.users = known
	e.mu.Unlock()
}

func (e *Engine) Todos() *Collection { return e.todos }

// Wait blocks until every queued persistence job, including follow-ups, has finished.
func (e *Engine) Wait() { e.jobs.Wait() }

// Apply runs ch: forward now, persist later, inverse on failure.
func (e *Engine) Apply(ch Change) {
	e.todos.Update(ch.Forward)

	err := e.jobs.Submit(worker.Job{
		Key:  ch.TodoID,
		Name: ch.Name,
		Run:  ch.Persist,
		Done: func(err error) { e.settle(ch, err) },
	})
	if err != nil {
		e.settle(ch, err)
	}
}

func (e *Engine) settle(ch Change, err error) {
	if err != nil {
		e.todos.Update(ch.Inverse)
		metrics.MutationsTotal.WithLabelValues(ch.Name, "error").Inc()
		metrics.RollbacksTotal.WithLabelValues(ch.Name).Inc()
		e.logger.Warn("Mutation rolled back",
			zap.String("op", ch.Name),
			zap.String("todo_id", ch.TodoID),
			zap.Error(err))
		if e.OnError != nil {
			e.OnError(ch.Name, err)
		}
		return
	}
	metrics.MutationsTotal.WithLabelValues(ch.Name, "ok").Inc()
	if ch.OnSuccess != nil {
		ch.OnSuccess()
	}
}

func (e *Engine) insertChange(name string, t model.Todo) Change {
	return Change{
		Name:   name,
		TodoID: t.ID,
		Forward: func(prev []model.Todo) []model.Todo {
			if indexOf(prev, t.ID) >= 0 {
				return prev
			}
			return prependTodo(prev, t)
		},
		Inverse: func(prev []model.Todo) []model.Todo {
			return removeTodo(prev, t.ID)
		},
		Persist: func(ctx context.Context) error {
			return e.store.InsertTodo(ctx, t)
		},
	}
}

// patchChange captures the record as it is now so a failure restores exactly it.
func (e *Engine) patchChange(name string, before model.Todo, patch model.TodoPatch) Change {
	patch.UpdatedBy = e.actor
	return Change{
		Name:   name,
		TodoID: before.ID,
		Forward: func(prev []model.Todo) []model.Todo {
			i := indexOf(prev, before.ID)
			if i < 0 {
				return prev
			}
			next := patch.ApplyTo(prev[i])
			now := e.now()
			next.UpdatedAt = &now
			return replaceTodo(prev, next)
		},
		Inverse: func(prev []model.Todo) []model.Todo {
			return replaceTodo(prev, before)
		},
		Persist: func(ctx context.Context) error {
			return e.store.UpdateTodo(ctx, before.ID, patch)
		},
	}
}

func (e *Engine) deleteChange(before model.Todo, at int) Change {
	return Change{
		Name:   "delete",
		TodoID: before.ID,
		Forward: func(prev []model.Todo) []model.Todo {
			return removeTodo(prev, before.ID)
		},
		Inverse: func(prev []model.Todo) []model.Todo {
			if indexOf(prev, before.ID) >= 0 {
				return prev
			}
			return insertTodoAt(prev, at, before)
		},
		Persist: func(ctx context.Context) error {
			return e.store.DeleteTodo(ctx, before.ID)
		},
	}
}

func (e *Engine) lookup(id string) (model.Todo, error) {
	t, ok := e.todos.Get(id)
	if !ok {
		return model.Todo{}, ErrTodoNotFound
	}
	return t, nil
}

// Create adds a new task. Text, priority, due date, assignee, notes,
// recurrence and subtasks are taken from in; everything else is filled here.
func (e *Engine) Create(in model.Todo) (model.Todo, error) {
	in.Text = strings.TrimSpace(in.Text)
	if in.Text == "" {
		return model.Todo{}, invalid("text is required")
	}
	if err := e.checkAssignee(in.AssignedTo); err != nil {
		return model.Todo{}, err
	}
	if in.Recurrence != "" && !in.Recurrence.Valid() {
		return model.Todo{}, invalid("unknown recurrence %q", in.Recurrence)
	}

	t := model.Todo{
		ID:         e.newID(),
		Text:       in.Text,
		Priority:   model.CoercePriority(string(in.Priority)),
		DueDate:    in.DueDate,
		AssignedTo: in.AssignedTo,
		CreatedBy:  e.actor,
		Notes:      in.Notes,
		Recurrence: in.Recurrence,
		Subtasks:   e.withSubtaskIDs(in.Subtasks),
		CreatedAt:  e.now(),
	}
	t = t.Normalize()
	e.Apply(e.insertChange("create", t))
	return t, nil
}

// CreateFromTemplate instantiates tmpl as a new task owned by the current user.
func (e *Engine) CreateFromTemplate(tmpl model.TaskTemplate) (model.Todo, error) {
	t := tmpl.Instantiate(e.actor, e.newID, e.now())
	if strings.TrimSpace(t.Text) == "" {
		return model.Todo{}, invalid("template has no name")
	}
	e.Apply(e.insertChange("create_from_template", t))
	return t, nil
}

// Duplicate copies a task under a new id with completion reset.
func (e *Engine) Duplicate(id string) (model.Todo, error) {
	src, err := e.lookup(id)
	if err != nil {
		return model.Todo{}, err
	}
	t := src.Clone()
	t.ID = e.newID()
	t.Completed = false
	t.Status = model.StatusTodo
	t.CreatedBy = e.actor
	t.CreatedAt = e.now()
	t.UpdatedAt = nil
	t.UpdatedBy = ""
	for i := range t.Subtasks {
		t.Subtasks[i].ID = e.newID()
		t.Subtasks[i].Completed = false
	}
	t = t.Normalize()
	e.Apply(e.insertChange("duplicate", t))
	return t, nil
}

// Toggle flips completion. Completing a recurring task creates its next
// occurrence once the completion has been stored.
func (e *Engine) Toggle(id string) error {
	cur, err := e.lookup(id)
	if err != nil {
		return err
	}
	done := !cur.Completed
	return e.update("toggle", cur, model.TodoPatch{Completed: &done})
}

func (e *Engine) SetStatus(id string, s model.Status) error {
	if !s.Valid() {
		return invalid("unknown status %q", s)
	}
	cur, err := e.lookup(id)
	if err != nil {
		return err
	}
	return e.update("set_status", cur, model.TodoPatch{Status: &s})
}

func (e *Engine) Assign(id, user string) error {
	if err := e.checkAssignee(user); err != nil {
		return err
	}
	cur, err := e.lookup(id)
	if err != nil {
		return err
	}
	return e.update("assign", cur, model.TodoPatch{AssignedTo: &user})
}

// SetDueDate sets or, with a nil date, clears the due date.
func (e *Engine) SetDueDate(id string, d *civil.Date) error {
	if d != nil && !d.IsValid() {
		return invalid("invalid due date")
	}
	cur, err := e.lookup(id)
	if err != nil {
		return err
	}
	patch := model.TodoPatch{DueDate: d, ClearDueDate: d == nil}
	return e.update("set_due_date", cur, patch)
}

func (e *Engine) SetPriority(id string, p model.Priority) error {
	if !p.Valid() {
		return invalid("unknown priority %q", p)
	}
	cur, err := e.lookup(id)
	if err != nil {
		return err
	}
	return e.update("set_priority", cur, model.TodoPatch{Priority: &p})
}

func (e *Engine) UpdateText(id, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return invalid("text is required")
	}
	cur, err := e.lookup(id)
	if err != nil {
		return err
	}
	return e.update("update_text", cur, model.TodoPatch{Text: &text})
}

func (e *Engine) UpdateNotes(id, notes string) error {
	cur, err := e.lookup(id)
	if err != nil {
		return err
	}
	return e.update("update_notes", cur, model.TodoPatch{Notes: &notes})
}

func (e *Engine) SetRecurrence(id string, r model.Recurrence) error {
	if !r.Valid() {
		return invalid("unknown recurrence %q", r)
	}
	cur, err := e.lookup(id)
	if err != nil {
		return err
	}
	return e.update("set_recurrence", cur, model.TodoPatch{Recurrence: &r})
}

// UpdateSubtasks replaces the whole subtask list.
func (e *Engine) UpdateSubtasks(id string, subs []model.Subtask) error {
	for _, s := range subs {
		if strings.TrimSpace(s.Text) == "" {
			return invalid("subtask text is required")
		}
	}
	cur, err := e.lookup(id)
	if err != nil {
		return err
	}
	subs = e.withSubtaskIDs(subs)
	return e.update("update_subtasks", cur, model.TodoPatch{Subtasks: &subs})
}

func (e *Engine) ToggleSubtask(id, subtaskID string) error {
	cur, err := e.lookup(id)
	if err != nil {
		return err
	}
	subs := model.Todo{Subtasks: cur.Subtasks}.Clone().Subtasks
	found := false
	for i := range subs {
		if subs[i].ID == subtaskID {
			subs[i].Completed = !subs[i].Completed
			found = true
			break
		}
	}
	if !found {
		return invalid("subtask %s not found", subtaskID)
	}
	return e.update("toggle_subtask", cur, model.TodoPatch{Subtasks: &subs})
}

func (e *Engine) Delete(id string) error {
	snapshot := e.todos.Snapshot()
	at := indexOf(snapshot, id)
	if at < 0 {
		return ErrTodoNotFound
	}
	e.Apply(e.deleteChange(snapshot[at].Clone(), at))
	return nil
}

func (e *Engine) update(name string, cur model.Todo, patch model.TodoPatch) error {
	ch := e.patchChange(name, cur, patch)
	after := patch.ApplyTo(cur)
	if after.Completed && !cur.Completed {
		if e.OnCelebrate != nil {
			e.OnCelebrate(after)
		}
		if after.Recurrence.Repeats() {
			ch.OnSuccess = func() { e.rollForward(after) }
		}
	}
	e.Apply(ch)
	return nil
}

func (e *Engine) rollForward(done model.Todo) {
	next, ok := model.NextOccurrence(done, e.newID(), e.now())
	if !ok {
		return
	}
	next.CreatedBy = e.actor
	e.logger.Info("Scheduling next occurrence",
		zap.String("todo_id", done.ID),
		zap.String("next_id", next.ID))
	e.Apply(e.insertChange("recur", next))
}

func (e *Engine) checkAssignee(name string) error {
	if name == "" {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if len(e.users) == 0 {
		return nil
	}
	if _, ok := e.users[name]; !ok {
		return invalid("unknown user %q", name)
	}
	return nil
}

func (e *Engine) withSubtaskIDs(subs []model.Subtask) []model.Subtask {
	if subs == nil {
		return nil
	}
	out := model.Todo{Subtasks: subs}.Clone().Subtasks
	for i := range out {
		out[i].Text = strings.TrimSpace(out[i].Text)
		if out[i].ID == "" {
			out[i].ID = e.newID()
		}
		out[i].Priority = model.CoercePriority(string(out[i].Priority))
	}
	return out
}
