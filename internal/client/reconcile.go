package client

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/shared-todo/internal/model"
)

// Reconciler folds remote change events into the local collection. Each rule
// is idempotent, so echoes of this client's own mutations are harmless.
type Reconciler struct {
	todos     *Collection
	logger    *zap.Logger
	connected atomic.Bool
}

func NewReconciler(todos *Collection, logger *zap.Logger) *Reconciler {
	return &Reconciler{todos: todos, logger: logger}
}

func (r *Reconciler) Connected() bool { return r.connected.Load() }

func (r *Reconciler) SetConnected(ok bool) {
	if r.connected.Swap(ok) != ok {
		r.logger.Info("Realtime connection changed", zap.Bool("connected", ok))
	}
}

// Handle applies one event. Events for other tables are ignored.
func (r *Reconciler) Handle(e model.ChangeEvent) {
	if e.Table != model.TableTodos {
		return
	}

	switch e.Type {
	case model.EventInsert:
		t, err := e.Todo()
		if err != nil || t.ID == "" {
			r.logger.Warn("Bad insert event", zap.Error(err))
			return
		}
		t = t.Normalize()
		r.todos.Update(func(prev []model.Todo) []model.Todo {
			if indexOf(prev, t.ID) >= 0 {
				return prev
			}
			return prependTodo(prev, t)
		})

	case model.EventUpdate:
		t, err := e.Todo()
		if err != nil || t.ID == "" {
			r.logger.Warn("Bad update event", zap.Error(err))
			return
		}
		t = t.Normalize()
		r.todos.Update(func(prev []model.Todo) []model.Todo {
			if indexOf(prev, t.ID) < 0 {
				return prependTodo(prev, t)
			}
			return replaceTodo(prev, t)
		})

	case model.EventDelete:
		id, err := e.RowID()
		if err != nil || id == "" {
			r.logger.Warn("Bad delete event", zap.Error(err))
			return
		}
		r.todos.Update(func(prev []model.Todo) []model.Todo {
			return removeTodo(prev, id)
		})
	}
}

// Run applies events until ctx ends or events is closed.
func (r *Reconciler) Run(ctx context.Context, events <-chan model.ChangeEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-events:
			if !ok {
				return nil
			}
			r.Handle(e)
		}
	}
}
