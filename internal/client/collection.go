package client

import (
	"sync"

	"github.com/BuzzLyutic/shared-todo/internal/model"
)

// Transform computes the next collection from the current one. It must not
// modify prev in place.
type Transform func(prev []model.Todo) []model.Todo

// Collection is the in-memory task list shared by the mutation engine and the
// reconciler. Every write is a Transform of the current value, so concurrent
// writers never work from a stale snapshot.
type Collection struct {
	mu        sync.RWMutex
	todos     []model.Todo
	listeners []func([]model.Todo)
}

func NewCollection(initial []model.Todo) *Collection {
	return &Collection{todos: initial}
}

func (c *Collection) Update(fn Transform) {
	c.mu.Lock()
	c.todos = fn(c.todos)
	next := c.todos
	listeners := c.listeners
	c.mu.Unlock()

	for _, l := range listeners {
		l(next)
	}
}

// Snapshot returns the current list. Callers must treat it as read-only.
func (c *Collection) Snapshot() []model.Todo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.todos
}

func (c *Collection) Get(id string) (model.Todo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := indexOf(c.todos, id); i >= 0 {
		return c.todos[i].Clone(), true
	}
	return model.Todo{}, false
}

func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.todos)
}

// OnChange registers fn to run after every update with the new list.
func (c *Collection) OnChange(fn func([]model.Todo)) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Reset replaces the whole list, e.g. after the initial fetch.
func (c *Collection) Reset(todos []model.Todo) {
	c.Update(func([]model.Todo) []model.Todo { return todos })
}

func indexOf(todos []model.Todo, id string) int {
	for i := range todos {
		if todos[i].ID == id {
			return i
		}
	}
	return -1
}

func prependTodo(todos []model.Todo, t model.Todo) []model.Todo {
	out := make([]model.Todo, 0, len(todos)+1)
	out = append(out, t)
	return append(out, todos...)
}

func insertTodoAt(todos []model.Todo, i int, t model.Todo) []model.Todo {
	if i < 0 || i > len(todos) {
		i = len(todos)
	}
	out := make([]model.Todo, 0, len(todos)+1)
	out = append(out, todos[:i]...)
	out = append(out, t)
	return append(out, todos[i:]...)
}

func replaceTodo(todos []model.Todo, t model.Todo) []model.Todo {
	i := indexOf(todos, t.ID)
	if i < 0 {
		return todos
	}
	out := make([]model.Todo, len(todos))
	copy(out, todos)
	out[i] = t
	return out
}

func removeTodo(todos []model.Todo, id string) []model.Todo {
	i := indexOf(todos, id)
	if i < 0 {
		return todos
	}
	out := make([]model.Todo, 0, len(todos)-1)
	out = append(out, todos[:i]...)
	return append(out, todos[i+1:]...)
}
