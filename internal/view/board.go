package view

import (
	"cloud.google.com/go/civil"

	"github.com/BuzzLyutic/shared-todo/internal/model"
)

// Columns is the kanban column order.
var Columns = []model.Status{model.StatusTodo, model.StatusInProgress, model.StatusDone}

// GroupByStatus splits todos into kanban columns, keeping their relative order.
func GroupByStatus(todos []model.Todo) map[model.Status][]model.Todo {
	board := make(map[model.Status][]model.Todo, len(Columns))
	for _, s := range Columns {
		board[s] = []model.Todo{}
	}
	for _, t := range todos {
		s := t.Status
		if !s.Valid() {
			s = model.StatusTodo
		}
		board[s] = append(board[s], t)
	}
	return board
}

// Counts returns the badge number for each quick filter. Completed tasks are
// never counted.
func Counts(todos []model.Todo, user string, today civil.Date) map[Filter]int {
	counts := make(map[Filter]int, len(Filters))
	for _, f := range Filters {
		counts[f] = 0
	}
	for _, t := range todos {
		if t.Completed {
			continue
		}
		for _, f := range Filters {
			if Match(f, t, user, today) {
				counts[f]++
			}
		}
	}
	return counts
}
