// Package view computes the filtered, sorted and grouped projections of the
// task list that the list, board and table presentations render.
package view

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"cloud.google.com/go/civil"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/BuzzLyutic/shared-todo/internal/model"
)

type Filter string

const (
	FilterAll      Filter = "all"
	FilterMine     Filter = "my_tasks"
	FilterDueToday Filter = "due_today"
	FilterOverdue  Filter = "overdue"
	FilterUrgent   Filter = "urgent"
)

var Filters = []Filter{FilterAll, FilterMine, FilterDueToday, FilterOverdue, FilterUrgent}

type Sort string

const (
	SortCreated      Sort = "created"
	SortDueDate      Sort = "due_date"
	SortPriority     Sort = "priority"
	SortAlphabetical Sort = "alphabetical"
)

var Sorts = []Sort{SortCreated, SortDueDate, SortPriority, SortAlphabetical}

func ParseFilter(s string) (Filter, error) {
	if s == "" {
		return FilterAll, nil
	}
	if slices.Contains(Filters, Filter(s)) {
		return Filter(s), nil
	}
	return "", fmt.Errorf("unknown filter %q", s)
}

func ParseSort(s string) (Sort, error) {
	if s == "" {
		return SortCreated, nil
	}
	if slices.Contains(Sorts, Sort(s)) {
		return Sort(s), nil
	}
	return "", fmt.Errorf("unknown sort %q", s)
}

type Options struct {
	Query         string
	Filter        Filter
	Sort          Sort
	ShowCompleted bool
	CurrentUser   string
	Today         civil.Date
}

// Apply returns the tasks to display for opts. The input is not modified and
// equal inputs always produce the same order.
func Apply(todos []model.Todo, opts Options) []model.Todo {
	query := strings.ToLower(strings.TrimSpace(opts.Query))

	out := make([]model.Todo, 0, len(todos))
	for _, t := range todos {
		if t.Completed && !opts.ShowCompleted {
			continue
		}
		if query != "" && !matches(t, query) {
			continue
		}
		if !Match(opts.Filter, t, opts.CurrentUser, opts.Today) {
			continue
		}
		out = append(out, t)
	}

	slices.SortStableFunc(out, comparator(opts.Sort))
	return out
}

// Match reports whether t passes the quick filter f.
func Match(f Filter, t model.Todo, user string, today civil.Date) bool {
	switch f {
	case FilterMine:
		return user != "" && (t.AssignedTo == user || t.CreatedBy == user)
	case FilterDueToday:
		return !t.Completed && t.DueDate != nil && *t.DueDate == today
	case FilterOverdue:
		return !t.Completed && t.DueDate != nil && t.DueDate.Before(today)
	case FilterUrgent:
		return !t.Completed && t.Priority == model.PriorityUrgent
	default:
		return true
	}
}

func matches(t model.Todo, query string) bool {
	for _, field := range []string{t.Text, t.CreatedBy, t.AssignedTo, t.Notes} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

func comparator(s Sort) func(a, b model.Todo) int {
	var primary func(a, b model.Todo) int
	switch s {
	case SortDueDate:
		primary = byDueDate
	case SortPriority:
		primary = func(a, b model.Todo) int { return cmp.Compare(a.Priority.Rank(), b.Priority.Rank()) }
	case SortAlphabetical:
		// Collators keep internal buffers, so each sort gets its own.
		c := collate.New(language.English)
		primary = func(a, b model.Todo) int { return c.CompareString(a.Text, b.Text) }
	default:
		primary = func(a, b model.Todo) int { return b.CreatedAt.Compare(a.CreatedAt) }
	}
	return func(a, b model.Todo) int {
		if r := primary(a, b); r != 0 {
			return r
		}
		return cmp.Compare(a.ID, b.ID)
	}
}

// byDueDate orders ascending with undated tasks last.
func byDueDate(a, b model.Todo) int {
	switch {
	case a.DueDate == nil && b.DueDate == nil:
		return 0
	case a.DueDate == nil:
		return 1
	case b.DueDate == nil:
		return -1
	case a.DueDate.Before(*b.DueDate):
		return -1
	case a.DueDate.After(*b.DueDate):
		return 1
	}
	return 0
}
