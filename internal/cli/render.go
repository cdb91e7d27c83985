package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/BuzzLyutic/shared-todo/internal/model"
	"github.com/BuzzLyutic/shared-todo/internal/view"
)

var columnTitles = map[model.Status]string{
	model.StatusTodo:       "TO DO",
	model.StatusInProgress: "IN PROGRESS",
	model.StatusDone:       "DONE",
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// render prints the filtered view followed by the filter counts.
func (app *App) render(todos []model.Todo, opts view.Options, board bool) {
	app.renderMu.Lock()
	defer app.renderMu.Unlock()

	if board {
		opts.ShowCompleted = true
	}
	shown := view.Apply(todos, opts)
	if board {
		groups := view.GroupByStatus(shown)
		for _, s := range view.Columns {
			fmt.Fprintf(app.Out, "== %s (%d)\n", columnTitles[s], len(groups[s]))
			writeTable(app.Out, groups[s], opts)
		}
	} else if len(shown) == 0 {
		fmt.Fprintln(app.Out, "No tasks.")
	} else {
		writeTable(app.Out, shown, opts)
	}

	counts := view.Counts(todos, opts.CurrentUser, opts.Today)
	parts := make([]string, 0, len(view.Filters))
	for _, f := range view.Filters {
		mark := ""
		if f == opts.Filter {
			mark = "*"
		}
		parts = append(parts, fmt.Sprintf("%s%s %d", mark, f, counts[f]))
	}
	fmt.Fprintln(app.Out, strings.Join(parts, " | "))
}

func writeTable(out io.Writer, todos []model.Todo, opts view.Options) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, t := range todos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(t.ID), checkbox(t), t.Text, t.Priority, dueLabel(t, opts), assignee(t))
		for _, s := range t.Subtasks {
			box := "[ ]"
			if s.Completed {
				box = "[x]"
			}
			fmt.Fprintf(tw, "\t\t  %s %s\t\t\t\n", box, s.Text)
		}
	}
	tw.Flush()
}

func checkbox(t model.Todo) string {
	switch {
	case t.Completed:
		return "[x]"
	case t.Status == model.StatusInProgress:
		return "[~]"
	default:
		return "[ ]"
	}
}

func dueLabel(t model.Todo, opts view.Options) string {
	if t.DueDate == nil {
		return ""
	}
	label := t.DueDate.String()
	if !t.Completed && t.DueDate.Before(opts.Today) {
		label += " (overdue)"
	} else if *t.DueDate == opts.Today {
		label += " (today)"
	}
	if t.Recurrence.Repeats() {
		label += " ↻" + string(t.Recurrence)
	}
	return label
}

func assignee(t model.Todo) string {
	if t.AssignedTo == "" {
		return ""
	}
	return "@" + t.AssignedTo
}
