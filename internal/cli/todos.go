package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BuzzLyutic/shared-todo/internal/model"
	"github.com/BuzzLyutic/shared-todo/internal/view"
)

type listFlags struct {
	filter string
	sort   string
	query  string
	all    bool
	board  bool
}

func (f *listFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.filter, "filter", "all", "all|my_tasks|due_today|overdue|urgent")
	cmd.Flags().StringVar(&f.sort, "sort", "created", "created|due_date|priority|alphabetical")
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "Search text and notes")
	cmd.Flags().BoolVarP(&f.all, "all", "a", false, "Include completed tasks")
	cmd.Flags().BoolVar(&f.board, "board", false, "Group by status")
}

func (f *listFlags) options(app *App, user string) (view.Options, error) {
	filter, err := view.ParseFilter(f.filter)
	if err != nil {
		return view.Options{}, err
	}
	sort, err := view.ParseSort(f.sort)
	if err != nil {
		return view.Options{}, err
	}
	return view.Options{
		Query:         f.query,
		Filter:        filter,
		Sort:          sort,
		ShowCompleted: f.all,
		CurrentUser:   user,
		Today:         app.today(),
	}, nil
}

func newListCmd(app *App) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.session()
			if err != nil {
				return err
			}
			opts, err := f.options(app, sess.UserName)
			if err != nil {
				return err
			}
			todos, err := app.api().As(sess.UserName).ListTodos(cmd.Context())
			if err != nil {
				return err
			}
			app.render(todos, opts, f.board)
			return nil
		},
	}
	f.bind(cmd)
	return cmd
}

func newAddCmd(app *App) *cobra.Command {
	var (
		priority, due, assign, recur, notes, template string
		subtasks                                      []string
	)
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a task",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.open(cmd.Context())
			if err != nil {
				return err
			}

			var t model.Todo
			if template != "" {
				tmpl, ferr := findTemplate(ws.snap.Templates, template)
				if ferr != nil {
					return errors.Join(ferr, ws.close())
				}
				t, err = ws.engine.CreateFromTemplate(tmpl)
			} else {
				in := model.Todo{
					Text:       strings.Join(args, " "),
					Priority:   model.Priority(priority),
					AssignedTo: assign,
					Notes:      notes,
					Recurrence: model.Recurrence(recur),
				}
				if in.Priority != "" && !in.Priority.Valid() {
					return errors.Join(fmt.Errorf("unknown priority %q", priority), ws.close())
				}
				if in.DueDate, err = parseDue(due); err != nil {
					return errors.Join(err, ws.close())
				}
				for _, s := range subtasks {
					in.Subtasks = append(in.Subtasks, model.Subtask{Text: s})
				}
				t, err = ws.engine.Create(in)
			}
			if err != nil {
				return errors.Join(err, ws.close())
			}
			if err := ws.close(); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Added %s %s\n", shortID(t.ID), t.Text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "low|medium|high|urgent")
	cmd.Flags().StringVarP(&due, "due", "d", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&assign, "assign", "", "Assignee name")
	cmd.Flags().StringVar(&recur, "recur", "", "none|daily|weekly|monthly")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes")
	cmd.Flags().StringArrayVarP(&subtasks, "subtask", "s", nil, "Subtask text (repeatable)")
	cmd.Flags().StringVar(&template, "template", "", "Create from a template (name or id)")
	return cmd
}

func newToggleCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "done <id>",
		Aliases: []string{"toggle"},
		Short:   "Toggle a task's completion",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.mutate(cmd, args[0], func(ws *workspace, t model.Todo) error {
				return ws.engine.Toggle(t.ID)
			})
		},
	}
}

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <todo|in_progress|done>",
		Short: "Move a task between board columns",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := model.Status(args[1])
			if !s.Valid() {
				return fmt.Errorf("unknown status %q", args[1])
			}
			return app.mutate(cmd, args[0], func(ws *workspace, t model.Todo) error {
				return ws.engine.SetStatus(t.ID, s)
			})
		},
	}
}

func newAssignCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <id> [user]",
		Short: "Assign a task, or unassign it when no user is given",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			user := ""
			if len(args) == 2 {
				user = args[1]
			}
			return app.mutate(cmd, args[0], func(ws *workspace, t model.Todo) error {
				return ws.engine.Assign(t.ID, user)
			})
		},
	}
}

func newDueCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "due <id> [YYYY-MM-DD|none]",
		Short: "Set or clear a due date",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := ""
			if len(args) == 2 {
				raw = args[1]
			}
			d, err := parseDue(raw)
			if err != nil {
				return err
			}
			return app.mutate(cmd, args[0], func(ws *workspace, t model.Todo) error {
				return ws.engine.SetDueDate(t.ID, d)
			})
		},
	}
}

func newPriorityCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "priority <id> <low|medium|high|urgent>",
		Short: "Change a task's priority",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := model.Priority(args[1])
			if !p.Valid() {
				return fmt.Errorf("unknown priority %q", args[1])
			}
			return app.mutate(cmd, args[0], func(ws *workspace, t model.Todo) error {
				return ws.engine.SetPriority(t.ID, p)
			})
		},
	}
}

func newTextCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "text <id> <new text>",
		Short: "Rename a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.mutate(cmd, args[0], func(ws *workspace, t model.Todo) error {
				return ws.engine.UpdateText(t.ID, strings.Join(args[1:], " "))
			})
		},
	}
}

func newNotesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "notes <id> [notes]",
		Short: "Replace a task's notes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.mutate(cmd, args[0], func(ws *workspace, t model.Todo) error {
				return ws.engine.UpdateNotes(t.ID, strings.Join(args[1:], " "))
			})
		},
	}
}

func newRecurCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "recur <id> <none|daily|weekly|monthly>",
		Short: "Set how a task repeats",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.mutate(cmd, args[0], func(ws *workspace, t model.Todo) error {
				return ws.engine.SetRecurrence(t.ID, model.Recurrence(args[1]))
			})
		},
	}
}

func newSubtaskCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subtask",
		Short: "Work with subtasks",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <id> <text>",
		Short: "Append a subtask",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.mutate(cmd, args[0], func(ws *workspace, t model.Todo) error {
				subs := append(t.Clone().Subtasks, model.Subtask{Text: strings.Join(args[1:], " ")})
				return ws.engine.UpdateSubtasks(t.ID, subs)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <id> <n>",
		Short: "Toggle the n-th subtask (1-based)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.mutate(cmd, args[0], func(ws *workspace, t model.Todo) error {
				var n int
				if _, err := fmt.Sscanf(args[1], "%d", &n); err != nil || n < 1 || n > len(t.Subtasks) {
					return fmt.Errorf("subtask %q out of range (1-%d)", args[1], len(t.Subtasks))
				}
				return ws.engine.ToggleSubtask(t.ID, t.Subtasks[n-1].ID)
			})
		},
	})
	return cmd
}

func newRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.mutate(cmd, args[0], func(ws *workspace, t model.Todo) error {
				if err := ws.engine.Delete(t.ID); err != nil {
					return err
				}
				fmt.Fprintf(app.Out, "Deleted %s\n", t.Text)
				return nil
			})
		},
	}
}

func newDuplicateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "dup <id>",
		Aliases: []string{"duplicate"},
		Short:   "Copy a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.mutate(cmd, args[0], func(ws *workspace, t model.Todo) error {
				c, err := ws.engine.Duplicate(t.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(app.Out, "Added %s %s\n", shortID(c.ID), c.Text)
				return nil
			})
		},
	}
}
