package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BuzzLyutic/shared-todo/internal/model"
)

func newTemplatesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"tpl"},
		Short:   "Manage task templates",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List templates visible to you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.session()
			if err != nil {
				return err
			}
			tt, err := app.api().As(sess.UserName).ListTemplates(cmd.Context())
			if err != nil {
				return err
			}
			if len(tt) == 0 {
				fmt.Fprintln(app.Out, "No templates yet.")
				return nil
			}
			for _, t := range tt {
				shared := ""
				if t.IsShared {
					shared = " (shared)"
				}
				fmt.Fprintf(app.Out, "%s  %-24s %-6s %d subtasks%s\n",
					shortID(t.ID), t.Name, t.DefaultPriority, len(t.Subtasks), shared)
			}
			return nil
		},
	})

	var name string
	var shared bool
	save := &cobra.Command{
		Use:   "save <task-id>",
		Short: "Save a task as a reusable template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.open(cmd.Context())
			if err != nil {
				return err
			}
			t, err := ws.resolve(args[0])
			if err != nil {
				return errors.Join(err, ws.close())
			}
			tmpl := templateFrom(t, ws.user, name, shared)
			out, err := ws.api.CreateTemplate(cmd.Context(), tmpl)
			if err != nil {
				return errors.Join(err, ws.close())
			}
			fmt.Fprintf(app.Out, "Saved template %s %s\n", shortID(out.ID), out.Name)
			return ws.close()
		},
	}
	save.Flags().StringVar(&name, "name", "", "Template name (default: task text)")
	save.Flags().BoolVar(&shared, "shared", false, "Visible to everyone in the household")
	cmd.AddCommand(save)

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <template>",
		Short: "Delete a template you created",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.session()
			if err != nil {
				return err
			}
			api := app.api().As(sess.UserName)
			tt, err := api.ListTemplates(cmd.Context())
			if err != nil {
				return err
			}
			tmpl, err := findTemplate(tt, args[0])
			if err != nil {
				return err
			}
			if err := api.DeleteTemplate(cmd.Context(), tmpl.ID); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "Deleted template %s\n", tmpl.Name)
			return nil
		},
	})
	return cmd
}

func templateFrom(t model.Todo, user, name string, shared bool) model.TaskTemplate {
	if strings.TrimSpace(name) == "" {
		name = t.Text
	}
	tmpl := model.TaskTemplate{
		Name:              name,
		Description:       t.Notes,
		DefaultPriority:   t.Priority,
		DefaultAssignedTo: t.AssignedTo,
		CreatedBy:         user,
		IsShared:          shared,
	}
	for _, s := range t.Subtasks {
		ts := model.TemplateSubtask{Text: s.Text, Priority: s.Priority}
		if s.EstimatedMinutes != nil {
			m := *s.EstimatedMinutes
			ts.EstimatedMinutes = &m
		}
		tmpl.Subtasks = append(tmpl.Subtasks, ts)
	}
	return tmpl
}

// findTemplate matches by id, id prefix or case-insensitive name.
func findTemplate(tt []model.TaskTemplate, ref string) (model.TaskTemplate, error) {
	var hits []model.TaskTemplate
	for _, t := range tt {
		if t.ID == ref || strings.EqualFold(t.Name, ref) {
			return t, nil
		}
		if strings.HasPrefix(t.ID, ref) {
			hits = append(hits, t)
		}
	}
	if len(hits) == 1 {
		return hits[0], nil
	}
	if len(hits) > 1 {
		return model.TaskTemplate{}, fmt.Errorf("template %q is ambiguous", ref)
	}
	return model.TaskTemplate{}, fmt.Errorf("template %q not found", ref)
}
