package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BuzzLyutic/shared-todo/internal/ai"
	"github.com/BuzzLyutic/shared-todo/internal/model"
)

func newParseCmd(app *App) *cobra.Command {
	var enhance, dryRun bool
	cmd := &cobra.Command{
		Use:   "parse <free text>",
		Short: "Turn a sentence into a task with AI",
		Example: strings.TrimSpace(`
  todoctl parse "bob should clean the garage by friday, it's urgent"
  todoctl parse --enhance --dry-run "plan birthday party"
`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := app.open(cmd.Context())
			if err != nil {
				return err
			}
			users := make([]string, 0, len(ws.snap.Users))
			for _, u := range ws.snap.Users {
				users = append(users, u.Name)
			}

			text := strings.Join(args, " ")
			var parsed ai.ParsedTask
			if enhance {
				parsed, err = ws.api.EnhanceTask(cmd.Context(), text, users)
			} else {
				parsed, err = ws.api.SmartParse(cmd.Context(), text, users)
			}
			if err != nil {
				return errors.Join(err, ws.close())
			}

			printParsed(app, parsed)
			if dryRun {
				return ws.close()
			}
			t, err := ws.engine.Create(parsed.Draft())
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
	cmd.Flags().BoolVar(&enhance, "enhance", false, "Break the task into subtasks")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the result without creating a task")
	return cmd
}

func printParsed(app *App, p ai.ParsedTask) {
	fmt.Fprintf(app.Out, "%s [%s]", p.MainTask.Text, p.MainTask.Priority)
	if p.MainTask.DueDate != "" {
		fmt.Fprintf(app.Out, " due %s", p.MainTask.DueDate)
	}
	if p.MainTask.AssignedTo != "" {
		fmt.Fprintf(app.Out, " @%s", p.MainTask.AssignedTo)
	}
	fmt.Fprintln(app.Out)
	for _, s := range p.Subtasks {
		est := ""
		if s.EstimatedMinutes != nil {
			est = fmt.Sprintf(" ~%dm", *s.EstimatedMinutes)
		}
		fmt.Fprintf(app.Out, "  - %s [%s]%s\n", s.Text, model.CoercePriority(string(s.Priority)), est)
	}
	if p.Summary != "" {
		fmt.Fprintf(app.Out, "  %s\n", p.Summary)
	}
}
