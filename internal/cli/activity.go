package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/BuzzLyutic/shared-todo/internal/model"
)

func newActivityCmd(app *App) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "activity [task-id]",
		Short: "Show recent household activity",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.session()
			if err != nil {
				return err
			}
			api := app.api().As(sess.UserName)
			todoID := ""
			if len(args) == 1 {
				todoID = args[0]
			}
			entries, err := api.Activity(cmd.Context(), todoID, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(app.Out, "Nothing yet.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintln(app.Out, formatActivity(e))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries")
	return cmd
}

func formatActivity(e model.ActivityEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %-10s %s", e.CreatedAt.Local().Format(time.DateTime), e.UserName, strings.ReplaceAll(string(e.Action), "_", " "))
	if e.TodoText != "" {
		fmt.Fprintf(&b, " %q", e.TodoText)
	}
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+"="+e.Details[k])
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	return b.String()
}
