package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/shared-todo/internal/client"
	"github.com/BuzzLyutic/shared-todo/internal/model"
	"github.com/BuzzLyutic/shared-todo/internal/realtime"
)

const reconnectDelay = 2 * time.Second

func newWatchCmd(app *App) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Show the list and follow live changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ws, err := app.open(ctx)
			if err != nil {
				return err
			}
			defer ws.close()

			opts, err := f.options(app, ws.user)
			if err != nil {
				return err
			}
			url, err := realtime.SubscribeURL(ws.api.BaseURL(), model.TableTodos, model.EventAll)
			if err != nil {
				return err
			}

			todos := ws.engine.Todos()
			rec := client.NewReconciler(todos, app.Logger)
			todos.OnChange(func(snapshot []model.Todo) {
				o := opts
				o.Today = app.today()
				app.render(snapshot, o, f.board)
			})
			app.render(todos.Snapshot(), opts, f.board)

			events := make(chan model.ChangeEvent, 64)
			go func() { _ = rec.Run(ctx, events) }()
			return app.follow(ctx, ws, url, rec, events)
		},
	}
	f.bind(cmd)
	return cmd
}

// follow keeps a realtime subscription open until ctx ends. After a drop it
// reloads the list so changes missed while offline are picked up.
func (app *App) follow(ctx context.Context, ws *workspace, url string, rec *client.Reconciler, events chan<- model.ChangeEvent) error {
	sub := &realtime.Subscriber{URL: url, Logger: app.Logger}
	status := func(ok bool) {
		rec.SetConnected(ok)
		if ok {
			fmt.Fprintln(app.Out, "* live")
		} else {
			fmt.Fprintln(app.Out, "* offline, reconnecting")
		}
	}

	for first := true; ; first = false {
		if !first {
			if todos, err := ws.api.ListTodos(ctx); err == nil {
				ws.engine.Todos().Reset(todos)
			}
		}
		err := sub.Run(ctx, events, status)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			app.Logger.Warn("Realtime subscription ended", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}
