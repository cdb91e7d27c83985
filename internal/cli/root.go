package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/shared-todo/internal/auth"
	"github.com/BuzzLyutic/shared-todo/internal/client"
	"github.com/BuzzLyutic/shared-todo/internal/model"
	"github.com/BuzzLyutic/shared-todo/internal/worker"
)

type App struct {
	Server      string
	SessionPath string
	Verbose     bool

	HTTP   *http.Client
	In     io.Reader
	Out    io.Writer
	Logger *zap.Logger

	now      func() time.Time
	sleep    func(time.Duration)
	renderMu sync.Mutex
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "todoctl",
		Short:        "Shared household to-do list",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Sign in, then add and complete a task
  todoctl login alice
  todoctl add "Buy milk" --priority high --due 2024-06-01
  todoctl done 3f2a

  # Follow changes made by everyone else
  todoctl watch --filter my_tasks
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.init(cmd)
	}

	cmd.PersistentFlags().StringVar(&app.Server, "server", envOr("TODO_SERVER_URL", "http://localhost:8080"), "Server base URL")
	cmd.PersistentFlags().StringVar(&app.SessionPath, "session", envOr("TODO_SESSION_FILE", ""), "Session file (default: user config dir)")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Log engine activity to stderr")

	cmd.AddCommand(newRegisterCmd(app))
	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newListCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newToggleCmd(app))
	cmd.AddCommand(newStatusCmd(app))
	cmd.AddCommand(newAssignCmd(app))
	cmd.AddCommand(newDueCmd(app))
	cmd.AddCommand(newPriorityCmd(app))
	cmd.AddCommand(newTextCmd(app))
	cmd.AddCommand(newNotesCmd(app))
	cmd.AddCommand(newRecurCmd(app))
	cmd.AddCommand(newSubtaskCmd(app))
	cmd.AddCommand(newRemoveCmd(app))
	cmd.AddCommand(newDuplicateCmd(app))
	cmd.AddCommand(newTemplatesCmd(app))
	cmd.AddCommand(newActivityCmd(app))
	cmd.AddCommand(newParseCmd(app))
	cmd.AddCommand(newWatchCmd(app))

	return cmd
}

func (app *App) init(cmd *cobra.Command) error {
	if app.In == nil {
		app.In = cmd.InOrStdin()
	}
	if app.Out == nil {
		app.Out = cmd.OutOrStdout()
	}
	if app.now == nil {
		app.now = time.Now
	}
	if app.sleep == nil {
		app.sleep = time.Sleep
	}
	if app.Logger == nil {
		app.Logger = zap.NewNop()
		if app.Verbose {
			l, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			app.Logger = l
		}
	}
	if app.SessionPath == "" {
		p, err := auth.DefaultSessionPath()
		if err != nil {
			return fmt.Errorf("resolve session path: %w", err)
		}
		app.SessionPath = p
	}
	return nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (app *App) sessions() *auth.SessionStore {
	return auth.NewSessionStore(app.SessionPath)
}

func (app *App) api() *client.API {
	return client.NewAPI(app.Server, app.HTTP)
}

func (app *App) today() civil.Date {
	return civil.DateOf(app.now())
}

// session returns the signed-in user or a hint to run login.
func (app *App) session() (auth.Session, error) {
	sess, err := app.sessions().Load()
	if errors.Is(err, auth.ErrNoSession) {
		return sess, errors.New("not signed in, run: todoctl login <name>")
	}
	return sess, err
}

// workspace is one signed-in user's view of the shared list, with the
// optimistic engine running on top of it.
type workspace struct {
	user   string
	api    *client.API
	snap   client.Snapshot
	engine *client.Engine
	pool   *worker.Pool

	mu     sync.Mutex
	failed []error
}

func (app *App) open(ctx context.Context) (*workspace, error) {
	sess, err := app.session()
	if err != nil {
		return nil, err
	}
	api := app.api().As(sess.UserName)
	snap, err := api.LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}

	pool := worker.NewPool(app.Logger, 2)
	pool.Start(ctx)

	ws := &workspace{user: sess.UserName, api: api, snap: snap, pool: pool}
	ws.engine = client.NewEngine(client.NewCollection(snap.Todos), api, pool, sess.UserName, app.Logger)
	ws.engine.SetUsers(snap.Users)
	ws.engine.OnError = func(op string, err error) {
		ws.mu.Lock()
		ws.failed = append(ws.failed, fmt.Errorf("%s: %w", op, err))
		ws.mu.Unlock()
	}
	ws.engine.OnCelebrate = func(t model.Todo) {
		fmt.Fprintf(app.Out, "Nice work! %q is done.\n", t.Text)
	}
	return ws, nil
}

// close waits for pending writes and reports any that were rolled back.
func (ws *workspace) close() error {
	ws.engine.Wait()
	ws.pool.Stop()
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return errors.Join(ws.failed...)
}

// resolve finds a task by full id or unique id prefix.
func (ws *workspace) resolve(ref string) (model.Todo, error) {
	ref = strings.TrimSpace(ref)
	var hits []model.Todo
	for _, t := range ws.engine.Todos().Snapshot() {
		if t.ID == ref {
			return t, nil
		}
		if ref != "" && strings.HasPrefix(t.ID, ref) {
			hits = append(hits, t)
		}
	}
	switch len(hits) {
	case 0:
		return model.Todo{}, fmt.Errorf("%w: %s", client.ErrTodoNotFound, ref)
	case 1:
		return hits[0], nil
	default:
		return model.Todo{}, fmt.Errorf("task id %q is ambiguous (%d matches)", ref, len(hits))
	}
}

// mutate opens a workspace, resolves ref and runs fn against the engine.
func (app *App) mutate(cmd *cobra.Command, ref string, fn func(ws *workspace, t model.Todo) error) error {
	ws, err := app.open(cmd.Context())
	if err != nil {
		return err
	}
	t, err := ws.resolve(ref)
	if err == nil {
		err = fn(ws, t)
	}
	return errors.Join(err, ws.close())
}

func parseDue(s string) (*civil.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "none" {
		return nil, nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("due date must be YYYY-MM-DD: %w", err)
	}
	return &d, nil
}
