package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/BuzzLyutic/shared-todo/internal/ai"
	"github.com/BuzzLyutic/shared-todo/internal/model"
)

// ActorHeader names the user a request acts on behalf of.
const ActorHeader = "X-User-Name"

// API talks to the shared-todo server over HTTP.
type API struct {
	base  string
	http  *http.Client
	actor string
}

func NewAPI(base string, hc *http.Client) *API {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &API{base: strings.TrimRight(base, "/"), http: hc}
}

// As returns a copy of the client that acts as user.
func (a *API) As(user string) *API {
	c := *a
	c.actor = user
	return &c
}

func (a *API) BaseURL() string { return a.base }

// do sends a JSON request and, when out is non-nil, decodes the envelope field key into it.
func (a *API) do(ctx context.Context, method, path string, body any, key string, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.actor != "" {
		req.Header.Set(ActorHeader, a.actor)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	field, ok := envelope[key]
	if !ok {
		return fmt.Errorf("response has no %q field", key)
	}
	return json.Unmarshal(field, out)
}

func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func (a *API) InsertTodo(ctx context.Context, t model.Todo) error {
	return a.do(ctx, http.MethodPost, "/api/todos", t, "", nil)
}

func (a *API) UpdateTodo(ctx context.Context, id string, patch model.TodoPatch) error {
	return a.do(ctx, http.MethodPatch, "/api/todos/"+url.PathEscape(id), patch, "", nil)
}

func (a *API) DeleteTodo(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, "/api/todos/"+url.PathEscape(id), nil, "", nil)
}

func (a *API) ListTodos(ctx context.Context) ([]model.Todo, error) {
	var todos []model.Todo
	err := a.do(ctx, http.MethodGet, "/api/todos?limit=1000", nil, "todos", &todos)
	return todos, err
}

func (a *API) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := a.do(ctx, http.MethodGet, "/api/users", nil, "users", &users)
	return users, err
}

// FindUser looks a user up by exact name. "alice" and "Alice" are different users.
func (a *API) FindUser(ctx context.Context, name string) (model.User, error) {
	users, err := a.ListUsers(ctx)
	if err != nil {
		return model.User{}, err
	}
	for _, u := range users {
		if u.Name == name {
			return u, nil
		}
	}
	return model.User{}, ErrUserNotFound
}

func (a *API) Register(ctx context.Context, req model.RegisterRequest) (model.User, error) {
	var u model.User
	err := a.do(ctx, http.MethodPost, "/api/users", req, "user", &u)
	return u, err
}

// Login verifies the PIN on the server. A 401 maps to ErrWrongPin, a 404 to ErrUserNotFound.
func (a *API) Login(ctx context.Context, name, pin string) (model.User, error) {
	var u model.User
	err := a.do(ctx, http.MethodPost, "/api/auth/login", model.LoginRequest{Name: name, Pin: pin}, "user", &u)
	switch statusOf(err) {
	case http.StatusUnauthorized:
		return model.User{}, ErrWrongPin
	case http.StatusNotFound:
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

func (a *API) MarkWelcomed(ctx context.Context, userID string) error {
	return a.do(ctx, http.MethodPost, "/api/users/"+url.PathEscape(userID)+"/welcome", nil, "", nil)
}

func (a *API) ListTemplates(ctx context.Context) ([]model.TaskTemplate, error) {
	var tt []model.TaskTemplate
	err := a.do(ctx, http.MethodGet, "/api/templates", nil, "templates", &tt)
	return tt, err
}

func (a *API) CreateTemplate(ctx context.Context, t model.TaskTemplate) (model.TaskTemplate, error) {
	var out model.TaskTemplate
	err := a.do(ctx, http.MethodPost, "/api/templates", t, "template", &out)
	return out, err
}

func (a *API) DeleteTemplate(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, "/api/templates/"+url.PathEscape(id), nil, "", nil)
}

func (a *API) Activity(ctx context.Context, todoID string, limit int) ([]model.ActivityEntry, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if todoID != "" {
		q.Set("todo_id", todoID)
	}
	var entries []model.ActivityEntry
	err := a.do(ctx, http.MethodGet, "/api/activity?"+q.Encode(), nil, "activity", &entries)
	return entries, err
}

func (a *API) SmartParse(ctx context.Context, text string, users []string) (ai.ParsedTask, error) {
	var out ai.ParsedTask
	body := map[string]any{"text": text, "users": users}
	err := a.do(ctx, http.MethodPost, "/api/ai/smart-parse", body, "result", &out)
	return out, err
}

func (a *API) EnhanceTask(ctx context.Context, text string, users []string) (ai.ParsedTask, error) {
	var out ai.ParsedTask
	body := map[string]any{"text": text, "users": users}
	err := a.do(ctx, http.MethodPost, "/api/ai/enhance-task", body, "result", &out)
	return out, err
}

// Snapshot is everything a client needs to start.
type Snapshot struct {
	Todos     []model.Todo
	Users     []model.User
	Templates []model.TaskTemplate
}

// LoadSnapshot fetches todos, users and templates concurrently.
func (a *API) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	var s Snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		s.Todos, err = a.ListTodos(ctx)
		return err
	})
	g.Go(func() (err error) {
		s.Users, err = a.ListUsers(ctx)
		return err
	})
	g.Go(func() (err error) {
		s.Templates, err = a.ListTemplates(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}
