package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/shared-todo/internal/auth"
	"github.com/BuzzLyutic/shared-todo/internal/model"
)

var testNow = time.Date(2024, time.January, 10, 9, 0, 0, 0, time.UTC)

// fakeServer is an in-memory stand-in for the HTTP API.
type fakeServer struct {
	mu        sync.Mutex
	todos     []model.Todo
	users     []model.User
	failPatch bool
	patches   []model.TodoPatch
	welcomed  int
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/todos", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "todos": f.todos})
	})
	mux.HandleFunc("POST /api/todos", func(w http.ResponseWriter, r *http.Request) {
		var td model.Todo
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&td))
		f.mu.Lock()
		f.todos = append([]model.Todo{td}, f.todos...)
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]any{"success": true, "todo": td})
	})
	mux.HandleFunc("PATCH /api/todos/{id}", func(w http.ResponseWriter, r *http.Request) {
		var p model.TodoPatch
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failPatch {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database unavailable"})
			return
		}
		f.patches = append(f.patches, p)
		for i := range f.todos {
			if f.todos[i].ID == r.PathValue("id") {
				f.todos[i] = p.ApplyTo(f.todos[i])
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	mux.HandleFunc("DELETE /api/todos/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		out := f.todos[:0]
		for _, td := range f.todos {
			if td.ID != r.PathValue("id") {
				out = append(out, td)
			}
		}
		f.todos = out
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	mux.HandleFunc("GET /api/users", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "users": f.users})
	})
	mux.HandleFunc("GET /api/templates", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "templates": []model.TaskTemplate{
			{ID: "tpl-1", Name: "Weekly clean", DefaultPriority: model.PriorityHigh, CreatedBy: "alice",
				Subtasks: []model.TemplateSubtask{{Text: "Vacuum"}, {Text: "Dust"}}},
		}})
	})
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req model.LoginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Pin != "1234" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "wrong pin"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": model.User{ID: "u-alice", Name: "alice"}})
	})
	mux.HandleFunc("POST /api/users/{id}/welcome", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.welcomed++
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	})
	return mux
}

type harness struct {
	t       *testing.T
	fake    *fakeServer
	url     string
	session string
	out     bytes.Buffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	f := &fakeServer{users: []model.User{{ID: "u-alice", Name: "alice"}, {ID: "u-bob", Name: "bob"}}}
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return &harness{t: t, fake: f, url: srv.URL, session: filepath.Join(t.TempDir(), "session.json")}
}

func (h *harness) signIn(name string) {
	h.t.Helper()
	require.NoError(h.t, auth.NewSessionStore(h.session).Save(auth.Session{UserID: "u-" + name, UserName: name, LoggedInAt: testNow}))
}

func (h *harness) run(stdin string, args ...string) error {
	h.out.Reset()
	app := &App{
		In:    strings.NewReader(stdin),
		Out:   &h.out,
		now:   func() time.Time { return testNow },
		sleep: func(time.Duration) {},
	}
	cmd := newRootCmd(app)
	cmd.SetArgs(append([]string{"--server", h.url, "--session", h.session}, args...))
	cmd.SetOut(&h.out)
	cmd.SetErr(&h.out)
	return cmd.Execute()
}

func (h *harness) stored() []model.Todo {
	h.fake.mu.Lock()
	defer h.fake.mu.Unlock()
	return append([]model.Todo(nil), h.fake.todos...)
}

func TestLogin_SavesSessionAndWelcomes(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run("", "login", "alice", "--pin", "1234"))
	assert.Contains(t, h.out.String(), "Signed in as alice")
	assert.Contains(t, h.out.String(), "Welcome back, alice!")
	assert.Equal(t, 1, h.fake.welcomed)

	require.NoError(t, h.run("", "whoami"))
	assert.Contains(t, h.out.String(), "alice")

	require.NoError(t, h.run("", "logout"))
	err := h.run("", "whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not signed in")
}

func TestLogin_InteractiveLockout(t *testing.T) {
	h := newHarness(t)

	err := h.run("12\n9999\n9999\n9999\n", "login", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login aborted")

	out := h.out.String()
	assert.Contains(t, out, "PIN must be exactly 4 digits.")
	assert.Contains(t, out, "Wrong PIN, 2 attempts remaining.")
	assert.Contains(t, out, "Wrong PIN, 1 attempts remaining.")
	assert.Contains(t, out, "Too many attempts.")
	assert.Contains(t, out, "Locked, try again in 30s")
	assert.Contains(t, out, "Locked, try again in  1s")

	_, err = auth.NewSessionStore(h.session).Load()
	assert.ErrorIs(t, err, auth.ErrNoSession)
}

func TestLogin_UnknownUser(t *testing.T) {
	h := newHarness(t)
	err := h.run("", "login", "mallory", "--pin", "1234")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user not found")
}

func TestCommands_RequireSession(t *testing.T) {
	h := newHarness(t)
	err := h.run("", "add", "Buy milk")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not signed in")
}

func TestAdd_PersistsTask(t *testing.T) {
	h := newHarness(t)
	h.signIn("alice")

	require.NoError(t, h.run("", "add", "Buy", "milk", "-p", "high", "--due", "2024-01-12",
		"--assign", "bob", "--recur", "weekly", "-s", "Oat", "-s", "Whole"))
	assert.Contains(t, h.out.String(), "Added ")

	stored := h.stored()
	require.Len(t, stored, 1)
	td := stored[0]
	assert.Equal(t, "Buy milk", td.Text)
	assert.Equal(t, model.PriorityHigh, td.Priority)
	assert.Equal(t, "2024-01-12", td.DueDate.String())
	assert.Equal(t, "bob", td.AssignedTo)
	assert.Equal(t, "alice", td.CreatedBy)
	assert.Equal(t, model.RecurrenceWeekly, td.Recurrence)
	require.Len(t, td.Subtasks, 2)
	assert.NotEmpty(t, td.Subtasks[0].ID)
}

func TestAdd_Validation(t *testing.T) {
	h := newHarness(t)
	h.signIn("alice")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"empty text", []string{"add", "   "}, "text is required"},
		{"bad priority", []string{"add", "x", "-p", "asap"}, "unknown priority"},
		{"bad date", []string{"add", "x", "--due", "tomorrow"}, "YYYY-MM-DD"},
		{"unknown assignee", []string{"add", "x", "--assign", "carol"}, "carol"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.run("", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	assert.Empty(t, h.stored())
}

func TestAdd_FromTemplate(t *testing.T) {
	h := newHarness(t)
	h.signIn("alice")

	require.NoError(t, h.run("", "add", "--template", "weekly CLEAN"))
	stored := h.stored()
	require.Len(t, stored, 1)
	assert.Equal(t, "Weekly clean", stored[0].Text)
	assert.Equal(t, model.PriorityHigh, stored[0].Priority)
	assert.Len(t, stored[0].Subtasks, 2)
}

func TestToggle_RecurringCreatesNext(t *testing.T) {
	h := newHarness(t)
	h.signIn("alice")
	due := testNow
	h.fake.todos = []model.Todo{{
		ID: "11111111-aaaa", Text: "Water plants", Status: model.StatusTodo, Priority: model.PriorityMedium,
		CreatedBy: "bob", Recurrence: model.RecurrenceWeekly, DueDate: civilDate(due), CreatedAt: testNow,
	}}

	require.NoError(t, h.run("", "done", "1111"))
	assert.Contains(t, h.out.String(), `Nice work! "Water plants" is done.`)

	stored := h.stored()
	require.Len(t, stored, 2)
	var next model.Todo
	for _, td := range stored {
		if td.ID == "11111111-aaaa" {
			assert.True(t, td.Completed)
			assert.Equal(t, "alice", td.UpdatedBy)
		} else {
			next = td
		}
	}
	assert.Equal(t, "Water plants", next.Text)
	assert.False(t, next.Completed)
	assert.Equal(t, "2024-01-17", next.DueDate.String())
}

func TestMutation_RollbackReported(t *testing.T) {
	h := newHarness(t)
	h.signIn("alice")
	h.fake.todos = []model.Todo{{ID: "22222222-bbbb", Text: "Fix sink", Status: model.StatusTodo,
		Priority: model.PriorityLow, CreatedBy: "alice", CreatedAt: testNow}}
	h.fake.failPatch = true

	err := h.run("", "priority", "2222", "urgent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set_priority")
	assert.Contains(t, err.Error(), "database unavailable")
	assert.Equal(t, model.PriorityLow, h.stored()[0].Priority)
}

func TestResolve_PrefixRules(t *testing.T) {
	h := newHarness(t)
	h.signIn("alice")
	h.fake.todos = []model.Todo{
		{ID: "abc-1", Text: "one", Status: model.StatusTodo, Priority: model.PriorityLow, CreatedBy: "alice"},
		{ID: "abc-2", Text: "two", Status: model.StatusTodo, Priority: model.PriorityLow, CreatedBy: "alice"},
	}

	err := h.run("", "rm", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")

	err = h.run("", "rm", "zzz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task not found")

	require.NoError(t, h.run("", "rm", "abc-2"))
	assert.Contains(t, h.out.String(), "Deleted two")
	require.Len(t, h.stored(), 1)
}

func TestList_FiltersAndCounts(t *testing.T) {
	h := newHarness(t)
	h.signIn("alice")
	yesterday := testNow.AddDate(0, 0, -1)
	h.fake.todos = []model.Todo{
		{ID: "t1", Text: "Pay rent", Status: model.StatusTodo, Priority: model.PriorityUrgent, CreatedBy: "bob", DueDate: civilDate(yesterday)},
		{ID: "t2", Text: "Call mom", Status: model.StatusTodo, Priority: model.PriorityMedium, CreatedBy: "bob", AssignedTo: "alice"},
		{ID: "t3", Text: "Old chore", Status: model.StatusDone, Completed: true, Priority: model.PriorityUrgent, CreatedBy: "bob"},
	}

	require.NoError(t, h.run("", "list", "--filter", "urgent"))
	out := h.out.String()
	assert.Contains(t, out, "Pay rent")
	assert.Contains(t, out, "(overdue)")
	assert.NotContains(t, out, "Call mom")
	assert.NotContains(t, out, "Old chore")
	assert.Contains(t, out, "all 2 | my_tasks 1 | due_today 0 | overdue 1 | *urgent 1")

	require.NoError(t, h.run("", "list", "--board"))
	out = h.out.String()
	assert.Contains(t, out, "== TO DO (2)")
	assert.Contains(t, out, "== DONE (1)")

	require.Error(t, h.run("", "list", "--sort", "random"))
}

func TestFindTemplate(t *testing.T) {
	tt := []model.TaskTemplate{{ID: "aa11", Name: "Laundry"}, {ID: "aa22", Name: "Dishes"}}

	got, err := findTemplate(tt, "laundry")
	require.NoError(t, err)
	assert.Equal(t, "aa11", got.ID)

	got, err = findTemplate(tt, "aa2")
	require.NoError(t, err)
	assert.Equal(t, "Dishes", got.Name)

	_, err = findTemplate(tt, "aa")
	assert.ErrorContains(t, err, "ambiguous")
	_, err = findTemplate(tt, "cooking")
	assert.ErrorContains(t, err, "not found")
}

func TestFormatActivity(t *testing.T) {
	e := model.ActivityEntry{
		Action:    model.ActionTaskReassigned,
		TodoText:  "Mow lawn",
		UserName:  "alice",
		Details:   map[string]string{"to": "bob", "from": "alice"},
		CreatedAt: testNow,
	}
	got := formatActivity(e)
	assert.Contains(t, got, "alice")
	assert.Contains(t, got, `"Mow lawn"`)
	assert.Contains(t, got, "(from=alice, to=bob)")
}

func civilDate(t time.Time) *civil.Date {
	d := civil.DateOf(t)
	return &d
}
