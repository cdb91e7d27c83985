package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuzzLyutic/shared-todo/internal/model"
	"github.com/BuzzLyutic/shared-todo/internal/testutil"
)

func TestUserHandler_RegisterAndLogin(t *testing.T) {
	s := setupServer(t)
	testutil.TruncateTables(t, s.pool)

	w := s.do(t, http.MethodPost, "/api/users", model.RegisterRequest{Name: "alice", Pin: "1234"}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var alice model.User
	field(t, w, "user", &alice)
	assert.NotEmpty(t, alice.Color)
	assert.NotContains(t, w.Body.String(), "pin_hash")

	tests := []struct {
		name     string
		method   string
		path     string
		body     interface{}
		wantCode int
	}{
		{"duplicate name", http.MethodPost, "/api/users", model.RegisterRequest{Name: "alice", Pin: "9999"}, http.StatusConflict},
		{"bad pin format", http.MethodPost, "/api/users", model.RegisterRequest{Name: "bob", Pin: "12a4"}, http.StatusBadRequest},
		{"wrong pin", http.MethodPost, "/api/auth/login", model.LoginRequest{Name: "alice", Pin: "0000"}, http.StatusUnauthorized},
		{"unknown user", http.MethodPost, "/api/auth/login", model.LoginRequest{Name: "zed", Pin: "1234"}, http.StatusNotFound},
		{"correct pin", http.MethodPost, "/api/auth/login", model.LoginRequest{Name: "alice", Pin: "1234"}, http.StatusOK},
		{"welcome", http.MethodPost, "/api/users/" + alice.ID + "/welcome", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.body, "")
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
		})
	}

	var users []model.User
	field(t, s.do(t, http.MethodGet, "/api/users", nil, ""), "users", &users)
	require.Len(t, users, 1)
	assert.NotNil(t, users[0].LastLogin)
	assert.NotNil(t, users[0].LastWelcomeAt)
}

func TestTemplateHandler(t *testing.T) {
	s := setupServer(t)
	testutil.TruncateTables(t, s.pool)

	body := model.TaskTemplate{
		Name:     "Weekly clean",
		Subtasks: []model.TemplateSubtask{{Text: "vacuum"}, {Text: "mop"}},
	}
	w := s.do(t, http.MethodPost, "/api/templates", body, "alice")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var tmpl model.TaskTemplate
	field(t, w, "template", &tmpl)
	assert.Equal(t, "alice", tmpl.CreatedBy)
	assert.Len(t, tmpl.Subtasks, 2)

	var mine []model.TaskTemplate
	field(t, s.do(t, http.MethodGet, "/api/templates", nil, "alice"), "templates", &mine)
	assert.Len(t, mine, 1)

	var theirs []model.TaskTemplate
	field(t, s.do(t, http.MethodGet, "/api/templates?user=bob", nil, ""), "templates", &theirs)
	assert.Empty(t, theirs)

	w = s.do(t, http.MethodDelete, "/api/templates/"+tmpl.ID, nil, "bob")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/api/templates/"+tmpl.ID, nil, "alice")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGoalHandler(t *testing.T) {
	s := setupServer(t)
	testutil.TruncateTables(t, s.pool)

	w := s.do(t, http.MethodPost, "/api/goals/categories", model.GoalCategory{Name: "Health", Color: "#00ff00"}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var cat model.GoalCategory
	field(t, w, "category", &cat)

	w = s.do(t, http.MethodPost, "/api/goals", model.Goal{Title: "Run a marathon", CategoryID: &cat.ID}, "alice")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var goal model.Goal
	field(t, w, "goal", &goal)
	assert.Equal(t, model.GoalNotStarted, goal.Status)

	goal.Status = model.GoalCompleted
	w = s.do(t, http.MethodPut, "/api/goals/"+goal.ID, goal, "alice")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	field(t, w, "goal", &goal)
	assert.Equal(t, 100, goal.Progress)

	w = s.do(t, http.MethodPost, "/api/goals/"+goal.ID+"/milestones", model.Milestone{Title: "First 10k"}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var ms model.Milestone
	field(t, w, "milestone", &ms)
	assert.Equal(t, goal.ID, ms.GoalID)

	ms.Completed = true
	w = s.do(t, http.MethodPut, "/api/goals/milestones/"+ms.ID, ms, "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var list []model.Milestone
	field(t, s.do(t, http.MethodGet, "/api/goals/"+goal.ID+"/milestones", nil, ""), "milestones", &list)
	require.Len(t, list, 1)
	assert.True(t, list[0].Completed)

	w = s.do(t, http.MethodPost, "/api/goals", model.Goal{Title: "", CreatedBy: "alice"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/api/goals/milestones/"+ms.ID, nil, "").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/api/goals/"+goal.ID, nil, "").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/api/goals/categories/"+cat.ID, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/goals/"+goal.ID, nil, "").Code)
}
