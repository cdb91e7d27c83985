package respond

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var got map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	return got
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, httptest.NewRequest(http.MethodGet, "/health", nil), http.StatusOK, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]interface{}{"status": "ok"}, decodeBody(t, w))
}

func TestOK(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		fields   map[string]interface{}
		wantBody map[string]interface{}
	}{
		{
			name:     "single task",
			code:     http.StatusCreated,
			fields:   map[string]interface{}{"todo": map[string]string{"id": "a", "text": "Buy milk"}},
			wantBody: map[string]interface{}{"success": true, "todo": map[string]interface{}{"id": "a", "text": "Buy milk"}},
		},
		{
			name:     "list with count",
			code:     http.StatusOK,
			fields:   map[string]interface{}{"users": []string{"alice", "bob"}, "count": 2},
			wantBody: map[string]interface{}{"success": true, "users": []interface{}{"alice", "bob"}, "count": float64(2)},
		},
		{
			name:     "acknowledgement only",
			code:     http.StatusOK,
			fields:   nil,
			wantBody: map[string]interface{}{"success": true},
		},
		{
			name:     "success flag is forced",
			code:     http.StatusOK,
			fields:   map[string]interface{}{"success": false},
			wantBody: map[string]interface{}{"success": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			OK(w, httptest.NewRequest(http.MethodPost, "/api/todos", nil), tt.code, tt.fields)

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.wantBody, decodeBody(t, w))
		})
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		message string
	}{
		{"validation", http.StatusBadRequest, "pin must be exactly 4 digits"},
		{"wrong pin", http.StatusUnauthorized, "wrong pin"},
		{"duplicate user", http.StatusConflict, "user already exists"},
		{"ai disabled", http.StatusServiceUnavailable, "AI features are not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			Error(w, httptest.NewRequest(http.MethodGet, "/", nil), tt.code, tt.message)

			assert.Equal(t, tt.code, w.Code)
			got := decodeBody(t, w)
			assert.Equal(t, tt.message, got["error"])
			assert.NotContains(t, got, "success")
		})
	}
}
