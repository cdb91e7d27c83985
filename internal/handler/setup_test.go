package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/shared-todo/internal/ai"
	"github.com/BuzzLyutic/shared-todo/internal/realtime"
	"github.com/BuzzLyutic/shared-todo/internal/repo"
	"github.com/BuzzLyutic/shared-todo/internal/service"
	"github.com/BuzzLyutic/shared-todo/internal/testutil"
)

type testServer struct {
	pool    *pgxpool.Pool
	hub     *realtime.Hub
	todos   *repo.TodoRepo
	handler http.Handler
}

func newRouter(pool *pgxpool.Pool, hub *realtime.Hub, parser ai.Parser, aiRate int) (http.Handler, *repo.TodoRepo) {
	logger := zap.NewNop()
	todoRepo := repo.NewTodoRepo(pool)
	userRepo := repo.NewUserRepo(pool)
	activityRepo := repo.NewActivityRepo(pool)

	return NewRouter(Deps{
		Todos:        NewTodoHandler(service.NewTodoService(todoRepo, userRepo, activityRepo, logger), logger),
		Users:        NewUserHandler(service.NewUserService(userRepo), logger),
		Templates:    NewTemplateHandler(service.NewTemplateService(repo.NewTemplateRepo(pool), activityRepo, logger), logger),
		Activity:     NewActivityHandler(service.NewActivityService(activityRepo), logger),
		Goals:        NewGoalHandler(service.NewGoalService(repo.NewGoalRepo(pool)), logger),
		AI:           NewAIHandler(parser, logger),
		Hub:          hub,
		AIRatePerMin: aiRate,
		Logger:       logger,
	}), todoRepo
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	pool, cleanup := testutil.SetupTestDB(t)
	t.Cleanup(cleanup)

	hub := realtime.NewHub(zap.NewNop(), 64)
	t.Cleanup(hub.Close)
	h, todos := newRouter(pool, hub, nil, 0)
	return &testServer{pool: pool, hub: hub, todos: todos, handler: h}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, actor string) *httptest.ResponseRecorder {
	t.Helper()
	var buf []byte
	if body != nil {
		var err error
		buf, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(buf)).WithContext(context.Background())
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set(ActorHeader, actor)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

// field decodes one key of a success envelope.
func field(t *testing.T, w *httptest.ResponseRecorder, key string, out interface{}) {
	t.Helper()
	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Equal(t, "true", string(env["success"]), w.Body.String())
	require.Contains(t, env, key)
	require.NoError(t, json.Unmarshal(env[key], out))
}
