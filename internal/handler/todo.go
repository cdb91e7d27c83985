package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/shared-todo/internal/model"
	"github.com/BuzzLyutic/shared-todo/internal/service"
	"github.com/BuzzLyutic/shared-todo/pkg/respond"
)

type TodoHandler struct {
	service *service.TodoService
	logger  *zap.Logger
}

func NewTodoHandler(srv *service.TodoService, logger *zap.Logger) *TodoHandler {
	return &TodoHandler{
		service: srv,
		logger:  logger,
	}
}

func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.Todo
	if !decode(w, r, h.logger, &req) {
		return
	}
	if a := actor(r); a != "" {
		req.CreatedBy = a
	}

	todo, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/todos/%s", todo.ID))
	respond.OK(w, r, http.StatusCreated, map[string]interface{}{"todo": todo})
}

func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	todo, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.OK(w, r, http.StatusOK, map[string]interface{}{"todo": todo})
}

func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter model.TodoFilter
	q := r.URL.Query()
	if assignee := q.Get("assigned_to"); assignee != "" {
		filter.AssignedTo = &assignee
	}
	if status := q.Get("status"); status != "" {
		s := model.Status(status)
		filter.Status = &s
	}

	limit, _ := strconv.Atoi(q.Get("limit"))

	todos, err := h.service.List(r.Context(), filter, limit)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.OK(w, r, http.StatusOK, map[string]interface{}{"todos": todos})
}

func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.TodoPatch
	if !decode(w, r, h.logger, &patch) {
		return
	}
	if a := actor(r); a != "" {
		patch.UpdatedBy = a
	}

	todo, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.OK(w, r, http.StatusOK, map[string]interface{}{"todo": todo})
}

func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), actor(r)); err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.OK(w, r, http.StatusOK, nil)
}

func (h *TodoHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		h.handleErrors(w, r, err)
		return
	}
	respond.OK(w, r, http.StatusOK, map[string]interface{}{"stats": stats})
}

func (h *TodoHandler) handleErrors(w http.ResponseWriter, r *http.Request, err error) {
	handleErrors(w, r, h.logger, err)
}
