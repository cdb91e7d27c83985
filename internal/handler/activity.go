package handler

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/shared-todo/internal/model"
	"github.com/BuzzLyutic/shared-todo/internal/service"
	"github.com/BuzzLyutic/shared-todo/pkg/respond"
)

type ActivityHandler struct {
	service *service.ActivityService
	logger  *zap.Logger
}

func NewActivityHandler(srv *service.ActivityService, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{service: srv, logger: logger}
}

func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter model.ActivityFilter
	q := r.URL.Query()
	if todoID := q.Get("todo_id"); todoID != "" {
		filter.TodoID = &todoID
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	entries, err := h.service.List(r.Context(), filter, limit)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.OK(w, r, http.StatusOK, map[string]interface{}{"activity": entries})
}
