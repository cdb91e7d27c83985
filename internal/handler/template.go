package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/shared-todo/internal/model"
	"github.com/BuzzLyutic/shared-todo/internal/service"
	"github.com/BuzzLyutic/shared-todo/pkg/respond"
)

type TemplateHandler struct {
	service *service.TemplateService
	logger  *zap.Logger
}

func NewTemplateHandler(srv *service.TemplateService, logger *zap.Logger) *TemplateHandler {
	return &TemplateHandler{service: srv, logger: logger}
}

// List returns shared templates plus the caller's own. The caller comes from
// the actor header or the user query parameter.
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	user := actor(r)
	if user == "" {
		user = r.URL.Query().Get("user")
	}

	templates, err := h.service.List(r.Context(), user)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.OK(w, r, http.StatusOK, map[string]interface{}{"templates": templates})
}

func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.TaskTemplate
	if !decode(w, r, h.logger, &req) {
		return
	}
	req.ID = ""
	if a := actor(r); a != "" {
		req.CreatedBy = a
	}

	tmpl, err := h.service.Create(r.Context(), req)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.OK(w, r, http.StatusCreated, map[string]interface{}{"template": tmpl})
}

func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), actor(r)); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.OK(w, r, http.StatusOK, nil)
}
