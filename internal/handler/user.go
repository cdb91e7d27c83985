package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/shared-todo/internal/model"
	"github.com/BuzzLyutic/shared-todo/internal/service"
	"github.com/BuzzLyutic/shared-todo/pkg/respond"
)

type UserHandler struct {
	service *service.UserService
	logger  *zap.Logger
}

func NewUserHandler(srv *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{service: srv, logger: logger}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.OK(w, r, http.StatusOK, map[string]interface{}{"users": users})
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	h.logger.Info("User registered", zap.String("user", user.Name))
	respond.OK(w, r, http.StatusCreated, map[string]interface{}{"user": user})
}

// Login verifies a PIN. Lockout is enforced by the client; the server only answers yes or no.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	user, err := h.service.Login(r.Context(), req)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.OK(w, r, http.StatusOK, map[string]interface{}{"user": user})
}

func (h *UserHandler) MarkWelcomed(w http.ResponseWriter, r *http.Request) {
	if err := h.service.MarkWelcomed(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.OK(w, r, http.StatusOK, nil)
}
