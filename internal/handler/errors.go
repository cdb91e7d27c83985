package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/shared-todo/internal/ai"
	"github.com/BuzzLyutic/shared-todo/internal/repo"
	"github.com/BuzzLyutic/shared-todo/internal/service"
	"github.com/BuzzLyutic/shared-todo/pkg/respond"
)

// ActorHeader carries the name of the signed-in user making the request.
const ActorHeader = "X-User-Name"

func actor(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(ActorHeader))
}

func decode(w http.ResponseWriter, r *http.Request, logger *zap.Logger, v interface{}) bool {
	if r.ContentLength == 0 {
		respond.Error(w, r, http.StatusBadRequest, "empty request body")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(w, r, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		logger.Debug("failed to decode json", zap.Error(err))
		respond.Error(w, r, http.StatusBadRequest, fmt.Sprintf("invalid json: %v", err))
		return false
	}
	return true
}

func handleErrors(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, repo.ErrorNotFound):
		respond.Error(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, repo.ErrorConflict):
		respond.Error(w, r, http.StatusConflict, "conflict")
	case errors.Is(err, service.ErrWrongPin):
		respond.Error(w, r, http.StatusUnauthorized, "wrong pin")
	case errors.Is(err, service.ErrValidation), errors.Is(err, repo.ErrorInvalid):
		respond.Error(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, ai.ErrUnsupportedFile):
		respond.Error(w, r, http.StatusBadRequest, err.Error())
	default:
		logger.Error("internal error", zap.String("path", r.URL.Path), zap.Error(err))
		respond.Error(w, r, http.StatusInternalServerError, "internal error")
	}
}
