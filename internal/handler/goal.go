package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/shared-todo/internal/model"
	"github.com/BuzzLyutic/shared-todo/internal/service"
	"github.com/BuzzLyutic/shared-todo/pkg/respond"
)

type GoalHandler struct {
	service *service.GoalService
	logger  *zap.Logger
}

func NewGoalHandler(srv *service.GoalService, logger *zap.Logger) *GoalHandler {
	return &GoalHandler{service: srv, logger: logger}
}

func (h *GoalHandler) ListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.service.ListGoals(r.Context())
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.OK(w, r, http.StatusOK, map[string]interface{}{"goals": goals})
}

// SaveGoal creates on POST and updates the goal named in the path on PUT.
func (h *GoalHandler) SaveGoal(w http.ResponseWriter, r *http.Request) {
	var g model.Goal
	if !decode(w, r, h.logger, &g) {
		return
	}
	g.ID = chi.URLParam(r, "id")
	if a := actor(r); a != "" && g.ID == "" {
		g.CreatedBy = a
	}

	saved, err := h.service.SaveGoal(r.Context(), g)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.OK(w, r, created(g.ID), map[string]interface{}{"goal": saved})
}

func (h *GoalHandler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteGoal(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.OK(w, r, http.StatusOK, nil)
}

func (h *GoalHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.service.ListCategories(r.Context())
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.OK(w, r, http.StatusOK, map[string]interface{}{"categories": cats})
}

func (h *GoalHandler) SaveCategory(w http.ResponseWriter, r *http.Request) {
	var c model.GoalCategory
	if !decode(w, r, h.logger, &c) {
		return
	}
	c.ID = chi.URLParam(r, "id")

	saved, err := h.service.SaveCategory(r.Context(), c)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.OK(w, r, created(c.ID), map[string]interface{}{"category": saved})
}

func (h *GoalHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.OK(w, r, http.StatusOK, nil)
}

func (h *GoalHandler) ListMilestones(w http.ResponseWriter, r *http.Request) {
	ms, err := h.service.ListMilestones(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.OK(w, r, http.StatusOK, map[string]interface{}{"milestones": ms})
}

// CreateMilestone adds a milestone to the goal in the path.
func (h *GoalHandler) CreateMilestone(w http.ResponseWriter, r *http.Request) {
	var m model.Milestone
	if !decode(w, r, h.logger, &m) {
		return
	}
	m.ID = ""
	m.GoalID = chi.URLParam(r, "id")
	h.saveMilestone(w, r, m, http.StatusCreated)
}

func (h *GoalHandler) UpdateMilestone(w http.ResponseWriter, r *http.Request) {
	var m model.Milestone
	if !decode(w, r, h.logger, &m) {
		return
	}
	m.ID = chi.URLParam(r, "id")
	h.saveMilestone(w, r, m, http.StatusOK)
}

func (h *GoalHandler) saveMilestone(w http.ResponseWriter, r *http.Request, m model.Milestone, code int) {
	saved, err := h.service.SaveMilestone(r.Context(), m)
	if err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.OK(w, r, code, map[string]interface{}{"milestone": saved})
}

func (h *GoalHandler) DeleteMilestone(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteMilestone(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleErrors(w, r, h.logger, err)
		return
	}
	respond.OK(w, r, http.StatusOK, nil)
}

func created(id string) int {
	if id == "" {
		return http.StatusCreated
	}
	return http.StatusOK
}
