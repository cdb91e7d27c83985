package service

import (
	"context"
	"strings"

	"github.com/BuzzLyutic/shared-todo/internal/model"
	"github.com/BuzzLyutic/shared-todo/internal/repo"
)

type GoalService struct {
	repo repo.GoalRepository
}

func NewGoalService(goals repo.GoalRepository) *GoalService {
	return &GoalService{repo: goals}
}

func (s *GoalService) ListCategories(ctx context.Context) ([]model.GoalCategory, error) {
	return s.repo.ListCategories(ctx)
}

func (s *GoalService) SaveCategory(ctx context.Context, c model.GoalCategory) (model.GoalCategory, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := validateStruct(c); err != nil {
		return c, err
	}
	if c.ID == "" {
		return s.repo.CreateCategory(ctx, c)
	}
	return s.repo.UpdateCategory(ctx, c)
}

func (s *GoalService) DeleteCategory(ctx context.Context, id string) error {
	return s.repo.DeleteCategory(ctx, id)
}

func (s *GoalService) ListGoals(ctx context.Context) ([]model.Goal, error) {
	return s.repo.ListGoals(ctx)
}

func (s *GoalService) SaveGoal(ctx context.Context, g model.Goal) (model.Goal, error) {
	g.Title = strings.TrimSpace(g.Title)
	if g.Status == "" {
		g.Status = model.GoalNotStarted
	}
	if g.Priority == "" {
		g.Priority = model.PriorityMedium
	}
	if !g.Priority.Valid() {
		return g, invalid("unknown priority %q", g.Priority)
	}
	if g.Status == model.GoalCompleted {
		g.Progress = 100
	}
	if err := validateStruct(g); err != nil {
		return g, err
	}
	if g.ID == "" {
		return s.repo.CreateGoal(ctx, g)
	}
	return s.repo.UpdateGoal(ctx, g)
}

func (s *GoalService) DeleteGoal(ctx context.Context, id string) error {
	return s.repo.DeleteGoal(ctx, id)
}

func (s *GoalService) ListMilestones(ctx context.Context, goalID string) ([]model.Milestone, error) {
	return s.repo.ListMilestones(ctx, goalID)
}

func (s *GoalService) SaveMilestone(ctx context.Context, m model.Milestone) (model.Milestone, error) {
	m.Title = strings.TrimSpace(m.Title)
	if err := validateStruct(m); err != nil {
		return m, err
	}
	if m.ID == "" {
		if m.GoalID == "" {
			return m, invalid("goal_id is required")
		}
		return s.repo.CreateMilestone(ctx, m)
	}
	return s.repo.UpdateMilestone(ctx, m)
}

func (s *GoalService) DeleteMilestone(ctx context.Context, id string) error {
	return s.repo.DeleteMilestone(ctx, id)
}
