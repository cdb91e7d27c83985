package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/shared-todo/internal/model"
	"github.com/BuzzLyutic/shared-todo/internal/repo"
)

type TemplateService struct {
	repo     repo.TemplateRepository
	activity repo.ActivityRepository
	logger   *zap.Logger
}

func NewTemplateService(templates repo.TemplateRepository, activity repo.ActivityRepository, logger *zap.Logger) *TemplateService {
	return &TemplateService{repo: templates, activity: activity, logger: logger}
}

func (s *TemplateService) Create(ctx context.Context, t model.TaskTemplate) (model.TaskTemplate, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.DefaultPriority == "" {
		t.DefaultPriority = model.PriorityMedium
	}
	if !t.DefaultPriority.Valid() {
		return t, invalid("unknown priority %q", t.DefaultPriority)
	}
	for i := range t.Subtasks {
		t.Subtasks[i].Priority = model.CoercePriority(string(t.Subtasks[i].Priority))
	}
	if err := validateStruct(t); err != nil {
		return t, err
	}

	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return created, err
	}
	s.log(ctx, model.ActivityEntry{
		Action:   model.ActionTemplateCreated,
		UserName: created.CreatedBy,
		Details:  map[string]string{"template": created.Name},
	})
	return created, nil
}

func (s *TemplateService) Get(ctx context.Context, id string) (model.TaskTemplate, error) {
	return s.repo.Get(ctx, id)
}

func (s *TemplateService) List(ctx context.Context, userName string) ([]model.TaskTemplate, error) {
	return s.repo.List(ctx, userName)
}

// Delete removes a template. Only its creator may delete it.
func (s *TemplateService) Delete(ctx context.Context, id, actor string) error {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if actor != "" && t.CreatedBy != actor {
		return invalid("only %s can delete this template", t.CreatedBy)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log(ctx, model.ActivityEntry{
		Action:   model.ActionTemplateDeleted,
		UserName: actorOr(actor, t.CreatedBy),
		Details:  map[string]string{"template": t.Name},
	})
	return nil
}

func (s *TemplateService) log(ctx context.Context, e model.ActivityEntry) {
	if err := s.activity.Append(ctx, e); err != nil {
		s.logger.Warn("failed to write activity", zap.String("action", string(e.Action)), zap.Error(err))
	}
}
