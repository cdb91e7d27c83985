package service

import (
	"context"
	"time"

	"github.com/BuzzLyutic/shared-todo/internal/model"
	"github.com/BuzzLyutic/shared-todo/internal/repo"
)

type ActivityService struct {
	repo repo.ActivityRepository
	now  func() time.Time
}

func NewActivityService(activity repo.ActivityRepository) *ActivityService {
	return &ActivityService{repo: activity, now: time.Now}
}

func (s *ActivityService) List(ctx context.Context, filter model.ActivityFilter, limit int) ([]model.ActivityEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.List(ctx, filter, limit)
}

// Purge deletes entries older than retentionDays. Zero or negative keeps everything.
func (s *ActivityService) Purge(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := s.now().AddDate(0, 0, -retentionDays)
	return s.repo.PurgeBefore(ctx, cutoff)
}
