package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/volunteerhub/volunteer-backend/internal/models"
)

// ActivityService manages the activities service records reference. The
// ledger itself treats activity ids as opaque.
type ActivityService struct {
	store QueryStore
}

func NewActivityService(store QueryStore) *ActivityService {
	return &ActivityService{store: store}
}

func (s *ActivityService) Create(ctx context.Context, title string) (*models.Activity, error) {
	activity := &models.Activity{
		ID:    uuid.New(),
		Title: title,
	}
	if err := s.store.Queries().CreateActivity(ctx, activity); err != nil {
		return nil, err
	}
	return activity, nil
}

func (s *ActivityService) List(ctx context.Context) ([]models.Activity, error) {
	return s.store.Queries().ListActivities(ctx)
}
