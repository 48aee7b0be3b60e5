// Package bulletin publishes system-update announcements.
package bulletin

import (
	"context"
	"strings"

	"github.com/safar/store-admin/internal/models"
	"github.com/safar/store-admin/internal/validation"
)

type UpdateStore interface {
	Create(ctx context.Context, u *models.Update) error
	List(ctx context.Context) ([]*models.Update, error)
}

type UpdateInput struct {
	Title string `json:"title" validate:"required,max=200"`
	Body  string `json:"body" validate:"required"`
}

type Service struct {
	updates UpdateStore
}

func NewService(updates UpdateStore) *Service {
	return &Service{updates: updates}
}

func (s *Service) Post(ctx context.Context, in UpdateInput) (*models.Update, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Body = strings.TrimSpace(in.Body)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	u := &models.Update{Title: in.Title, Body: in.Body}
	if err := s.updates.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// List returns announcements newest first.
func (s *Service) List(ctx context.Context) ([]*models.Update, error) {
	return s.updates.List(ctx)
}
