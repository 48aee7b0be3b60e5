package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/safar/store-admin/internal/models"
)

type Updates struct {
	mu      sync.RWMutex
	updates []*models.Update
}

func NewUpdates() *Updates {
	return &Updates{}
}

func (s *Updates) Create(ctx context.Context, u *models.Update) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()

	c := *u
	s.updates = append(s.updates, &c)
	return nil
}

// List returns updates newest first.
func (s *Updates) List(ctx context.Context) ([]*models.Update, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Update, 0, len(s.updates))
	for _, u := range slices.Backward(s.updates) {
		c := *u
		out = append(out, &c)
	}
	return out, nil
}
