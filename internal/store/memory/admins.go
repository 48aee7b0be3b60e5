package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/safar/store-admin/internal/database"
	"github.com/safar/store-admin/internal/models"
)

type Admins struct {
	mu      sync.RWMutex
	byID    map[string]*models.Admin
	byEmail map[string]string
}

func NewAdmins() *Admins {
	return &Admins{
		byID:    make(map[string]*models.Admin),
		byEmail: make(map[string]string),
	}
}

func (s *Admins) Create(ctx context.Context, a *models.Admin) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.Email = strings.ToLower(a.Email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[a.Email]; taken {
		return database.ErrEmailTaken
	}

	a.CreatedAt = time.Now().UTC()
	c := *a
	s.byID[a.ID] = &c
	s.byEmail[a.Email] = a.ID
	return nil
}

func (s *Admins) Get(ctx context.Context, id string) (*models.Admin, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[id]
	if !ok {
		return nil, database.ErrAdminNotFound
	}
	c := *a
	return &c, nil
}

func (s *Admins) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	s.mu.RLock()
	id, ok := s.byEmail[strings.ToLower(email)]
	s.mu.RUnlock()
	if !ok {
		return nil, database.ErrAdminNotFound
	}
	return s.Get(ctx, id)
}
