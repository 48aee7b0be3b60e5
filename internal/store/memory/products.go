package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/safar/store-admin/internal/database"
	"github.com/safar/store-admin/internal/models"
	"github.com/safar/store-admin/internal/store"
)

// Products is the in-memory products collection and inventory ledger. Stock
// changes hold the write lock across read and write.
type Products struct {
	mu       sync.RWMutex
	products map[string]*models.Product
	now      func() time.Time
}

func NewProducts() *Products {
	return &Products{
		products: make(map[string]*models.Product),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Products) Create(ctx context.Context, p *models.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.products[p.ID] = p.Clone()
	return nil
}

func (s *Products) Get(ctx context.Context, id string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, database.ErrProductNotFound
	}
	return p.Clone(), nil
}

func (s *Products) Update(ctx context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[p.ID]
	if !ok {
		return database.ErrProductNotFound
	}

	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now()
	s.products[p.ID] = p.Clone()
	return nil
}

func (s *Products) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return database.ErrProductNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *Products) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.products)), nil
}

func (s *Products) List(ctx context.Context, page, pageSize int) (*store.OffsetPage, error) {
	s.mu.RLock()
	all := make([]*models.Product, 0, len(s.products))
	for _, p := range s.products {
		all = append(all, p.Clone())
	}
	s.mu.RUnlock()

	slices.SortFunc(all, func(a, b *models.Product) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})

	total := int64(len(all))
	start := min((page-1)*pageSize, len(all))
	end := min(start+pageSize, len(all))

	return &store.OffsetPage{
		Items:      all[start:end],
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: store.TotalPages(total, pageSize),
	}, nil
}

func (s *Products) DecrementStock(ctx context.Context, id string, amount int) (int, error) {
	if amount <= 0 {
		return 0, database.ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return 0, database.ErrProductNotFound
	}

	next := max(0, p.Quantity-amount)
	applied := p.Quantity - next
	p.Quantity = next
	p.UpdatedAt = s.now()
	return applied, nil
}

func (s *Products) RestoreStock(ctx context.Context, id string, amount int) error {
	if amount <= 0 {
		return database.ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return database.ErrProductNotFound
	}

	p.Quantity += amount
	p.UpdatedAt = s.now()
	return nil
}
