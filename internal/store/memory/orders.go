// Package memory is a process-local implementation of the store collections,
// used by STORE_DRIVER=memory and by tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/safar/store-admin/internal/database"
	"github.com/safar/store-admin/internal/models"
	"github.com/safar/store-admin/internal/store"
)

type Orders struct {
	mu     sync.RWMutex
	orders map[string]*models.Order
	now    func() time.Time
}

func NewOrders() *Orders {
	return &Orders{
		orders: make(map[string]*models.Order),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Orders) Create(ctx context.Context, o *models.Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = models.OrderStatusPending
	}
	if !o.Status.Valid() {
		return fmt.Errorf("create order: invalid status %q", o.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[o.ID]; ok {
		return fmt.Errorf("create order: id %s already exists", o.ID)
	}

	now := s.now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	if o.Items == nil {
		o.Items = []models.LineItem{}
	}

	s.orders[o.ID] = o.Clone()
	return nil
}

func (s *Orders) Fetch(ctx context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, database.ErrOrderNotFound
	}
	return o.Clone(), nil
}

func (s *Orders) SetApproved(ctx context.Context, id string, at time.Time, by string) error {
	return s.mutate(id, func(o *models.Order) {
		o.Status = models.OrderStatusApproved
		o.ApprovedAt = &at
		o.ApprovedBy = by
	})
}

func (s *Orders) SetCancelled(ctx context.Context, id string, at time.Time) error {
	return s.mutate(id, func(o *models.Order) {
		o.Status = models.OrderStatusCancelled
		o.CancelledAt = &at
	})
}

func (s *Orders) Revert(ctx context.Context, id string) error {
	return s.mutate(id, func(o *models.Order) {
		o.Status = models.OrderStatusPending
		o.ApprovedAt = nil
		o.ApprovedBy = ""
		o.CancelledAt = nil
	})
}

func (s *Orders) mutate(id string, fn func(*models.Order)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return database.ErrOrderNotFound
	}
	fn(o)
	o.UpdatedAt = s.now()
	return nil
}

// List mirrors store.Orders.List: newest first, keyset cursor on (created_at, id).
func (s *Orders) List(ctx context.Context, status models.OrderStatus, cursor string, limit int) (*store.CursorPage, error) {
	after, err := store.DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidCursor, err)
	}

	s.mu.RLock()
	matched := make([]*models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if status != "" && o.Status != status {
			continue
		}
		if !before(o.CreatedAt, o.ID, after.CreatedAt, after.ID) {
			continue
		}
		matched = append(matched, o.Clone())
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b *models.Order) int {
		if before(a.CreatedAt, a.ID, b.CreatedAt, b.ID) {
			return 1
		}
		if before(b.CreatedAt, b.ID, a.CreatedAt, a.ID) {
			return -1
		}
		return 0
	})

	hasMore := len(matched) > limit
	if hasMore {
		matched = matched[:limit]
	}

	var nextCursor string
	if hasMore && len(matched) > 0 {
		last := matched[len(matched)-1]
		nextCursor = store.EncodeCursor(store.OrderCursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return &store.CursorPage{
		Items:      matched,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func (s *Orders) TotalsByStatus(ctx context.Context) (map[models.OrderStatus]models.OrderTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[models.OrderStatus]models.OrderTotals)
	for _, o := range s.orders {
		t := totals[o.Status]
		t.Count++
		t.Amount = t.Amount.Add(o.TotalAmount)
		totals[o.Status] = t
	}
	return totals, nil
}

// before reports whether (at, id) sorts strictly before (refAt, refID).
func before(at time.Time, id string, refAt time.Time, refID string) bool {
	if at.Equal(refAt) {
		return id < refID
	}
	return at.Before(refAt)
}
