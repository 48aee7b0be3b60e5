package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/safar/store-admin/internal/models"
)

// Updates is the system-update announcements collection.
type Updates struct {
	db *sql.DB
}

func NewUpdates(db *sql.DB) *Updates {
	return &Updates{db: db}
}

func (s *Updates) Create(ctx context.Context, u *models.Update) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO updates (id, title, body, created_at, updated_at)
		 VALUES ($1, $2, $3, NOW(), NOW())
		 RETURNING created_at, updated_at`,
		u.ID, u.Title, u.Body).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create update: %w", err)
	}

	return nil
}

func (s *Updates) List(ctx context.Context) ([]*models.Update, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, body, created_at, updated_at FROM updates ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list updates: %w", err)
	}
	defer rows.Close()

	updates := []*models.Update{}
	for rows.Next() {
		u := &models.Update{}
		if err := rows.Scan(&u.ID, &u.Title, &u.Body, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan update: %w", err)
		}
		updates = append(updates, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return updates, nil
}
