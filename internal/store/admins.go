package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/safar/store-admin/internal/database"
	"github.com/safar/store-admin/internal/models"
)

// Admins holds dashboard operator accounts.
type Admins struct {
	db *sql.DB
}

func NewAdmins(db *sql.DB) *Admins {
	return &Admins{db: db}
}

func (s *Admins) Create(ctx context.Context, a *models.Admin) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.Email = strings.ToLower(a.Email)

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO admins (id, username, full_name, email, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 RETURNING created_at`,
		a.ID, a.Username, a.FullName, a.Email, a.PasswordHash).Scan(&a.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return database.ErrEmailTaken
		}
		return fmt.Errorf("create admin: %w", err)
	}

	return nil
}

func (s *Admins) Get(ctx context.Context, id string) (*models.Admin, error) {
	return s.getBy(ctx, "id", id)
}

func (s *Admins) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	return s.getBy(ctx, "email", strings.ToLower(email))
}

func (s *Admins) getBy(ctx context.Context, column, value string) (*models.Admin, error) {
	a := &models.Admin{}

	query := `
		SELECT id, username, full_name, email, password_hash, created_at
		FROM admins
		WHERE ` + column + ` = $1`

	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&a.ID,
		&a.Username,
		&a.FullName,
		&a.Email,
		&a.PasswordHash,
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrAdminNotFound
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}

	return a, nil
}
