// Package auth handles admin accounts, sessions and request authentication.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/safar/store-admin/internal/database"
	"github.com/safar/store-admin/internal/models"
	"github.com/safar/store-admin/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
)

type AdminStore interface {
	Create(ctx context.Context, a *models.Admin) error
	Get(ctx context.Context, id string) (*models.Admin, error)
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)
}

type SessionStore interface {
	Create(ctx context.Context, adminID string) (string, error)
	Lookup(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error
	TTL() time.Duration
}

type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Service struct {
	admins   AdminStore
	sessions SessionStore
	cost     int
}

type Option func(*Service)

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func NewService(admins AdminStore, sessions SessionStore, opts ...Option) *Service {
	s := &Service{admins: admins, sessions: sessions, cost: 12}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Signup(ctx context.Context, req SignupRequest) (*models.Admin, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	admin := &models.Admin{
		Username:     req.Username,
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		return nil, err
	}

	return admin, nil
}

// Login checks the password and opens a session, returning its id.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*models.Admin, string, error) {
	if err := validation.Struct(req); err != nil {
		return nil, "", err
	}

	admin, err := s.admins.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, database.ErrAdminNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	sid, err := s.sessions.Create(ctx, admin.ID)
	if err != nil {
		return nil, "", err
	}

	return admin, sid, nil
}

func (s *Service) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// Authenticate resolves a session id to the admin identity behind it.
func (s *Service) Authenticate(ctx context.Context, sessionID string) (Identity, error) {
	if sessionID == "" {
		return Identity{}, ErrUnauthorized
	}

	adminID, err := s.sessions.Lookup(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return Identity{}, ErrUnauthorized
		}
		return Identity{}, err
	}

	admin, err := s.admins.Get(ctx, adminID)
	if err != nil {
		if errors.Is(err, database.ErrAdminNotFound) {
			return Identity{}, ErrUnauthorized
		}
		return Identity{}, err
	}

	return Identity{AdminID: admin.ID, Email: admin.Email, Username: admin.Username}, nil
}

func (s *Service) SessionTTL() time.Duration {
	return s.sessions.TTL()
}
