package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/safar/store-admin/internal/database"
	"github.com/safar/store-admin/internal/store/memory"
	"github.com/safar/store-admin/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[string]string)}
}

func (f *fakeSessions) Create(_ context.Context, adminID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.NewString()
	f.sessions[id] = adminID
	return id, nil
}

func (f *fakeSessions) Lookup(_ context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	adminID, ok := f.sessions[id]
	if !ok {
		return "", ErrSessionNotFound
	}
	return adminID, nil
}

func (f *fakeSessions) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessions) TTL() time.Duration { return time.Hour }

func newTestService() *Service {
	return NewService(memory.NewAdmins(), newFakeSessions(), WithBcryptCost(bcrypt.MinCost))
}

var signup = SignupRequest{
	Username: "ops",
	FullName: "Ops Team",
	Email:    "ops@example.com",
	Password: "correct-horse",
}

func TestSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	s := newTestService()

	admin, err := s.Signup(ctx, signup)
	require.NoError(t, err)
	assert.NotEmpty(t, admin.ID)
	assert.NotEqual(t, signup.Password, admin.PasswordHash)

	got, sid, err := s.Login(ctx, LoginRequest{Email: "OPS@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, admin.ID, got.ID)
	assert.NotEmpty(t, sid)

	id, err := s.Authenticate(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, id.AdminID)

	require.NoError(t, s.Logout(ctx, sid))
	_, err = s.Authenticate(ctx, sid)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSignupDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := newTestService()

	_, err := s.Signup(ctx, signup)
	require.NoError(t, err)

	_, err = s.Signup(ctx, signup)
	assert.ErrorIs(t, err, database.ErrEmailTaken)
}

func TestSignupValidation(t *testing.T) {
	s := newTestService()

	_, err := s.Signup(context.Background(), SignupRequest{Username: "x", Email: "bad", Password: "short"})
	assert.ErrorIs(t, err, validation.ErrInvalid)
}

func TestLoginWrongPassword(t *testing.T) {
	ctx := context.Background()
	s := newTestService()

	_, err := s.Signup(ctx, signup)
	require.NoError(t, err)

	_, _, err = s.Login(ctx, LoginRequest{Email: signup.Email, Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = s.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMiddleware(t *testing.T) {
	ctx := context.Background()
	s := newTestService()

	admin, err := s.Signup(ctx, signup)
	require.NoError(t, err)
	_, sid, err := s.Login(ctx, LoginRequest{Email: signup.Email, Password: signup.Password})
	require.NoError(t, err)

	var seen Identity
	h := Middleware(s)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: sid})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, admin.ID, seen.AdminID)
}
