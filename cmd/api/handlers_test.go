package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/safar/store-admin/internal/approval"
	"github.com/safar/store-admin/internal/auth"
	"github.com/safar/store-admin/internal/metrics"
	"github.com/safar/store-admin/internal/models"
	"github.com/safar/store-admin/internal/store/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type memSessions struct {
	mu sync.Mutex
	m  map[string]string
}

func (s *memSessions) Create(_ context.Context, adminID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.m[id] = adminID
	return id, nil
}

func (s *memSessions) Lookup(_ context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	adminID, ok := s.m[id]
	if !ok {
		return "", auth.ErrSessionNotFound
	}
	return adminID, nil
}

func (s *memSessions) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
	return nil
}

func (s *memSessions) TTL() time.Duration { return time.Hour }

type testEnv struct {
	handler  http.Handler
	products *memory.Products
	orders   *memory.Orders
	cookie   *http.Cookie
	adminID  string
}

func newTestEnv(t *testing.T, mode approval.Mode) *testEnv {
	t.Helper()

	b := backends{
		orders:   memory.NewOrders(),
		products: memory.NewProducts(),
		updates:  memory.NewUpdates(),
		admins:   memory.NewAdmins(),
	}
	m := metrics.New(prometheus.NewRegistry())
	workflow := approval.New(b.orders, b.products, approval.WithMode(mode), approval.WithMetrics(m))
	authSvc := auth.NewService(b.admins, &memSessions{m: map[string]string{}}, auth.WithBcryptCost(bcrypt.MinCost))

	env := &testEnv{
		handler:  newServer(b, authSvc, workflow, zap.NewNop(), m).routes(),
		products: b.products.(*memory.Products),
		orders:   b.orders.(*memory.Orders),
	}

	rec := env.do(t, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"username":  "ops",
		"full_name": "Ops Team",
		"email":     "ops@example.com",
		"password":  "correct-horse",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var admin models.Admin
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &admin))
	env.adminID = admin.ID

	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "ops@example.com",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			env.cookie = c
		}
	}
	require.NotNil(t, env.cookie)

	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seedProduct(t *testing.T, id string, qty int) {
	t.Helper()
	require.NoError(t, e.products.Create(context.Background(), &models.Product{
		ID: id, Name: id, Price: decimal.NewFromInt(10), Quantity: qty,
	}))
}

func (e *testEnv) seedOrder(t *testing.T, status models.OrderStatus, items ...models.LineItem) string {
	t.Helper()
	o := &models.Order{Status: status, Items: items}
	require.NoError(t, e.orders.Create(context.Background(), o))
	return o.ID
}

func (e *testEnv) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := e.products.Get(context.Background(), id)
	require.NoError(t, err)
	return p.Quantity
}

type approvalBody struct {
	Error      string       `json:"error"`
	Order      models.Order `json:"order"`
	ItemErrors []struct {
		ProductID string `json:"product_id"`
		Error     string `json:"error"`
	} `json:"item_errors"`
}

func TestGuardedRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t, approval.ModeBestEffort)
	env.cookie = nil

	for _, path := range []string{"/api/v1/me", "/api/v1/orders", "/api/v1/products", "/api/v1/stats"} {
		rec := env.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/healthz", nil).Code)
}

func TestMe(t *testing.T) {
	env := newTestEnv(t, approval.ModeBestEffort)

	rec := env.do(t, http.MethodGet, "/api/v1/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), env.adminID)
}

func TestLoginBadPassword(t *testing.T) {
	env := newTestEnv(t, approval.ModeBestEffort)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "ops@example.com", "password": "nope-nope",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutEndsSession(t *testing.T) {
	env := newTestEnv(t, approval.ModeBestEffort)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodPost, "/api/v1/auth/logout", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/v1/me", nil).Code)
}

func TestApproveOrder(t *testing.T) {
	env := newTestEnv(t, approval.ModeBestEffort)
	env.seedProduct(t, "p1", 10)
	id := env.seedOrder(t, models.OrderStatusPending,
		models.LineItem{ProductID: "p1", Quantity: 4},
		models.LineItem{ProductID: "gone", Quantity: 1},
	)

	rec := env.do(t, http.MethodPost, "/api/v1/orders/"+id+"/approve", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body approvalBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, models.OrderStatusApproved, body.Order.Status)
	assert.Equal(t, env.adminID, body.Order.ApprovedBy)
	require.Len(t, body.ItemErrors, 1)
	assert.Equal(t, "gone", body.ItemErrors[0].ProductID)
	assert.Equal(t, 6, env.stock(t, "p1"))

	rec = env.do(t, http.MethodPost, "/api/v1/orders/"+id+"/approve", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "only pending orders can be approved")
	assert.Equal(t, 6, env.stock(t, "p1"))
}

func TestApproveUnknownOrder(t *testing.T) {
	env := newTestEnv(t, approval.ModeBestEffort)

	rec := env.do(t, http.MethodPost, "/api/v1/orders/missing/approve", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApproveStrictRollback(t *testing.T) {
	env := newTestEnv(t, approval.ModeStrict)
	env.seedProduct(t, "p1", 10)
	id := env.seedOrder(t, models.OrderStatusPending,
		models.LineItem{ProductID: "p1", Quantity: 4},
		models.LineItem{ProductID: "gone", Quantity: 1},
	)

	rec := env.do(t, http.MethodPost, "/api/v1/orders/"+id+"/approve", nil)
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	var body approvalBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "approval rolled back", body.Error)
	assert.Equal(t, models.OrderStatusPending, body.Order.Status)
	assert.Len(t, body.ItemErrors, 1)
	assert.Equal(t, 10, env.stock(t, "p1"))
}

func TestCancelOrder(t *testing.T) {
	env := newTestEnv(t, approval.ModeBestEffort)
	id := env.seedOrder(t, models.OrderStatusPending)

	rec := env.do(t, http.MethodPost, "/api/v1/orders/"+id+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"cancelled"`)

	rec = env.do(t, http.MethodPost, "/api/v1/orders/"+id+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateAndListOrders(t *testing.T) {
	env := newTestEnv(t, approval.ModeBestEffort)
	env.seedProduct(t, "p1", 10)

	rec := env.do(t, http.MethodPost, "/api/v1/orders", map[string]any{
		"items": []map[string]any{{"product_id": "p1", "quantity": 3}},
		"customer_details": map[string]string{
			"full_name": "Ada Obi",
			"phone":     "+2348000000000",
			"email":     "ada@example.com",
			"address":   "12 Marina Rd",
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, created.TotalAmount.Equal(decimal.NewFromInt(30)))

	rec = env.do(t, http.MethodGet, "/api/v1/orders/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/orders?status=pending&limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.ID)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v1/orders?status=shipped", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/v1/orders?cursor=%25%25", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/v1/orders/missing", nil).Code)
}

func TestCreateOrderValidation(t *testing.T) {
	env := newTestEnv(t, approval.ModeBestEffort)

	rec := env.do(t, http.MethodPost, "/api/v1/orders", map[string]any{"items": []any{}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"fields"`)
}

func TestProductCRUD(t *testing.T) {
	env := newTestEnv(t, approval.ModeBestEffort)

	input := map[string]any{
		"name":        "Linen Shirt",
		"description": "Breathable",
		"price":       "12500",
		"images":      []string{"https://cdn.example.com/shirt.png"},
		"quantity":    5,
	}
	rec := env.do(t, http.MethodPost, "/api/v1/products", input)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var p models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))

	input["quantity"] = 9
	rec = env.do(t, http.MethodPut, "/api/v1/products/"+p.ID, input)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/v1/products/"+p.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"quantity":9`)

	rec = env.do(t, http.MethodGet, "/api/v1/products?page=1&page_size=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/v1/products/"+p.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/v1/products/"+p.ID, nil).Code)

	delete(input, "images")
	rec = env.do(t, http.MethodPost, "/api/v1/products", input)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "at least one product image is required")
}

func TestUpdatesAndStats(t *testing.T) {
	env := newTestEnv(t, approval.ModeBestEffort)
	env.seedProduct(t, "p1", 1)
	env.seedOrder(t, models.OrderStatusPending)

	rec := env.do(t, http.MethodPost, "/api/v1/updates", map[string]string{"title": "Maintenance", "body": "Tonight"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/v1/updates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Maintenance")

	rec = env.do(t, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_products":1`)
	assert.Contains(t, rec.Body.String(), `"pending_orders":1`)
}

func TestInvalidBody(t *testing.T) {
	env := newTestEnv(t, approval.ModeBestEffort)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/updates", strings.NewReader("{"))
	req.AddCookie(env.cookie)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
