package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/safar/store-admin/internal/approval"
	"github.com/safar/store-admin/internal/auth"
	"github.com/safar/store-admin/internal/bulletin"
	"github.com/safar/store-admin/internal/catalog"
	"github.com/safar/store-admin/internal/checkout"
	"github.com/safar/store-admin/internal/metrics"
	"github.com/safar/store-admin/internal/models"
	"github.com/safar/store-admin/internal/stats"
	"github.com/safar/store-admin/internal/store"
	"go.uber.org/zap"
)

type orderStore interface {
	approval.OrderRecords
	Create(ctx context.Context, o *models.Order) error
	List(ctx context.Context, status models.OrderStatus, cursor string, limit int) (*store.CursorPage, error)
	TotalsByStatus(ctx context.Context) (map[models.OrderStatus]models.OrderTotals, error)
}

type productStore interface {
	catalog.ProductStore
	approval.Ledger
	Count(ctx context.Context) (int64, error)
}

// backends is one set of collections, either PostgreSQL or in-memory.
type backends struct {
	orders   orderStore
	products productStore
	updates  bulletin.UpdateStore
	admins   auth.AdminStore
}

type server struct {
	log          *zap.Logger
	metrics      *metrics.Metrics
	orders       orderStore
	workflow     *approval.Workflow
	checkout     *checkout.Service
	catalog      *catalog.Service
	bulletin     *bulletin.Service
	stats        *stats.Service
	auth         *auth.Service
	cookieSecure bool
	health       func(ctx context.Context) error
}

func newServer(b backends, authSvc *auth.Service, workflow *approval.Workflow, log *zap.Logger, m *metrics.Metrics, opts ...func(*server)) *server {
	s := &server{
		log:      log,
		metrics:  m,
		orders:   b.orders,
		workflow: workflow,
		checkout: checkout.NewService(b.products, b.orders),
		catalog:  catalog.NewService(b.products),
		bulletin: bulletin.NewService(b.updates),
		stats:    stats.NewService(b.products, b.orders),
		auth:     authSvc,
		health:   func(context.Context) error { return nil },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func withCookieSecure(secure bool) func(*server) {
	return func(s *server) { s.cookieSecure = secure }
}

func withHealth(check func(ctx context.Context) error) func(*server) {
	return func(s *server) { s.health = check }
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/signup", s.handleSignup)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.auth))

			r.Get("/me", s.handleMe)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", s.handleListOrders)
				r.Post("/", s.handleCreateOrder)
				r.Get("/{id}", s.handleGetOrder)
				r.Post("/{id}/approve", s.handleApproveOrder)
				r.Post("/{id}/cancel", s.handleCancelOrder)
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", s.handleListProducts)
				r.Post("/", s.handleCreateProduct)
				r.Get("/{id}", s.handleGetProduct)
				r.Put("/{id}", s.handleUpdateProduct)
				r.Delete("/{id}", s.handleDeleteProduct)
			})

			r.Get("/updates", s.handleListUpdates)
			r.Post("/updates", s.handlePostUpdate)

			r.Get("/stats", s.handleStats)
		})
	})

	return r
}

// observe records request metrics by route pattern and logs each request.
func (s *server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		if s.metrics != nil {
			s.metrics.ObserveRequest(route, status, elapsed)
		}
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
