package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/safar/store-admin/internal/approval"
	"github.com/safar/store-admin/internal/auth"
	"github.com/safar/store-admin/internal/bulletin"
	"github.com/safar/store-admin/internal/catalog"
	"github.com/safar/store-admin/internal/checkout"
	"github.com/safar/store-admin/internal/models"
)

const (
	defaultOrderLimit = 20
	maxOrderLimit     = 100
)

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.health(r.Context()); err != nil {
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req auth.SignupRequest
	if !s.decode(w, r, &req) {
		return
	}

	admin, err := s.auth.Signup(r.Context(), req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, admin)
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if !s.decode(w, r, &req) {
		return
	}

	admin, sid, err := s.auth.Login(r.Context(), req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	ttl := s.auth.SessionTTL()
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    sid,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	s.respondJSON(w, http.StatusOK, admin)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(auth.CookieName); err == nil && c.Value != "" {
		if err := s.auth.Logout(r.Context(), c.Value); err != nil {
			s.respondErr(w, r, err)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cookieSecure,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		s.respondError(w, http.StatusUnauthorized, auth.ErrUnauthorized.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, id)
}

func (s *server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	status := models.OrderStatus(q.Get("status"))
	if status != "" && !status.Valid() {
		s.respondError(w, http.StatusBadRequest, "Invalid status filter")
		return
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 || limit > maxOrderLimit {
		limit = defaultOrderLimit
	}

	page, err := s.orders.List(r.Context(), status, q.Get("cursor"), limit)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, page)
}

func (s *server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req checkout.OrderInput
	if !s.decode(w, r, &req) {
		return
	}

	order, err := s.checkout.Place(r.Context(), req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, order)
}

func (s *server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.orders.Fetch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, order)
}

type itemErrorResponse struct {
	ProductID string `json:"product_id"`
	Error     string `json:"error"`
}

type approvalResponse struct {
	Error      string              `json:"error,omitempty"`
	Order      *models.Order       `json:"order"`
	ItemErrors []itemErrorResponse `json:"item_errors"`
}

func newApprovalResponse(res *approval.Result) approvalResponse {
	out := approvalResponse{Order: res.Order, ItemErrors: []itemErrorResponse{}}
	for _, ie := range res.ItemErrors {
		out.ItemErrors = append(out.ItemErrors, itemErrorResponse{
			ProductID: ie.ProductID,
			Error:     ie.Err.Error(),
		})
	}
	return out
}

func (s *server) handleApproveOrder(w http.ResponseWriter, r *http.Request) {
	res, err := s.workflow.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, approval.ErrApprovalRolledBack) && res != nil {
			body := newApprovalResponse(res)
			body.Error = approval.ErrApprovalRolledBack.Error()
			s.respondJSON(w, http.StatusConflict, body)
			return
		}
		s.respondErr(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, newApprovalResponse(res))
}

func (s *server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.workflow.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, order)
}

func (s *server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	result, err := s.catalog.List(r.Context(), page, pageSize)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, result)
}

func (s *server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req catalog.ProductInput
	if !s.decode(w, r, &req) {
		return
	}

	product, err := s.catalog.Create(r.Context(), req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, product)
}

func (s *server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := s.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, product)
}

func (s *server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req catalog.ProductInput
	if !s.decode(w, r, &req) {
		return
	}

	product, err := s.catalog.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, product)
}

func (s *server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondErr(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleListUpdates(w http.ResponseWriter, r *http.Request) {
	updates, err := s.bulletin.List(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, updates)
}

func (s *server) handlePostUpdate(w http.ResponseWriter, r *http.Request) {
	var req bulletin.UpdateInput
	if !s.decode(w, r, &req) {
		return
	}

	update, err := s.bulletin.Post(r.Context(), req)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, update)
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	summary, err := s.stats.Summary(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}

	s.respondJSON(w, http.StatusOK, summary)
}
