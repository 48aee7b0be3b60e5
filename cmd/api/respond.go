package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/safar/store-admin/internal/approval"
	"github.com/safar/store-admin/internal/auth"
	"github.com/safar/store-admin/internal/database"
	"github.com/safar/store-admin/internal/logger"
	"github.com/safar/store-admin/internal/store"
	"github.com/safar/store-admin/internal/validation"
	"go.uber.org/zap"
)

func (s *server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("encode JSON response", zap.Error(err))
	}
}

func (s *server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondErr maps domain errors onto HTTP statuses. Unknown errors are logged
// and reported as 500 without detail.
func (s *server) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		s.respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":  validation.ErrInvalid.Error(),
			"fields": verr.Fields,
		})
	case errors.Is(err, approval.ErrInvalidStateTransition):
		s.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, approval.ErrStatusWriteFailed):
		logger.Error(r.Context(), s.log, "status write failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, approval.ErrStatusWriteFailed.Error())
	case errors.Is(err, database.ErrOrderNotFound),
		errors.Is(err, database.ErrProductNotFound),
		errors.Is(err, database.ErrUpdateNotFound),
		errors.Is(err, database.ErrAdminNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrEmailTaken):
		s.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrUnauthorized):
		s.respondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, store.ErrInvalidCursor), errors.Is(err, database.ErrInvalidQuantity):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error(r.Context(), s.log, "request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		s.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (s *server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
