package auth

import (
	"encoding/json"
	"errors"
	"net/http"
)

const CookieName = "session_id"

// Middleware rejects requests without a live session and stores the caller
// identity in the request context.
func Middleware(s *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sid string
			if c, err := r.Cookie(CookieName); err == nil {
				sid = c.Value
			}

			id, err := s.Authenticate(r.Context(), sid)
			if err != nil {
				status := http.StatusInternalServerError
				if errors.Is(err, ErrUnauthorized) {
					status = http.StatusUnauthorized
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				json.NewEncoder(w).Encode(map[string]string{"error": http.StatusText(status)})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
