package middleware

import (
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

const apiKeyHeader = "X-Api-Key"

// APIKeyAuth checks the request's API key against a bcrypt hash. An empty
// hash disables the check (development mode).
func APIKeyAuth(apiKeyHash string, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKeyHash == "" {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(apiKeyHeader)
			if key == "" {
				logger.WarnContext(r.Context(), "API key header missing")
				http.Error(w, "API key required", http.StatusUnauthorized)
				return
			}

			if err := bcrypt.CompareHashAndPassword([]byte(apiKeyHash), []byte(key)); err != nil {
				logger.WarnContext(r.Context(), "Invalid API key presented")
				http.Error(w, "Invalid API key", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
