package middleware

import (
	"context"
	"net/http"
	"strings"

	"labtrade-api/internal/service"
	"labtrade-api/pkg/apierror"
)

// UserIDKey is the key for storing the authenticated user ID in request context.
const UserIDKey contextKey = "user_id"

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	TokenService *service.TokenService
	APIKeys      []string
}

// NewAuthMiddleware creates an authentication middleware with injected
// dependencies. Token service and API keys are passed via closure, no global
// state.
//
// Two schemes are accepted: X-Token session tokens resolved through the
// token service, and static X-API-Key credentials (for server-to-server
// callers, which then identify the acting user with X-User-ID).
func NewAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip auth for health check endpoints
			if r.URL.Path == "/api/v1/health" || r.URL.Path == "/api/v1/ready" || r.URL.Path == "/api/v1/status" {
				next.ServeHTTP(w, r)
				return
			}

			// Skip auth for token generation
			if r.URL.Path == "/api/v1/auth/token" && r.Method == http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			// Admin endpoints carry their own X-Admin-Key check
			if strings.HasPrefix(r.URL.Path, "/api/v1/admin") {
				next.ServeHTTP(w, r)
				return
			}

			// Try X-Token first (session tokens)
			token := r.Header.Get("X-Token")
			if token != "" && cfg.TokenService != nil {
				session, err := cfg.TokenService.ValidateToken(r.Context(), token)
				if err != nil {
					writeError(w, apierror.Unauthorized("Invalid or expired token"))
					return
				}

				ctx := context.WithValue(r.Context(), UserIDKey, session.UserID)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			// Fall back to X-API-Key
			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				auth := r.Header.Get("Authorization")
				if strings.HasPrefix(auth, "Bearer ") {
					apiKey = strings.TrimPrefix(auth, "Bearer ")
				}
			}

			if apiKey == "" {
				writeError(w, apierror.Unauthorized("Authentication required. Use X-Token or X-API-Key header."))
				return
			}

			if !isValidKey(apiKey, cfg.APIKeys) {
				writeError(w, apierror.Unauthorized("Invalid API key"))
				return
			}

			// API-key callers act on behalf of a user named in X-User-ID.
			userID := r.Header.Get("X-User-ID")
			if userID == "" {
				writeError(w, apierror.Unauthorized("X-User-ID header required with X-API-Key"))
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeError writes an API error response.
func writeError(w http.ResponseWriter, err *apierror.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	w.Write(err.ToJSON())
}

// isValidKey checks if the provided key is in the valid keys list.
func isValidKey(key string, validKeys []string) bool {
	for _, valid := range validKeys {
		if key == valid {
			return true
		}
	}
	return false
}

// GetUserID retrieves the authenticated user ID from request context.
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}
