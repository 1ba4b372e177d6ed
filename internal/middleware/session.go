package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/crucial707/hci-todo/internal/session"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type key string

const claimsKey key = "session_claims"

// SessionVerifier is satisfied by *session.Manager.
type SessionVerifier interface {
	FromRequest(r *http.Request) (*session.Claims, error)
}

// RequireSession rejects requests without a valid session cookie with 401 and
// stores the verified claims in the request context.
func RequireSession(sessions SessionVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := sessions.FromRequest(r)
			if err != nil {
				if !errors.Is(err, session.ErrNoSession) {
					slog.Info("session rejected",
						"request_id", chimw.GetReqID(r.Context()),
						"path", r.URL.Path,
						"error", err)
				}
				jsonError(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole returns 403 when the authenticated session's role is not role.
// It must run after RequireSession; without claims it answers 401.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok {
				jsonError(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if claims.Role != role {
				jsonError(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *session.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// GetClaims returns the session claims stored by RequireSession.
func GetClaims(ctx context.Context) (*session.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*session.Claims)
	return claims, ok && claims != nil
}

// GetUserID returns the authenticated user's id.
func GetUserID(ctx context.Context) (int, bool) {
	claims, ok := GetClaims(ctx)
	if !ok {
		return 0, false
	}
	id, err := claims.UserID()
	return id, err == nil
}

func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
