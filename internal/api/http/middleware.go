package http

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"rental-contracts-backend/internal/config"
	"rental-contracts-backend/internal/domain"
	"rental-contracts-backend/internal/logger"
	"rental-contracts-backend/internal/security"

	"github.com/gorilla/mux"
)

type actorKey struct{}

// ActorFromContext returns the authenticated caller, or nil on public routes.
func ActorFromContext(ctx context.Context) *domain.Actor {
	a, _ := ctx.Value(actorKey{}).(*domain.Actor)
	return a
}

func withActor(ctx context.Context, a *domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// authMiddleware resolves the bearer token and enforces the route's security level.
func authMiddleware(tm security.TokenManager) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := ""
			if route := mux.CurrentRoute(r); route != nil {
				name = route.GetName()
			}
			level := config.RequiredSecurity(name)
			if level == config.SecurityPublic {
				next.ServeHTTP(w, r)
				return
			}

			token := extractToken(r)
			if token == "" {
				writeStatus(w, r, http.StatusUnauthorized, msgUnauthorized)
				return
			}
			claims, err := tm.ValidateToken(token)
			if err != nil {
				logger.Debug("Rejected bearer token", "route", name, "error", err)
				writeStatus(w, r, http.StatusUnauthorized, msgUnauthorized)
				return
			}
			actor := claims.Actor()
			if level == config.SecurityAdmin && !actor.IsAdmin() {
				writeStatus(w, r, http.StatusForbidden, msgForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(withActor(r.Context(), actor)))
		})
	}
}

func extractToken(r *http.Request) string {
	token := r.Header.Get("Authorization")
	// Remove Bearer prefix if present
	if len(token) > 7 && strings.ToUpper(token[0:7]) == "BEARER " {
		token = token[7:]
	}
	return strings.TrimSpace(token)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("Handler panicked", "panic", rec, "path", r.URL.Path, "stack", string(debug.Stack()))
				writeStatus(w, r, http.StatusInternalServerError, msgInternal)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// originAddress prefers the first X-Forwarded-For hop over the socket address.
func originAddress(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return r.RemoteAddr
}
