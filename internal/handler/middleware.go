package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/boddenberg/bepit-bfa-go/internal/service"

	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

// AdminKeyHeader carries the raw admin secret.
const AdminKeyHeader = "X-Admin-Key"

// AdminAuthMiddleware accepts either the X-Admin-Key header or an admin
// session token as "Authorization: Bearer <token>".
func AdminAuthMiddleware(auth *service.AdminAuth, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key := r.Header.Get(AdminKeyHeader); key != "" {
				if auth.VerifyKey(key) {
					next.ServeHTTP(w, r)
					return
				}
				logger.Warn("admin auth: invalid key",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "invalid admin key")
				return
			}

			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.Warn("admin auth: missing credentials",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "admin credentials required")
				return
			}

			if _, err := auth.ValidateSession(parts[1]); err != nil {
				logger.Warn("admin auth: invalid or expired session",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ChatRateLimit limits chat requests per client IP. requestLimit <= 0
// disables the limit.
func ChatRateLimit(requestLimit int, window time.Duration) func(http.Handler) http.Handler {
	if requestLimit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		requestLimit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		}),
	)
}
