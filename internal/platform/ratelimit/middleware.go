package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	dErrors "libris/pkg/domain-errors"
)

// Middleware applies per-client rate limits ahead of the handlers. A store
// failure fails open: limiting protects the service, it must not take it down.
type Middleware struct {
	store  Store
	logger *slog.Logger
}

func NewMiddleware(store Store, logger *slog.Logger) *Middleware {
	return &Middleware{store: store, logger: logger}
}

// Limit caps requests per client IP under the named scope.
func (m *Middleware) Limit(scope string, limit int, span time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := scope + ":" + clientIP(r)
			result, err := m.store.Allow(r.Context(), key, limit, span)
			if err != nil {
				m.logger.ErrorContext(r.Context(), "rate limit check failed",
					"scope", scope,
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			addHeaders(w, result)
			if !result.Allowed {
				writeExceeded(w, result)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func addHeaders(w http.ResponseWriter, result *Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeExceeded(w http.ResponseWriter, result *Result) {
	retryAfter := int(time.Until(result.ResetAt).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(dErrors.CodeRateLimited))
	_, _ = w.Write([]byte(`{"error":{"code":"rate_limited","message":"too many requests"}}`))
}
