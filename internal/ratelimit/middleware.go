package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/noah-isme/backend-kasir/internal/common"
)

// Config names the caller for a request and sets its window budget.
// Key is typically the client IP; a nil Key func disables the limiter
// entirely.
type Config struct {
	Key    func(*http.Request) string
	Window time.Duration
	Max    int
}

// Handler sits in front of the admin API and rejects callers that burn
// through their budget. When Redis is unreachable it lets traffic pass,
// reporting the outage through OnError.
type Handler struct {
	Limiter Limiter
	Config  Config
	OnError func(error)
}

// Middleware wraps next with limit enforcement and X-RateLimit headers.
func (h Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Config.Key == nil {
			next.ServeHTTP(w, r)
			return
		}
		caller := h.Config.Key(r)
		allowed, remaining, resetAt, err := h.Limiter.Allow(r.Context(), caller, h.Config.Window, h.Config.Max)
		if err != nil {
			// A limiter outage must not take the back office down with it.
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		budget := h.Config.Max
		if budget < 0 {
			budget = 0
		}
		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.Itoa(budget))
		headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			retryAfter := int(time.Until(resetAt).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			headers.Set("Retry-After", strconv.Itoa(retryAfter))
			common.JSONError(w, http.StatusTooManyRequests, common.CodeRateLimit, "too many requests, slow down", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
