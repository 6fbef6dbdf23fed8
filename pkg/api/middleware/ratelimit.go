package middleware

import (
	"net/http"

	"golang.org/x/time/rate"

	"github.com/lesotho-health/cost-api/pkg/api/handlers"
)

// RateLimit rejects requests beyond the limiter's budget with 429.
// onLimit may be nil.
func RateLimit(limiter *rate.Limiter, onLimit func()) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				if onLimit != nil {
					onLimit()
				}
				w.Header().Set("Retry-After", "1")
				handlers.WriteError(w, handlers.CodeRateLimited, "Too many requests", http.StatusTooManyRequests, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
