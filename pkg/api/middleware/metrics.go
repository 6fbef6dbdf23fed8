package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lesotho-health/cost-api/pkg/metrics"
)

// Metrics records request counts and latency per matched route
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := wrap(w)

			next.ServeHTTP(ww, r)

			// Route patterns keep label cardinality bounded
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			m.ObserveRequest(route, r.Method, ww.statusCode, time.Since(start))
		})
	}
}
