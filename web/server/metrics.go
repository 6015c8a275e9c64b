package server

import (
	"fmt"
	"net/http"

	"github.com/VictoriaMetrics/metrics"
	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5"
)

// requestMetrics returns an HTTP handler that counts requests and measures
// their duration in set, labeled by route pattern, method and status code.
func requestMetrics(set *metrics.Set) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}

			set.GetOrCreateCounter(fmt.Sprintf(
				`dbmap_http_requests_total{route=%q,method=%q,code="%d"}`,
				route, r.Method, m.Code)).Inc()
			set.GetOrCreateHistogram(fmt.Sprintf(
				`dbmap_http_request_duration_seconds{route=%q,method=%q}`,
				route, r.Method)).Update(m.Duration.Seconds())
		}
		return http.HandlerFunc(fn)
	}
}
