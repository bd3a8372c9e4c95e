package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/elevare/elevare-backend-go/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the API.
type Metrics struct {
	// Registry owns these metrics and backs the /metrics endpoint.
	Registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	authzDenied     *prometheus.CounterVec
	authFailures    *prometheus.CounterVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	rateLimited     prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. A private registry lets tests build as many
// Metrics as they like.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{Name: "elevare_http_requests_total", Help: "HTTP requests by route and status."},
			[]string{"method", "route", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "elevare_http_request_duration_seconds",
				Help:    "HTTP request latency by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		authzDenied: factory.NewCounterVec(
			prometheus.CounterOpts{Name: "elevare_authz_denied_total", Help: "Requests rejected by the role gate."},
			[]string{"resource", "action"},
		),
		authFailures: factory.NewCounterVec(
			prometheus.CounterOpts{Name: "elevare_auth_failures_total", Help: "Failed authentications by reason."},
			[]string{"reason"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{Name: "elevare_external_errors_total", Help: "Errors from external services."},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{Name: "elevare_cache_hits_total", Help: "Cache hits."},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{Name: "elevare_cache_misses_total", Help: "Cache misses."},
			[]string{"cache"},
		),
		notifications: factory.NewCounterVec(
			prometheus.CounterOpts{Name: "elevare_notifications_published_total", Help: "Notifications published to the real-time channel."},
			[]string{"delivered"},
		),
		rateLimited: factory.NewCounter(
			prometheus.CounterOpts{Name: "elevare_rate_limited_total", Help: "Requests rejected by the rate limiter."},
		),
	}
}

// IncrAuthzDenied counts a role gate rejection.
func (m *Metrics) IncrAuthzDenied(resource, action string) {
	m.authzDenied.WithLabelValues(resource, action).Inc()
}

// IncrAuthFailure counts a failed authentication.
func (m *Metrics) IncrAuthFailure(reason string) {
	m.authFailures.WithLabelValues(reason).Inc()
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrNotification counts a publish and whether a live connection got it.
func (m *Metrics) IncrNotification(delivered bool) {
	m.notifications.WithLabelValues(strconv.FormatBool(delivered)).Inc()
}

// IncrRateLimited counts a rate limit rejection.
func (m *Metrics) IncrRateLimited() {
	m.rateLimited.Inc()
}

// Middleware records request count and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Snapshot summarizes the counters for GET /api/v1/system/metrics.
func (m *Metrics) Snapshot() *domain.MetricsSnapshot {
	families, _ := m.Registry.Gather()

	snap := &domain.MetricsSnapshot{Requests: map[string]float64{}}
	var hits, misses float64
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			v := metric.GetCounter().GetValue()
			switch mf.GetName() {
			case "elevare_http_requests_total":
				snap.Requests[statusClass(label(metric, "status"))] += v
			case "elevare_authz_denied_total":
				snap.AuthzDenied += v
			case "elevare_auth_failures_total":
				snap.AuthFailures += v
			case "elevare_rate_limited_total":
				snap.RateLimited += v
			case "elevare_external_errors_total":
				snap.ExternalErrors += v
			case "elevare_notifications_published_total":
				snap.NotificationsSent += v
			case "elevare_cache_hits_total":
				hits += v
			case "elevare_cache_misses_total":
				misses += v
			}
		}
	}
	if hits+misses > 0 {
		snap.PrincipalCacheRate = hits / (hits + misses)
	}
	return snap
}

func label(metric *dto.Metric, name string) string {
	for _, lp := range metric.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func statusClass(status string) string {
	if len(status) == 3 {
		return status[:1] + "xx"
	}
	return "other"
}
