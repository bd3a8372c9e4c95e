package observability_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elevare/elevare-backend-go/internal/infra/observability"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_MiddlewareAndSnapshot(t *testing.T) {
	m := observability.NewMetrics()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/leads/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {})

	for _, path := range []string{"/leads/1", "/leads/2", "/ok"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	m.IncrAuthzDenied("payment", "delete")
	m.IncrCacheHit("principal")
	m.IncrCacheMiss("principal")

	snap := m.Snapshot()
	assert.Equal(t, 2.0, snap.Requests["4xx"])
	assert.Equal(t, 1.0, snap.Requests["2xx"])
	assert.Equal(t, 1.0, snap.AuthzDenied)
	assert.InDelta(t, 0.5, snap.PrincipalCacheRate, 1e-9)
}

func TestNewMetrics_Repeatable(t *testing.T) {
	assert.NotPanics(t, func() {
		observability.NewMetrics()
		observability.NewMetrics()
	})
}
