package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware(t *testing.T) {
	tel := NewTelemetry(OrderServiceConfig)

	r := chi.NewRouter()
	r.Use(Middleware(tel))
	r.Get("/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		require.Same(t, tel, FromContext(r.Context()))
		assert.Equal(t, "order-service", GetServiceName(r.Context()))
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/42", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestRoutePattern(t *testing.T) {
	var pattern string
	r := chi.NewRouter()
	r.Get("/users/{id}/orders", func(w http.ResponseWriter, req *http.Request) {
		pattern = routePattern(req)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/7/orders", nil))

	assert.Equal(t, "/users/{id}/orders", pattern)
	assert.Equal(t, "unmatched", routePattern(httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestGetStatusClass(t *testing.T) {
	assert.Equal(t, "2xx", getStatusClass(201))
	assert.Equal(t, "4xx", getStatusClass(422))
	assert.Equal(t, "5xx", getStatusClass(503))
	assert.Equal(t, "unknown", getStatusClass(0))
}
