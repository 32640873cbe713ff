package telemetry_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartstore/backend/internal/infrastructure/telemetry"
)

func TestHTTPMetrics_RecordsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := telemetry.NewHTTPMetrics("smartstore")

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/v1/products/:id", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, path := range []string{"/api/v1/products/1", "/api/v1/products/2", "/nope"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	text := string(body)

	assert.Contains(t, text, `smartstore_http_requests_total{method="GET",route="/api/v1/products/:id",status="204"} 2`)
	assert.Contains(t, text, `smartstore_http_requests_total{method="GET",route="unmatched",status="404"} 1`)
	assert.Contains(t, text, "smartstore_http_request_duration_seconds_bucket")
	assert.Contains(t, text, "go_goroutines")
}

func TestHTTPMetrics_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.NewHTTPMetrics("a")
		telemetry.NewHTTPMetrics("a")
	})
}
