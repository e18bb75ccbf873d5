package health_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/ebike-storefront/internal/config"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/health"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHealthHandler(t *testing.T) {
	// Arrange
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	cfg := &config.Config{
		RedisConnect: config.RedisConnect{Host: "127.0.0.1", Port: "1"},
		StoreAPI: config.StoreAPI{
			BaseURL:    backend.URL + "/api/",
			Timeout:    time.Second,
			HealthPath: "/health",
		},
	}

	// Act
	h, err := health.NewHealthHandler(cfg, &health.Endpoints{})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	// Assert
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), `"redis"`)
	assert.NotContains(t, rr.Body.String(), `"database"`)
}
