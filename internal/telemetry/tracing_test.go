package telemetry_test

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/aaravmahajanofficial/ebike-storefront/internal/config"
	"github.com/aaravmahajanofficial/ebike-storefront/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracer(t *testing.T) {
	t.Run("Success - No Exporter", func(t *testing.T) {
		// Arrange
		cfg := config.Otel{ServiceName: "ebike-storefront-test", SamplerRatio: 1}

		// Act
		tp, shutdown, err := telemetry.InitTracer(t.Context(), cfg)

		// Assert
		require.NoError(t, err)
		_, span := tp.Tracer("test").Start(t.Context(), "op")
		assert.True(t, span.SpanContext().IsSampled())
		span.End()
		assert.NoError(t, shutdown(t.Context()))
	})

	t.Run("Success - Spans Flushed On Shutdown", func(t *testing.T) {
		// Arrange
		var exports atomic.Int32
		collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/v1/traces" {
				exports.Add(1)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer collector.Close()
		cfg := config.Otel{ServiceName: "ebike-storefront-test", ExporterEndpoint: collector.URL + "/v1/traces", SamplerRatio: 1}

		// Act
		tp, shutdown, err := telemetry.InitTracer(t.Context(), cfg)
		require.NoError(t, err)
		_, span := tp.Tracer("test").Start(t.Context(), "op")
		span.End()
		err = shutdown(t.Context())

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, int32(1), exports.Load())
	})

	t.Run("Success - Zero Ratio Drops Root Spans", func(t *testing.T) {
		// Arrange
		cfg := config.Otel{ServiceName: "ebike-storefront-test", SamplerRatio: 0}

		// Act
		tp, shutdown, err := telemetry.InitTracer(t.Context(), cfg)

		// Assert
		require.NoError(t, err)
		_, span := tp.Tracer("test").Start(t.Context(), "op")
		assert.False(t, span.SpanContext().IsSampled())
		span.End()
		assert.NoError(t, shutdown(t.Context()))
	})
}
