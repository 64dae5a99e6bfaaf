package observability

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"github.com/Additional-Code/nursery/internal/config"
)

func TestNewManager_PrometheusServesInstruments(t *testing.T) {
	var cfg config.Config
	cfg.Observability = config.Observability{
		ServiceName:     "nursery-test",
		EnableMetrics:   true,
		MetricsExporter: "prometheus",
		PrometheusPath:  "/metrics",
	}

	lc := fxtest.NewLifecycle(t)
	mgr, err := NewManager(lc, cfg, zap.NewNop())
	require.NoError(t, err)
	lc.RequireStart()
	defer lc.RequireStop()

	assert.True(t, mgr.MetricsEnabled())
	assert.False(t, mgr.TracingEnabled())
	assert.Equal(t, "/metrics", mgr.PrometheusPath())

	meter := otel.Meter("observability-test")
	counter, err := meter.Int64Counter("nursery_test_events_total")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)
	hist, err := meter.Float64Histogram("nursery_test_duration_seconds")
	require.NoError(t, err)
	hist.Record(context.Background(), 0.02)

	rec := httptest.NewRecorder()
	mgr.MetricsHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "nursery_test_events_total")
	assert.Contains(t, string(body), `nursery_test_duration_seconds_bucket{`)
	assert.Contains(t, string(body), `le="0.025"`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNewManager_Disabled(t *testing.T) {
	lc := fxtest.NewLifecycle(t)
	mgr, err := NewManager(lc, config.Config{}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, mgr.MetricsEnabled())
	assert.False(t, mgr.TracingEnabled())
	assert.Nil(t, mgr.MetricsHandler())
}

func TestNewManager_OTLPHTTPExporters(t *testing.T) {
	var cfg config.Config
	cfg.Observability = config.Observability{
		ServiceName:     "nursery-test",
		EnableTracing:   true,
		TraceExporter:   "otlphttp",
		TraceEndpoint:   "127.0.0.1:4318",
		TraceInsecure:   true,
		EnableMetrics:   true,
		MetricsExporter: "otlp",
		MetricsEndpoint: "127.0.0.1:4318",
	}

	mgr, err := NewManager(fxtest.NewLifecycle(t), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, mgr.TracingEnabled())
	assert.True(t, mgr.MetricsEnabled())
	assert.Nil(t, mgr.MetricsHandler())
}

func TestNewManager_OTLPMetricsRequiresEndpoint(t *testing.T) {
	var cfg config.Config
	cfg.Observability = config.Observability{
		EnableMetrics:   true,
		MetricsExporter: "otlp",
	}

	_, err := NewManager(fxtest.NewLifecycle(t), cfg, zap.NewNop())
	require.Error(t, err)
}
