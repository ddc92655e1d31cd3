package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/mrops-br/inventory-dashboard-api/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelDebug},
		{"verbose", slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestLoggerInjectsTraceContext(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.DefaultConfig()
	logger := initLogger(&cfg.OTLP, "info", &buf)

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	ctx = WithHTTPRoute(ctx, "/api/products/{id}")
	logger.InfoContext(ctx, "hello")
	span.End()

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))

	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, span.SpanContext().TraceID().String(), record["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), record["span_id"])
	assert.Equal(t, "/api/products/{id}", record["http.route"])
	assert.Equal(t, "inventory-api", record["service.name"])
}

func TestLoggerResolvesRouteAtLogTime(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.DefaultConfig()
	logger := initLogger(&cfg.OTLP, "info", &buf)

	route := ""
	ctx := WithHTTPRouteFunc(context.Background(), func() string { return route })

	logger.InfoContext(ctx, "before routing")
	route = "/api/products/{id}"
	logger.InfoContext(ctx, "after routing")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.NoError(t, json.Unmarshal(lines[1], &second))
	assert.NotContains(t, first, "http.route")
	assert.Equal(t, "/api/products/{id}", second["http.route"])
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.DefaultConfig()
	logger := initLogger(&cfg.OTLP, "warn", &buf)

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNoOpTelemetry(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.OTLP.Enabled = false

	var buf bytes.Buffer
	telem, err := NewTelemetry(cfg, &buf)
	require.NoError(t, err)
	require.NotNil(t, telem.Registry)

	counter, err := telem.MeterProvider.Meter("test").Int64Counter("inventory.test.counter")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	families, err := telem.Registry.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "inventory_test_counter_total")

	assert.NoError(t, telem.Shutdown(context.Background()))
}
