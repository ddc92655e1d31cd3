package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mrops-br/inventory-dashboard-api/internal/infrastructure/config"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
)

// Telemetry holds all OpenTelemetry components
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *metric.MeterProvider
	Logger         *slog.Logger
	// Registry backs the /metrics endpoint
	Registry *prometheus.Registry

	conns []*grpc.ClientConn
}

// NewTelemetry initializes all OpenTelemetry components. Logs are written to out.
func NewTelemetry(cfg *config.Config, out io.Writer) (*Telemetry, error) {
	if !cfg.OTLP.Enabled {
		return NewNoOpTelemetry(cfg, out)
	}

	// Initialize logger first for debugging
	logger := initLogger(&cfg.OTLP, cfg.Log.Level, out)

	logger.Info("Initializing OpenTelemetry",
		slog.String("endpoint", cfg.OTLP.Endpoint),
		slog.String("service_name", cfg.OTLP.ServiceName),
	)

	res, err := newResource(&cfg.OTLP)
	if err != nil {
		return nil, err
	}

	tp, traceConn, err := initTracerProvider(&cfg.OTLP, res)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer provider: %w", err)
	}

	otel.SetTracerProvider(tp)
	logger.Info("Tracer provider initialized successfully")

	// Meter provider exports through OTLP and Prometheus
	registry := newRegistry()
	mp, metricConn, err := initMeterProvider(&cfg.OTLP, res, registry)
	if err != nil {
		_ = tp.Shutdown(context.Background())
		traceConn.Close()
		return nil, fmt.Errorf("failed to initialize meter provider: %w", err)
	}

	otel.SetMeterProvider(mp)
	logger.Info("Meter provider initialized successfully (OTLP + Prometheus exporters)")

	return &Telemetry{
		TracerProvider: tp,
		MeterProvider:  mp,
		Logger:         logger,
		Registry:       registry,
		conns:          []*grpc.ClientConn{traceConn, metricConn},
	}, nil
}

// NewNoOpTelemetry creates a telemetry instance that exports nothing over
// OTLP. Prometheus metrics are still collected.
func NewNoOpTelemetry(cfg *config.Config, out io.Writer) (*Telemetry, error) {
	logger := initLogger(&cfg.OTLP, cfg.Log.Level, out)

	tp := sdktrace.NewTracerProvider()

	registry := newRegistry()
	reader, err := newPrometheusReader(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}
	mp := metric.NewMeterProvider(metric.WithReader(reader))

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	logger.Info("Telemetry initialized in no-op mode (export disabled)")

	return &Telemetry{
		TracerProvider: tp,
		MeterProvider:  mp,
		Logger:         logger,
		Registry:       registry,
	}, nil
}

// Shutdown gracefully shuts down all telemetry components
func (t *Telemetry) Shutdown(ctx context.Context) error {
	t.Logger.Info("Shutting down OpenTelemetry")

	if err := t.TracerProvider.Shutdown(ctx); err != nil {
		t.Logger.Error("Failed to shutdown tracer provider", slog.String("error", err.Error()))
		return err
	}

	if err := t.MeterProvider.Shutdown(ctx); err != nil {
		t.Logger.Error("Failed to shutdown meter provider", slog.String("error", err.Error()))
		return err
	}

	var errs []error
	for _, conn := range t.conns {
		errs = append(errs, conn.Close())
	}
	if err := errors.Join(errs...); err != nil {
		t.Logger.Error("Failed to close OTLP connections", slog.String("error", err.Error()))
		return err
	}

	t.Logger.Info("OpenTelemetry shutdown successfully")
	return nil
}
