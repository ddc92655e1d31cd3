package telemetry

import (
	"context"
	"fmt"

	"github.com/mrops-br/inventory-dashboard-api/internal/infrastructure/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// newRegistry creates the Prometheus registry served at /metrics
func newRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// newPrometheusReader bridges OpenTelemetry metrics into registry
func newPrometheusReader(registry *prometheus.Registry) (*otelprom.Exporter, error) {
	return otelprom.New(otelprom.WithRegisterer(registry))
}

// initMeterProvider initializes the OpenTelemetry meter provider with an OTLP
// periodic reader and a Prometheus reader
func initMeterProvider(cfg *config.OTLPConfig, res *resource.Resource, registry *prometheus.Registry) (*metric.MeterProvider, *grpc.ClientConn, error) {
	ctx := context.Background()

	// Create OTLP metric exporter
	conn, err := grpc.NewClient(cfg.Endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	exporter, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(conn))
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	promReader, err := newPrometheusReader(registry)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter)),
		metric.WithReader(promReader),
		metric.WithResource(res),
	)

	return mp, conn, nil
}
