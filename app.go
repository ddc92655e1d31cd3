package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mrops-br/inventory-dashboard-api/internal/app/service"
	"github.com/mrops-br/inventory-dashboard-api/internal/domain"
	"github.com/mrops-br/inventory-dashboard-api/internal/infrastructure/config"
	"github.com/mrops-br/inventory-dashboard-api/internal/infrastructure/repository/file"
	"github.com/mrops-br/inventory-dashboard-api/internal/infrastructure/repository/memory"
	"github.com/mrops-br/inventory-dashboard-api/internal/infrastructure/repository/redis"
	"github.com/mrops-br/inventory-dashboard-api/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
)

// app holds the components shared by the server and the CLI commands
type app struct {
	cfg       *config.Config
	telemetry *telemetry.Telemetry
	logger    *slog.Logger
	inventory *service.InventoryService
	closers   []func() error
}

// appMode selects how much telemetry an invocation starts
type appMode int

const (
	// modeServer exports traces and metrics over OTLP when configured
	modeServer appMode = iota
	// modeOneShot never dials an OTLP collector, so short commands exit
	// without waiting on an exporter flush
	modeOneShot
)

// newApp loads configuration, initializes telemetry and opens the inventory
// store on the configured backend. Logs go to logOut.
func newApp(ctx context.Context, flags *globalFlags, logOut io.Writer, mode appMode) (*app, error) {
	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if mode == modeOneShot {
		cfg.OTLP.Enabled = false
	}

	telem, err := telemetry.NewTelemetry(cfg, logOut)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	a := &app{
		cfg:       cfg,
		telemetry: telem,
		logger:    telem.Logger,
	}

	tracer := telem.TracerProvider.Tracer(cfg.OTLP.ServiceName)
	meter := telem.MeterProvider.Meter(cfg.OTLP.ServiceName)

	store, closeStore, err := newStateStore(ctx, &cfg.Storage, tracer, a.logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}

	inventory, err := service.NewInventoryService(ctx, store, tracer, meter, a.logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open inventory: %w", err)
	}
	a.inventory = inventory

	return a, nil
}

// newStateStore opens the configured durable backend. The returned closer may be nil.
func newStateStore(ctx context.Context, cfg *config.StorageConfig, tracer trace.Tracer, logger *slog.Logger) (domain.StateStore, func() error, error) {
	logger.Info("Opening state store", slog.String("backend", cfg.Backend))

	switch cfg.Backend {
	case config.BackendFile:
		store, err := file.NewStateStore(cfg.DataDir, tracer, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	case config.BackendRedis:
		client, err := redis.NewClient(ctx, redis.Options{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return redis.NewStateStore(client, cfg.Redis.KeyPrefix, tracer, logger), client.Close, nil
	case config.BackendMemory:
		return memory.NewStateStore(tracer, logger), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Close releases the backend and flushes telemetry
func (a *app) Close() {
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.logger.Error("Failed to close resource", slog.String("error", err.Error()))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.telemetry.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Error shutting down telemetry", slog.String("error", err.Error()))
	}
}
