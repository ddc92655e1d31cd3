package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mrops-br/inventory-dashboard-api/internal/infrastructure/config"
	"github.com/mrops-br/inventory-dashboard-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/inventory-dashboard-api/internal/infrastructure/http/middleware"
	"github.com/mrops-br/inventory-dashboard-api/internal/infrastructure/telemetry"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

// Handlers groups the route handlers served by the API
type Handlers struct {
	Inventory *handler.InventoryHandler
	Database  *handler.DatabaseHandler
	Events    *handler.EventsHandler
}

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	handlers  Handlers
	logger    *slog.Logger
	telemetry *telemetry.Telemetry
	srv       *http.Server
}

// NewServer creates a new HTTP server
func NewServer(
	cfg *config.ServerConfig,
	handlers Handlers,
	logger *slog.Logger,
	telem *telemetry.Telemetry,
) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		handlers:  handlers,
		logger:    logger,
		telemetry: telem,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.srv = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// setupMiddleware configures the middleware chain
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.StructuredLogger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.RequestID)

	// Add HTTP route to context so all logs include it automatically
	s.router.Use(middleware.HTTPRouteContext())

	meter := s.telemetry.MeterProvider.Meter("inventory-api")
	s.router.Use(middleware.ActiveRequestsMiddleware(meter))
	s.router.Use(middleware.DurationMillisecondsMiddleware(meter))
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.handlers.Inventory.ListProducts)
			r.Post("/", s.handlers.Inventory.CreateProduct)
			r.Get("/{id}", s.handlers.Inventory.GetProduct)
			r.Patch("/{id}", s.handlers.Inventory.UpdateProduct)
			r.Delete("/{id}", s.handlers.Inventory.DeleteProduct)
		})

		r.Get("/config", s.handlers.Inventory.GetConfig)
		r.Patch("/config", s.handlers.Inventory.UpdateConfig)
		r.Get("/stats", s.handlers.Inventory.GetStats)

		r.Route("/database", func(r chi.Router) {
			r.Get("/export", s.handlers.Database.Export)
			r.Post("/import", s.handlers.Database.Import)
			r.Post("/reset", s.handlers.Database.Reset)
		})

		r.Get("/events", s.handlers.Events.Stream)
	})

	// Health check endpoint
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Prometheus metrics endpoint - exposes OpenTelemetry metrics
	s.router.Get("/metrics", promhttp.HandlerFor(s.telemetry.Registry, promhttp.HandlerOpts{}).ServeHTTP)
}

// Handler returns the router wrapped with otelhttp for automatic HTTP metrics and tracing.
// The route context is created outside otelhttp so its metric attributes see
// the matched pattern instead of the raw path.
func (s *Server) Handler() http.Handler {
	instrumented := otelhttp.NewHandler(s.router, "http-server",
		otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
			return fmt.Sprintf("%s %s", r.Method, r.URL.Path)
		}),
		otelhttp.WithTracerProvider(s.telemetry.TracerProvider),
		otelhttp.WithMeterProvider(s.telemetry.MeterProvider),
		otelhttp.WithMetricAttributesFn(func(r *http.Request) []attribute.KeyValue {
			return []attribute.KeyValue{
				attribute.String("http.route", middleware.RoutePattern(r)),
			}
		}),
	)
	return middleware.RouteContext(s.router)(instrumented)
}

// Start serves until Shutdown is called. It returns nil on a clean shutdown.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server",
		slog.String("address", s.srv.Addr),
	)

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
