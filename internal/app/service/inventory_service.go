package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mrops-br/inventory-dashboard-api/internal/app/dto"
	"github.com/mrops-br/inventory-dashboard-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// maxIDAttempts bounds the search for an unused product id
const maxIDAttempts = 32

var ErrIDExhausted = errors.New("could not generate a unique product id")

// Option configures an InventoryService
type Option func(*InventoryService)

// WithClock overrides the time source used for lastUpdated stamps
func WithClock(now func() time.Time) Option {
	return func(s *InventoryService) {
		s.now = now
	}
}

// WithIDGenerator overrides the product id generator
func WithIDGenerator(newID func() string) Option {
	return func(s *InventoryService) {
		s.newID = newID
	}
}

// WithNotifier sets the notifier receiving store change events
func WithNotifier(n *Notifier) Option {
	return func(s *InventoryService) {
		s.events = n
	}
}

// InventoryService owns the product catalog and the system configuration.
// Every operation holds the service lock for its whole duration, and every
// mutation is persisted before the in-memory state changes. The two
// collections are separate writes; see persist for how a failure between
// them is handled.
type InventoryService struct {
	mu       sync.RWMutex
	store    domain.StateStore
	products []domain.Product
	config   domain.SystemConfig

	tracer trace.Tracer
	logger *slog.Logger
	events *Notifier
	now    func() time.Time
	newID  func() string

	productCreatedCounter metric.Int64Counter
	productOperations     metric.Int64Counter
}

// NewInventoryService loads the catalog and configuration from store, seeding
// factory defaults for absent entries, and registers the stock gauges on meter.
func NewInventoryService(
	ctx context.Context,
	store domain.StateStore,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
	opts ...Option,
) (*InventoryService, error) {
	productCreatedCounter, _ := meter.Int64Counter(
		"inventory.products.created.total",
		metric.WithDescription("Total number of products created"),
	)

	productOperations, _ := meter.Int64Counter(
		"inventory.operations",
		metric.WithDescription("Total number of inventory store operations"),
	)

	s := &InventoryService{
		store:                 store,
		tracer:                tracer,
		logger:                logger,
		now:                   time.Now,
		newID:                 newProductID,
		productCreatedCounter: productCreatedCounter,
		productOperations:     productOperations,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.events == nil {
		s.events = NewNotifier(defaultSubscriberBuffer)
	}

	if err := s.load(ctx); err != nil {
		return nil, err
	}

	if err := s.registerStockGauges(meter); err != nil {
		logger.Warn("Failed to register stock gauges", slog.String("error", err.Error()))
	}

	return s, nil
}

// newProductID returns an NX- prefixed code built from a random UUID
func newProductID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "NX-" + strings.ToUpper(hex[:8])
}

func (s *InventoryService) load(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "InventoryService.load")
	defer span.End()

	cfg := domain.DefaultConfig()
	raw, found, err := s.store.Get(ctx, domain.ConfigKey)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to read config")
		return fmt.Errorf("failed to read config: %w", err)
	}
	if found {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to decode config")
			return fmt.Errorf("failed to decode config: %w", err)
		}
	}

	var products []domain.Product
	raw, found, err = s.store.Get(ctx, domain.CatalogKey)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to read catalog")
		return fmt.Errorf("failed to read catalog: %w", err)
	}
	if found {
		if err := json.Unmarshal(raw, &products); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to decode catalog")
			return fmt.Errorf("failed to decode catalog: %w", err)
		}
	} else {
		products = domain.DefaultCatalog(cfg, s.now())
	}

	s.products = products
	s.config = cfg

	span.SetAttributes(attribute.Int("product.count", len(products)))
	s.logger.InfoContext(ctx, "Inventory loaded",
		slog.Int("count", len(products)),
		slog.Bool("seeded", !found),
	)

	span.SetStatus(codes.Ok, "Inventory loaded")
	return nil
}

// persist writes both collections, catalog first. Callers hold the write lock
// and commit the new state only after persist succeeds. When the config write
// fails the previously committed catalog is written back, so storage is only
// left mixed if that rollback fails too.
func (s *InventoryService) persist(ctx context.Context, products []domain.Product, cfg domain.SystemConfig) error {
	catalog, err := encodeCatalog(products)
	if err != nil {
		return err
	}
	config, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := s.store.Set(ctx, domain.CatalogKey, catalog); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	if err := s.store.Set(ctx, domain.ConfigKey, config); err != nil {
		s.rollbackCatalog(ctx)
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// rollbackCatalog restores the stored catalog to the committed one
func (s *InventoryService) rollbackCatalog(ctx context.Context) {
	previous, err := encodeCatalog(s.products)
	if err == nil {
		err = s.store.Set(ctx, domain.CatalogKey, previous)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to roll back catalog, stored catalog and config disagree",
			slog.String("error", err.Error()),
		)
	}
}

func encodeCatalog(products []domain.Product) ([]byte, error) {
	if products == nil {
		products = []domain.Product{}
	}
	data, err := json.Marshal(products)
	if err != nil {
		return nil, fmt.Errorf("failed to encode catalog: %w", err)
	}
	return data, nil
}

func (s *InventoryService) recordOperation(ctx context.Context, operation, result string) {
	s.productOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", result),
		),
	)
}

// fail records err on the span, logs it and counts the operation as failed
func (s *InventoryService) fail(ctx context.Context, span trace.Span, operation, message string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, message)

	result := "failure"
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		result = "not_found"
		s.logger.WarnContext(ctx, message, slog.String("error", err.Error()))
	case errors.Is(err, domain.ErrMalformedImport):
		result = "rejected"
		s.logger.WarnContext(ctx, message, slog.String("error", err.Error()))
	default:
		s.logger.ErrorContext(ctx, message, slog.String("error", err.Error()))
	}

	s.recordOperation(ctx, operation, result)
	return err
}

func (s *InventoryService) publish(eventType EventType, productID string, reload bool) {
	s.events.Publish(Event{
		Type:           eventType,
		ProductID:      productID,
		ReloadRequired: reload,
		At:             s.now(),
	})
}

// Subscribe registers for store change events
func (s *InventoryService) Subscribe() (<-chan Event, func()) {
	return s.events.Subscribe()
}

func (s *InventoryService) indexOf(id string) int {
	return slices.IndexFunc(s.products, func(p domain.Product) bool {
		return p.ID == id
	})
}

// ListProducts returns all products ordered from most to least urgent
// priority. Products sharing a priority keep their catalog order.
func (s *InventoryService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.ListProducts")
	defer span.End()

	s.mu.RLock()
	products := slices.Clone(s.products)
	s.mu.RUnlock()

	if products == nil {
		products = []domain.Product{}
	}
	slices.SortStableFunc(products, func(a, b domain.Product) int {
		return a.Priority.Rank() - b.Priority.Rank()
	})

	span.SetAttributes(attribute.Int("product.count", len(products)))
	s.recordOperation(ctx, "list", "success")

	s.logger.DebugContext(ctx, "Products listed",
		slog.Int("count", len(products)),
	)

	span.SetStatus(codes.Ok, "Products listed successfully")
	return products, nil
}

// GetProduct retrieves a product by ID
func (s *InventoryService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.GetProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, s.fail(ctx, span, "read", "Product not found", domain.ErrProductNotFound)
	}

	product := s.products[i]
	s.recordOperation(ctx, "read", "success")

	span.SetStatus(codes.Ok, "Product retrieved successfully")
	return &product, nil
}

// AddProduct creates a product with a fresh id and derived fields
func (s *InventoryService) AddProduct(ctx context.Context, req *dto.CreateProductRequest) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.AddProduct")
	defer span.End()

	span.SetAttributes(
		attribute.String("product.name", req.Name),
		attribute.String("product.category", string(req.Category)),
		attribute.Int("product.quantity", req.Quantity),
	)

	s.logger.InfoContext(ctx, "Creating product",
		slog.String("name", req.Name),
		slog.String("category", string(req.Category)),
		slog.Int("quantity", req.Quantity),
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	product, err := domain.NewProduct(req.Name, req.Category, req.Price, req.Quantity, s.config, s.now())
	if err != nil {
		return nil, s.fail(ctx, span, "create", "Validation failed", err)
	}

	id, err := s.uniqueID()
	if err != nil {
		return nil, s.fail(ctx, span, "create", "Failed to allocate product id", err)
	}
	product.ID = id
	span.SetAttributes(attribute.String("product.id", id))

	products := append(slices.Clip(s.products), *product)
	if err := s.persist(ctx, products, s.config); err != nil {
		return nil, s.fail(ctx, span, "create", "Failed to store product", err)
	}
	s.products = products

	s.productCreatedCounter.Add(ctx, 1)
	s.recordOperation(ctx, "create", "success")
	s.publish(EventProductCreated, id, false)

	s.logger.InfoContext(ctx, "Product created successfully",
		slog.String("product_id", id),
		slog.String("status", string(product.Status)),
		slog.String("priority", string(product.Priority)),
	)

	span.SetStatus(codes.Ok, "Product created successfully")
	return product, nil
}

// uniqueID draws ids until one is unused in the catalog
func (s *InventoryService) uniqueID() (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id := s.newID()
		if s.indexOf(id) < 0 {
			return id, nil
		}
	}
	return "", ErrIDExhausted
}

// UpdateProduct merges the set fields of req into the product. Status and
// priority are only recomputed when the request carries a quantity.
func (s *InventoryService) UpdateProduct(ctx context.Context, id string, req *dto.UpdateProductRequest) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.UpdateProduct")
	defer span.End()

	span.SetAttributes(
		attribute.String("product.id", id),
		attribute.Bool("product.quantity_changed", req.Quantity != nil),
	)

	patch := req.ToPatch()
	if err := patch.Validate(); err != nil {
		return nil, s.fail(ctx, span, "update", "Validation failed", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, s.fail(ctx, span, "update", "Product not found", fmt.Errorf("%w: %s", domain.ErrProductNotFound, id))
	}

	updated := patch.Apply(s.products[i], s.config, s.now())
	products := slices.Clone(s.products)
	products[i] = updated

	if err := s.persist(ctx, products, s.config); err != nil {
		return nil, s.fail(ctx, span, "update", "Failed to store product", err)
	}
	s.products = products

	s.recordOperation(ctx, "update", "success")
	s.publish(EventProductUpdated, id, false)

	s.logger.InfoContext(ctx, "Product updated successfully",
		slog.String("product_id", id),
		slog.String("status", string(updated.Status)),
		slog.String("priority", string(updated.Priority)),
	)

	span.SetStatus(codes.Ok, "Product updated successfully")
	return &updated, nil
}

// DeleteProduct removes the product with the given id. Deleting an unknown id
// is not an error.
func (s *InventoryService) DeleteProduct(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "InventoryService.DeleteProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	s.mu.Lock()
	defer s.mu.Unlock()

	products := slices.DeleteFunc(slices.Clone(s.products), func(p domain.Product) bool {
		return p.ID == id
	})
	removed := len(products) != len(s.products)

	if err := s.persist(ctx, products, s.config); err != nil {
		return s.fail(ctx, span, "delete", "Failed to delete product", err)
	}
	s.products = products

	s.recordOperation(ctx, "delete", "success")
	if removed {
		s.publish(EventProductDeleted, id, false)
	}

	s.logger.InfoContext(ctx, "Product deleted",
		slog.String("product_id", id),
		slog.Bool("removed", removed),
	)

	span.SetStatus(codes.Ok, "Product deleted")
	return nil
}

// GetConfig returns the current configuration
func (s *InventoryService) GetConfig(ctx context.Context) domain.SystemConfig {
	_, span := s.tracer.Start(ctx, "InventoryService.GetConfig")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// UpdateConfig merges the set fields of req into the configuration and
// re-evaluates status and priority of every product against it.
func (s *InventoryService) UpdateConfig(ctx context.Context, req *dto.UpdateConfigRequest) (domain.SystemConfig, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.UpdateConfig")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := req.ToPatch().Apply(s.config)
	span.SetAttributes(
		attribute.Int("config.low_stock_threshold", cfg.LowStockThreshold),
		attribute.Int("config.critical_stock_threshold", cfg.CriticalStockThreshold),
	)

	products := slices.Clone(s.products)
	for i := range products {
		products[i].Refresh(cfg)
	}

	if err := s.persist(ctx, products, cfg); err != nil {
		return s.config, s.fail(ctx, span, "config_update", "Failed to store configuration", err)
	}
	s.products = products
	s.config = cfg

	s.recordOperation(ctx, "config_update", "success")
	s.publish(EventConfigUpdated, "", false)

	s.logger.InfoContext(ctx, "Configuration updated",
		slog.Int("low_stock_threshold", cfg.LowStockThreshold),
		slog.Int("critical_stock_threshold", cfg.CriticalStockThreshold),
		slog.Int("recomputed", len(products)),
	)

	span.SetStatus(codes.Ok, "Configuration updated")
	return cfg, nil
}

// GetStats aggregates the current catalog
func (s *InventoryService) GetStats(ctx context.Context) domain.DashboardStats {
	_, span := s.tracer.Start(ctx, "InventoryService.GetStats")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.ComputeStats(s.products)
	span.SetAttributes(
		attribute.Int("stats.total_items", stats.TotalItems),
		attribute.Float64("stats.total_value", stats.TotalValue),
	)
	return stats
}

// ExportAll renders the whole store as an indented JSON document
func (s *InventoryService) ExportAll(ctx context.Context) ([]byte, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.ExportAll")
	defer span.End()

	s.mu.RLock()
	snapshot := domain.Snapshot{Products: s.products, Config: s.config}
	data, err := snapshot.Encode()
	s.mu.RUnlock()

	if err != nil {
		return nil, s.fail(ctx, span, "export", "Failed to export store", err)
	}

	s.recordOperation(ctx, "export", "success")
	span.SetAttributes(attribute.Int("export.bytes", len(data)))
	span.SetStatus(codes.Ok, "Store exported")
	return data, nil
}

// ImportAll replaces the whole store with the given document. A document that
// is not an object with a products array is rejected with ErrMalformedImport
// and leaves the store untouched. The configuration is only replaced when the
// document carries one.
func (s *InventoryService) ImportAll(ctx context.Context, data []byte) error {
	ctx, span := s.tracer.Start(ctx, "InventoryService.ImportAll")
	defer span.End()

	span.SetAttributes(attribute.Int("import.bytes", len(data)))

	products, cfg, err := domain.DecodeSnapshot(data)
	if err != nil {
		return s.fail(ctx, span, "import", "Import rejected", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	newConfig := s.config
	if cfg != nil {
		newConfig = *cfg
	}

	if err := s.persist(ctx, products, newConfig); err != nil {
		return s.fail(ctx, span, "import", "Failed to store import", err)
	}
	s.products = products
	s.config = newConfig

	s.recordOperation(ctx, "import", "success")
	s.publish(EventStoreImported, "", true)

	s.logger.InfoContext(ctx, "Store imported",
		slog.Int("count", len(products)),
		slog.Bool("config_replaced", cfg != nil),
	)

	span.SetStatus(codes.Ok, "Store imported")
	return nil
}

// ResetAll restores the factory catalog and configuration
func (s *InventoryService) ResetAll(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "InventoryService.ResetAll")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := domain.DefaultConfig()
	products := domain.DefaultCatalog(cfg, s.now())

	if err := s.persist(ctx, products, cfg); err != nil {
		return s.fail(ctx, span, "reset", "Failed to reset store", err)
	}
	s.products = products
	s.config = cfg

	s.recordOperation(ctx, "reset", "success")
	s.publish(EventStoreReset, "", true)

	s.logger.InfoContext(ctx, "Store reset to factory defaults")

	span.SetStatus(codes.Ok, "Store reset")
	return nil
}
