package service

import (
	"context"

	"github.com/mrops-br/inventory-dashboard-api/internal/domain"
	"go.opentelemetry.io/otel/metric"
)

// registerStockGauges exposes the dashboard totals as observable gauges,
// computed from the catalog at collection time.
func (s *InventoryService) registerStockGauges(meter metric.Meter) error {
	items, err := meter.Int64ObservableGauge(
		"inventory.stock.items",
		metric.WithDescription("Total units on hand across the catalog"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return err
	}

	value, err := meter.Float64ObservableGauge(
		"inventory.stock.value",
		metric.WithDescription("Total stock value (price times quantity)"),
	)
	if err != nil {
		return err
	}

	low, err := meter.Int64ObservableGauge(
		"inventory.stock.low",
		metric.WithDescription("Number of products in Low Stock status"),
		metric.WithUnit("{product}"),
	)
	if err != nil {
		return err
	}

	out, err := meter.Int64ObservableGauge(
		"inventory.stock.out",
		metric.WithDescription("Number of products in Out of Stock status"),
		metric.WithUnit("{product}"),
	)
	if err != nil {
		return err
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s.mu.RLock()
		stats := domain.ComputeStats(s.products)
		s.mu.RUnlock()

		o.ObserveInt64(items, int64(stats.TotalItems))
		o.ObserveFloat64(value, stats.TotalValue)
		o.ObserveInt64(low, int64(stats.LowStockCount))
		o.ObserveInt64(out, int64(stats.OutOfStockCount))
		return nil
	}, items, value, low, out)
	return err
}
