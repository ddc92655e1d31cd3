package domain

// Status is the stock health of a product
type Status string

const (
	StatusInStock      Status = "In Stock"
	StatusLowStock     Status = "Low Stock"
	StatusOutOfStock   Status = "Out of Stock"
	StatusDiscontinued Status = "Discontinued"
)

// Statuses lists every status in distribution order
var Statuses = []Status{
	StatusInStock,
	StatusLowStock,
	StatusOutOfStock,
	StatusDiscontinued,
}

// Priority is the restock urgency of a product
type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

// Rank orders priorities from most to least urgent. Unknown values sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// CalculatePriority maps an on-hand quantity to a restock priority
func CalculatePriority(quantity int, cfg SystemConfig) Priority {
	switch {
	case quantity == 0:
		return PriorityCritical
	case quantity <= cfg.CriticalStockThreshold:
		return PriorityHigh
	case quantity <= cfg.LowStockThreshold:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// DetermineStatus maps an on-hand quantity to a stock status.
// Discontinued is never produced here.
func DetermineStatus(quantity int, cfg SystemConfig) Status {
	switch {
	case quantity == 0:
		return StatusOutOfStock
	case quantity <= cfg.LowStockThreshold:
		return StatusLowStock
	default:
		return StatusInStock
	}
}
