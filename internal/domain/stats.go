package domain

// NamedCount is one bucket of a distribution
type NamedCount struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// DashboardStats aggregates the catalog for the dashboard
type DashboardStats struct {
	TotalItems           int          `json:"totalItems"`
	TotalValue           float64      `json:"totalValue"`
	LowStockCount        int          `json:"lowStockCount"`
	OutOfStockCount      int          `json:"outOfStockCount"`
	CategoryDistribution []NamedCount `json:"categoryDistribution"`
	StatusDistribution   []NamedCount `json:"statusDistribution"`
}

// ComputeStats aggregates products in a single pass.
// Categories appear in first-seen order and only when present; every known
// status is always reported. Products with an unknown status are only counted
// in the totals.
func ComputeStats(products []Product) DashboardStats {
	stats := DashboardStats{
		CategoryDistribution: []NamedCount{},
		StatusDistribution:   make([]NamedCount, len(Statuses)),
	}

	statusIndex := make(map[Status]int, len(Statuses))
	for i, s := range Statuses {
		stats.StatusDistribution[i] = NamedCount{Name: string(s)}
		statusIndex[s] = i
	}
	categoryIndex := make(map[Category]int)

	for _, p := range products {
		stats.TotalItems += p.Quantity
		stats.TotalValue += p.Price * float64(p.Quantity)

		switch p.Status {
		case StatusLowStock:
			stats.LowStockCount++
		case StatusOutOfStock:
			stats.OutOfStockCount++
		}

		if i, ok := statusIndex[p.Status]; ok {
			stats.StatusDistribution[i].Value++
		}

		i, ok := categoryIndex[p.Category]
		if !ok {
			i = len(stats.CategoryDistribution)
			categoryIndex[p.Category] = i
			stats.CategoryDistribution = append(stats.CategoryDistribution, NamedCount{Name: string(p.Category)})
		}
		stats.CategoryDistribution[i].Value++
	}

	return stats
}
