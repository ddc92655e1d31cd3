package domain

// SystemConfig holds the tunable thresholds and descriptive settings of the store
type SystemConfig struct {
	LowStockThreshold      int    `json:"lowStockThreshold"`
	CriticalStockThreshold int    `json:"criticalStockThreshold"`
	WarehouseLocation      string `json:"warehouseLocation"`
	AdminName              string `json:"adminName"`
	Currency               string `json:"currency"`
}

// ConfigPatch carries a partial configuration update; nil fields are left as is
type ConfigPatch struct {
	LowStockThreshold      *int
	CriticalStockThreshold *int
	WarehouseLocation      *string
	AdminName              *string
	Currency               *string
}

// Apply returns cfg with the non-nil patch fields merged in.
// Threshold ordering is not checked.
func (p ConfigPatch) Apply(cfg SystemConfig) SystemConfig {
	if p.LowStockThreshold != nil {
		cfg.LowStockThreshold = *p.LowStockThreshold
	}
	if p.CriticalStockThreshold != nil {
		cfg.CriticalStockThreshold = *p.CriticalStockThreshold
	}
	if p.WarehouseLocation != nil {
		cfg.WarehouseLocation = *p.WarehouseLocation
	}
	if p.AdminName != nil {
		cfg.AdminName = *p.AdminName
	}
	if p.Currency != nil {
		cfg.Currency = *p.Currency
	}
	return cfg
}

// DefaultConfig returns the factory configuration
func DefaultConfig() SystemConfig {
	return SystemConfig{
		LowStockThreshold:      10,
		CriticalStockThreshold: 5,
		WarehouseLocation:      "Nexus Prime - Sector 7",
		AdminName:              "Lead Engineer",
		Currency:               "USD",
	}
}
