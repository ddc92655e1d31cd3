package domain

import "time"

// DefaultCatalog returns the factory catalog with derived fields computed
// against cfg and every record stamped with now.
func DefaultCatalog(cfg SystemConfig, now time.Time) []Product {
	products := []Product{
		{ID: "NX-1001", Name: `MacBook Pro 16" M3 Max`, Category: CategoryComputing, Price: 3499, Quantity: 4},
		{ID: "NX-1002", Name: "Sony WH-1000XM5", Category: CategoryAudio, Price: 399, Quantity: 45},
		{ID: "NX-1003", Name: "iPhone 15 Pro", Category: CategoryElectronics, Price: 999, Quantity: 0},
		{ID: "NX-1004", Name: "Logitech MX Master 3S", Category: CategoryAccessories, Price: 99, Quantity: 12},
		{ID: "NX-1005", Name: "Nexus Smart Fridge", Category: CategoryAppliances, Price: 2199, Quantity: 2},
		{ID: "NX-1006", Name: `iPad Pro 12.9"`, Category: CategoryElectronics, Price: 1099, Quantity: 18},
	}

	for i := range products {
		products[i].Refresh(cfg)
		products[i].LastUpdated = now
	}
	return products
}
