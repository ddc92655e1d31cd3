package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidProductName  = errors.New("product name is required")
	ErrInvalidProductPrice = errors.New("product price must not be negative")
	ErrInvalidQuantity     = errors.New("product quantity must not be negative")
	ErrInvalidCategory     = errors.New("unknown product category")
)

// Category is the fixed set of product categories
type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryAccessories Category = "Accessories"
	CategoryAppliances  Category = "Appliances"
	CategoryComputing   Category = "Computing"
	CategoryAudio       Category = "Audio"
)

// Categories lists every category in display order
var Categories = []Category{
	CategoryElectronics,
	CategoryAccessories,
	CategoryAppliances,
	CategoryComputing,
	CategoryAudio,
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Product represents a stock-keeping unit
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    Category  `json:"category"`
	Price       float64   `json:"price"`
	Quantity    int       `json:"quantity"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// NewProduct creates a product with derived fields computed against cfg.
// The caller assigns the ID.
func NewProduct(name string, category Category, price float64, quantity int, cfg SystemConfig, now time.Time) (*Product, error) {
	product := &Product{
		Name:        name,
		Category:    category,
		Price:       price,
		Quantity:    quantity,
		LastUpdated: now,
	}

	if err := product.Validate(); err != nil {
		return nil, err
	}

	product.Refresh(cfg)
	return product, nil
}

// Validate performs basic shape checks on the product
func (p *Product) Validate() error {
	if p.Name == "" {
		return ErrInvalidProductName
	}
	if !p.Category.Valid() {
		return ErrInvalidCategory
	}
	if p.Price < 0 {
		return ErrInvalidProductPrice
	}
	if p.Quantity < 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// Refresh recomputes status and priority from the current quantity
func (p *Product) Refresh(cfg SystemConfig) {
	p.Status = DetermineStatus(p.Quantity, cfg)
	p.Priority = CalculatePriority(p.Quantity, cfg)
}
