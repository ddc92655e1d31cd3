package domain

import "time"

// ProductPatch carries a partial product update; nil fields are left as is
type ProductPatch struct {
	Name     *string
	Category *Category
	Price    *float64
	Quantity *int
}

// Validate checks the fields that are set
func (p ProductPatch) Validate() error {
	if p.Name != nil && *p.Name == "" {
		return ErrInvalidProductName
	}
	if p.Category != nil && !p.Category.Valid() {
		return ErrInvalidCategory
	}
	if p.Price != nil && *p.Price < 0 {
		return ErrInvalidProductPrice
	}
	if p.Quantity != nil && *p.Quantity < 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// Apply merges the patch into product and stamps LastUpdated.
// Status and priority are recomputed only when the patch sets a quantity.
func (p ProductPatch) Apply(product Product, cfg SystemConfig, now time.Time) Product {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Category != nil {
		product.Category = *p.Category
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.Quantity != nil {
		product.Quantity = *p.Quantity
		product.Refresh(cfg)
	}
	product.LastUpdated = now
	return product
}
