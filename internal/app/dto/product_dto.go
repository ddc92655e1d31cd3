package dto

import (
	"time"

	"github.com/mrops-br/inventory-dashboard-api/internal/domain"
)

// CreateProductRequest represents the request to create a product
type CreateProductRequest struct {
	Name     string          `json:"name"`
	Category domain.Category `json:"category"`
	Price    float64         `json:"price"`
	Quantity int             `json:"quantity"`
}

// UpdateProductRequest represents a partial product update. Absent fields are
// left unchanged.
type UpdateProductRequest struct {
	Name     *string          `json:"name,omitempty"`
	Category *domain.Category `json:"category,omitempty"`
	Price    *float64         `json:"price,omitempty"`
	Quantity *int             `json:"quantity,omitempty"`
}

// ToPatch converts the request to a domain patch
func (r *UpdateProductRequest) ToPatch() domain.ProductPatch {
	return domain.ProductPatch{
		Name:     r.Name,
		Category: r.Category,
		Price:    r.Price,
		Quantity: r.Quantity,
	}
}

// ProductResponse represents the product response
type ProductResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    domain.Category `json:"category"`
	Price       float64         `json:"price"`
	Quantity    int             `json:"quantity"`
	Status      domain.Status   `json:"status"`
	Priority    domain.Priority `json:"priority"`
	LastUpdated time.Time       `json:"lastUpdated"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *domain.Product) *ProductResponse {
	return &ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		Price:       p.Price,
		Quantity:    p.Quantity,
		Status:      p.Status,
		Priority:    p.Priority,
		LastUpdated: p.LastUpdated,
	}
}

// ToProductResponseList converts a list of domain Products to ProductResponse list
func ToProductResponseList(products []domain.Product) []*ProductResponse {
	responses := make([]*ProductResponse, len(products))
	for i := range products {
		responses[i] = ToProductResponse(&products[i])
	}
	return responses
}
