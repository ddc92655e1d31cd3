package dto

import "github.com/mrops-br/inventory-dashboard-api/internal/domain"

// UpdateConfigRequest represents a partial configuration update
type UpdateConfigRequest struct {
	LowStockThreshold      *int    `json:"lowStockThreshold,omitempty"`
	CriticalStockThreshold *int    `json:"criticalStockThreshold,omitempty"`
	WarehouseLocation      *string `json:"warehouseLocation,omitempty"`
	AdminName              *string `json:"adminName,omitempty"`
	Currency               *string `json:"currency,omitempty"`
}

// ToPatch converts the request to a domain patch
func (r *UpdateConfigRequest) ToPatch() domain.ConfigPatch {
	return domain.ConfigPatch{
		LowStockThreshold:      r.LowStockThreshold,
		CriticalStockThreshold: r.CriticalStockThreshold,
		WarehouseLocation:      r.WarehouseLocation,
		AdminName:              r.AdminName,
		Currency:               r.Currency,
	}
}

// ImportResponse reports the outcome of a whole-store import
type ImportResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
