package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mrops-br/inventory-dashboard-api/internal/app/dto"
	"github.com/mrops-br/inventory-dashboard-api/internal/app/service"
	"github.com/mrops-br/inventory-dashboard-api/internal/infrastructure/http/response"
)

// InventoryHandler handles HTTP requests for products, configuration and stats
type InventoryHandler struct {
	service *service.InventoryService
	logger  *slog.Logger
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(service *service.InventoryService, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{
		service: service,
		logger:  logger,
	}
}

func (h *InventoryHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to decode request body",
			slog.String("error", err.Error()),
		)
		response.Error(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

// ListProducts handles GET /api/products
func (h *InventoryHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.ToProductResponseList(products))
}

// GetProduct handles GET /api/products/{id}
func (h *InventoryHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.ToProductResponse(product))
}

// CreateProduct handles POST /api/products
func (h *InventoryHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	product, err := h.service.AddProduct(r.Context(), &req)
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, dto.ToProductResponse(product))
}

// UpdateProduct handles PATCH /api/products/{id}
func (h *InventoryHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.UpdateProductRequest
	if !h.decode(w, r, &req) {
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), id, &req)
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.ToProductResponse(product))
}

// DeleteProduct handles DELETE /api/products/{id}
func (h *InventoryHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetConfig handles GET /api/config
func (h *InventoryHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.service.GetConfig(r.Context()))
}

// UpdateConfig handles PATCH /api/config
func (h *InventoryHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateConfigRequest
	if !h.decode(w, r, &req) {
		return
	}

	cfg, err := h.service.UpdateConfig(r.Context(), &req)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	response.JSON(w, http.StatusOK, cfg)
}

// GetStats handles GET /api/stats
func (h *InventoryHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.service.GetStats(r.Context()))
}
