package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mrops-br/inventory-dashboard-api/internal/app/dto"
	"github.com/mrops-br/inventory-dashboard-api/internal/app/service"
	"github.com/mrops-br/inventory-dashboard-api/internal/domain"
	"github.com/mrops-br/inventory-dashboard-api/internal/infrastructure/http/response"
)

// maxImportBytes caps the size of an uploaded import document
const maxImportBytes = 10 << 20

// DatabaseHandler handles whole-store export, import and reset
type DatabaseHandler struct {
	service *service.InventoryService
	logger  *slog.Logger
	now     func() time.Time
}

// NewDatabaseHandler creates a new database handler
func NewDatabaseHandler(service *service.InventoryService, logger *slog.Logger) *DatabaseHandler {
	return &DatabaseHandler{
		service: service,
		logger:  logger,
		now:     time.Now,
	}
}

// Export handles GET /api/database/export. With ?download=1 the document is
// sent as a file attachment.
func (h *DatabaseHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.ExportAll(r.Context())
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	if r.URL.Query().Get("download") != "" {
		filename := fmt.Sprintf("inventory-backup-%s.json", h.now().Format("2006-01-02"))
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	response.Raw(w, http.StatusOK, "application/json", data)
}

// Import handles POST /api/database/import. The document is either the raw
// request body or the "file" part of a multipart upload.
func (h *DatabaseHandler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := h.readDocument(w, r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to read import document",
			slog.String("error", err.Error()),
		)
		response.JSON(w, http.StatusBadRequest, dto.ImportResponse{Success: false, Message: err.Error()})
		return
	}

	if err := h.service.ImportAll(r.Context(), data); err != nil {
		if errors.Is(err, domain.ErrMalformedImport) {
			response.JSON(w, http.StatusBadRequest, dto.ImportResponse{Success: false, Message: "invalid backup format"})
			return
		}
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.ImportResponse{Success: true})
}

func (h *DatabaseHandler) readDocument(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("missing file part: %w", err)
		}
		defer file.Close()
		return io.ReadAll(file)
	}

	return io.ReadAll(r.Body)
}

// Reset handles POST /api/database/reset
func (h *DatabaseHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ResetAll(r.Context()); err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
