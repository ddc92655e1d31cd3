package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mrops-br/inventory-dashboard-api/internal/app/dto"
	"github.com/mrops-br/inventory-dashboard-api/internal/app/service"
	"github.com/mrops-br/inventory-dashboard-api/internal/domain"
	"github.com/mrops-br/inventory-dashboard-api/internal/infrastructure/config"
	"github.com/mrops-br/inventory-dashboard-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/inventory-dashboard-api/internal/infrastructure/repository/memory"
	"github.com/mrops-br/inventory-dashboard-api/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer collects log output written by server goroutines
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newLoggingTestServer(t, io.Discard, "error")
}

func newLoggingTestServer(t *testing.T, logOut io.Writer, level string) *httptest.Server {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.OTLP.Enabled = false
	cfg.Log.Level = level

	telem, err := telemetry.NewTelemetry(cfg, logOut)
	require.NoError(t, err)
	t.Cleanup(func() { _ = telem.Shutdown(context.Background()) })

	tracer := telem.TracerProvider.Tracer("test")
	store := memory.NewStateStore(tracer, telem.Logger)
	inventory, err := service.NewInventoryService(context.Background(), store, tracer, telem.MeterProvider.Meter("test"), telem.Logger)
	require.NoError(t, err)

	handlers := Handlers{
		Inventory: handler.NewInventoryHandler(inventory, telem.Logger),
		Database:  handler.NewDatabaseHandler(inventory, telem.Logger),
		Events:    handler.NewEventsHandler(inventory, telem.Logger),
	}
	server := NewServer(&cfg.Server, handlers, telem.Logger, telem)

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, contentType string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestProductRoutes(t *testing.T) {
	ts := newTestServer(t)

	t.Run("list is ordered by priority", func(t *testing.T) {
		resp := do(t, http.MethodGet, ts.URL+"/api/products", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		products := decode[[]dto.ProductResponse](t, resp)
		require.Len(t, products, 6)
		assert.Equal(t, domain.PriorityCritical, products[0].Priority)
		assert.Equal(t, domain.PriorityLow, products[len(products)-1].Priority)
	})

	var created dto.ProductResponse
	t.Run("create", func(t *testing.T) {
		body := `{"name": "Studio Monitor", "category": "Audio", "price": 250, "quantity": 3}`
		resp := do(t, http.MethodPost, ts.URL+"/api/products", "application/json", strings.NewReader(body))
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		created = decode[dto.ProductResponse](t, resp)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, domain.StatusLowStock, created.Status)
		assert.Equal(t, domain.PriorityHigh, created.Priority)
	})

	t.Run("create rejects bad input", func(t *testing.T) {
		resp := do(t, http.MethodPost, ts.URL+"/api/products", "application/json", strings.NewReader(`{"name": `))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		resp = do(t, http.MethodPost, ts.URL+"/api/products", "application/json",
			strings.NewReader(`{"name": "Kite", "category": "Toys", "price": 1, "quantity": 1}`))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "bad_request", decode[map[string]string](t, resp)["error"])
	})

	t.Run("get", func(t *testing.T) {
		resp := do(t, http.MethodGet, ts.URL+"/api/products/"+created.ID, "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Studio Monitor", decode[dto.ProductResponse](t, resp).Name)
	})

	t.Run("patch quantity", func(t *testing.T) {
		resp := do(t, http.MethodPatch, ts.URL+"/api/products/"+created.ID, "application/json", strings.NewReader(`{"quantity": 0}`))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		updated := decode[dto.ProductResponse](t, resp)
		assert.Equal(t, domain.StatusOutOfStock, updated.Status)
		assert.Equal(t, "Studio Monitor", updated.Name)
	})

	t.Run("patch unknown product", func(t *testing.T) {
		resp := do(t, http.MethodPatch, ts.URL+"/api/products/NX-MISSING", "application/json", strings.NewReader(`{"name": "x"}`))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "not_found", decode[map[string]string](t, resp)["error"])
	})

	t.Run("delete", func(t *testing.T) {
		resp := do(t, http.MethodDelete, ts.URL+"/api/products/"+created.ID, "", nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = do(t, http.MethodGet, ts.URL+"/api/products/"+created.ID, "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp = do(t, http.MethodDelete, ts.URL+"/api/products/"+created.ID, "", nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})
}

func TestConfigAndStatsRoutes(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/api/config", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.DefaultConfig(), decode[domain.SystemConfig](t, resp))

	resp = do(t, http.MethodGet, ts.URL+"/api/stats", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	before := decode[domain.DashboardStats](t, resp)
	assert.Len(t, before.StatusDistribution, 4)

	// raising the low threshold above every quantity moves all in-stock products to low stock
	resp = do(t, http.MethodPatch, ts.URL+"/api/config", "application/json", strings.NewReader(`{"lowStockThreshold": 1000}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1000, decode[domain.SystemConfig](t, resp).LowStockThreshold)

	resp = do(t, http.MethodGet, ts.URL+"/api/stats", "", nil)
	after := decode[domain.DashboardStats](t, resp)
	assert.Equal(t, before.TotalItems, after.TotalItems)
	assert.Equal(t, before.OutOfStockCount, after.OutOfStockCount)
	assert.Equal(t, before.LowStockCount+before.StatusDistribution[0].Value, after.LowStockCount)
}

func TestDatabaseRoutes(t *testing.T) {
	ts := newTestServer(t)

	t.Run("export as download", func(t *testing.T) {
		resp := do(t, http.MethodGet, ts.URL+"/api/database/export?download=1", "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Disposition"), `attachment; filename="inventory-backup-`)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(body), "{\n  \"products\": ["))
	})

	t.Run("import rejects malformed document", func(t *testing.T) {
		resp := do(t, http.MethodPost, ts.URL+"/api/database/import", "application/json", strings.NewReader(`{}`))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.False(t, decode[dto.ImportResponse](t, resp).Success)

		resp = do(t, http.MethodGet, ts.URL+"/api/products", "", nil)
		assert.Len(t, decode[[]dto.ProductResponse](t, resp), 6)
	})

	t.Run("import raw body", func(t *testing.T) {
		resp := do(t, http.MethodPost, ts.URL+"/api/database/import", "application/json", strings.NewReader(`{"products": []}`))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, decode[dto.ImportResponse](t, resp).Success)

		resp = do(t, http.MethodGet, ts.URL+"/api/products", "", nil)
		assert.Empty(t, decode[[]dto.ProductResponse](t, resp))
	})

	t.Run("import multipart upload", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", "backup.json")
		require.NoError(t, err)
		_, err = part.Write([]byte(`{"products": [{"id": "NX-9", "name": "Tape", "category": "Accessories",
			"price": 3, "quantity": 100, "status": "In Stock", "priority": "Low"}]}`))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		resp := do(t, http.MethodPost, ts.URL+"/api/database/import", mw.FormDataContentType(), &buf)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = do(t, http.MethodGet, ts.URL+"/api/products", "", nil)
		products := decode[[]dto.ProductResponse](t, resp)
		require.Len(t, products, 1)
		assert.Equal(t, "NX-9", products[0].ID)
	})

	t.Run("reset", func(t *testing.T) {
		resp := do(t, http.MethodPost, ts.URL+"/api/database/reset", "", nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = do(t, http.MethodGet, ts.URL+"/api/products", "", nil)
		assert.Len(t, decode[[]dto.ProductResponse](t, resp), 6)
	})
}

func TestEventsRoute(t *testing.T) {
	ts := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/events"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	reset := do(t, http.MethodPost, ts.URL+"/api/database/reset", "", nil)
	require.Equal(t, http.StatusNoContent, reset.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var event service.Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, service.EventStoreReset, event.Type)
	assert.True(t, event.ReloadRequired)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// one API call so the request metrics have data
	do(t, http.MethodGet, ts.URL+"/api/stats", "", nil)

	resp = do(t, http.MethodGet, ts.URL+"/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "inventory_stock_items")
}

func TestRequestLogsCarryRoutePattern(t *testing.T) {
	var logs syncBuffer
	ts := newLoggingTestServer(t, &logs, "info")

	resp := do(t, http.MethodPatch, ts.URL+"/api/products/NX-1004", "application/json", strings.NewReader(`{"quantity": 1}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// the access log line is written after the response, so wait for it
	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "HTTP request completed")
	}, 2*time.Second, 10*time.Millisecond)

	var serviceLine, accessLine map[string]any
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var record map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &record))
		switch record["msg"] {
		case "Product updated successfully":
			serviceLine = record
		case "HTTP request completed":
			accessLine = record
		}
	}

	require.NotNil(t, serviceLine)
	require.NotNil(t, accessLine)
	assert.Equal(t, "/api/products/{id}", serviceLine["http.route"])
	assert.Equal(t, "/api/products/{id}", accessLine["http.route"])
	assert.NotContains(t, logs.String(), `"http.route":"/api/products/NX-1004"`)
}
