package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotEncode(t *testing.T) {
	data, err := Snapshot{Config: DefaultConfig()}.Encode()
	require.NoError(t, err)

	text := string(data)
	assert.True(t, strings.HasPrefix(text, "{\n  \"products\": []"), text)
	assert.Contains(t, text, "\n  \"config\": {\n    \"lowStockThreshold\": 10")
}

func TestDecodeSnapshot(t *testing.T) {
	t.Run("rejects malformed documents", func(t *testing.T) {
		tests := []struct {
			name string
			doc  string
		}{
			{"empty object", `{}`},
			{"syntax error", `{"products": [`},
			{"products is an object", `{"products": {}}`},
			{"products is a string", `{"products": "[]"}`},
			{"products is null", `{"products": null}`},
			{"top-level array", `[{"products": []}]`},
			{"top-level null", `null`},
			{"empty input", ``},
			{"element is not a product", `{"products": [1, 2]}`},
			{"config is not an object", `{"products": [], "config": 7}`},
			{"fractional quantity", `{"products": [{"id": "A", "quantity": 2.5}]}`},
			{"price is not numeric", `{"products": [{"id": "A", "price": "cheap"}]}`},
			{"price is not finite", `{"products": [{"id": "A", "price": "NaN"}]}`},
			{"timestamp is not a date", `{"products": [{"id": "A", "lastUpdated": "yesterday"}]}`},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, _, err := DecodeSnapshot([]byte(tt.doc))
				assert.ErrorIs(t, err, ErrMalformedImport)
			})
		}
	})

	t.Run("products without config", func(t *testing.T) {
		products, cfg, err := DecodeSnapshot([]byte(`{"products": []}`))
		require.NoError(t, err)
		assert.Empty(t, products)
		assert.NotNil(t, products)
		assert.Nil(t, cfg)
	})

	t.Run("null config counts as absent", func(t *testing.T) {
		_, cfg, err := DecodeSnapshot([]byte(`{"products": [], "config": null}`))
		require.NoError(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("keeps discontinued products as given", func(t *testing.T) {
		doc := `{"products": [{"id": "OLD-1", "name": "Pager", "category": "Electronics",
			"price": 20, "quantity": 50, "status": "Discontinued", "priority": "Low",
			"lastUpdated": "2020-01-01T00:00:00Z"}],
			"config": {"lowStockThreshold": 3, "criticalStockThreshold": 1, "currency": "GBP"}}`

		products, cfg, err := DecodeSnapshot([]byte(doc))
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, StatusDiscontinued, products[0].Status)
		require.NotNil(t, cfg)
		assert.Equal(t, 3, cfg.LowStockThreshold)
		assert.Equal(t, "GBP", cfg.Currency)
	})

	t.Run("accepts hand-edited values", func(t *testing.T) {
		tests := []struct {
			name    string
			element string
			check   func(t *testing.T, p Product)
		}{
			{"empty timestamp", `{"id": "A", "quantity": 1, "lastUpdated": ""}`, func(t *testing.T, p Product) {
				assert.True(t, p.LastUpdated.IsZero())
			}},
			{"date-only timestamp", `{"id": "A", "quantity": 1, "lastUpdated": "2024-01-01"}`, func(t *testing.T, p Product) {
				assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), p.LastUpdated)
			}},
			{"unix millisecond timestamp", `{"id": "A", "quantity": 1, "lastUpdated": 1704067200000}`, func(t *testing.T, p Product) {
				assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), p.LastUpdated)
			}},
			{"whole-number float quantity", `{"id": "A", "quantity": 5.0}`, func(t *testing.T, p Product) {
				assert.Equal(t, 5, p.Quantity)
			}},
			{"string price", `{"id": "A", "quantity": 1, "price": " 19.99 "}`, func(t *testing.T, p Product) {
				assert.InDelta(t, 19.99, p.Price, 1e-9)
			}},
			{"string quantity", `{"id": "A", "quantity": "7"}`, func(t *testing.T, p Product) {
				assert.Equal(t, 7, p.Quantity)
			}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				products, _, err := DecodeSnapshot([]byte(`{"products": [` + tt.element + `]}`))
				require.NoError(t, err)
				require.Len(t, products, 1)
				assert.Equal(t, "A", products[0].ID)
				tt.check(t, products[0])
			})
		}
	})

	t.Run("round trip", func(t *testing.T) {
		want := Snapshot{Products: DefaultCatalog(DefaultConfig(), testNow), Config: DefaultConfig()}
		data, err := want.Encode()
		require.NoError(t, err)

		products, cfg, err := DecodeSnapshot(data)
		require.NoError(t, err)

		got, err := json.Marshal(Snapshot{Products: products, Config: *cfg})
		require.NoError(t, err)
		wantJSON, err := json.Marshal(want)
		require.NoError(t, err)
		assert.JSONEq(t, string(wantJSON), string(got))
	})
}
