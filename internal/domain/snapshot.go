package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Snapshot is the whole-store document used for export and import
type Snapshot struct {
	Products []Product    `json:"products"`
	Config   SystemConfig `json:"config"`
}

// Encode renders the snapshot as 2-space indented JSON
func (s Snapshot) Encode() ([]byte, error) {
	if s.Products == nil {
		s.Products = []Product{}
	}
	return json.MarshalIndent(s, "", "  ")
}

// DecodeSnapshot parses an import document. The document must be a JSON object
// whose products member is an array. Config is nil when the document carries
// none (absent or null). Every failure wraps ErrMalformedImport.
func DecodeSnapshot(data []byte) ([]Product, *SystemConfig, error) {
	var raw struct {
		Products json.RawMessage `json:"products"`
		Config   json.RawMessage `json:"config"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}

	trimmed := bytes.TrimSpace(raw.Products)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, nil, fmt.Errorf("%w: products must be an array", ErrMalformedImport)
	}

	var elements []importedProduct
	if err := json.Unmarshal(trimmed, &elements); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}

	products := make([]Product, 0, len(elements))
	for i, element := range elements {
		product, err := element.product()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: product %d: %v", ErrMalformedImport, i, err)
		}
		products = append(products, product)
	}

	cfgRaw := bytes.TrimSpace(raw.Config)
	if len(cfgRaw) == 0 || bytes.Equal(cfgRaw, []byte("null")) {
		return products, nil, nil
	}

	var cfg SystemConfig
	if err := json.Unmarshal(cfgRaw, &cfg); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	return products, &cfg, nil
}

// importedProduct accepts the looser shapes found in hand-edited backups:
// numbers given as strings, whole-number floats for quantity, and empty or
// date-only timestamps.
type importedProduct struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    Category        `json:"category"`
	Price       json.RawMessage `json:"price"`
	Quantity    json.RawMessage `json:"quantity"`
	Status      Status          `json:"status"`
	Priority    Priority        `json:"priority"`
	LastUpdated json.RawMessage `json:"lastUpdated"`
}

func (p importedProduct) product() (Product, error) {
	price, err := looseNumber(p.Price)
	if err != nil {
		return Product{}, fmt.Errorf("price: %w", err)
	}
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return Product{}, fmt.Errorf("price: %v is not a finite number", price)
	}

	quantity, err := looseNumber(p.Quantity)
	if err != nil {
		return Product{}, fmt.Errorf("quantity: %w", err)
	}
	if quantity != math.Trunc(quantity) || math.Abs(quantity) > math.MaxInt32 {
		return Product{}, fmt.Errorf("quantity: %v is not a whole number", quantity)
	}

	lastUpdated, err := looseTime(p.LastUpdated)
	if err != nil {
		return Product{}, fmt.Errorf("lastUpdated: %w", err)
	}

	return Product{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		Price:       price,
		Quantity:    int(quantity),
		Status:      p.Status,
		Priority:    p.Priority,
		LastUpdated: lastUpdated,
	}, nil
}

// isBlank reports an absent, null or empty-string JSON value
func isBlank(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	return len(v) == 0 || bytes.Equal(v, []byte("null")) || bytes.Equal(v, []byte(`""`))
}

func looseNumber(raw json.RawMessage) (float64, error) {
	if isBlank(raw) {
		return 0, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	return f, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// looseTime parses a timestamp string, or a number of Unix milliseconds.
// Blank values give the zero time.
func looseTime(raw json.RawMessage) (time.Time, error) {
	if isBlank(raw) {
		return time.Time{}, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var millis int64
		if err := json.Unmarshal(raw, &millis); err != nil {
			return time.Time{}, fmt.Errorf("expected a timestamp, got %s", raw)
		}
		return time.UnixMilli(millis).UTC(), nil
	}

	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
