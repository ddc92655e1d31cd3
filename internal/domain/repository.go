package domain

import (
	"context"
	"errors"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrMalformedImport = errors.New("malformed import document")
)

// Names of the two durable entries holding the store state
const (
	CatalogKey = "catalog"
	ConfigKey  = "config"
)

// StateStore defines the contract for the durable key-value storage behind the
// inventory. Get reports found=false for an absent entry.
type StateStore interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}
