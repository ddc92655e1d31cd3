package memory

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StateStore is an in-memory implementation of domain.StateStore
type StateStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewStateStore creates a new in-memory state store
func NewStateStore(tracer trace.Tracer, logger *slog.Logger) *StateStore {
	return &StateStore{
		entries: make(map[string][]byte),
		tracer:  tracer,
		logger:  logger,
	}
}

// Get retrieves an entry by key
func (r *StateStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := r.tracer.Start(ctx, "MemoryStateStore.Get")
	defer span.End()

	span.SetAttributes(attribute.String("store.key", key))

	r.mu.RLock()
	defer r.mu.RUnlock()

	value, exists := r.entries[key]
	if !exists {
		r.logger.DebugContext(ctx, "Entry not found in memory store",
			slog.String("key", key),
		)
		span.SetStatus(codes.Ok, "Entry absent")
		return nil, false, nil
	}

	span.SetAttributes(attribute.Int("store.bytes", len(value)))
	span.SetStatus(codes.Ok, "Entry found")
	return append([]byte(nil), value...), true, nil
}

// Set stores an entry, replacing any previous value
func (r *StateStore) Set(ctx context.Context, key string, value []byte) error {
	ctx, span := r.tracer.Start(ctx, "MemoryStateStore.Set")
	defer span.End()

	span.SetAttributes(
		attribute.String("store.key", key),
		attribute.Int("store.bytes", len(value)),
	)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[key] = append([]byte(nil), value...)

	r.logger.DebugContext(ctx, "Entry written to memory store",
		slog.String("key", key),
		slog.Int("bytes", len(value)),
	)

	span.SetStatus(codes.Ok, "Entry stored")
	return nil
}
