package file

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StateStore keeps each entry in <dir>/<key>.json. Writes go to a temporary
// file that is renamed over the entry, so readers never see a partial write.
type StateStore struct {
	dir    string
	tracer trace.Tracer
	logger *slog.Logger
}

// NewStateStore creates the data directory if needed and returns a store rooted at it
func NewStateStore(dir string, tracer trace.Tracer, logger *slog.Logger) (*StateStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &StateStore{
		dir:    dir,
		tracer: tracer,
		logger: logger,
	}, nil
}

func (r *StateStore) path(key string) string {
	return filepath.Join(r.dir, key+".json")
}

// Get reads an entry from disk
func (r *StateStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := r.tracer.Start(ctx, "FileStateStore.Get")
	defer span.End()

	path := r.path(key)
	span.SetAttributes(
		attribute.String("store.key", key),
		attribute.String("store.path", path),
	)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		r.logger.DebugContext(ctx, "Entry file not found",
			slog.String("path", path),
		)
		span.SetStatus(codes.Ok, "Entry absent")
		return nil, false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to read entry")
		return nil, false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	span.SetAttributes(attribute.Int("store.bytes", len(data)))
	span.SetStatus(codes.Ok, "Entry found")
	return data, true, nil
}

// Set writes an entry atomically
func (r *StateStore) Set(ctx context.Context, key string, value []byte) error {
	ctx, span := r.tracer.Start(ctx, "FileStateStore.Set")
	defer span.End()

	path := r.path(key)
	span.SetAttributes(
		attribute.String("store.key", key),
		attribute.String("store.path", path),
		attribute.Int("store.bytes", len(value)),
	)

	if err := writeFileAtomic(path, value); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to write entry")
		r.logger.ErrorContext(ctx, "Failed to write entry file",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return err
	}

	r.logger.DebugContext(ctx, "Entry written to disk",
		slog.String("path", path),
		slog.Int("bytes", len(value)),
	)

	span.SetStatus(codes.Ok, "Entry stored")
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
