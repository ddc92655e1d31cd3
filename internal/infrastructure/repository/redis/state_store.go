package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Options configures the Redis connection
type Options struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// StateStore keeps each entry as a Redis string under KeyPrefix+key
type StateStore struct {
	client *goredis.Client
	prefix string
	tracer trace.Tracer
	logger *slog.Logger
}

// NewClient opens a Redis client and checks the connection
func NewClient(ctx context.Context, opts Options) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}

// NewStateStore wraps an open client
func NewStateStore(client *goredis.Client, prefix string, tracer trace.Tracer, logger *slog.Logger) *StateStore {
	return &StateStore{
		client: client,
		prefix: prefix,
		tracer: tracer,
		logger: logger,
	}
}

// Get reads an entry
func (r *StateStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, span := r.tracer.Start(ctx, "RedisStateStore.Get")
	defer span.End()

	redisKey := r.prefix + key
	span.SetAttributes(attribute.String("store.key", redisKey))

	data, err := r.client.Get(ctx, redisKey).Bytes()
	if errors.Is(err, goredis.Nil) {
		r.logger.DebugContext(ctx, "Entry not found in redis",
			slog.String("key", redisKey),
		)
		span.SetStatus(codes.Ok, "Entry absent")
		return nil, false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to read entry")
		return nil, false, fmt.Errorf("failed to get %s: %w", redisKey, err)
	}

	span.SetAttributes(attribute.Int("store.bytes", len(data)))
	span.SetStatus(codes.Ok, "Entry found")
	return data, true, nil
}

// Set writes an entry without expiry
func (r *StateStore) Set(ctx context.Context, key string, value []byte) error {
	ctx, span := r.tracer.Start(ctx, "RedisStateStore.Set")
	defer span.End()

	redisKey := r.prefix + key
	span.SetAttributes(
		attribute.String("store.key", redisKey),
		attribute.Int("store.bytes", len(value)),
	)

	if err := r.client.Set(ctx, redisKey, value, 0).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to write entry")
		r.logger.ErrorContext(ctx, "Failed to write entry to redis",
			slog.String("key", redisKey),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to set %s: %w", redisKey, err)
	}

	r.logger.DebugContext(ctx, "Entry written to redis",
		slog.String("key", redisKey),
		slog.Int("bytes", len(value)),
	)

	span.SetStatus(codes.Ok, "Entry stored")
	return nil
}
