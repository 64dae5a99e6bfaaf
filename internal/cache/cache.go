package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/nursery/internal/config"
)

// Store is the read-through cache used for orders and report summaries.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ErrCacheMiss indicates the key is absent from the cache.
var ErrCacheMiss = errors.New("cache miss")

// Module provides the cache store to the Fx graph.
var Module = fx.Provide(NewStore)

// NewStore initialises the configured cache store. A disabled cache, or the
// noop driver, yields a store that always misses.
func NewStore(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Cache.Enabled {
		logger.Info("cache disabled; using noop store")
		return noopStore{}, nil
	}

	switch cfg.Cache.Driver {
	case "noop":
		logger.Info("cache driver noop; using noop store")
		return noopStore{}, nil
	case "redis":
		store := newRedisStore(lc, cfg.Cache, logger)
		return Instrument(WithPrefix(store, cfg.Cache.KeyPrefix), logger), nil
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", cfg.Cache.Driver)
	}
}

type noopStore struct{}

func (noopStore) Get(context.Context, string) ([]byte, error) {
	return nil, ErrCacheMiss
}

func (noopStore) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

func (noopStore) Delete(context.Context, string) error {
	return nil
}

type prefixed struct {
	next   Store
	prefix string
}

// WithPrefix namespaces every key as "<prefix>:<key>" so several deployments can
// share one redis database. An empty prefix returns next unchanged.
func WithPrefix(next Store, prefix string) Store {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		return next
	}
	return prefixed{next: next, prefix: prefix + ":"}
}

func (p prefixed) key(k string) string {
	if k == "" {
		return ""
	}
	return p.prefix + k
}

func (p prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.next.Get(ctx, p.key(key))
}

func (p prefixed) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return p.next.Set(ctx, p.key(key), value, ttl)
}

func (p prefixed) Delete(ctx context.Context, key string) error {
	return p.next.Delete(ctx, p.key(key))
}

type instrumented struct {
	next     Store
	logger   *zap.Logger
	requests metric.Int64Counter
}

// Instrument counts cache lookups by result (hit, miss, error).
func Instrument(next Store, logger *zap.Logger) Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	requests, err := otel.Meter("github.com/Additional-Code/nursery/cache").Int64Counter(
		"cache_requests_total",
		metric.WithDescription("Cache lookups by result"),
	)
	if err != nil {
		logger.Warn("create cache counter", zap.Error(err))
		return next
	}
	return instrumented{next: next, logger: logger, requests: requests}
}

func (i instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := i.next.Get(ctx, key)
	result := "hit"
	switch {
	case errors.Is(err, ErrCacheMiss):
		result = "miss"
	case err != nil:
		result = "error"
		i.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}
	i.requests.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	return value, err
}

func (i instrumented) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return i.next.Set(ctx, key, value, ttl)
}

func (i instrumented) Delete(ctx context.Context, key string) error {
	return i.next.Delete(ctx, key)
}

type redisStore struct {
	client     *goredis.Client
	defaultTTL time.Duration
}

func newRedisStore(lc fx.Lifecycle, cfg config.Cache, logger *zap.Logger) *redisStore {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	store := &redisStore{client: client, defaultTTL: cfg.DefaultTTL}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("ping redis: %w", err)
			}
			logger.Info("redis cache connected",
				zap.String("addr", cfg.Redis.Addr),
				zap.String("prefix", cfg.KeyPrefix),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("closing redis cache")
			return client.Close()
		},
	})

	return store
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrCacheMiss
	}
	res, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return res, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return errors.New("cache key is required")
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
