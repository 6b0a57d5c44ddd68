package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/souqly/souqly-backend/pkg/config"
	"github.com/souqly/souqly-backend/pkg/logger"
)

const (
	keyNamespace   = "souqly"
	estimatePrefix = "estimates"
)

// ErrNotFound is returned when a cached value is absent.
var ErrNotFound = errors.New("redis: key not found")

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// Client wraps the redis helpers the estimator cache needs.
type Client struct {
	store cmdable
	raw   *redis.Client
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New connects to redis using the configured URL.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}

	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	if logg != nil {
		logg.Info(ctx, "redis connection established")
	}
	return &Client{store: raw, raw: raw}, nil
}

// NewWithStore wraps an existing command surface; used by tests.
func NewWithStore(store cmdable) *Client {
	return &Client{store: store}
}

// Ping verifies the connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	return c.store.Ping(ctx).Err()
}

// Close releases the underlying connection when one was dialed.
func (c *Client) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

// SetEstimate caches a named estimate in hours.
func (c *Client) SetEstimate(ctx context.Context, name string, hours float64, ttl time.Duration) error {
	value := strconv.FormatFloat(hours, 'f', -1, 64)
	if err := c.store.Set(ctx, estimateKey(name), value, ttl).Err(); err != nil {
		return fmt.Errorf("caching estimate %s: %w", name, err)
	}
	return nil
}

// GetEstimate reads a named estimate, returning ErrNotFound when absent.
func (c *Client) GetEstimate(ctx context.Context, name string) (float64, error) {
	raw, err := c.store.Get(ctx, estimateKey(name)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("reading estimate %s: %w", name, err)
	}
	hours, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing cached estimate %s: %w", name, err)
	}
	return hours, nil
}

// DeleteEstimate drops a cached estimate.
func (c *Client) DeleteEstimate(ctx context.Context, name string) error {
	return c.store.Del(ctx, estimateKey(name)).Err()
}

func estimateKey(name string) string {
	return fmt.Sprintf("%s:%s:%s", keyNamespace, estimatePrefix, name)
}
