package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/bookreview/internal/monitoring"
	"github.com/charlesng35/bookreview/pkg/logger"
)

const (
	// DefaultTTL applies when a caller passes a non-positive ttl.
	DefaultTTL = 300 * time.Second
	// DefaultTimeout bounds a single cache round trip.
	DefaultTimeout = 2 * time.Second
)

// ErrUnavailable is reported by a client constructed without a backing store.
var ErrUnavailable = errors.New("cache: unavailable")

// Status classifies the outcome of a cache lookup.
type Status uint8

const (
	StatusMiss Status = iota
	StatusHit
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusHit:
		return monitoring.CacheHit
	case StatusFailed:
		return monitoring.CacheFailure
	default:
		return monitoring.CacheMiss
	}
}

// Result is returned by lookups. A failed lookup carries the cause in Err and must be treated as a miss.
type Result struct {
	Status Status
	Value  []byte
	Err    error
}

// Hit reports whether the lookup produced a usable value.
func (r Result) Hit() bool {
	return r.Status == StatusHit
}

// Option customises a Client.
type Option func(*Client)

// WithTTL overrides the default entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *Client) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithTimeout overrides the per-operation deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger sets the logger used for cache diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// Client is the read-through cache used by the catalogue services. Failures never reach the
// caller: lookups report StatusFailed and writes report false.
type Client struct {
	store   Store
	ttl     time.Duration
	timeout time.Duration
	log     *zap.Logger
}

// NewClient wraps store. A nil store yields a client that fails every call without I/O.
func NewClient(store Store, opts ...Option) *Client {
	client := &Client{
		store:   store,
		ttl:     DefaultTTL,
		timeout: DefaultTimeout,
		log:     logger.WithModule("cache"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Enabled reports whether the client has a backing store.
func (c *Client) Enabled() bool {
	return c != nil && c.store != nil
}

// TTL returns the default entry lifetime.
func (c *Client) TTL() time.Duration {
	if c == nil {
		return DefaultTTL
	}
	return c.ttl
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, c.timeout)
}

// Get fetches the raw value stored at key.
func (c *Client) Get(ctx context.Context, key string) Result {
	if !c.Enabled() {
		monitoring.RecordCacheOperation("get", monitoring.CacheSkipped, "", 0)
		return Result{Status: StatusFailed, Err: ErrUnavailable}
	}

	opCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	value, ok, err := c.store.Get(opCtx, key)
	elapsed := time.Since(start)

	switch {
	case err != nil:
		c.failed(ctx, "get", key, err, elapsed)
		return Result{Status: StatusFailed, Err: err}
	case !ok:
		monitoring.RecordCacheOperation("get", monitoring.CacheMiss, "", elapsed)
		c.log.Debug("cache miss", zap.String("key", key))
		return Result{Status: StatusMiss}
	default:
		monitoring.RecordCacheOperation("get", monitoring.CacheHit, "", elapsed)
		c.log.Debug("cache hit", zap.String("key", key))
		return Result{Status: StatusHit, Value: value}
	}
}

// GetJSON fetches key and decodes it into dest. A payload that cannot be decoded is reported
// as a failure and evicted.
func (c *Client) GetJSON(ctx context.Context, key string, dest any) Result {
	result := c.Get(ctx, key)
	if !result.Hit() {
		return result
	}

	if err := json.Unmarshal(result.Value, dest); err != nil {
		err = fmt.Errorf("decode %q: %w", key, err)
		c.failed(ctx, "decode", key, err, 0)
		c.Delete(ctx, key)
		return Result{Status: StatusFailed, Err: err}
	}
	return result
}

// Set serialises value as JSON and stores it. ttl <= 0 uses the client default.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	if !c.Enabled() {
		monitoring.RecordCacheOperation("set", monitoring.CacheSkipped, "", 0)
		return false
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	payload, err := json.Marshal(value)
	if err != nil {
		c.failed(ctx, "encode", key, err, 0)
		return false
	}

	opCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	if err := c.store.Set(opCtx, key, payload, ttl); err != nil {
		c.failed(ctx, "set", key, err, time.Since(start))
		return false
	}
	monitoring.RecordCacheOperation("set", monitoring.CacheSuccess, "", time.Since(start))
	return true
}

// Delete removes keys.
func (c *Client) Delete(ctx context.Context, keys ...string) bool {
	if !c.Enabled() {
		monitoring.RecordCacheOperation("delete", monitoring.CacheSkipped, "", 0)
		return false
	}
	if len(keys) == 0 {
		return true
	}

	opCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	if err := c.store.Delete(opCtx, keys...); err != nil {
		c.failed(ctx, "delete", fmt.Sprint(keys), err, time.Since(start))
		return false
	}
	monitoring.RecordCacheOperation("delete", monitoring.CacheSuccess, "", time.Since(start))
	return true
}

// ClearPattern removes every key matching the glob pattern.
func (c *Client) ClearPattern(ctx context.Context, pattern string) bool {
	if !c.Enabled() {
		monitoring.RecordCacheOperation("clear", monitoring.CacheSkipped, "", 0)
		return false
	}

	opCtx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	removed, err := c.store.DeletePattern(opCtx, pattern)
	if err != nil {
		c.failed(ctx, "clear", pattern, err, time.Since(start))
		return false
	}
	monitoring.RecordCacheOperation("clear", monitoring.CacheSuccess, "", time.Since(start))
	c.log.Debug("cache pattern cleared", zap.String("pattern", pattern), zap.Int64("removed", removed))
	return true
}

// Ping checks the backing store.
func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return ErrUnavailable
	}
	opCtx, cancel := c.withTimeout(ctx)
	defer cancel()
	return c.store.Ping(opCtx)
}

// Close releases the backing store.
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.store.Close()
}

func (c *Client) failed(ctx context.Context, operation, key string, err error, elapsed time.Duration) {
	monitoring.RecordCacheOperation(operation, monitoring.CacheFailure, err.Error(), elapsed)
	fields := append([]zap.Field{
		zap.String("operation", operation),
		zap.String("key", key),
		zap.Error(err),
	}, logger.RequestFields(ctx)...)
	c.log.Warn("cache operation failed", fields...)
}
