package app

import (
	"strings"

	"github.com/charlesng35/bookreview/internal/cache"
)

// Cache drivers accepted by cache.driver.
const (
	CacheDriverRedis  = "redis"
	CacheDriverMemory = "memory"
)

// DriverName returns the normalised cache driver, defaulting to redis.
func (c CacheConfig) DriverName() string {
	driver := strings.ToLower(strings.TrimSpace(c.Driver))
	if driver == "" {
		return CacheDriverRedis
	}
	return driver
}

// RedisClientConfig converts the application cache configuration into the cache package representation.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	return cache.RedisConfig{
		URL:      strings.TrimSpace(c.Redis.URL),
		Address:  strings.TrimSpace(c.Redis.Address),
		Username: strings.TrimSpace(c.Redis.Username),
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		TLS:      c.Redis.TLS,
		Timeout:  c.Redis.Timeout,
	}
}

// ClientOptions returns the cache client options derived from the configuration.
func (c CacheConfig) ClientOptions() []cache.Option {
	opts := []cache.Option{cache.WithTTL(c.TTL)}
	if c.Redis.Timeout > 0 {
		opts = append(opts, cache.WithTimeout(c.Redis.Timeout))
	}
	return opts
}
