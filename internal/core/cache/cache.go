// Package cache holds the local cache drivers behind core.KVCache.
package cache

import (
	"context"
	"fmt"

	"github.com/markdave123-py/Penpal/internal/config"
	"github.com/markdave123-py/Penpal/internal/core"
)

// New picks the cache driver named by CACHE_DRIVER.
func New(ctx context.Context, cfg *config.Config) (core.KVCache, error) {
	switch cfg.CacheDriver {
	case "", "sqlite":
		return NewSQLiteCache(cfg.CachePath)
	case "redis":
		return NewRedisCache(ctx, cfg.RedisAddr, "penpal:")
	case "memory":
		return NewMemoryCache(), nil
	default:
		return nil, fmt.Errorf("unknown CACHE_DRIVER %q", cfg.CacheDriver)
	}
}
