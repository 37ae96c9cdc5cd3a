package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/markdave123-py/Penpal/internal/core"
)

var _ core.KVCache = (*RedisCache)(nil)

// RedisCache stores cache entries under a namespace prefix in redis.
type RedisCache struct {
	rdb       *goredis.Client
	namespace string
}

func NewRedisCache(ctx context.Context, addr, namespace string) (*RedisCache, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	if namespace == "" {
		namespace = "penpal:"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisCache{rdb: rdb, namespace: namespace}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := c.rdb.Get(ctx, c.namespace+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	return c.rdb.Set(ctx, c.namespace+key, value, 0).Err()
}

func (c *RedisCache) Remove(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, c.namespace+key).Err()
}

func (c *RedisCache) Keys(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	iter := c.rdb.Scan(ctx, 0, c.namespace+globEscaper.Replace(prefix)+"*", 200).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val()[len(c.namespace):])
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

var globEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`, "]", `\]`)

func (c *RedisCache) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}
