package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const (
	productKeyPrefix  = "product:"
	pageGenerationKey = "products:page:generation"
)

// PageKey names a cached listing page under a generation. Bumping the
// generation orphans every older page; they age out through their TTL.
func PageKey(generation int64, page int) string {
	return fmt.Sprintf("products:page:v%d:%d", generation, page)
}

// NewClient connects to redis and pings it before returning
func NewClient(ctx context.Context, addr string) (*goredis.Client, error) {
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
	return rdb, nil
}

// commands is the subset of goredis.Cmdable the invalidator needs
type commands interface {
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
	Incr(ctx context.Context, key string) *goredis.IntCmd
	Get(ctx context.Context, key string) *goredis.StringCmd
}

// RedisInvalidator drops the catalog's cached product entries after a stock change
type RedisInvalidator struct {
	rdb commands
}

func NewRedisInvalidator(rdb commands) *RedisInvalidator {
	return &RedisInvalidator{rdb: rdb}
}

// InvalidateProduct deletes the product entry and moves listing pages to a new generation
func (c *RedisInvalidator) InvalidateProduct(ctx context.Context, productID string) error {
	if err := c.rdb.Del(ctx, productKeyPrefix+productID).Err(); err != nil {
		return fmt.Errorf("delete product key: %w", err)
	}
	if err := c.rdb.Incr(ctx, pageGenerationKey).Err(); err != nil {
		return fmt.Errorf("bump page generation: %w", err)
	}
	return nil
}

// PageGeneration returns the generation listing pages should be read and written under
func (c *RedisInvalidator) PageGeneration(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, pageGenerationKey).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read page generation: %w", err)
	}
	return gen, nil
}
