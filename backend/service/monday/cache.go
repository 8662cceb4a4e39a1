package monday

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

const (
	defaultCacheSize = 256
	defaultCacheTTL  = 5 * time.Minute
)

// Cache 带过期的 LRU 读缓存，并把同一 key 的并发刷新合并为一次。
type Cache[V any] struct {
	lru   *expirable.LRU[string, V]
	group singleflight.Group
}

func NewCache[V any](size int, ttl time.Duration) *Cache[V] {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cache[V]{lru: expirable.NewLRU[string, V](size, nil, ttl)}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	return c.lru.Get(key)
}

func (c *Cache[V]) Set(key string, value V) {
	c.lru.Add(key, value)
}

func (c *Cache[V]) Invalidate(key string) {
	c.lru.Remove(key)
}

func (c *Cache[V]) Purge() {
	c.lru.Purge()
}

// Refresh 执行 fetch 并写入缓存；同一 key 同时只会有一个 fetch 在跑。
func (c *Cache[V]) Refresh(ctx context.Context, key string, fetch func(context.Context) (V, error)) (V, error) {
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		value, err := fetch(ctx)
		if err != nil {
			return value, err
		}
		c.lru.Add(key, value)
		return value, nil
	})
	value, _ := v.(V)
	return value, err
}
