package route

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/Zereker/skyroute/internal/domain"
)

// Cache stores search results keyed by the data generation they were computed
// from. Bumping the generation makes every older entry unreachable.
type Cache interface {
	Generation(ctx context.Context) (int64, error)
	Bump(ctx context.Context) error
	Get(ctx context.Context, key string) ([]domain.RouteResult, bool, error)
	Set(ctx context.Context, key string, routes []domain.RouteResult) error
}

// Key builds the cache key of one search.
func Key(generation int64, from, to string, maxHops int) string {
	return fmt.Sprintf("%d:%d:%s:%s", generation, maxHops, strconv.Quote(from), strconv.Quote(to))
}

// RedisCache keeps results in Redis so every instance sharing the backend
// sees the same generation.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ Cache = (*RedisCache)(nil)

func NewRedisCache(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = "skyroute"
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) generationKey() string {
	return c.prefix + ":routes:generation"
}

func (c *RedisCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "read route generation")
	}
	return gen, nil
}

func (c *RedisCache) Bump(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.generationKey()).Err(); err != nil {
		return errors.Wrap(err, "bump route generation")
	}
	return nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]domain.RouteResult, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+":routes:"+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "read cached routes")
	}

	var routes []domain.RouteResult
	if err := json.Unmarshal(data, &routes); err != nil {
		return nil, false, errors.Wrap(err, "decode cached routes")
	}
	return routes, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, routes []domain.RouteResult) error {
	data, err := json.Marshal(routes)
	if err != nil {
		return errors.Wrap(err, "encode routes")
	}
	if err := c.client.Set(ctx, c.prefix+":routes:"+key, data, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "write cached routes")
	}
	return nil
}

// MemoryCache is a process-local cache. A bump drops every entry.
type MemoryCache struct {
	generation atomic.Int64
	entries    sync.Map // key -> memoryEntry
	ttl        time.Duration
	now        func() time.Time
}

type memoryEntry struct {
	routes  []domain.RouteResult
	expires time.Time
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache creates a cache whose entries live for ttl; ttl <= 0 keeps them
// until the next bump.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, now: time.Now}
}

func (c *MemoryCache) Generation(context.Context) (int64, error) {
	return c.generation.Load(), nil
}

func (c *MemoryCache) Bump(context.Context) error {
	c.generation.Add(1)
	c.entries.Clear()
	return nil
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]domain.RouteResult, bool, error) {
	v, ok := c.entries.Load(key)
	if !ok {
		return nil, false, nil
	}

	entry := v.(memoryEntry)
	if !entry.expires.IsZero() && !c.now().Before(entry.expires) {
		c.entries.Delete(key)
		return nil, false, nil
	}
	return cloneRoutes(entry.routes), true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, routes []domain.RouteResult) error {
	entry := memoryEntry{routes: cloneRoutes(routes)}
	if c.ttl > 0 {
		entry.expires = c.now().Add(c.ttl)
	}
	c.entries.Store(key, entry)
	return nil
}

func cloneRoutes(in []domain.RouteResult) []domain.RouteResult {
	out := make([]domain.RouteResult, len(in))
	for i, r := range in {
		r.Connections = append([]string(nil), r.Connections...)
		out[i] = r
	}
	return out
}
