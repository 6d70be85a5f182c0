package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	KeyAdvertisedTickets = "marketplace:tickets:advertised"
	KeyPublicStats       = "marketplace:stats:public"
)

// Cache is a read-through JSON cache over Redis. A nil Cache is a valid no-op
// so every caller degrades to straight DB reads when Redis is unavailable.
type Cache struct {
	Client *redis.Client
	TTL    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{Client: client, TTL: ttl}
}

// Connect creates and pings a Redis client.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		PoolSize: 10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

// Get unmarshals the cached value at key into dest. The second return is
// false on a miss or any Redis error.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.Client == nil {
		return false
	}
	raw, err := c.Client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// Set stores value at key with the cache TTL. Failures are swallowed; the
// cache is never load-bearing.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) {
	if c == nil || c.Client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.Client.Set(ctx, key, raw, c.TTL)
}

// Invalidate drops the given keys.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || c.Client == nil {
		return
	}
	c.Client.Del(ctx, keys...)
}
