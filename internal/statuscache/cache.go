// Package statuscache shares status documents and live stream bookkeeping
// between dashboard replicas through Redis.
package statuscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	// Redis key prefixes
	statusKeyPrefix = "cidash:status:"
	pollKeyPrefix   = "cidash:poll:"
	streamKeyPrefix = "cidash:streams:"

	// Default lifetime of a cached status document
	defaultStatusTTL = 5 * time.Second

	// Stream entries expire when a replica dies without removing them
	streamIndexTTL = 24 * time.Hour
)

// ErrMiss is returned when no fresh document is cached.
var ErrMiss = errors.New("status cache miss")

// Cache stores raw status documents per tenant with a short TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to redisURL and checks the connection.
func New(ctx context.Context, redisURL string, ttl time.Duration) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewWithClient(client, ttl), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultStatusTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// TTL returns how long a document stays fresh.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached status document of tenant.
func (c *Cache) Get(ctx context.Context, tenant string) ([]byte, error) {
	data, err := c.client.Get(ctx, statusKeyPrefix+tenant).Bytes()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached status: %w", err)
	}
	return data, nil
}

// Set caches the status document of tenant.
func (c *Cache) Set(ctx context.Context, tenant string, data []byte) error {
	if err := c.client.Set(ctx, statusKeyPrefix+tenant, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache status: %w", err)
	}
	return nil
}

// AcquirePoll claims the upstream poll of tenant for one TTL. Only the
// replica that gets true should fetch; the others wait for the cache.
func (c *Cache) AcquirePoll(ctx context.Context, tenant, owner string) (bool, error) {
	ok, err := c.client.SetNX(ctx, pollKeyPrefix+tenant, owner, c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire poll: %w", err)
	}
	return ok, nil
}

// AddStream records a console stream relayed by this replica.
func (c *Cache) AddStream(ctx context.Context, tenant, buildUUID, relayID string) error {
	indexKey := streamKeyPrefix + tenant

	pipe := c.client.Pipeline()
	pipe.HSet(ctx, indexKey, relayID, buildUUID)
	pipe.Expire(ctx, indexKey, streamIndexTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record stream: %w", err)
	}
	return nil
}

// RemoveStream forgets a finished relay.
func (c *Cache) RemoveStream(ctx context.Context, tenant, relayID string) error {
	if err := c.client.HDel(ctx, streamKeyPrefix+tenant, relayID).Err(); err != nil {
		return fmt.Errorf("failed to remove stream: %w", err)
	}
	return nil
}

// ActiveStreams counts the relays per build uuid.
func (c *Cache) ActiveStreams(ctx context.Context, tenant string) (map[string]int, error) {
	relays, err := c.client.HGetAll(ctx, streamKeyPrefix+tenant).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list streams: %w", err)
	}

	counts := make(map[string]int, len(relays))
	for _, buildUUID := range relays {
		counts[buildUUID]++
	}
	return counts, nil
}

// Close closes the redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
