package claims

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const claimKeyPrefix = "fulfillment_claim:"

// RedisClaims implements a short-lived exclusive claim per order using
// Redis SETNX. A claim only guards against concurrent duplicate webhook
// deliveries for the same order while the first delivery is in flight;
// the platform-side sent flag remains the durable source of truth.
type RedisClaims struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClaims creates a new Redis-backed claim store.
// The redisURL should be in the format: redis://[:password@]host[:port][/database]
func NewRedisClaims(redisURL string, ttl time.Duration) (*RedisClaims, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	return &RedisClaims{client: client, ttl: ttl}, nil
}

// Acquire attempts to take the claim for an order. It returns false when
// another in-flight delivery already holds it.
func (r *RedisClaims) Acquire(ctx context.Context, orderID string) (bool, error) {
	ok, err := r.client.SetNX(ctx, claimKeyPrefix+orderID, "1", r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire claim for order %s: %w", orderID, err)
	}
	return ok, nil
}

// Release frees the claim for an order.
func (r *RedisClaims) Release(ctx context.Context, orderID string) error {
	if err := r.client.Del(ctx, claimKeyPrefix+orderID).Err(); err != nil {
		return fmt.Errorf("failed to release claim for order %s: %w", orderID, err)
	}
	return nil
}

// Ping checks if the claim store is reachable.
func (r *RedisClaims) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("claim store ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (r *RedisClaims) Close() error {
	return r.client.Close()
}
