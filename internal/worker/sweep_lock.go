package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisSweepLock implements SweepLocker with a SET NX EX key, so at most one
// monitor instance sweeps per interval. The key expires on its own; holding
// it past the sweep is harmless because the TTL matches the sweep interval.
type RedisSweepLock struct {
	client     *redis.Client
	key        string
	instanceID string
}

// NewRedisSweepLock builds a lock around the given client and key.
func NewRedisSweepLock(client *redis.Client, key string) *RedisSweepLock {
	return &RedisSweepLock{
		client:     client,
		key:        key,
		instanceID: uuid.NewString(),
	}
}

// TryLock acquires the sweep slot for ttl. Returns false when another
// instance already holds it.
func (l *RedisSweepLock) TryLock(ctx context.Context, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.instanceID, ttl).Result()
}
