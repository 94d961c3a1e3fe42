package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore provides short-TTL advisory locks over drivers and trucks.
// The locks only make racing requests fail fast; the transactional
// exclusivity guard remains the authority on who holds a resource.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireDriverLock attempts to acquire an advisory lock on a driver.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error) {
	return s.acquire(ctx, fmt.Sprintf("lock:driver:%s", driverID), ttl)
}

// ReleaseDriverLock releases the advisory lock on a driver.
func (s *LockStore) ReleaseDriverLock(ctx context.Context, driverID string) error {
	return s.client.Del(ctx, fmt.Sprintf("lock:driver:%s", driverID)).Err()
}

// AcquireTruckLock attempts to acquire an advisory lock on a truck.
func (s *LockStore) AcquireTruckLock(ctx context.Context, truckID string, ttl time.Duration) (bool, error) {
	return s.acquire(ctx, fmt.Sprintf("lock:truck:%s", truckID), ttl)
}

// ReleaseTruckLock releases the advisory lock on a truck.
func (s *LockStore) ReleaseTruckLock(ctx context.Context, truckID string) error {
	return s.client.Del(ctx, fmt.Sprintf("lock:truck:%s", truckID)).Err()
}

func (s *LockStore) acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}
