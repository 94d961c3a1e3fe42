package redis

import (
	"context"
	"time"
)

// ResourceLocker defines the advisory locking operations over drivers
// and trucks.
type ResourceLocker interface {
	AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error)
	ReleaseDriverLock(ctx context.Context, driverID string) error
	AcquireTruckLock(ctx context.Context, truckID string, ttl time.Duration) (bool, error)
	ReleaseTruckLock(ctx context.Context, truckID string) error
}

// EntityCache defines the registry-entity caching operations.
type EntityCache interface {
	GetOrg(ctx context.Context, orgID string) (*CachedOrg, error)
	SetOrg(ctx context.Context, org *CachedOrg) error
	GetDriver(ctx context.Context, driverID string) (*CachedDriver, error)
	SetDriver(ctx context.Context, driver *CachedDriver) error
	GetTruck(ctx context.Context, truckID string) (*CachedTruck, error)
	SetTruck(ctx context.Context, truck *CachedTruck) error
}

// Ensure concrete types implement interfaces.
var (
	_ ResourceLocker = (*LockStore)(nil)
	_ EntityCache    = (*CacheStore)(nil)
)
