package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// Cache TTL constants. Registry entities change rarely.
const (
	OrgCacheTTL    = 5 * time.Minute
	DriverCacheTTL = 2 * time.Minute
	TruckCacheTTL  = 2 * time.Minute
)

// Key prefixes
const (
	orgCachePrefix    = "cache:org:"
	driverCachePrefix = "cache:driver:"
	truckCachePrefix  = "cache:truck:"
)

// CachedOrg represents a cached organization.
type CachedOrg struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CachedDriver represents a cached driver.
type CachedDriver struct {
	ID    string `json:"id"`
	OrgID string `json:"org_id"`
	Name  string `json:"name"`
}

// CachedTruck represents a cached truck.
type CachedTruck struct {
	ID      string `json:"id"`
	OrgID   string `json:"org_id"`
	PlateNo string `json:"plate_no"`
}

// GetOrg retrieves an organization from cache.
func (s *CacheStore) GetOrg(ctx context.Context, orgID string) (*CachedOrg, error) {
	var org CachedOrg
	ok, err := s.get(ctx, orgCachePrefix+orgID, &org)
	if err != nil || !ok {
		return nil, err
	}
	return &org, nil
}

// SetOrg stores an organization in cache.
func (s *CacheStore) SetOrg(ctx context.Context, org *CachedOrg) error {
	return s.set(ctx, orgCachePrefix+org.ID, org, OrgCacheTTL)
}

// GetDriver retrieves a driver from cache.
func (s *CacheStore) GetDriver(ctx context.Context, driverID string) (*CachedDriver, error) {
	var driver CachedDriver
	ok, err := s.get(ctx, driverCachePrefix+driverID, &driver)
	if err != nil || !ok {
		return nil, err
	}
	return &driver, nil
}

// SetDriver stores a driver in cache.
func (s *CacheStore) SetDriver(ctx context.Context, driver *CachedDriver) error {
	return s.set(ctx, driverCachePrefix+driver.ID, driver, DriverCacheTTL)
}

// GetTruck retrieves a truck from cache.
func (s *CacheStore) GetTruck(ctx context.Context, truckID string) (*CachedTruck, error) {
	var truck CachedTruck
	ok, err := s.get(ctx, truckCachePrefix+truckID, &truck)
	if err != nil || !ok {
		return nil, err
	}
	return &truck, nil
}

// SetTruck stores a truck in cache.
func (s *CacheStore) SetTruck(ctx context.Context, truck *CachedTruck) error {
	return s.set(ctx, truckCachePrefix+truck.ID, truck, TruckCacheTTL)
}

// get returns false on a cache miss.
func (s *CacheStore) get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *CacheStore) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}
