package tests

import (
	"context"
	"sync"
	"sync/atomic"

	"freight/internal/domain"
	"freight/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK NOTIFIER
// ──────────────────────────────────────────────

// MockNotifier records every notification handed to it.
type MockNotifier struct {
	mu sync.Mutex

	StatusChanges     []*domain.Trip
	AssignmentChanges []*domain.AssignmentChange
	Postings          []*domain.Document

	// Error injection
	Err error
}

// NewMockNotifier creates a new mock notifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) NotifyTripStatusChanged(ctx context.Context, trip *domain.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	copied := *trip
	m.StatusChanges = append(m.StatusChanges, &copied)
	return nil
}

func (m *MockNotifier) NotifyAssignmentChanged(ctx context.Context, change *domain.AssignmentChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	copied := *change
	m.AssignmentChanges = append(m.AssignmentChanges, &copied)
	return nil
}

func (m *MockNotifier) NotifyLedgerPosting(ctx context.Context, doc *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	copied := *doc
	m.Postings = append(m.Postings, &copied)
	return nil
}

// StatusChangeCount returns how many status notifications were sent.
func (m *MockNotifier) StatusChangeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.StatusChanges)
}

// LastStatus returns the status of the most recent notification.
func (m *MockNotifier) LastStatus() domain.TripStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.StatusChanges) == 0 {
		return ""
	}
	return m.StatusChanges[len(m.StatusChanges)-1].Status
}

// ──────────────────────────────────────────────
// MOCK ORG REPOSITORY
// ──────────────────────────────────────────────

// MockOrgRepository is an in-memory implementation of OrgRepository.
type MockOrgRepository struct {
	mu   sync.RWMutex
	orgs map[string]*domain.Organization

	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockOrgRepository creates a new mock organization repository.
func NewMockOrgRepository() *MockOrgRepository {
	return &MockOrgRepository{orgs: make(map[string]*domain.Organization)}
}

// AddOrg seeds an organization.
func (m *MockOrgRepository) AddOrg(org *domain.Organization) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orgs[org.ID] = org
}

func (m *MockOrgRepository) Create(ctx context.Context, org *domain.Organization) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orgs[org.ID] = org
	return nil
}

func (m *MockOrgRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	org, ok := m.orgs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *org
	return &copied, nil
}

func (m *MockOrgRepository) GetAll(ctx context.Context) ([]*domain.Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Organization, 0, len(m.orgs))
	for _, org := range m.orgs {
		copied := *org
		result = append(result, &copied)
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is an in-memory implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver

	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{drivers: make(map[string]*domain.Driver)}
}

// AddDriver seeds a driver.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *driver
	return &copied, nil
}

func (m *MockDriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Driver, 0, len(m.drivers))
	for _, driver := range m.drivers {
		copied := *driver
		result = append(result, &copied)
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK TRUCK REPOSITORY
// ──────────────────────────────────────────────

// MockTruckRepository is an in-memory implementation of TruckRepository.
type MockTruckRepository struct {
	mu     sync.RWMutex
	trucks map[string]*domain.Truck

	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockTruckRepository creates a new mock truck repository.
func NewMockTruckRepository() *MockTruckRepository {
	return &MockTruckRepository{trucks: make(map[string]*domain.Truck)}
}

// AddTruck seeds a truck.
func (m *MockTruckRepository) AddTruck(truck *domain.Truck) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trucks[truck.ID] = truck
}

func (m *MockTruckRepository) Create(ctx context.Context, truck *domain.Truck) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trucks[truck.ID] = truck
	return nil
}

func (m *MockTruckRepository) GetByID(ctx context.Context, id string) (*domain.Truck, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	truck, ok := m.trucks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *truck
	return &copied, nil
}

func (m *MockTruckRepository) GetAll(ctx context.Context) ([]*domain.Truck, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Truck, 0, len(m.trucks))
	for _, truck := range m.trucks {
		copied := *truck
		result = append(result, &copied)
	}
	return result, nil
}

// Ensure mocks satisfy their interfaces.
var (
	_ repository.OrgRepository    = (*MockOrgRepository)(nil)
	_ repository.DriverRepository = (*MockDriverRepository)(nil)
	_ repository.TruckRepository  = (*MockTruckRepository)(nil)
)
