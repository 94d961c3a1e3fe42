package repository

import (
	"context"

	"freight/internal/domain"
)

// OrgRepository defines the persistence operations for organizations.
type OrgRepository interface {
	Create(ctx context.Context, org *domain.Organization) error
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
	GetAll(ctx context.Context) ([]*domain.Organization, error)
}

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	Create(ctx context.Context, driver *domain.Driver) error
	GetByID(ctx context.Context, id string) (*domain.Driver, error)
	GetAll(ctx context.Context) ([]*domain.Driver, error)
}

// TruckRepository defines the persistence operations for trucks.
type TruckRepository interface {
	Create(ctx context.Context, truck *domain.Truck) error
	GetByID(ctx context.Context, id string) (*domain.Truck, error)
	GetAll(ctx context.Context) ([]*domain.Truck, error)
}
