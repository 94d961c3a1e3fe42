package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"freight/internal/domain"
	"freight/internal/repository"
)

// RegistryService manages the organization, driver and truck registries.
type RegistryService struct {
	orgRepo    repository.OrgRepository
	driverRepo repository.DriverRepository
	truckRepo  repository.TruckRepository
	logger     *zap.Logger
}

// NewRegistryService creates a new RegistryService.
func NewRegistryService(
	orgRepo repository.OrgRepository,
	driverRepo repository.DriverRepository,
	truckRepo repository.TruckRepository,
	logger *zap.Logger,
) *RegistryService {
	return &RegistryService{
		orgRepo:    orgRepo,
		driverRepo: driverRepo,
		truckRepo:  truckRepo,
		logger:     logger,
	}
}

// CreateOrganization registers a new organization.
func (s *RegistryService) CreateOrganization(ctx context.Context, name, phone string) (*domain.Organization, error) {
	if name == "" {
		return nil, ErrInvalidOrgID
	}

	org := &domain.Organization{
		ID:        uuid.New().String(),
		Name:      name,
		Phone:     phone,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.orgRepo.Create(ctx, org); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}

	s.logger.Info("organization created", zap.String("org_id", org.ID))
	return org, nil
}

// GetOrganization fetches an organization by ID.
func (s *RegistryService) GetOrganization(ctx context.Context, id string) (*domain.Organization, error) {
	return s.orgRepo.GetByID(ctx, id)
}

// GetAllOrganizations lists all organizations.
func (s *RegistryService) GetAllOrganizations(ctx context.Context) ([]*domain.Organization, error) {
	return s.orgRepo.GetAll(ctx)
}

// CreateDriver registers a new driver under an organization.
func (s *RegistryService) CreateDriver(ctx context.Context, orgID, name, phone, licenseNo string) (*domain.Driver, error) {
	if orgID == "" {
		return nil, ErrInvalidOrgID
	}
	if _, err := s.orgRepo.GetByID(ctx, orgID); err != nil {
		return nil, err
	}

	driver := &domain.Driver{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		Name:      name,
		Phone:     phone,
		LicenseNo: licenseNo,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.driverRepo.Create(ctx, driver); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}

	s.logger.Info("driver created", zap.String("driver_id", driver.ID), zap.String("org_id", orgID))
	return driver, nil
}

// GetDriver fetches a driver by ID.
func (s *RegistryService) GetDriver(ctx context.Context, id string) (*domain.Driver, error) {
	return s.driverRepo.GetByID(ctx, id)
}

// GetAllDrivers lists all drivers.
func (s *RegistryService) GetAllDrivers(ctx context.Context) ([]*domain.Driver, error) {
	return s.driverRepo.GetAll(ctx)
}

// CreateTruck registers a new truck under an organization.
func (s *RegistryService) CreateTruck(ctx context.Context, orgID, plateNo string, capacityKg float64) (*domain.Truck, error) {
	if orgID == "" {
		return nil, ErrInvalidOrgID
	}
	if _, err := s.orgRepo.GetByID(ctx, orgID); err != nil {
		return nil, err
	}

	truck := &domain.Truck{
		ID:         uuid.New().String(),
		OrgID:      orgID,
		PlateNo:    plateNo,
		CapacityKg: capacityKg,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.truckRepo.Create(ctx, truck); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}

	s.logger.Info("truck created", zap.String("truck_id", truck.ID), zap.String("org_id", orgID))
	return truck, nil
}

// GetTruck fetches a truck by ID.
func (s *RegistryService) GetTruck(ctx context.Context, id string) (*domain.Truck, error) {
	return s.truckRepo.GetByID(ctx, id)
}

// GetAllTrucks lists all trucks.
func (s *RegistryService) GetAllTrucks(ctx context.Context) ([]*domain.Truck, error) {
	return s.truckRepo.GetAll(ctx)
}
