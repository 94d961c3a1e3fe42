package postgres

import (
	"context"
	"database/sql"
	"errors"

	"freight/internal/domain"
	"freight/internal/repository"
)

// OrgRepository is a PostgreSQL implementation of repository.OrgRepository.
type OrgRepository struct {
	q Querier
}

// NewOrgRepository creates a new PostgreSQL organization repository.
func NewOrgRepository(db *sql.DB) *OrgRepository {
	return &OrgRepository{q: db}
}

// Create persists a new organization.
func (r *OrgRepository) Create(ctx context.Context, org *domain.Organization) error {
	query := `INSERT INTO organizations (id, name, phone, created_at) VALUES ($1, $2, $3, $4)`

	_, err := r.q.ExecContext(ctx, query, org.ID, org.Name, org.Phone, org.CreatedAt)
	if IsUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

// GetByID retrieves an organization by ID.
func (r *OrgRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	query := `SELECT id, name, phone, created_at FROM organizations WHERE id = $1`

	var org domain.Organization
	err := r.q.QueryRowContext(ctx, query, id).Scan(&org.ID, &org.Name, &org.Phone, &org.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &org, nil
}

// GetAll retrieves all organizations.
func (r *OrgRepository) GetAll(ctx context.Context) ([]*domain.Organization, error) {
	query := `SELECT id, name, phone, created_at FROM organizations ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []*domain.Organization
	for rows.Next() {
		var org domain.Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.Phone, &org.CreatedAt); err != nil {
			return nil, err
		}
		orgs = append(orgs, &org)
	}

	return orgs, rows.Err()
}

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// Create persists a new driver.
func (r *DriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	query := `INSERT INTO drivers (id, org_id, name, phone, license_no, created_at) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.q.ExecContext(ctx, query,
		driver.ID, driver.OrgID, driver.Name, driver.Phone, driver.LicenseNo, driver.CreatedAt)
	if IsUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT id, org_id, name, phone, license_no, created_at FROM drivers WHERE id = $1`

	var driver domain.Driver
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&driver.ID, &driver.OrgID, &driver.Name, &driver.Phone, &driver.LicenseNo, &driver.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &driver, nil
}

// GetAll retrieves all drivers.
func (r *DriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	query := `SELECT id, org_id, name, phone, license_no, created_at FROM drivers ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		var driver domain.Driver
		if err := rows.Scan(
			&driver.ID, &driver.OrgID, &driver.Name, &driver.Phone, &driver.LicenseNo, &driver.CreatedAt); err != nil {
			return nil, err
		}
		drivers = append(drivers, &driver)
	}

	return drivers, rows.Err()
}

// TruckRepository is a PostgreSQL implementation of repository.TruckRepository.
type TruckRepository struct {
	q Querier
}

// NewTruckRepository creates a new PostgreSQL truck repository.
func NewTruckRepository(db *sql.DB) *TruckRepository {
	return &TruckRepository{q: db}
}

// Create persists a new truck.
func (r *TruckRepository) Create(ctx context.Context, truck *domain.Truck) error {
	query := `INSERT INTO trucks (id, org_id, plate_no, capacity_kg, created_at) VALUES ($1, $2, $3, $4, $5)`

	_, err := r.q.ExecContext(ctx, query,
		truck.ID, truck.OrgID, truck.PlateNo, truck.CapacityKg, truck.CreatedAt)
	if IsUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

// GetByID retrieves a truck by ID.
func (r *TruckRepository) GetByID(ctx context.Context, id string) (*domain.Truck, error) {
	query := `SELECT id, org_id, plate_no, capacity_kg, created_at FROM trucks WHERE id = $1`

	var truck domain.Truck
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&truck.ID, &truck.OrgID, &truck.PlateNo, &truck.CapacityKg, &truck.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &truck, nil
}

// GetAll retrieves all trucks.
func (r *TruckRepository) GetAll(ctx context.Context) ([]*domain.Truck, error) {
	query := `SELECT id, org_id, plate_no, capacity_kg, created_at FROM trucks ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trucks []*domain.Truck
	for rows.Next() {
		var truck domain.Truck
		if err := rows.Scan(
			&truck.ID, &truck.OrgID, &truck.PlateNo, &truck.CapacityKg, &truck.CreatedAt); err != nil {
			return nil, err
		}
		trucks = append(trucks, &truck)
	}

	return trucks, rows.Err()
}

// Ensure implementations satisfy their interfaces.
var (
	_ repository.OrgRepository    = (*OrgRepository)(nil)
	_ repository.DriverRepository = (*DriverRepository)(nil)
	_ repository.TruckRepository  = (*TruckRepository)(nil)
)
