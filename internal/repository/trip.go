package repository

import (
	"context"

	"freight/internal/domain"
)

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// GetByIDForUpdate retrieves a trip by ID with a row lock, so the
	// caller's transaction serializes with concurrent lifecycle changes.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Trip, error)

	// GetAll retrieves recent trips.
	GetAll(ctx context.Context) ([]*domain.Trip, error)

	// UpdateStatus moves a trip to the given status.
	UpdateStatus(ctx context.Context, id string, status domain.TripStatus) error

	// Cancel marks a trip CANCELLED with the given reason.
	Cancel(ctx context.Context, id, reason string) error

	// UpdateAssignment replaces the driver and truck of a trip.
	UpdateAssignment(ctx context.Context, id, driverID, truckID string) error

	// FindActiveByResourceForUpdate returns, under a row lock, the trips
	// in an active status holding the given driver or truck. Trips whose
	// ID equals excludeTripID are ignored (reassignment of the same trip).
	FindActiveByResourceForUpdate(ctx context.Context, driverID, truckID, excludeTripID string) ([]*domain.Trip, error)

	// CreateAssignmentChange appends an audit record of a reassignment.
	CreateAssignmentChange(ctx context.Context, change *domain.AssignmentChange) error
}
