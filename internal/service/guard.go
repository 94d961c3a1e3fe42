package service

import (
	"context"
	"database/sql"

	"freight/internal/repository/postgres"
)

// ExclusivityGuard guarantees a driver or truck is bound to at most one
// active trip. The check runs inside the caller's transaction as a locking
// read, so the claim that follows it commits before any other transaction
// can observe the resource as free. There is no release call: exclusivity
// is derived from trip status.
type ExclusivityGuard struct{}

// NewExclusivityGuard creates an ExclusivityGuard.
func NewExclusivityGuard() *ExclusivityGuard {
	return &ExclusivityGuard{}
}

// CheckAndReserve fails with *ResourceBusyError if the driver or truck is
// held by another active trip. excludeTripID skips the trip being
// reassigned so it does not conflict with itself.
func (g *ExclusivityGuard) CheckAndReserve(ctx context.Context, tx *sql.Tx, driverID, truckID, excludeTripID string) error {
	tripRepo := postgres.NewTripRepositoryWithTx(tx)

	conflicts, err := tripRepo.FindActiveByResourceForUpdate(ctx, driverID, truckID, excludeTripID)
	if err != nil {
		return err
	}

	for _, conflict := range conflicts {
		if conflict.DriverID == driverID {
			return &ResourceBusyError{
				Resource:          "driver",
				ResourceID:        driverID,
				ConflictingTripID: conflict.ID,
			}
		}
		if conflict.TruckID == truckID {
			return &ResourceBusyError{
				Resource:          "truck",
				ResourceID:        truckID,
				ConflictingTripID: conflict.ID,
			}
		}
	}

	return nil
}
