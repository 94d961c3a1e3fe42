package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned when an operation is not valid for the
	// trip's or document's current lifecycle phase.
	ErrInvalidState = errors.New("operation not valid in current state")

	// ErrResourceBusy is returned when a driver or truck is already bound
	// to another active trip. Use errors.As with *ResourceBusyError to
	// recover the conflicting trip.
	ErrResourceBusy = errors.New("resource already bound to an active trip")

	// ErrAlreadyExists is returned when a load/receive card already exists
	// for the trip.
	ErrAlreadyExists = errors.New("document already exists")

	// ErrUnitMismatch is returned when a receive line's unit differs from
	// the corresponding load line's unit.
	ErrUnitMismatch = errors.New("receive unit does not match load unit")

	// ErrInvalidAmount is returned for non-positive monetary values.
	ErrInvalidAmount = errors.New("amount must be a positive number of minor units")

	// ErrConflict is returned when a transient store conflict persists
	// after bounded retries, or a uniqueness violation surfaces that no
	// more specific error covers.
	ErrConflict = errors.New("conflicting concurrent update")

	// ErrInvalidTripRequest is returned when a trip creation request is
	// internally inconsistent (destination, payment terms, missing ids).
	ErrInvalidTripRequest = errors.New("invalid trip requestification")

	// ErrInvalidOrgID is returned when an organization ID is empty.
	ErrInvalidOrgID = errors.New("invalid organization id")

	// ErrInvalidTripID is returned when a trip ID is empty.
	ErrInvalidTripID = errors.New("invalid trip id")

	// ErrInvalidCardInput is returned when load/receive line items are
	// missing, malformed, or reference unknown load lines.
	ErrInvalidCardInput = errors.New("invalid card line items")

	// ErrInvalidDocumentID is returned when a document ID is empty.
	ErrInvalidDocumentID = errors.New("invalid document id")
)

// ResourceBusyError reports which resource is double-booked and by which
// trip. It matches ErrResourceBusy under errors.Is.
type ResourceBusyError struct {
	Resource          string // "driver" or "truck"
	ResourceID        string
	ConflictingTripID string
}

func (e *ResourceBusyError) Error() string {
	return fmt.Sprintf("%s %s is already bound to active trip %s", e.Resource, e.ResourceID, e.ConflictingTripID)
}

func (e *ResourceBusyError) Is(target error) bool {
	return target == ErrResourceBusy
}

// UnitMismatchError reports the disagreeing units for one item. It
// matches ErrUnitMismatch under errors.Is.
type UnitMismatchError struct {
	Item        string
	LoadUnit    string
	ReceiveUnit string
}

func (e *UnitMismatchError) Error() string {
	return fmt.Sprintf("item %q received in %s but loaded in %s", e.Item, e.ReceiveUnit, e.LoadUnit)
}

func (e *UnitMismatchError) Is(target error) bool {
	return target == ErrUnitMismatch
}
