package domain

import "time"

// TripStatus represents the lifecycle phase of a trip.
type TripStatus string

const (
	TripStatusCreated   TripStatus = "CREATED"
	TripStatusLoaded    TripStatus = "LOADED"
	TripStatusInTransit TripStatus = "IN_TRANSIT"
	TripStatusReached   TripStatus = "REACHED"
	TripStatusCompleted TripStatus = "COMPLETED"
	TripStatusCancelled TripStatus = "CANCELLED"
)

// tripTransitions is the single source of truth for legal status changes.
// No call site advances a trip except through CanTransition.
var tripTransitions = map[TripStatus][]TripStatus{
	TripStatusCreated:   {TripStatusLoaded, TripStatusCancelled},
	TripStatusLoaded:    {TripStatusInTransit, TripStatusCancelled},
	TripStatusInTransit: {TripStatusReached, TripStatusCancelled},
	TripStatusReached:   {TripStatusCompleted},
	TripStatusCompleted: {},
	TripStatusCancelled: {},
}

// CanTransition reports whether a trip may move from one status to another.
func CanTransition(from, to TripStatus) bool {
	for _, next := range tripTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ActiveTripStatuses are the statuses during which a trip holds its
// driver and truck exclusively.
var ActiveTripStatuses = []TripStatus{
	TripStatusCreated,
	TripStatusLoaded,
	TripStatusInTransit,
}

// IsActive reports whether the status claims driver/truck exclusivity.
func (s TripStatus) IsActive() bool {
	for _, active := range ActiveTripStatuses {
		if s == active {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves the status.
func (s TripStatus) IsTerminal() bool {
	return len(tripTransitions[s]) == 0
}

// Valid reports whether the status is one of the known phases.
func (s TripStatus) Valid() bool {
	_, ok := tripTransitions[s]
	return ok
}

// PayerKind identifies which party carries the driver-payment liability.
type PayerKind string

const (
	PayerSource      PayerKind = "SOURCE"
	PayerDestination PayerKind = "DESTINATION"
	PayerSplit       PayerKind = "SPLIT"
)

// PaymentTerms describes the driver-payment liability agreed at trip
// creation. Amounts are minor currency units.
type PaymentTerms struct {
	Amount            int64
	Payer             PayerKind
	SplitSourceAmount int64
	SplitDestAmount   int64
}

// Address is an optional structured address for an endpoint.
type Address struct {
	Line1    string
	City     string
	Region   string
	PostCode string
}

// Trip represents one tracked shipment between organizations.
// Exactly one of DestinationOrgID and ReceiverPhone is set.
type Trip struct {
	ID               string
	SourceOrgID      string
	DestinationOrgID string
	ReceiverPhone    string
	DriverID         string
	TruckID          string
	Status           TripStatus
	StartPoint       string
	EndPoint         string
	StartAddress     *Address
	EndAddress       *Address
	PaymentTerms     *PaymentTerms
	CancelReason     string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CancelledAt      time.Time
}

// AssignmentChange is an audit record of a driver/truck reassignment.
type AssignmentChange struct {
	ID          string
	TripID      string
	OldDriverID string
	NewDriverID string
	OldTruckID  string
	NewTruckID  string
	Reason      string
	ChangedBy   string
	CreatedAt   time.Time
}
