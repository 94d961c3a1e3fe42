package domain

import "time"

// Organization is a party that ships, receives, or transports freight.
type Organization struct {
	ID        string
	Name      string
	Phone     string
	CreatedAt time.Time
}

// Driver belongs to a transporter organization. That organization is the
// ledger counterparty for the driver's payment liability.
type Driver struct {
	ID        string
	OrgID     string
	Name      string
	Phone     string
	LicenseNo string
	CreatedAt time.Time
}

// Truck belongs to a transporter organization.
type Truck struct {
	ID         string
	OrgID      string
	PlateNo    string
	CapacityKg float64
	CreatedAt  time.Time
}

// Actor is the verified acting identity supplied by the request layer.
// Core operations receive it explicitly; nothing in the core reads
// identity from ambient state.
type Actor struct {
	UserID string
	OrgID  string
}
