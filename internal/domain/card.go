package domain

import "time"

// LoadItem is one line of goods loaded at the origin.
type LoadItem struct {
	Name     string
	Quantity float64
	Unit     string
	Rate     int64 // minor units per unit, 0 when unpriced
	Grade    string
}

// LoadCard records what was loaded for a trip. Created once, then immutable.
type LoadCard struct {
	ID        string
	TripID    string
	Items     []LoadItem
	Evidence  []string // attachment identifiers supplied by the upload collaborator
	CreatedBy string
	CreatedAt time.Time
}

// ReceiveItem mirrors a load line with the quantity actually received.
// Shortage is loaded minus received; negative means excess.
type ReceiveItem struct {
	Name             string
	LoadedQuantity   float64
	ReceivedQuantity float64
	Unit             string
	Shortage         float64
}

// ReceiveCard records what arrived at the destination. Created once.
type ReceiveCard struct {
	ID        string
	TripID    string
	Items     []ReceiveItem
	CreatedBy string
	CreatedAt time.Time
}

// ReceiveLine is the caller-supplied input for one received item.
type ReceiveLine struct {
	Name             string
	ReceivedQuantity float64
	Unit             string
}
