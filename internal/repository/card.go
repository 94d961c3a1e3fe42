package repository

import (
	"context"

	"freight/internal/domain"
)

// CardRepository defines the persistence operations for load and
// receive cards.
type CardRepository interface {
	// CreateLoadCard persists a load card and its items.
	// Returns ErrDuplicate if the trip already has one.
	CreateLoadCard(ctx context.Context, card *domain.LoadCard) error

	// GetLoadCardByTripID retrieves the load card for a trip.
	GetLoadCardByTripID(ctx context.Context, tripID string) (*domain.LoadCard, error)

	// CreateReceiveCard persists a receive card and its items.
	// Returns ErrDuplicate if the trip already has one.
	CreateReceiveCard(ctx context.Context, card *domain.ReceiveCard) error

	// GetReceiveCardByTripID retrieves the receive card for a trip.
	GetReceiveCardByTripID(ctx context.Context, tripID string) (*domain.ReceiveCard, error)
}
