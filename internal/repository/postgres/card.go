package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"freight/internal/domain"
	"freight/internal/repository"
)

// CardRepository is a PostgreSQL implementation of repository.CardRepository.
type CardRepository struct {
	q Querier
}

// NewCardRepository creates a new PostgreSQL card repository.
func NewCardRepository(db *sql.DB) *CardRepository {
	return &CardRepository{q: db}
}

// NewCardRepositoryWithTx creates a card repository using a transaction.
func NewCardRepositoryWithTx(tx *sql.Tx) *CardRepository {
	return &CardRepository{q: tx}
}

// CreateLoadCard persists a load card and its items. The unique index on
// trip_id makes a second card for the same trip surface as ErrDuplicate.
func (r *CardRepository) CreateLoadCard(ctx context.Context, card *domain.LoadCard) error {
	query := `
		INSERT INTO load_cards (id, trip_id, evidence, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.q.ExecContext(ctx, query,
		card.ID,
		card.TripID,
		pq.Array(card.Evidence),
		card.CreatedBy,
		card.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}

	itemQuery := `
		INSERT INTO load_items (card_id, position, name, quantity, unit, rate, grade)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i, item := range card.Items {
		if _, err := r.q.ExecContext(ctx, itemQuery,
			card.ID, i, item.Name, item.Quantity, item.Unit, item.Rate, item.Grade,
		); err != nil {
			return err
		}
	}

	return nil
}

// GetLoadCardByTripID retrieves the load card for a trip.
func (r *CardRepository) GetLoadCardByTripID(ctx context.Context, tripID string) (*domain.LoadCard, error) {
	query := `
		SELECT id, trip_id, evidence, created_by, created_at
		FROM load_cards WHERE trip_id = $1
	`

	var card domain.LoadCard
	err := r.q.QueryRowContext(ctx, query, tripID).Scan(
		&card.ID,
		&card.TripID,
		pq.Array(&card.Evidence),
		&card.CreatedBy,
		&card.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	itemQuery := `
		SELECT name, quantity, unit, rate, grade
		FROM load_items WHERE card_id = $1 ORDER BY position
	`
	rows, err := r.q.QueryContext(ctx, itemQuery, card.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.LoadItem
		if err := rows.Scan(&item.Name, &item.Quantity, &item.Unit, &item.Rate, &item.Grade); err != nil {
			return nil, err
		}
		card.Items = append(card.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &card, nil
}

// CreateReceiveCard persists a receive card and its items.
func (r *CardRepository) CreateReceiveCard(ctx context.Context, card *domain.ReceiveCard) error {
	query := `
		INSERT INTO receive_cards (id, trip_id, created_by, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.q.ExecContext(ctx, query,
		card.ID,
		card.TripID,
		card.CreatedBy,
		card.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}

	itemQuery := `
		INSERT INTO receive_items (card_id, position, name, loaded_quantity, received_quantity, unit, shortage)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i, item := range card.Items {
		if _, err := r.q.ExecContext(ctx, itemQuery,
			card.ID, i, item.Name, item.LoadedQuantity, item.ReceivedQuantity, item.Unit, item.Shortage,
		); err != nil {
			return err
		}
	}

	return nil
}

// GetReceiveCardByTripID retrieves the receive card for a trip.
func (r *CardRepository) GetReceiveCardByTripID(ctx context.Context, tripID string) (*domain.ReceiveCard, error) {
	query := `
		SELECT id, trip_id, created_by, created_at
		FROM receive_cards WHERE trip_id = $1
	`

	var card domain.ReceiveCard
	err := r.q.QueryRowContext(ctx, query, tripID).Scan(
		&card.ID,
		&card.TripID,
		&card.CreatedBy,
		&card.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	itemQuery := `
		SELECT name, loaded_quantity, received_quantity, unit, shortage
		FROM receive_items WHERE card_id = $1 ORDER BY position
	`
	rows, err := r.q.QueryContext(ctx, itemQuery, card.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.ReceiveItem
		if err := rows.Scan(&item.Name, &item.LoadedQuantity, &item.ReceivedQuantity, &item.Unit, &item.Shortage); err != nil {
			return nil, err
		}
		card.Items = append(card.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &card, nil
}

// Ensure CardRepository implements repository.CardRepository.
var _ repository.CardRepository = (*CardRepository)(nil)
