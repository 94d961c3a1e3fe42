package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"freight/internal/domain"
	"freight/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

const tripColumns = `id, source_org_id, destination_org_id, receiver_phone, driver_id, truck_id,
		status, start_point, end_point,
		start_line1, start_city, start_region, start_postcode,
		end_line1, end_city, end_region, end_postcode,
		pay_amount, pay_payer, pay_split_source, pay_split_dest,
		cancel_reason, created_at, updated_at, cancelled_at`

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (` + tripColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23, $24, $25)
	`

	var destOrg, receiverPhone sql.NullString
	if trip.DestinationOrgID != "" {
		destOrg = sql.NullString{String: trip.DestinationOrgID, Valid: true}
	}
	if trip.ReceiverPhone != "" {
		receiverPhone = sql.NullString{String: trip.ReceiverPhone, Valid: true}
	}

	start := addressColumns(trip.StartAddress)
	end := addressColumns(trip.EndAddress)

	var payAmount, paySplitSource, paySplitDest sql.NullInt64
	var payPayer sql.NullString
	if terms := trip.PaymentTerms; terms != nil {
		payAmount = sql.NullInt64{Int64: terms.Amount, Valid: true}
		payPayer = sql.NullString{String: string(terms.Payer), Valid: true}
		paySplitSource = sql.NullInt64{Int64: terms.SplitSourceAmount, Valid: true}
		paySplitDest = sql.NullInt64{Int64: terms.SplitDestAmount, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.SourceOrgID,
		destOrg,
		receiverPhone,
		trip.DriverID,
		trip.TruckID,
		trip.Status,
		trip.StartPoint,
		trip.EndPoint,
		start[0], start[1], start[2], start[3],
		end[0], end[1], end[2], end[3],
		payAmount,
		payPayer,
		paySplitSource,
		paySplitDest,
		nullString(trip.CancelReason),
		trip.CreatedAt,
		trip.UpdatedAt,
		nullTime(trip.CancelledAt),
	)
	if IsUniqueViolation(err) {
		return repository.ErrDuplicate
	}

	return err
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate retrieves a trip by ID with a row lock.
func (r *TripRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetAll retrieves recent trips.
func (r *TripRepository) GetAll(ctx context.Context) ([]*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips ORDER BY created_at DESC LIMIT 100`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

// UpdateStatus moves a trip to the given status.
func (r *TripRepository) UpdateStatus(ctx context.Context, id string, status domain.TripStatus) error {
	query := `UPDATE trips SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := r.q.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// Cancel marks a trip CANCELLED with the given reason.
func (r *TripRepository) Cancel(ctx context.Context, id, reason string) error {
	query := `
		UPDATE trips
		SET status = $1, cancel_reason = $2, cancelled_at = $3, updated_at = $3
		WHERE id = $4
	`

	result, err := r.q.ExecContext(ctx, query, domain.TripStatusCancelled, reason, time.Now(), id)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// UpdateAssignment replaces the driver and truck of a trip.
func (r *TripRepository) UpdateAssignment(ctx context.Context, id, driverID, truckID string) error {
	query := `UPDATE trips SET driver_id = $1, truck_id = $2, updated_at = $3 WHERE id = $4`

	result, err := r.q.ExecContext(ctx, query, driverID, truckID, time.Now(), id)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// FindActiveByResourceForUpdate returns, under a row lock, the active
// trips holding the given driver or truck. The lock is what keeps a
// concurrent transaction from claiming the same resource before this
// transaction commits its own claim.
func (r *TripRepository) FindActiveByResourceForUpdate(ctx context.Context, driverID, truckID, excludeTripID string) ([]*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE (driver_id = $1 OR truck_id = $2)
		  AND status = ANY($3)
		  AND id != $4
		FOR UPDATE
	`

	statuses := make([]string, len(domain.ActiveTripStatuses))
	for i, s := range domain.ActiveTripStatuses {
		statuses[i] = string(s)
	}

	rows, err := r.q.QueryContext(ctx, query, driverID, truckID, pq.Array(statuses), excludeTripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

// CreateAssignmentChange appends an audit record of a reassignment.
func (r *TripRepository) CreateAssignmentChange(ctx context.Context, change *domain.AssignmentChange) error {
	query := `
		INSERT INTO trip_assignment_changes
			(id, trip_id, old_driver_id, new_driver_id, old_truck_id, new_truck_id, reason, changed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q.ExecContext(ctx, query,
		change.ID,
		change.TripID,
		change.OldDriverID,
		change.NewDriverID,
		change.OldTruckID,
		change.NewTruckID,
		change.Reason,
		change.ChangedBy,
		change.CreatedAt,
	)

	return err
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (r *TripRepository) scanOne(row *sql.Row) (*domain.Trip, error) {
	trip, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return trip, nil
}

func (r *TripRepository) scanRow(row rowScanner) (*domain.Trip, error) {
	var trip domain.Trip
	var destOrg, receiverPhone, payPayer, cancelReason sql.NullString
	var startLine1, startCity, startRegion, startPostcode sql.NullString
	var endLine1, endCity, endRegion, endPostcode sql.NullString
	var payAmount, paySplitSource, paySplitDest sql.NullInt64
	var cancelledAt sql.NullTime

	err := row.Scan(
		&trip.ID,
		&trip.SourceOrgID,
		&destOrg,
		&receiverPhone,
		&trip.DriverID,
		&trip.TruckID,
		&trip.Status,
		&trip.StartPoint,
		&trip.EndPoint,
		&startLine1, &startCity, &startRegion, &startPostcode,
		&endLine1, &endCity, &endRegion, &endPostcode,
		&payAmount,
		&payPayer,
		&paySplitSource,
		&paySplitDest,
		&cancelReason,
		&trip.CreatedAt,
		&trip.UpdatedAt,
		&cancelledAt,
	)
	if err != nil {
		return nil, err
	}

	trip.DestinationOrgID = destOrg.String
	trip.ReceiverPhone = receiverPhone.String
	trip.CancelReason = cancelReason.String
	if cancelledAt.Valid {
		trip.CancelledAt = cancelledAt.Time
	}

	if startLine1.Valid {
		trip.StartAddress = &domain.Address{
			Line1:    startLine1.String,
			City:     startCity.String,
			Region:   startRegion.String,
			PostCode: startPostcode.String,
		}
	}
	if endLine1.Valid {
		trip.EndAddress = &domain.Address{
			Line1:    endLine1.String,
			City:     endCity.String,
			Region:   endRegion.String,
			PostCode: endPostcode.String,
		}
	}

	if payAmount.Valid {
		trip.PaymentTerms = &domain.PaymentTerms{
			Amount:            payAmount.Int64,
			Payer:             domain.PayerKind(payPayer.String),
			SplitSourceAmount: paySplitSource.Int64,
			SplitDestAmount:   paySplitDest.Int64,
		}
	}

	return &trip, nil
}

// addressColumns flattens an optional address into its four columns.
func addressColumns(addr *domain.Address) [4]sql.NullString {
	var cols [4]sql.NullString
	if addr == nil {
		return cols
	}
	cols[0] = sql.NullString{String: addr.Line1, Valid: true}
	cols[1] = sql.NullString{String: addr.City, Valid: true}
	cols[2] = sql.NullString{String: addr.Region, Valid: true}
	cols[3] = sql.NullString{String: addr.PostCode, Valid: true}
	return cols
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
