package tests

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"freight/internal/domain"
	"freight/internal/repository"
	"freight/internal/repository/postgres"
	"freight/internal/service"
)

// Ensure MockNotifier satisfies the service boundary.
var _ service.Notifier = (*MockNotifier)(nil)

var testActor = domain.Actor{UserID: "user-1", OrgID: "org-src"}

// tripCols mirrors the column order the trip repository selects.
var tripCols = []string{
	"id", "source_org_id", "destination_org_id", "receiver_phone", "driver_id", "truck_id",
	"status", "start_point", "end_point",
	"start_line1", "start_city", "start_region", "start_postcode",
	"end_line1", "end_city", "end_region", "end_postcode",
	"pay_amount", "pay_payer", "pay_split_source", "pay_split_dest",
	"cancel_reason", "created_at", "updated_at", "cancelled_at",
}

func tripRow(id string, status domain.TripStatus, driverID, truckID string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(tripCols).AddRow(
		id, "org-src", "org-dst", nil, driverID, truckID,
		string(status), "Tashkent", "Samarkand",
		nil, nil, nil, nil,
		nil, nil, nil, nil,
		nil, nil, nil, nil,
		nil, now, now, nil,
	)
}

func noTripRows() *sqlmock.Rows {
	return sqlmock.NewRows(tripCols)
}

// newTripHarness wires a TripService over a mocked database. Advisory
// locks, cache and waybill generation are disabled so the transactional
// path is the only one exercised.
func newTripHarness(t *testing.T) (*service.TripService, sqlmock.Sqlmock, *MockNotifier) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	notifier := NewMockNotifier()
	svc := service.NewTripService(
		service.NewCoordinator(db, zap.NewNop()),
		service.NewExclusivityGuard(),
		postgres.NewTripRepository(db),
		postgres.NewCardRepository(db),
		postgres.NewOrgRepository(db),
		postgres.NewDriverRepository(db),
		postgres.NewTruckRepository(db),
		nil, nil,
		notifier,
		nil,
		zap.NewNop(),
	)
	return svc, mock, notifier
}

func expectLookups(mock sqlmock.Sqlmock, driverOrgID string) {
	now := time.Now()
	orgCols := []string{"id", "name", "phone", "created_at"}

	mock.ExpectQuery(`FROM organizations WHERE id = \$1`).
		WithArgs("org-src").
		WillReturnRows(sqlmock.NewRows(orgCols).AddRow("org-src", "Source LLC", "", now))
	mock.ExpectQuery(`FROM organizations WHERE id = \$1`).
		WithArgs("org-dst").
		WillReturnRows(sqlmock.NewRows(orgCols).AddRow("org-dst", "Dest LLC", "", now))
	mock.ExpectQuery(`FROM drivers WHERE id = \$1`).
		WithArgs("driver-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "org_id", "name", "phone", "license_no", "created_at"}).
			AddRow("driver-1", driverOrgID, "Aliyev", "", "AB123", now))
	mock.ExpectQuery(`FROM trucks WHERE id = \$1`).
		WithArgs("truck-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "org_id", "plate_no", "capacity_kg", "created_at"}).
			AddRow("truck-1", driverOrgID, "01A123BC", 20000.0, now))
}

func TestCreateTripReservesResources(t *testing.T) {
	t.Parallel()

	svc, mock, notifier := newTripHarness(t)

	expectLookups(mock, "org-transporter")
	mock.ExpectBegin()
	mock.ExpectQuery(`driver_id = \$1 OR truck_id = \$2`).
		WillReturnRows(noTripRows())
	mock.ExpectExec(`INSERT INTO trips`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	trip, err := svc.CreateTrip(context.Background(), testActor, service.CreateTripRequest{
		SourceOrgID:      "org-src",
		DestinationOrgID: "org-dst",
		DriverID:         "driver-1",
		TruckID:          "truck-1",
		StartPoint:       "Tashkent",
		EndPoint:         "Samarkand",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.Status != domain.TripStatusCreated {
		t.Errorf("expected CREATED, got %s", trip.Status)
	}
	if notifier.StatusChangeCount() != 1 {
		t.Errorf("expected 1 notification, got %d", notifier.StatusChangeCount())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateTripRejectsBusyDriver(t *testing.T) {
	t.Parallel()

	svc, mock, notifier := newTripHarness(t)

	expectLookups(mock, "org-transporter")
	mock.ExpectBegin()
	mock.ExpectQuery(`driver_id = \$1 OR truck_id = \$2`).
		WillReturnRows(tripRow("trip-9", domain.TripStatusInTransit, "driver-1", "truck-7"))
	mock.ExpectRollback()

	_, err := svc.CreateTrip(context.Background(), testActor, service.CreateTripRequest{
		SourceOrgID:      "org-src",
		DestinationOrgID: "org-dst",
		DriverID:         "driver-1",
		TruckID:          "truck-1",
	})
	if !errors.Is(err, service.ErrResourceBusy) {
		t.Fatalf("expected ErrResourceBusy, got %v", err)
	}

	var busy *service.ResourceBusyError
	if !errors.As(err, &busy) {
		t.Fatal("expected *ResourceBusyError")
	}
	if busy.Resource != "driver" || busy.ConflictingTripID != "trip-9" {
		t.Errorf("unexpected conflict detail: %+v", busy)
	}
	if notifier.StatusChangeCount() != 0 {
		t.Errorf("expected no notifications, got %d", notifier.StatusChangeCount())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateTripPostsDriverLiability(t *testing.T) {
	t.Parallel()

	svc, mock, _ := newTripHarness(t)

	now := time.Now()
	accountCols := []string{"id", "owner_org_id", "counterparty_org_id", "balance", "created_at", "updated_at"}

	expectLookups(mock, "org-transporter")
	mock.ExpectBegin()
	mock.ExpectQuery(`driver_id = \$1 OR truck_id = \$2`).
		WillReturnRows(noTripRows())
	mock.ExpectExec(`INSERT INTO trips`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO ledger_documents`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO accounts`).
		WithArgs(sqlmock.AnyArg(), "org-transporter", "org-src", int64(500_000), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(accountCols).
			AddRow("acct-1", "org-transporter", "org-src", int64(500_000), now, now))
	mock.ExpectExec(`INSERT INTO ledger_entries`).
		WithArgs(sqlmock.AnyArg(), "acct-1", "DEBIT", int64(500_000), int64(500_000), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO accounts`).
		WithArgs(sqlmock.AnyArg(), "org-src", "org-transporter", int64(-500_000), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(accountCols).
			AddRow("acct-2", "org-src", "org-transporter", int64(-500_000), now, now))
	mock.ExpectExec(`INSERT INTO ledger_entries`).
		WithArgs(sqlmock.AnyArg(), "acct-2", "CREDIT", int64(500_000), int64(-500_000), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, err := svc.CreateTrip(context.Background(), testActor, service.CreateTripRequest{
		SourceOrgID:      "org-src",
		DestinationOrgID: "org-dst",
		DriverID:         "driver-1",
		TruckID:          "truck-1",
		PaymentTerms: &domain.PaymentTerms{
			Amount: 500_000,
			Payer:  domain.PayerSource,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateLoadCardAdvancesTrip(t *testing.T) {
	t.Parallel()

	svc, mock, notifier := newTripHarness(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM trips WHERE id = \$1 FOR UPDATE`).
		WithArgs("trip-1").
		WillReturnRows(tripRow("trip-1", domain.TripStatusCreated, "driver-1", "truck-1"))
	mock.ExpectExec(`INSERT INTO load_cards`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO load_items`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE trips SET status = \$1, updated_at = \$2 WHERE id = \$3`).
		WithArgs(domain.TripStatusLoaded, sqlmock.AnyArg(), "trip-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	card, err := svc.CreateLoadCard(context.Background(), testActor, "trip-1",
		[]domain.LoadItem{{Name: "wheat", Quantity: 10, Unit: "TON"}},
		[]string{"p1.jpg"},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if card.TripID != "trip-1" {
		t.Errorf("unexpected trip id %s", card.TripID)
	}
	if notifier.LastStatus() != domain.TripStatusLoaded {
		t.Errorf("expected LOADED notification, got %s", notifier.LastStatus())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateLoadCardRejectsWrongPhase(t *testing.T) {
	t.Parallel()

	svc, mock, _ := newTripHarness(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM trips WHERE id = \$1 FOR UPDATE`).
		WithArgs("trip-1").
		WillReturnRows(tripRow("trip-1", domain.TripStatusInTransit, "driver-1", "truck-1"))
	mock.ExpectRollback()

	_, err := svc.CreateLoadCard(context.Background(), testActor, "trip-1",
		[]domain.LoadItem{{Name: "wheat", Quantity: 10, Unit: "TON"}},
		[]string{"p1.jpg"},
	)
	if !errors.Is(err, service.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateLoadCardRejectsDuplicate(t *testing.T) {
	t.Parallel()

	svc, mock, _ := newTripHarness(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM trips WHERE id = \$1 FOR UPDATE`).
		WithArgs("trip-1").
		WillReturnRows(tripRow("trip-1", domain.TripStatusCreated, "driver-1", "truck-1"))
	mock.ExpectExec(`INSERT INTO load_cards`).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, err := svc.CreateLoadCard(context.Background(), testActor, "trip-1",
		[]domain.LoadItem{{Name: "wheat", Quantity: 10, Unit: "TON"}},
		[]string{"p1.jpg"},
	)
	if !errors.Is(err, service.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateLoadCardRequiresEvidence(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTripHarness(t)

	_, err := svc.CreateLoadCard(context.Background(), testActor, "trip-1",
		[]domain.LoadItem{{Name: "wheat", Quantity: 10, Unit: "TON"}},
		nil,
	)
	if !errors.Is(err, service.ErrInvalidCardInput) {
		t.Fatalf("expected ErrInvalidCardInput, got %v", err)
	}
}

func TestTransitionStatusAdvances(t *testing.T) {
	t.Parallel()

	svc, mock, notifier := newTripHarness(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM trips WHERE id = \$1 FOR UPDATE`).
		WithArgs("trip-1").
		WillReturnRows(tripRow("trip-1", domain.TripStatusLoaded, "driver-1", "truck-1"))
	mock.ExpectExec(`UPDATE trips SET status = \$1, updated_at = \$2 WHERE id = \$3`).
		WithArgs(domain.TripStatusInTransit, sqlmock.AnyArg(), "trip-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	trip, err := svc.TransitionStatus(context.Background(), testActor, "trip-1", domain.TripStatusInTransit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.Status != domain.TripStatusInTransit {
		t.Errorf("expected IN_TRANSIT, got %s", trip.Status)
	}
	if notifier.StatusChangeCount() != 1 {
		t.Errorf("expected 1 notification, got %d", notifier.StatusChangeCount())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestTransitionStatusSameTargetIsNoOp(t *testing.T) {
	t.Parallel()

	svc, mock, notifier := newTripHarness(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM trips WHERE id = \$1 FOR UPDATE`).
		WithArgs("trip-1").
		WillReturnRows(tripRow("trip-1", domain.TripStatusInTransit, "driver-1", "truck-1"))
	mock.ExpectCommit()

	trip, err := svc.TransitionStatus(context.Background(), testActor, "trip-1", domain.TripStatusInTransit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.Status != domain.TripStatusInTransit {
		t.Errorf("expected IN_TRANSIT, got %s", trip.Status)
	}
	// Retries must not emit a second notification.
	if notifier.StatusChangeCount() != 0 {
		t.Errorf("expected no notifications, got %d", notifier.StatusChangeCount())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestTransitionStatusRejectsSkippedPhase(t *testing.T) {
	t.Parallel()

	svc, mock, _ := newTripHarness(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM trips WHERE id = \$1 FOR UPDATE`).
		WithArgs("trip-1").
		WillReturnRows(tripRow("trip-1", domain.TripStatusCreated, "driver-1", "truck-1"))
	mock.ExpectRollback()

	_, err := svc.TransitionStatus(context.Background(), testActor, "trip-1", domain.TripStatusInTransit)
	if !errors.Is(err, service.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestTransitionStatusRejectsDirectTerminalTargets(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTripHarness(t)

	for _, target := range []domain.TripStatus{
		domain.TripStatusCompleted,
		domain.TripStatusCancelled,
		domain.TripStatusCreated,
		domain.TripStatusLoaded,
	} {
		if _, err := svc.TransitionStatus(context.Background(), testActor, "trip-1", target); !errors.Is(err, service.ErrInvalidState) {
			t.Errorf("target %s: expected ErrInvalidState, got %v", target, err)
		}
	}
}

func TestCreateReceiveCardCompletesTrip(t *testing.T) {
	t.Parallel()

	svc, mock, notifier := newTripHarness(t)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM trips WHERE id = \$1 FOR UPDATE`).
		WithArgs("trip-1").
		WillReturnRows(tripRow("trip-1", domain.TripStatusReached, "driver-1", "truck-1"))
	mock.ExpectQuery(`FROM load_cards WHERE trip_id = \$1`).
		WithArgs("trip-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "trip_id", "evidence", "created_by", "created_at"}).
			AddRow("card-1", "trip-1", []byte(`{p1.jpg}`), "user-1", now))
	mock.ExpectQuery(`FROM load_items WHERE card_id = \$1`).
		WithArgs("card-1").
		WillReturnRows(sqlmock.NewRows([]string{"name", "quantity", "unit", "rate", "grade"}).
			AddRow("wheat", 10.0, "TON", int64(0), ""))
	mock.ExpectExec(`INSERT INTO receive_cards`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO receive_items`).
		WithArgs(sqlmock.AnyArg(), 0, "wheat", 10.0, 9.0, "TON", 1.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE trips SET status = \$1, updated_at = \$2 WHERE id = \$3`).
		WithArgs(domain.TripStatusCompleted, sqlmock.AnyArg(), "trip-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	card, err := svc.CreateReceiveCard(context.Background(), testActor, "trip-1", []domain.ReceiveLine{
		{Name: "wheat", ReceivedQuantity: 9, Unit: "TON"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(card.Items) != 1 || card.Items[0].Shortage != 1 {
		t.Errorf("unexpected receive items: %+v", card.Items)
	}
	if notifier.LastStatus() != domain.TripStatusCompleted {
		t.Errorf("expected COMPLETED notification, got %s", notifier.LastStatus())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateReceiveCardRejectsUnitMismatch(t *testing.T) {
	t.Parallel()

	svc, mock, _ := newTripHarness(t)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM trips WHERE id = \$1 FOR UPDATE`).
		WithArgs("trip-1").
		WillReturnRows(tripRow("trip-1", domain.TripStatusReached, "driver-1", "truck-1"))
	mock.ExpectQuery(`FROM load_cards WHERE trip_id = \$1`).
		WithArgs("trip-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "trip_id", "evidence", "created_by", "created_at"}).
			AddRow("card-1", "trip-1", []byte(`{p1.jpg}`), "user-1", now))
	mock.ExpectQuery(`FROM load_items WHERE card_id = \$1`).
		WithArgs("card-1").
		WillReturnRows(sqlmock.NewRows([]string{"name", "quantity", "unit", "rate", "grade"}).
			AddRow("crates", 40.0, "BOX", int64(0), ""))
	mock.ExpectRollback()

	_, err := svc.CreateReceiveCard(context.Background(), testActor, "trip-1", []domain.ReceiveLine{
		{Name: "crates", ReceivedQuantity: 40, Unit: "KG"},
	})
	if !errors.Is(err, service.ErrUnitMismatch) {
		t.Fatalf("expected ErrUnitMismatch, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCreateReceiveCardRejectsBeforeReached(t *testing.T) {
	t.Parallel()

	svc, mock, _ := newTripHarness(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM trips WHERE id = \$1 FOR UPDATE`).
		WithArgs("trip-1").
		WillReturnRows(tripRow("trip-1", domain.TripStatusInTransit, "driver-1", "truck-1"))
	mock.ExpectRollback()

	_, err := svc.CreateReceiveCard(context.Background(), testActor, "trip-1", []domain.ReceiveLine{
		{Name: "wheat", ReceivedQuantity: 9, Unit: "TON"},
	})
	if !errors.Is(err, service.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCancelActiveTrip(t *testing.T) {
	t.Parallel()

	svc, mock, notifier := newTripHarness(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM trips WHERE id = \$1 FOR UPDATE`).
		WithArgs("trip-1").
		WillReturnRows(tripRow("trip-1", domain.TripStatusInTransit, "driver-1", "truck-1"))
	mock.ExpectExec(`UPDATE trips\s+SET status = \$1, cancel_reason = \$2`).
		WithArgs(domain.TripStatusCancelled, "truck breakdown", sqlmock.AnyArg(), "trip-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	trip, err := svc.CancelTrip(context.Background(), testActor, "trip-1", "truck breakdown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.Status != domain.TripStatusCancelled {
		t.Errorf("expected CANCELLED, got %s", trip.Status)
	}
	if trip.CancelReason != "truck breakdown" {
		t.Errorf("unexpected cancel reason %q", trip.CancelReason)
	}
	if notifier.LastStatus() != domain.TripStatusCancelled {
		t.Errorf("expected CANCELLED notification, got %s", notifier.LastStatus())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCancelRejectsReachedTrip(t *testing.T) {
	t.Parallel()

	svc, mock, _ := newTripHarness(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM trips WHERE id = \$1 FOR UPDATE`).
		WithArgs("trip-1").
		WillReturnRows(tripRow("trip-1", domain.TripStatusReached, "driver-1", "truck-1"))
	mock.ExpectRollback()

	_, err := svc.CancelTrip(context.Background(), testActor, "trip-1", "too late")
	if !errors.Is(err, service.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestChangeAssignmentRecordsAudit(t *testing.T) {
	t.Parallel()

	svc, mock, notifier := newTripHarness(t)

	now := time.Now()
	mock.ExpectQuery(`FROM drivers WHERE id = \$1`).
		WithArgs("driver-2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "org_id", "name", "phone", "license_no", "created_at"}).
			AddRow("driver-2", "org-transporter", "Karimov", "", "CD456", now))
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM trips WHERE id = \$1 FOR UPDATE`).
		WithArgs("trip-1").
		WillReturnRows(tripRow("trip-1", domain.TripStatusLoaded, "driver-1", "truck-1"))
	mock.ExpectQuery(`driver_id = \$1 OR truck_id = \$2`).
		WithArgs("driver-2", "truck-1", sqlmock.AnyArg(), "trip-1").
		WillReturnRows(noTripRows())
	mock.ExpectExec(`UPDATE trips SET driver_id = \$1, truck_id = \$2`).
		WithArgs("driver-2", "truck-1", sqlmock.AnyArg(), "trip-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO trip_assignment_changes`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	trip, err := svc.ChangeAssignment(context.Background(), testActor, service.ChangeAssignmentRequest{
		TripID:      "trip-1",
		NewDriverID: "driver-2",
		Reason:      "driver ill",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.DriverID != "driver-2" {
		t.Errorf("expected driver-2, got %s", trip.DriverID)
	}
	if trip.TruckID != "truck-1" {
		t.Errorf("expected truck-1 kept, got %s", trip.TruckID)
	}
	if len(notifier.AssignmentChanges) != 1 {
		t.Errorf("expected 1 assignment notification, got %d", len(notifier.AssignmentChanges))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestChangeAssignmentRejectsEmptyRequest(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTripHarness(t)

	_, err := svc.ChangeAssignment(context.Background(), testActor, service.ChangeAssignmentRequest{
		TripID: "trip-1",
		Reason: "no change",
	})
	if !errors.Is(err, service.ErrInvalidTripRequest) {
		t.Fatalf("expected ErrInvalidTripRequest, got %v", err)
	}
}

func TestGetTripNotFound(t *testing.T) {
	t.Parallel()

	svc, mock, _ := newTripHarness(t)

	mock.ExpectQuery(`FROM trips WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.GetTrip(context.Background(), "missing")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
