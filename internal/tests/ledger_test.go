package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"

	"freight/internal/domain"
	"freight/internal/repository/postgres"
	"freight/internal/service"
)

var accountCols = []string{"id", "owner_org_id", "counterparty_org_id", "balance", "created_at", "updated_at"}

var documentCols = []string{
	"id", "kind", "owner_org_id", "counterparty_org_id", "amount",
	"reference", "created_by", "voided_at", "created_at",
}

func newLedgerHarness(t *testing.T) (*service.LedgerService, sqlmock.Sqlmock, *MockNotifier) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	notifier := NewMockNotifier()
	svc := service.NewLedgerService(
		service.NewCoordinator(db, zap.NewNop()),
		postgres.NewLedgerRepository(db),
		notifier,
		zap.NewNop(),
	)
	return svc, mock, notifier
}

func TestPostInvoiceWritesMirroredPair(t *testing.T) {
	t.Parallel()

	svc, mock, notifier := newLedgerHarness(t)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO ledger_documents`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO accounts`).
		WithArgs(sqlmock.AnyArg(), "org-a", "org-b", int64(120_000), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(accountCols).
			AddRow("acct-ab", "org-a", "org-b", int64(120_000), now, now))
	mock.ExpectExec(`INSERT INTO ledger_entries`).
		WithArgs(sqlmock.AnyArg(), "acct-ab", "DEBIT", int64(120_000), int64(120_000), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO accounts`).
		WithArgs(sqlmock.AnyArg(), "org-b", "org-a", int64(-120_000), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(accountCols).
			AddRow("acct-ba", "org-b", "org-a", int64(-120_000), now, now))
	mock.ExpectExec(`INSERT INTO ledger_entries`).
		WithArgs(sqlmock.AnyArg(), "acct-ba", "CREDIT", int64(120_000), int64(-120_000), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	doc, err := svc.PostInvoice(context.Background(), testActor, service.PostRequest{
		OwnerOrgID:        "org-a",
		CounterpartyOrgID: "org-b",
		Amount:            120_000,
		Reference:         "trip:trip-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Kind != domain.DocumentInvoice {
		t.Errorf("expected INVOICE, got %s", doc.Kind)
	}
	if len(notifier.Postings) != 1 {
		t.Errorf("expected 1 posting notification, got %d", len(notifier.Postings))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostPaymentFlipsSign(t *testing.T) {
	t.Parallel()

	svc, mock, _ := newLedgerHarness(t)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO ledger_documents`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO accounts`).
		WithArgs(sqlmock.AnyArg(), "org-a", "org-b", int64(-70_000), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(accountCols).
			AddRow("acct-ab", "org-a", "org-b", int64(50_000), now, now))
	mock.ExpectExec(`INSERT INTO ledger_entries`).
		WithArgs(sqlmock.AnyArg(), "acct-ab", "CREDIT", int64(70_000), int64(50_000), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO accounts`).
		WithArgs(sqlmock.AnyArg(), "org-b", "org-a", int64(70_000), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(accountCols).
			AddRow("acct-ba", "org-b", "org-a", int64(-50_000), now, now))
	mock.ExpectExec(`INSERT INTO ledger_entries`).
		WithArgs(sqlmock.AnyArg(), "acct-ba", "DEBIT", int64(70_000), int64(-50_000), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	doc, err := svc.PostPayment(context.Background(), testActor, service.PostRequest{
		OwnerOrgID:        "org-a",
		CounterpartyOrgID: "org-b",
		Amount:            70_000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Kind != domain.DocumentPayment {
		t.Errorf("expected PAYMENT, got %s", doc.Kind)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	svc, _, _ := newLedgerHarness(t)

	_, err := svc.PostInvoice(context.Background(), testActor, service.PostRequest{
		OwnerOrgID:        "org-a",
		CounterpartyOrgID: "org-a",
		Amount:            100,
	})
	if !errors.Is(err, service.ErrInvalidOrgID) {
		t.Errorf("expected ErrInvalidOrgID for self pair, got %v", err)
	}

	_, err = svc.PostInvoice(context.Background(), testActor, service.PostRequest{
		OwnerOrgID:        "org-a",
		CounterpartyOrgID: "org-b",
		Amount:            0,
	})
	if !errors.Is(err, service.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for zero amount, got %v", err)
	}

	_, err = svc.PostInvoice(context.Background(), testActor, service.PostRequest{
		OwnerOrgID:        "org-a",
		CounterpartyOrgID: "org-b",
		Amount:            -5,
	})
	if !errors.Is(err, service.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for negative amount, got %v", err)
	}
}

func TestVoidDocumentWritesReversingPair(t *testing.T) {
	t.Parallel()

	svc, mock, _ := newLedgerHarness(t)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM ledger_documents WHERE id = \$1 FOR UPDATE`).
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows(documentCols).
			AddRow("doc-1", "INVOICE", "org-a", "org-b", int64(120_000), "", "user-1", nil, now))
	mock.ExpectQuery(`INSERT INTO accounts`).
		WithArgs(sqlmock.AnyArg(), "org-a", "org-b", int64(-120_000), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(accountCols).
			AddRow("acct-ab", "org-a", "org-b", int64(0), now, now))
	mock.ExpectExec(`INSERT INTO ledger_entries`).
		WithArgs(sqlmock.AnyArg(), "acct-ab", "CREDIT", int64(120_000), int64(0), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO accounts`).
		WithArgs(sqlmock.AnyArg(), "org-b", "org-a", int64(120_000), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(accountCols).
			AddRow("acct-ba", "org-b", "org-a", int64(0), now, now))
	mock.ExpectExec(`INSERT INTO ledger_entries`).
		WithArgs(sqlmock.AnyArg(), "acct-ba", "DEBIT", int64(120_000), int64(0), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE ledger_documents SET voided_at = \$1 WHERE id = \$2 AND voided_at IS NULL`).
		WithArgs(sqlmock.AnyArg(), "doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	doc, err := svc.VoidDocument(context.Background(), testActor, "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.Voided() {
		t.Error("expected document to be voided")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestVoidVoidedDocumentRejected(t *testing.T) {
	t.Parallel()

	svc, mock, _ := newLedgerHarness(t)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM ledger_documents WHERE id = \$1 FOR UPDATE`).
		WithArgs("doc-1").
		WillReturnRows(sqlmock.NewRows(documentCols).
			AddRow("doc-1", "INVOICE", "org-a", "org-b", int64(120_000), "", "user-1", now, now))
	mock.ExpectRollback()

	_, err := svc.VoidDocument(context.Background(), testActor, "doc-1")
	if !errors.Is(err, service.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestGetBalanceMissingAccountIsZero(t *testing.T) {
	t.Parallel()

	svc, mock, _ := newLedgerHarness(t)

	mock.ExpectQuery(`FROM accounts WHERE owner_org_id = \$1 AND counterparty_org_id = \$2`).
		WithArgs("org-a", "org-x").
		WillReturnRows(sqlmock.NewRows(accountCols))

	balance, err := svc.GetBalance(context.Background(), "org-a", "org-x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 0 {
		t.Errorf("expected zero balance, got %d", balance)
	}
}

func TestReconcileReportsViolations(t *testing.T) {
	t.Parallel()

	svc, mock, _ := newLedgerHarness(t)

	mock.ExpectQuery(`FROM accounts a\s+LEFT JOIN accounts b`).
		WillReturnRows(sqlmock.NewRows([]string{"owner_org_id", "counterparty_org_id", "balance", "mirror_balance"}).
			AddRow("org-a", "org-b", int64(100), int64(-90)))

	violations, err := svc.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(violations))
	}
	if violations[0].Balance != 100 || violations[0].MirrorBalance != -90 {
		t.Errorf("unexpected violation: %+v", violations[0])
	}
}
