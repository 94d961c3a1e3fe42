package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"freight/internal/domain"
	"freight/internal/repository"
	"freight/internal/repository/postgres"
)

// LedgerService posts money movements as mirrored atomic pairs over
// (owner, counterparty) account rows. Balances only ever change through
// the store's atomic increment, inside one transaction per posting.
type LedgerService struct {
	coord      *Coordinator
	ledgerRepo repository.LedgerRepository
	notifier   Notifier
	logger     *zap.Logger
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(coord *Coordinator, ledgerRepo repository.LedgerRepository, notifier Notifier, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		coord:      coord,
		ledgerRepo: ledgerRepo,
		notifier:   notifier,
		logger:     logger,
	}
}

// PostRequest contains the parameters for posting an invoice or payment.
type PostRequest struct {
	OwnerOrgID        string
	CounterpartyOrgID string
	Amount            int64 // positive minor units
	Reference         string
}

// PostInvoice increases what the owner is owed by the counterparty and
// decreases the mirror by the same amount, atomically.
func (s *LedgerService) PostInvoice(ctx context.Context, actor domain.Actor, req PostRequest) (*domain.Document, error) {
	return s.post(ctx, actor, domain.DocumentInvoice, req)
}

// PostPayment is symmetric to PostInvoice with inverted sign: it settles
// what the owner owed.
func (s *LedgerService) PostPayment(ctx context.Context, actor domain.Actor, req PostRequest) (*domain.Document, error) {
	return s.post(ctx, actor, domain.DocumentPayment, req)
}

func (s *LedgerService) post(ctx context.Context, actor domain.Actor, kind domain.DocumentKind, req PostRequest) (*domain.Document, error) {
	if req.OwnerOrgID == "" || req.CounterpartyOrgID == "" || req.OwnerOrgID == req.CounterpartyOrgID {
		return nil, ErrInvalidOrgID
	}
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	doc := &domain.Document{
		ID:                uuid.New().String(),
		Kind:              kind,
		OwnerOrgID:        req.OwnerOrgID,
		CounterpartyOrgID: req.CounterpartyOrgID,
		Amount:            req.Amount,
		Reference:         req.Reference,
		CreatedBy:         actor.UserID,
		CreatedAt:         time.Now(),
	}

	err := s.coord.InTx(ctx, func(txCtx context.Context, tx *sql.Tx) error {
		return PostDocumentTx(txCtx, tx, doc)
	})
	if err != nil {
		return nil, err
	}

	// Fire-and-forget; a notification failure never unwinds the commit.
	if s.notifier != nil {
		if err := s.notifier.NotifyLedgerPosting(ctx, doc); err != nil {
			s.logger.Warn("ledger posting notification failed", zap.Error(err))
		}
	}

	return doc, nil
}

// PostDocumentTx writes a document and its mirrored entry pair inside the
// caller's transaction. Trip creation uses it to post driver-payment
// liabilities in the same transaction as the trip insert.
func PostDocumentTx(ctx context.Context, tx *sql.Tx, doc *domain.Document) error {
	delta := doc.Amount
	if doc.Kind == domain.DocumentPayment {
		delta = -delta
	}

	txRepo := postgres.NewLedgerRepositoryWithTx(tx)

	if err := txRepo.CreateDocument(ctx, doc); err != nil {
		return err
	}

	if err := applyEntryTx(ctx, txRepo, doc.OwnerOrgID, doc.CounterpartyOrgID, delta, doc.ID); err != nil {
		return err
	}
	return applyEntryTx(ctx, txRepo, doc.CounterpartyOrgID, doc.OwnerOrgID, -delta, doc.ID)
}

// applyEntryTx applies one side of a mirrored posting: an atomic balance
// delta and the entry that records it. BalanceAfter is the value the
// increment statement returned inside this transaction.
func applyEntryTx(ctx context.Context, repo repository.LedgerRepository, ownerOrgID, counterpartyOrgID string, delta int64, documentID string) error {
	account, err := repo.ApplyBalanceDelta(ctx, ownerOrgID, counterpartyOrgID, delta)
	if err != nil {
		return err
	}

	direction := domain.EntryDebit
	amount := delta
	if delta < 0 {
		direction = domain.EntryCredit
		amount = -delta
	}

	return repo.CreateEntry(ctx, &domain.LedgerEntry{
		ID:           uuid.New().String(),
		AccountID:    account.ID,
		Direction:    direction,
		Amount:       amount,
		BalanceAfter: account.Balance,
		DocumentID:   documentID,
		CreatedAt:    time.Now(),
	})
}

// VoidDocument reverses a posted document: it writes a reversing mirrored
// entry pair and flags the document, leaving history untouched. Voiding a
// voided document fails with ErrInvalidState.
func (s *LedgerService) VoidDocument(ctx context.Context, actor domain.Actor, documentID string) (*domain.Document, error) {
	if documentID == "" {
		return nil, ErrInvalidDocumentID
	}

	var voided *domain.Document
	err := s.coord.InTx(ctx, func(txCtx context.Context, tx *sql.Tx) error {
		txRepo := postgres.NewLedgerRepositoryWithTx(tx)

		doc, err := txRepo.GetDocumentByIDForUpdate(txCtx, documentID)
		if err != nil {
			return err
		}
		if doc.Voided() {
			return ErrInvalidState
		}

		// Reversing pair: the original deltas with flipped sign.
		delta := doc.Amount
		if doc.Kind == domain.DocumentPayment {
			delta = -delta
		}
		if err := applyEntryTx(txCtx, txRepo, doc.OwnerOrgID, doc.CounterpartyOrgID, -delta, doc.ID); err != nil {
			return err
		}
		if err := applyEntryTx(txCtx, txRepo, doc.CounterpartyOrgID, doc.OwnerOrgID, delta, doc.ID); err != nil {
			return err
		}

		if err := txRepo.MarkDocumentVoided(txCtx, doc.ID); err != nil {
			return err
		}

		doc.VoidedAt = time.Now()
		voided = doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	return voided, nil
}

// GetBalance returns the stored balance the owner is owed by the
// counterparty. A pair with no postings has balance zero. The balance is
// never recomputed from entry history on this path.
func (s *LedgerService) GetBalance(ctx context.Context, ownerOrgID, counterpartyOrgID string) (int64, error) {
	if ownerOrgID == "" || counterpartyOrgID == "" {
		return 0, ErrInvalidOrgID
	}

	account, err := s.ledgerRepo.GetAccount(ctx, ownerOrgID, counterpartyOrgID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	return account.Balance, nil
}

// ListEntries returns the audit trail for an account pair, newest first.
func (s *LedgerService) ListEntries(ctx context.Context, ownerOrgID, counterpartyOrgID string) ([]*domain.LedgerEntry, error) {
	if ownerOrgID == "" || counterpartyOrgID == "" {
		return nil, ErrInvalidOrgID
	}

	return s.ledgerRepo.ListEntries(ctx, ownerOrgID, counterpartyOrgID)
}

// Reconcile scans for org pairs whose mirrored balances do not cancel.
// The engine keeps violations structurally unreachable; this is the
// operational check that proves it.
func (s *LedgerService) Reconcile(ctx context.Context) ([]*domain.MirrorViolation, error) {
	return s.ledgerRepo.FindMirrorViolations(ctx)
}
