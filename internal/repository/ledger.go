package repository

import (
	"context"

	"freight/internal/domain"
)

// LedgerRepository defines the persistence operations for accounts,
// documents and ledger entries.
type LedgerRepository interface {
	// ApplyBalanceDelta atomically adds delta to the (owner, counterparty)
	// account balance, creating the row lazily, and returns the account
	// with its post-increment balance. The increment happens in the store,
	// never as a read-modify-write in application code.
	ApplyBalanceDelta(ctx context.Context, ownerOrgID, counterpartyOrgID string, delta int64) (*domain.Account, error)

	// GetAccount retrieves the account for an ordered org pair.
	GetAccount(ctx context.Context, ownerOrgID, counterpartyOrgID string) (*domain.Account, error)

	// CreateDocument persists an invoice or payment document.
	CreateDocument(ctx context.Context, doc *domain.Document) error

	// GetDocumentByID retrieves a document by ID.
	GetDocumentByID(ctx context.Context, id string) (*domain.Document, error)

	// GetDocumentByIDForUpdate retrieves a document under a row lock.
	GetDocumentByIDForUpdate(ctx context.Context, id string) (*domain.Document, error)

	// MarkDocumentVoided sets the voided timestamp on a document.
	MarkDocumentVoided(ctx context.Context, id string) error

	// CreateEntry appends a ledger entry.
	CreateEntry(ctx context.Context, entry *domain.LedgerEntry) error

	// ListEntries returns the entries of the (owner, counterparty)
	// account, newest first.
	ListEntries(ctx context.Context, ownerOrgID, counterpartyOrgID string) ([]*domain.LedgerEntry, error)

	// FindMirrorViolations scans for org pairs whose mirrored balances do
	// not sum to zero. Operational tool, not part of the posting path.
	FindMirrorViolations(ctx context.Context) ([]*domain.MirrorViolation, error)
}
