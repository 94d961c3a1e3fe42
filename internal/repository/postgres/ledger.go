package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"freight/internal/domain"
	"freight/internal/repository"
)

// LedgerRepository is a PostgreSQL implementation of repository.LedgerRepository.
type LedgerRepository struct {
	q Querier
}

// NewLedgerRepository creates a new PostgreSQL ledger repository.
func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{q: db}
}

// NewLedgerRepositoryWithTx creates a ledger repository using a transaction.
func NewLedgerRepositoryWithTx(tx *sql.Tx) *LedgerRepository {
	return &LedgerRepository{q: tx}
}

// ApplyBalanceDelta adds delta to the (owner, counterparty) balance as a
// single atomic statement, creating the account row lazily. The returned
// balance is what the statement itself produced, never a value computed
// in application memory.
func (r *LedgerRepository) ApplyBalanceDelta(ctx context.Context, ownerOrgID, counterpartyOrgID string, delta int64) (*domain.Account, error) {
	query := `
		INSERT INTO accounts (id, owner_org_id, counterparty_org_id, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (owner_org_id, counterparty_org_id)
		DO UPDATE SET balance = accounts.balance + EXCLUDED.balance, updated_at = EXCLUDED.updated_at
		RETURNING id, owner_org_id, counterparty_org_id, balance, created_at, updated_at
	`

	var account domain.Account
	err := r.q.QueryRowContext(ctx, query,
		uuid.New().String(),
		ownerOrgID,
		counterpartyOrgID,
		delta,
		time.Now(),
	).Scan(
		&account.ID,
		&account.OwnerOrgID,
		&account.CounterpartyOrgID,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// GetAccount retrieves the account for an ordered org pair.
func (r *LedgerRepository) GetAccount(ctx context.Context, ownerOrgID, counterpartyOrgID string) (*domain.Account, error) {
	query := `
		SELECT id, owner_org_id, counterparty_org_id, balance, created_at, updated_at
		FROM accounts WHERE owner_org_id = $1 AND counterparty_org_id = $2
	`

	var account domain.Account
	err := r.q.QueryRowContext(ctx, query, ownerOrgID, counterpartyOrgID).Scan(
		&account.ID,
		&account.OwnerOrgID,
		&account.CounterpartyOrgID,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &account, nil
}

// CreateDocument persists an invoice or payment document.
func (r *LedgerRepository) CreateDocument(ctx context.Context, doc *domain.Document) error {
	query := `
		INSERT INTO ledger_documents (id, kind, owner_org_id, counterparty_org_id, amount, reference, created_by, voided_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.q.ExecContext(ctx, query,
		doc.ID,
		doc.Kind,
		doc.OwnerOrgID,
		doc.CounterpartyOrgID,
		doc.Amount,
		doc.Reference,
		doc.CreatedBy,
		nullTime(doc.VoidedAt),
		doc.CreatedAt,
	)
	if IsUniqueViolation(err) {
		return repository.ErrDuplicate
	}

	return err
}

const documentColumns = `id, kind, owner_org_id, counterparty_org_id, amount, reference, created_by, voided_at, created_at`

// GetDocumentByID retrieves a document by ID.
func (r *LedgerRepository) GetDocumentByID(ctx context.Context, id string) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM ledger_documents WHERE id = $1`
	return r.scanDocument(r.q.QueryRowContext(ctx, query, id))
}

// GetDocumentByIDForUpdate retrieves a document under a row lock, so
// concurrent void attempts serialize.
func (r *LedgerRepository) GetDocumentByIDForUpdate(ctx context.Context, id string) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM ledger_documents WHERE id = $1 FOR UPDATE`
	return r.scanDocument(r.q.QueryRowContext(ctx, query, id))
}

func (r *LedgerRepository) scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var voidedAt sql.NullTime

	err := row.Scan(
		&doc.ID,
		&doc.Kind,
		&doc.OwnerOrgID,
		&doc.CounterpartyOrgID,
		&doc.Amount,
		&doc.Reference,
		&doc.CreatedBy,
		&voidedAt,
		&doc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if voidedAt.Valid {
		doc.VoidedAt = voidedAt.Time
	}

	return &doc, nil
}

// MarkDocumentVoided sets the voided timestamp on a document.
func (r *LedgerRepository) MarkDocumentVoided(ctx context.Context, id string) error {
	query := `UPDATE ledger_documents SET voided_at = $1 WHERE id = $2 AND voided_at IS NULL`

	result, err := r.q.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return err
	}

	return requireRow(result)
}

// CreateEntry appends a ledger entry. Entries are append-only; there is
// no update or delete path.
func (r *LedgerRepository) CreateEntry(ctx context.Context, entry *domain.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (id, account_id, direction, amount, balance_after, document_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.q.ExecContext(ctx, query,
		entry.ID,
		entry.AccountID,
		entry.Direction,
		entry.Amount,
		entry.BalanceAfter,
		entry.DocumentID,
		entry.CreatedAt,
	)

	return err
}

// ListEntries returns the entries of the (owner, counterparty) account,
// newest first.
func (r *LedgerRepository) ListEntries(ctx context.Context, ownerOrgID, counterpartyOrgID string) ([]*domain.LedgerEntry, error) {
	query := `
		SELECT e.id, e.account_id, e.direction, e.amount, e.balance_after, e.document_id, e.created_at
		FROM ledger_entries e
		JOIN accounts a ON a.id = e.account_id
		WHERE a.owner_org_id = $1 AND a.counterparty_org_id = $2
		ORDER BY e.created_at DESC
	`

	rows, err := r.q.QueryContext(ctx, query, ownerOrgID, counterpartyOrgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry
	for rows.Next() {
		var entry domain.LedgerEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.AccountID,
			&entry.Direction,
			&entry.Amount,
			&entry.BalanceAfter,
			&entry.DocumentID,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}

// FindMirrorViolations scans for org pairs whose mirrored balances do not
// sum to zero. A missing mirror row counts as zero.
func (r *LedgerRepository) FindMirrorViolations(ctx context.Context) ([]*domain.MirrorViolation, error) {
	query := `
		SELECT a.owner_org_id, a.counterparty_org_id, a.balance, COALESCE(b.balance, 0)
		FROM accounts a
		LEFT JOIN accounts b
		  ON b.owner_org_id = a.counterparty_org_id AND b.counterparty_org_id = a.owner_org_id
		WHERE a.balance + COALESCE(b.balance, 0) != 0
		  AND (a.owner_org_id < a.counterparty_org_id OR b.id IS NULL)
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var violations []*domain.MirrorViolation
	for rows.Next() {
		var v domain.MirrorViolation
		if err := rows.Scan(&v.OwnerOrgID, &v.CounterpartyOrgID, &v.Balance, &v.MirrorBalance); err != nil {
			return nil, err
		}
		violations = append(violations, &v)
	}

	return violations, rows.Err()
}

// Ensure LedgerRepository implements repository.LedgerRepository.
var _ repository.LedgerRepository = (*LedgerRepository)(nil)
