package domain

import "time"

// Account holds the balance one organization is owed by a counterparty.
// The mirrored row for the reversed pair always carries the negated
// balance; the pair is kept consistent by the ledger engine, not by the
// schema.
type Account struct {
	ID                string
	OwnerOrgID        string
	CounterpartyOrgID string
	Balance           int64 // signed minor currency units
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// EntryDirection is the sign convention for ledger entries: a DEBIT
// increases what the account owner is owed, a CREDIT decreases it.
type EntryDirection string

const (
	EntryDebit  EntryDirection = "DEBIT"
	EntryCredit EntryDirection = "CREDIT"
)

// LedgerEntry is an append-only record of one balance mutation.
// Entries are never edited or deleted; corrections are new entries.
type LedgerEntry struct {
	ID           string
	AccountID    string
	Direction    EntryDirection
	Amount       int64 // always positive minor units
	BalanceAfter int64
	DocumentID   string
	CreatedAt    time.Time
}

// DocumentKind distinguishes the originating document of a posting.
type DocumentKind string

const (
	DocumentInvoice DocumentKind = "INVOICE"
	DocumentPayment DocumentKind = "PAYMENT"
)

// Document is an invoice or payment. Each document produces exactly one
// mirrored pair of ledger entries; voiding produces a reversing pair and
// sets VoidedAt rather than mutating history.
type Document struct {
	ID                string
	Kind              DocumentKind
	OwnerOrgID        string
	CounterpartyOrgID string
	Amount            int64 // positive minor units
	Reference         string
	CreatedBy         string
	VoidedAt          time.Time
	CreatedAt         time.Time
}

// Voided reports whether the document has been reversed.
func (d *Document) Voided() bool {
	return !d.VoidedAt.IsZero()
}

// MirrorViolation is one (owner, counterparty) pair whose balances do not
// cancel out. Produced by the reconciliation scan.
type MirrorViolation struct {
	OwnerOrgID        string
	CounterpartyOrgID string
	Balance           int64
	MirrorBalance     int64
}
