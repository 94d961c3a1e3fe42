package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"freight/internal/domain"
	"freight/internal/middleware"
	"freight/internal/service"
)

// LedgerHandler handles HTTP requests for the ledger.
type LedgerHandler struct {
	ledgerService *service.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerService *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// PostDocumentRequest is the payload for POST /v1/ledger/invoices and
// POST /v1/ledger/payments.
type PostDocumentRequest struct {
	OwnerOrgID        string `json:"owner_org_id" binding:"required"`
	CounterpartyOrgID string `json:"counterparty_org_id" binding:"required"`
	Amount            int64  `json:"amount" binding:"required"`
	Reference         string `json:"reference,omitempty"`
}

// DocumentResponse is the HTTP representation of a ledger document.
type DocumentResponse struct {
	DocumentID        string `json:"document_id"`
	Kind              string `json:"kind"`
	OwnerOrgID        string `json:"owner_org_id"`
	CounterpartyOrgID string `json:"counterparty_org_id"`
	Amount            int64  `json:"amount"`
	Reference         string `json:"reference,omitempty"`
	CreatedBy         string `json:"created_by,omitempty"`
	VoidedAt          string `json:"voided_at,omitempty"`
	CreatedAt         string `json:"created_at"`
}

func toDocumentResponse(doc *domain.Document) DocumentResponse {
	response := DocumentResponse{
		DocumentID:        doc.ID,
		Kind:              string(doc.Kind),
		OwnerOrgID:        doc.OwnerOrgID,
		CounterpartyOrgID: doc.CounterpartyOrgID,
		Amount:            doc.Amount,
		Reference:         doc.Reference,
		CreatedBy:         doc.CreatedBy,
		CreatedAt:         doc.CreatedAt.Format(time.RFC3339),
	}
	if doc.Voided() {
		response.VoidedAt = doc.VoidedAt.Format(time.RFC3339)
	}
	return response
}

// PostInvoice handles POST /v1/ledger/invoices
func (h *LedgerHandler) PostInvoice(c *gin.Context) {
	h.postDocument(c, h.ledgerService.PostInvoice)
}

// PostPayment handles POST /v1/ledger/payments
func (h *LedgerHandler) PostPayment(c *gin.Context) {
	h.postDocument(c, h.ledgerService.PostPayment)
}

func (h *LedgerHandler) postDocument(c *gin.Context, post func(ctx context.Context, actor domain.Actor, req service.PostRequest) (*domain.Document, error)) {
	var req PostDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	doc, err := post(c.Request.Context(), middleware.ActorFrom(c), service.PostRequest{
		OwnerOrgID:        req.OwnerOrgID,
		CounterpartyOrgID: req.CounterpartyOrgID,
		Amount:            req.Amount,
		Reference:         req.Reference,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toDocumentResponse(doc))
}

// VoidDocument handles POST /v1/ledger/documents/:id/void
func (h *LedgerHandler) VoidDocument(c *gin.Context) {
	doc, err := h.ledgerService.VoidDocument(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDocumentResponse(doc))
}

// BalanceResponse is the HTTP representation of an account balance.
type BalanceResponse struct {
	OwnerOrgID        string `json:"owner_org_id"`
	CounterpartyOrgID string `json:"counterparty_org_id"`
	Balance           int64  `json:"balance"`
}

// GetBalance handles GET /v1/ledger/balance?owner=...&counterparty=...
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	owner := c.Query("owner")
	counterparty := c.Query("counterparty")

	balance, err := h.ledgerService.GetBalance(c.Request.Context(), owner, counterparty)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, BalanceResponse{
		OwnerOrgID:        owner,
		CounterpartyOrgID: counterparty,
		Balance:           balance,
	})
}

// EntryResponse is the HTTP representation of a ledger entry.
type EntryResponse struct {
	EntryID      string `json:"entry_id"`
	AccountID    string `json:"account_id"`
	Direction    string `json:"direction"`
	Amount       int64  `json:"amount"`
	BalanceAfter int64  `json:"balance_after"`
	DocumentID   string `json:"document_id"`
	CreatedAt    string `json:"created_at"`
}

// ListEntries handles GET /v1/ledger/entries?owner=...&counterparty=...
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	entries, err := h.ledgerService.ListEntries(c.Request.Context(), c.Query("owner"), c.Query("counterparty"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]EntryResponse, 0, len(entries))
	for _, entry := range entries {
		response = append(response, EntryResponse{
			EntryID:      entry.ID,
			AccountID:    entry.AccountID,
			Direction:    string(entry.Direction),
			Amount:       entry.Amount,
			BalanceAfter: entry.BalanceAfter,
			DocumentID:   entry.DocumentID,
			CreatedAt:    entry.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, response)
}

// ViolationResponse is one mirrored pair whose balances do not cancel out.
type ViolationResponse struct {
	OwnerOrgID        string `json:"owner_org_id"`
	CounterpartyOrgID string `json:"counterparty_org_id"`
	Balance           int64  `json:"balance"`
	MirrorBalance     int64  `json:"mirror_balance"`
}

// ReconcileResponse is the result of a mirror-consistency sweep.
type ReconcileResponse struct {
	Consistent bool                `json:"consistent"`
	Violations []ViolationResponse `json:"violations"`
}

// Reconcile handles GET /v1/ledger/reconciliation
func (h *LedgerHandler) Reconcile(c *gin.Context) {
	violations, err := h.ledgerService.Reconcile(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := ReconcileResponse{
		Consistent: len(violations) == 0,
		Violations: make([]ViolationResponse, 0, len(violations)),
	}
	for _, v := range violations {
		response.Violations = append(response.Violations, ViolationResponse{
			OwnerOrgID:        v.OwnerOrgID,
			CounterpartyOrgID: v.CounterpartyOrgID,
			Balance:           v.Balance,
			MirrorBalance:     v.MirrorBalance,
		})
	}

	respondJSON(c, http.StatusOK, response)
}
