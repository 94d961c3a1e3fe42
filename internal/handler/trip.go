package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"freight/internal/domain"
	"freight/internal/middleware"
	"freight/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// AddressDTO mirrors domain.Address on the wire.
type AddressDTO struct {
	Line1    string `json:"line1"`
	City     string `json:"city"`
	Region   string `json:"region,omitempty"`
	PostCode string `json:"postcode,omitempty"`
}

// PaymentTermsDTO mirrors domain.PaymentTerms on the wire. Amounts are
// integer minor currency units; fractional values are rejected at bind.
type PaymentTermsDTO struct {
	Amount            int64  `json:"amount" binding:"required"`
	Payer             string `json:"payer" binding:"required"`
	SplitSourceAmount int64  `json:"split_source_amount,omitempty"`
	SplitDestAmount   int64  `json:"split_dest_amount,omitempty"`
}

// CreateTripRequest is the payload for POST /v1/trips.
type CreateTripRequest struct {
	SourceOrgID      string           `json:"source_org_id" binding:"required"`
	DestinationOrgID string           `json:"destination_org_id"`
	ReceiverPhone    string           `json:"receiver_phone"`
	DriverID         string           `json:"driver_id" binding:"required"`
	TruckID          string           `json:"truck_id" binding:"required"`
	StartPoint       string           `json:"start_point"`
	EndPoint         string           `json:"end_point"`
	StartAddress     *AddressDTO      `json:"start_address,omitempty"`
	EndAddress       *AddressDTO      `json:"end_address,omitempty"`
	PaymentTerms     *PaymentTermsDTO `json:"payment_terms,omitempty"`
}

// TripResponse is the HTTP representation of a trip.
type TripResponse struct {
	TripID           string `json:"trip_id"`
	SourceOrgID      string `json:"source_org_id"`
	DestinationOrgID string `json:"destination_org_id,omitempty"`
	ReceiverPhone    string `json:"receiver_phone,omitempty"`
	DriverID         string `json:"driver_id"`
	TruckID          string `json:"truck_id"`
	Status           string `json:"status"`
	StartPoint       string `json:"start_point,omitempty"`
	EndPoint         string `json:"end_point,omitempty"`
	CancelReason     string `json:"cancel_reason,omitempty"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
	CancelledAt      string `json:"cancelled_at,omitempty"`
}

func toTripResponse(trip *domain.Trip) TripResponse {
	response := TripResponse{
		TripID:           trip.ID,
		SourceOrgID:      trip.SourceOrgID,
		DestinationOrgID: trip.DestinationOrgID,
		ReceiverPhone:    trip.ReceiverPhone,
		DriverID:         trip.DriverID,
		TruckID:          trip.TruckID,
		Status:           string(trip.Status),
		StartPoint:       trip.StartPoint,
		EndPoint:         trip.EndPoint,
		CancelReason:     trip.CancelReason,
		CreatedAt:        trip.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        trip.UpdatedAt.Format(time.RFC3339),
	}
	if !trip.CancelledAt.IsZero() {
		response.CancelledAt = trip.CancelledAt.Format(time.RFC3339)
	}
	return response
}

// CreateTrip handles POST /v1/trips
func (h *TripHandler) CreateTrip(c *gin.Context) {
	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	trip, err := h.tripService.CreateTrip(c.Request.Context(), middleware.ActorFrom(c), service.CreateTripRequest{
		SourceOrgID:      req.SourceOrgID,
		DestinationOrgID: req.DestinationOrgID,
		ReceiverPhone:    req.ReceiverPhone,
		DriverID:         req.DriverID,
		TruckID:          req.TruckID,
		StartPoint:       req.StartPoint,
		EndPoint:         req.EndPoint,
		StartAddress:     toAddress(req.StartAddress),
		EndAddress:       toAddress(req.EndAddress),
		PaymentTerms:     toPaymentTerms(req.PaymentTerms),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toTripResponse(trip))
}

// LoadItemDTO is one load line on the wire.
type LoadItemDTO struct {
	Name     string  `json:"name" binding:"required"`
	Quantity float64 `json:"quantity" binding:"required"`
	Unit     string  `json:"unit" binding:"required"`
	Rate     int64   `json:"rate,omitempty"`
	Grade    string  `json:"grade,omitempty"`
}

// CreateLoadCardRequest is the payload for POST /v1/trips/:id/load-card.
type CreateLoadCardRequest struct {
	Items    []LoadItemDTO `json:"items" binding:"required"`
	Evidence []string      `json:"evidence" binding:"required"`
}

// LoadCardResponse is the HTTP representation of a load card.
type LoadCardResponse struct {
	CardID    string        `json:"card_id"`
	TripID    string        `json:"trip_id"`
	Items     []LoadItemDTO `json:"items"`
	Evidence  []string      `json:"evidence"`
	CreatedAt string        `json:"created_at"`
}

// CreateLoadCard handles POST /v1/trips/:id/load-card
func (h *TripHandler) CreateLoadCard(c *gin.Context) {
	var req CreateLoadCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	items := make([]domain.LoadItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = domain.LoadItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Unit:     item.Unit,
			Rate:     item.Rate,
			Grade:    item.Grade,
		}
	}

	card, err := h.tripService.CreateLoadCard(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), items, req.Evidence)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toLoadCardResponse(card))
}

func toLoadCardResponse(card *domain.LoadCard) LoadCardResponse {
	items := make([]LoadItemDTO, len(card.Items))
	for i, item := range card.Items {
		items[i] = LoadItemDTO{
			Name:     item.Name,
			Quantity: item.Quantity,
			Unit:     item.Unit,
			Rate:     item.Rate,
			Grade:    item.Grade,
		}
	}
	return LoadCardResponse{
		CardID:    card.ID,
		TripID:    card.TripID,
		Items:     items,
		Evidence:  card.Evidence,
		CreatedAt: card.CreatedAt.Format(time.RFC3339),
	}
}

// TransitionRequest is the payload for POST /v1/trips/:id/status.
type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// TransitionStatus handles POST /v1/trips/:id/status
func (h *TripHandler) TransitionStatus(c *gin.Context) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	trip, err := h.tripService.TransitionStatus(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), domain.TripStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// ReceiveLineDTO is one received line on the wire.
type ReceiveLineDTO struct {
	Name             string  `json:"name" binding:"required"`
	ReceivedQuantity float64 `json:"received_quantity"`
	Unit             string  `json:"unit" binding:"required"`
}

// CreateReceiveCardRequest is the payload for POST /v1/trips/:id/receive-card.
type CreateReceiveCardRequest struct {
	Items []ReceiveLineDTO `json:"items" binding:"required"`
}

// ReceiveItemResponse is one receive line with its computed shortage.
type ReceiveItemResponse struct {
	Name             string  `json:"name"`
	LoadedQuantity   float64 `json:"loaded_quantity"`
	ReceivedQuantity float64 `json:"received_quantity"`
	Unit             string  `json:"unit"`
	Shortage         float64 `json:"shortage"`
}

// ReceiveCardResponse is the HTTP representation of a receive card.
type ReceiveCardResponse struct {
	CardID    string                `json:"card_id"`
	TripID    string                `json:"trip_id"`
	Items     []ReceiveItemResponse `json:"items"`
	CreatedAt string                `json:"created_at"`
}

// CreateReceiveCard handles POST /v1/trips/:id/receive-card
func (h *TripHandler) CreateReceiveCard(c *gin.Context) {
	var req CreateReceiveCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	lines := make([]domain.ReceiveLine, len(req.Items))
	for i, line := range req.Items {
		lines[i] = domain.ReceiveLine{
			Name:             line.Name,
			ReceivedQuantity: line.ReceivedQuantity,
			Unit:             line.Unit,
		}
	}

	card, err := h.tripService.CreateReceiveCard(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), lines)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]ReceiveItemResponse, len(card.Items))
	for i, item := range card.Items {
		items[i] = ReceiveItemResponse{
			Name:             item.Name,
			LoadedQuantity:   item.LoadedQuantity,
			ReceivedQuantity: item.ReceivedQuantity,
			Unit:             item.Unit,
			Shortage:         item.Shortage,
		}
	}

	respondJSON(c, http.StatusCreated, ReceiveCardResponse{
		CardID:    card.ID,
		TripID:    card.TripID,
		Items:     items,
		CreatedAt: card.CreatedAt.Format(time.RFC3339),
	})
}

// CancelRequest is the payload for POST /v1/trips/:id/cancel.
type CancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CancelTrip handles POST /v1/trips/:id/cancel
func (h *TripHandler) CancelTrip(c *gin.Context) {
	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	trip, err := h.tripService.CancelTrip(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// ChangeAssignmentRequest is the payload for POST /v1/trips/:id/assignment.
type ChangeAssignmentRequest struct {
	NewDriverID string `json:"new_driver_id"`
	NewTruckID  string `json:"new_truck_id"`
	Reason      string `json:"reason" binding:"required"`
}

// ChangeAssignment handles POST /v1/trips/:id/assignment
func (h *TripHandler) ChangeAssignment(c *gin.Context) {
	var req ChangeAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	trip, err := h.tripService.ChangeAssignment(c.Request.Context(), middleware.ActorFrom(c), service.ChangeAssignmentRequest{
		TripID:      c.Param("id"),
		NewDriverID: req.NewDriverID,
		NewTruckID:  req.NewTruckID,
		Reason:      req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	trip, err := h.tripService.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTripResponse(trip))
}

// GetAll handles GET /v1/trips
func (h *TripHandler) GetAll(c *gin.Context) {
	trips, err := h.tripService.GetAllTrips(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TripResponse, 0, len(trips))
	for _, trip := range trips {
		response = append(response, toTripResponse(trip))
	}

	c.JSON(http.StatusOK, response)
}

// GetLoadCard handles GET /v1/trips/:id/load-card
func (h *TripHandler) GetLoadCard(c *gin.Context) {
	card, err := h.tripService.GetLoadCard(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toLoadCardResponse(card))
}

// GetReceiveCard handles GET /v1/trips/:id/receive-card
func (h *TripHandler) GetReceiveCard(c *gin.Context) {
	card, err := h.tripService.GetReceiveCard(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]ReceiveItemResponse, len(card.Items))
	for i, item := range card.Items {
		items[i] = ReceiveItemResponse{
			Name:             item.Name,
			LoadedQuantity:   item.LoadedQuantity,
			ReceivedQuantity: item.ReceivedQuantity,
			Unit:             item.Unit,
			Shortage:         item.Shortage,
		}
	}

	respondJSON(c, http.StatusOK, ReceiveCardResponse{
		CardID:    card.ID,
		TripID:    card.TripID,
		Items:     items,
		CreatedAt: card.CreatedAt.Format(time.RFC3339),
	})
}

func toAddress(dto *AddressDTO) *domain.Address {
	if dto == nil {
		return nil
	}
	return &domain.Address{
		Line1:    dto.Line1,
		City:     dto.City,
		Region:   dto.Region,
		PostCode: dto.PostCode,
	}
}

func toPaymentTerms(dto *PaymentTermsDTO) *domain.PaymentTerms {
	if dto == nil {
		return nil
	}
	return &domain.PaymentTerms{
		Amount:            dto.Amount,
		Payer:             domain.PayerKind(dto.Payer),
		SplitSourceAmount: dto.SplitSourceAmount,
		SplitDestAmount:   dto.SplitDestAmount,
	}
}
