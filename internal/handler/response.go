package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"freight/internal/repository"
	"freight/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error             string `json:"error"`
	ConflictingTripID string `json:"conflicting_trip_id,omitempty"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	response := ErrorResponse{Error: err.Error()}

	var busy *service.ResourceBusyError
	if errors.As(err, &busy) {
		response.ConflictingTripID = busy.ConflictingTripID
	}

	c.JSON(mapErrorToHTTPStatus(err), response)
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidOrgID),
		errors.Is(err, service.ErrInvalidTripID),
		errors.Is(err, service.ErrInvalidDocumentID),
		errors.Is(err, service.ErrInvalidTripRequest),
		errors.Is(err, service.ErrInvalidCardInput),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrUnitMismatch):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrResourceBusy),
		errors.Is(err, service.ErrAlreadyExists),
		errors.Is(err, service.ErrConflict),
		errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
