package handler

import (
	"errors"
	"net/http"
	"testing"

	"freight/internal/repository"
	"freight/internal/service"
)

func TestMapErrorToHTTPStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", repository.ErrNotFound, http.StatusNotFound},
		{"invalid trip request", service.ErrInvalidTripRequest, http.StatusBadRequest},
		{"invalid amount", service.ErrInvalidAmount, http.StatusBadRequest},
		{"unit mismatch", &service.UnitMismatchError{Item: "wheat", LoadUnit: "TON", ReceiveUnit: "KG"}, http.StatusBadRequest},
		{"invalid state", service.ErrInvalidState, http.StatusConflict},
		{"resource busy", &service.ResourceBusyError{Resource: "driver", ResourceID: "d-1", ConflictingTripID: "t-1"}, http.StatusConflict},
		{"already exists", service.ErrAlreadyExists, http.StatusConflict},
		{"retry exhausted", service.ErrConflict, http.StatusConflict},
		{"wrapped not found", errors.Join(errors.New("lookup trip"), repository.ErrNotFound), http.StatusNotFound},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapErrorToHTTPStatus(tt.err); got != tt.want {
				t.Errorf("mapErrorToHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
