package service

import (
	"errors"
	"testing"

	"freight/internal/domain"
)

func TestBuildReceiveItems(t *testing.T) {
	t.Parallel()

	loadItems := []domain.LoadItem{
		{Name: "wheat", Quantity: 10, Unit: "TON"},
		{Name: "crates", Quantity: 40, Unit: "BOX"},
	}

	t.Run("computes shortage per item", func(t *testing.T) {
		t.Parallel()

		items, err := buildReceiveItems(loadItems, []domain.ReceiveLine{
			{Name: "wheat", ReceivedQuantity: 9, Unit: "TON"},
			{Name: "crates", ReceivedQuantity: 40, Unit: "BOX"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(items))
		}
		if items[0].Shortage != 1 {
			t.Errorf("expected shortage 1, got %v", items[0].Shortage)
		}
		if items[0].LoadedQuantity != 10 {
			t.Errorf("expected loaded quantity 10, got %v", items[0].LoadedQuantity)
		}
		if items[1].Shortage != 0 {
			t.Errorf("expected shortage 0, got %v", items[1].Shortage)
		}
	})

	t.Run("negative shortage on overage", func(t *testing.T) {
		t.Parallel()

		items, err := buildReceiveItems(loadItems, []domain.ReceiveLine{
			{Name: "wheat", ReceivedQuantity: 11, Unit: "TON"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if items[0].Shortage != -1 {
			t.Errorf("expected shortage -1, got %v", items[0].Shortage)
		}
	})

	t.Run("unit mismatch rejected before arithmetic", func(t *testing.T) {
		t.Parallel()

		_, err := buildReceiveItems(loadItems, []domain.ReceiveLine{
			{Name: "crates", ReceivedQuantity: 40, Unit: "KG"},
		})
		if !errors.Is(err, ErrUnitMismatch) {
			t.Fatalf("expected ErrUnitMismatch, got %v", err)
		}

		var mismatch *UnitMismatchError
		if !errors.As(err, &mismatch) {
			t.Fatal("expected *UnitMismatchError")
		}
		if mismatch.Item != "crates" || mismatch.LoadUnit != "BOX" || mismatch.ReceiveUnit != "KG" {
			t.Errorf("unexpected mismatch detail: %+v", mismatch)
		}
	})

	t.Run("unknown item rejected", func(t *testing.T) {
		t.Parallel()

		_, err := buildReceiveItems(loadItems, []domain.ReceiveLine{
			{Name: "barley", ReceivedQuantity: 5, Unit: "TON"},
		})
		if !errors.Is(err, ErrInvalidCardInput) {
			t.Fatalf("expected ErrInvalidCardInput, got %v", err)
		}
	})

	t.Run("negative received quantity rejected", func(t *testing.T) {
		t.Parallel()

		_, err := buildReceiveItems(loadItems, []domain.ReceiveLine{
			{Name: "wheat", ReceivedQuantity: -1, Unit: "TON"},
		})
		if !errors.Is(err, ErrInvalidCardInput) {
			t.Fatalf("expected ErrInvalidCardInput, got %v", err)
		}
	})
}

func TestValidateTripRequest(t *testing.T) {
	t.Parallel()

	base := func() CreateTripRequest {
		return CreateTripRequest{
			SourceOrgID:      "org-src",
			DestinationOrgID: "org-dst",
			DriverID:         "driver-1",
			TruckID:          "truck-1",
		}
	}

	t.Run("valid org destination", func(t *testing.T) {
		t.Parallel()
		if err := validateTripRequest(base()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("valid guest receiver", func(t *testing.T) {
		t.Parallel()
		req := base()
		req.DestinationOrgID = ""
		req.ReceiverPhone = "+998901234567"
		if err := validateTripRequest(req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("both destination and receiver rejected", func(t *testing.T) {
		t.Parallel()
		req := base()
		req.ReceiverPhone = "+998901234567"
		if err := validateTripRequest(req); !errors.Is(err, ErrInvalidTripRequest) {
			t.Fatalf("expected ErrInvalidTripRequest, got %v", err)
		}
	})

	t.Run("neither destination nor receiver rejected", func(t *testing.T) {
		t.Parallel()
		req := base()
		req.DestinationOrgID = ""
		if err := validateTripRequest(req); !errors.Is(err, ErrInvalidTripRequest) {
			t.Fatalf("expected ErrInvalidTripRequest, got %v", err)
		}
	})

	t.Run("missing driver rejected", func(t *testing.T) {
		t.Parallel()
		req := base()
		req.DriverID = ""
		if err := validateTripRequest(req); !errors.Is(err, ErrInvalidTripRequest) {
			t.Fatalf("expected ErrInvalidTripRequest, got %v", err)
		}
	})

	t.Run("split terms must sum to amount", func(t *testing.T) {
		t.Parallel()
		req := base()
		req.PaymentTerms = &domain.PaymentTerms{
			Amount:            100_000,
			Payer:             domain.PayerSplit,
			SplitSourceAmount: 60_000,
			SplitDestAmount:   30_000,
		}
		if err := validateTripRequest(req); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount, got %v", err)
		}

		req.PaymentTerms.SplitDestAmount = 40_000
		if err := validateTripRequest(req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("guest receiver cannot carry destination liability", func(t *testing.T) {
		t.Parallel()
		req := base()
		req.DestinationOrgID = ""
		req.ReceiverPhone = "+998901234567"
		req.PaymentTerms = &domain.PaymentTerms{Amount: 50_000, Payer: domain.PayerDestination}
		if err := validateTripRequest(req); !errors.Is(err, ErrInvalidTripRequest) {
			t.Fatalf("expected ErrInvalidTripRequest, got %v", err)
		}
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		t.Parallel()
		req := base()
		req.PaymentTerms = &domain.PaymentTerms{Amount: 0, Payer: domain.PayerSource}
		if err := validateTripRequest(req); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("expected ErrInvalidAmount, got %v", err)
		}
	})

	t.Run("unknown payer rejected", func(t *testing.T) {
		t.Parallel()
		req := base()
		req.PaymentTerms = &domain.PaymentTerms{Amount: 100, Payer: "BROKER"}
		if err := validateTripRequest(req); !errors.Is(err, ErrInvalidTripRequest) {
			t.Fatalf("expected ErrInvalidTripRequest, got %v", err)
		}
	})
}

func TestValidateLoadItems(t *testing.T) {
	t.Parallel()

	if err := validateLoadItems(nil); !errors.Is(err, ErrInvalidCardInput) {
		t.Errorf("expected ErrInvalidCardInput for empty items, got %v", err)
	}

	bad := []domain.LoadItem{{Name: "wheat", Quantity: 0, Unit: "TON"}}
	if err := validateLoadItems(bad); !errors.Is(err, ErrInvalidCardInput) {
		t.Errorf("expected ErrInvalidCardInput for zero quantity, got %v", err)
	}

	good := []domain.LoadItem{{Name: "wheat", Quantity: 10, Unit: "TON"}}
	if err := validateLoadItems(good); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestResourceBusyErrorMatching(t *testing.T) {
	t.Parallel()

	err := error(&ResourceBusyError{Resource: "driver", ResourceID: "driver-1", ConflictingTripID: "trip-9"})
	if !errors.Is(err, ErrResourceBusy) {
		t.Fatal("expected ResourceBusyError to match ErrResourceBusy")
	}

	var busy *ResourceBusyError
	if !errors.As(err, &busy) || busy.ConflictingTripID != "trip-9" {
		t.Fatalf("expected conflicting trip id, got %+v", busy)
	}
}
