package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"freight/internal/domain"
	"freight/internal/repository"
	"freight/internal/service"
)

func newRegistryHarness() (*service.RegistryService, *MockOrgRepository, *MockDriverRepository, *MockTruckRepository) {
	orgRepo := NewMockOrgRepository()
	driverRepo := NewMockDriverRepository()
	truckRepo := NewMockTruckRepository()
	svc := service.NewRegistryService(orgRepo, driverRepo, truckRepo, zap.NewNop())
	return svc, orgRepo, driverRepo, truckRepo
}

func TestCreateOrganization(t *testing.T) {
	t.Parallel()

	svc, orgRepo, _, _ := newRegistryHarness()

	org, err := svc.CreateOrganization(context.Background(), "Navoi Grain LLC", "+998712001122")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if org.ID == "" {
		t.Error("expected generated id")
	}

	stored, err := orgRepo.GetByID(context.Background(), org.ID)
	if err != nil {
		t.Fatalf("organization not stored: %v", err)
	}
	if stored.Name != "Navoi Grain LLC" {
		t.Errorf("unexpected name %q", stored.Name)
	}
}

func TestCreateOrganizationRequiresName(t *testing.T) {
	t.Parallel()

	svc, _, _, _ := newRegistryHarness()

	if _, err := svc.CreateOrganization(context.Background(), "", ""); !errors.Is(err, service.ErrInvalidOrgID) {
		t.Fatalf("expected ErrInvalidOrgID, got %v", err)
	}
}

func TestCreateDriverRequiresExistingOrg(t *testing.T) {
	t.Parallel()

	svc, orgRepo, driverRepo, _ := newRegistryHarness()

	if _, err := svc.CreateDriver(context.Background(), "org-missing", "Aliyev", "", "AB123"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	orgRepo.AddOrg(&domain.Organization{ID: "org-1", Name: "Transporter", CreatedAt: time.Now()})

	driver, err := svc.CreateDriver(context.Background(), "org-1", "Aliyev", "+998901234567", "AB123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if driver.OrgID != "org-1" {
		t.Errorf("expected org-1, got %s", driver.OrgID)
	}
	if driverRepo.CreateCallCount != 1 {
		t.Errorf("expected 1 create call, got %d", driverRepo.CreateCallCount)
	}
}

func TestCreateTruckDuplicatePlate(t *testing.T) {
	t.Parallel()

	svc, orgRepo, _, truckRepo := newRegistryHarness()

	orgRepo.AddOrg(&domain.Organization{ID: "org-1", Name: "Transporter", CreatedAt: time.Now()})
	truckRepo.CreateError = repository.ErrDuplicate

	if _, err := svc.CreateTruck(context.Background(), "org-1", "01A123BC", 20000); !errors.Is(err, service.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}
