package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"freight/internal/domain"
	"freight/internal/service"
)

// RegistryHandler handles HTTP requests for the organization, driver and
// truck registries.
type RegistryHandler struct {
	registryService *service.RegistryService
}

// NewRegistryHandler creates a new RegistryHandler.
func NewRegistryHandler(registryService *service.RegistryService) *RegistryHandler {
	return &RegistryHandler{registryService: registryService}
}

// CreateOrgRequest is the payload for POST /v1/orgs.
type CreateOrgRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
}

// OrgResponse is the HTTP representation of an organization.
type OrgResponse struct {
	OrgID     string `json:"org_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toOrgResponse(org *domain.Organization) OrgResponse {
	return OrgResponse{
		OrgID:     org.ID,
		Name:      org.Name,
		Phone:     org.Phone,
		CreatedAt: org.CreatedAt.Format(time.RFC3339),
	}
}

// CreateOrg handles POST /v1/orgs
func (h *RegistryHandler) CreateOrg(c *gin.Context) {
	var req CreateOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	org, err := h.registryService.CreateOrganization(c.Request.Context(), req.Name, req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toOrgResponse(org))
}

// GetOrg handles GET /v1/orgs/:id
func (h *RegistryHandler) GetOrg(c *gin.Context) {
	org, err := h.registryService.GetOrganization(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toOrgResponse(org))
}

// GetAllOrgs handles GET /v1/orgs
func (h *RegistryHandler) GetAllOrgs(c *gin.Context) {
	orgs, err := h.registryService.GetAllOrganizations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]OrgResponse, 0, len(orgs))
	for _, org := range orgs {
		response = append(response, toOrgResponse(org))
	}

	c.JSON(http.StatusOK, response)
}

// CreateDriverRequest is the payload for POST /v1/drivers.
type CreateDriverRequest struct {
	OrgID     string `json:"org_id" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Phone     string `json:"phone"`
	LicenseNo string `json:"license_no"`
}

// DriverResponse is the HTTP representation of a driver.
type DriverResponse struct {
	DriverID  string `json:"driver_id"`
	OrgID     string `json:"org_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	LicenseNo string `json:"license_no,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toDriverResponse(driver *domain.Driver) DriverResponse {
	return DriverResponse{
		DriverID:  driver.ID,
		OrgID:     driver.OrgID,
		Name:      driver.Name,
		Phone:     driver.Phone,
		LicenseNo: driver.LicenseNo,
		CreatedAt: driver.CreatedAt.Format(time.RFC3339),
	}
}

// CreateDriver handles POST /v1/drivers
func (h *RegistryHandler) CreateDriver(c *gin.Context) {
	var req CreateDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	driver, err := h.registryService.CreateDriver(c.Request.Context(), req.OrgID, req.Name, req.Phone, req.LicenseNo)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toDriverResponse(driver))
}

// GetDriver handles GET /v1/drivers/:id
func (h *RegistryHandler) GetDriver(c *gin.Context) {
	driver, err := h.registryService.GetDriver(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDriverResponse(driver))
}

// GetAllDrivers handles GET /v1/drivers
func (h *RegistryHandler) GetAllDrivers(c *gin.Context) {
	drivers, err := h.registryService.GetAllDrivers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]DriverResponse, 0, len(drivers))
	for _, driver := range drivers {
		response = append(response, toDriverResponse(driver))
	}

	c.JSON(http.StatusOK, response)
}

// CreateTruckRequest is the payload for POST /v1/trucks.
type CreateTruckRequest struct {
	OrgID      string  `json:"org_id" binding:"required"`
	PlateNo    string  `json:"plate_no" binding:"required"`
	CapacityKg float64 `json:"capacity_kg"`
}

// TruckResponse is the HTTP representation of a truck.
type TruckResponse struct {
	TruckID    string  `json:"truck_id"`
	OrgID      string  `json:"org_id"`
	PlateNo    string  `json:"plate_no"`
	CapacityKg float64 `json:"capacity_kg,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

func toTruckResponse(truck *domain.Truck) TruckResponse {
	return TruckResponse{
		TruckID:    truck.ID,
		OrgID:      truck.OrgID,
		PlateNo:    truck.PlateNo,
		CapacityKg: truck.CapacityKg,
		CreatedAt:  truck.CreatedAt.Format(time.RFC3339),
	}
}

// CreateTruck handles POST /v1/trucks
func (h *RegistryHandler) CreateTruck(c *gin.Context) {
	var req CreateTruckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	truck, err := h.registryService.CreateTruck(c.Request.Context(), req.OrgID, req.PlateNo, req.CapacityKg)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toTruckResponse(truck))
}

// GetTruck handles GET /v1/trucks/:id
func (h *RegistryHandler) GetTruck(c *gin.Context) {
	truck, err := h.registryService.GetTruck(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTruckResponse(truck))
}

// GetAllTrucks handles GET /v1/trucks
func (h *RegistryHandler) GetAllTrucks(c *gin.Context) {
	trucks, err := h.registryService.GetAllTrucks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TruckResponse, 0, len(trucks))
	for _, truck := range trucks {
		response = append(response, toTruckResponse(truck))
	}

	c.JSON(http.StatusOK, response)
}
