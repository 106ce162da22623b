package handlers

import (
	"github.com/gin-gonic/gin"

	"garageflow/internal/domain/catalogs/vehicle"
	"garageflow/internal/infrastructure/http/v1/dto"
)

// VehicleHTTPHandler serves the vehicle catalog.
type VehicleHTTPHandler struct {
	*CatalogHandler[*vehicle.Vehicle, dto.CreateVehicleRequest, dto.UpdateVehicleRequest, dto.VehicleResponse]
	service *vehicle.Service
}

// NewVehicleHandler creates the vehicle catalog handler.
func NewVehicleHandler(base *BaseHandler, service *vehicle.Service) *VehicleHTTPHandler {
	return &VehicleHTTPHandler{
		CatalogHandler: NewCatalogHandler(base, CatalogHandlerConfig[
			*vehicle.Vehicle,
			dto.CreateVehicleRequest,
			dto.UpdateVehicleRequest,
			dto.VehicleResponse,
		]{
			Service:      service.CatalogService,
			MapCreateDTO: dto.CreateVehicleRequest.ToEntity,
			MapPatchDTO:  func(req dto.UpdateVehicleRequest) any { return req.ToPatch() },
			MapToDTO:     dto.FromVehicle,
		}),
		service: service,
	}
}

// ListByClient handles GET /clients/:id/vehicles.
func (h *VehicleHTTPHandler) ListByClient(c *gin.Context) {
	clientID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	vehicles, err := h.service.ListByClient(c.Request.Context(), clientID)
	if err != nil {
		h.Error(c, err)
		return
	}
	out := make([]dto.VehicleResponse, len(vehicles))
	for i, v := range vehicles {
		out[i] = dto.FromVehicle(v)
	}
	h.OK(c, out)
}

// FindByRegistration handles GET /vehicles/by-registration/:plate.
func (h *VehicleHTTPHandler) FindByRegistration(c *gin.Context) {
	v, err := h.service.FindByRegistration(c.Request.Context(), c.Param("plate"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromVehicle(v))
}
