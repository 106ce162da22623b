package handlers

import (
	"garageflow/internal/domain/catalogs/client"
	"garageflow/internal/infrastructure/http/v1/dto"
)

// ClientHTTPHandler serves the client catalog.
type ClientHTTPHandler = CatalogHandler[
	*client.Client,
	dto.CreateClientRequest,
	dto.UpdateClientRequest,
	dto.ClientResponse,
]

// NewClientHandler creates the client catalog handler.
func NewClientHandler(base *BaseHandler, service *client.Service) *ClientHTTPHandler {
	return NewCatalogHandler(base, CatalogHandlerConfig[
		*client.Client,
		dto.CreateClientRequest,
		dto.UpdateClientRequest,
		dto.ClientResponse,
	]{
		Service:      service.CatalogService,
		MapCreateDTO: dto.CreateClientRequest.ToEntity,
		MapPatchDTO:  func(req dto.UpdateClientRequest) any { return req.ToPatch() },
		MapToDTO:     dto.FromClient,
	})
}
