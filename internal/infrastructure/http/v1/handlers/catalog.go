package handlers

import (
	"github.com/gin-gonic/gin"

	"garageflow/internal/domain"
)

// CatalogHandler provides generic HTTP handlers for catalog entities.
type CatalogHandler[T domain.CatalogEntity, CreateDTO any, PatchDTO any, Resp any] struct {
	*BaseHandler
	service *domain.CatalogService[T]

	mapCreateDTO func(dto CreateDTO) T
	mapPatchDTO  func(dto PatchDTO) any
	mapToDTO     func(entity T) Resp
}

// CatalogHandlerConfig configures the catalog handler.
type CatalogHandlerConfig[T domain.CatalogEntity, CreateDTO any, PatchDTO any, Resp any] struct {
	Service      *domain.CatalogService[T]
	MapCreateDTO func(dto CreateDTO) T
	MapPatchDTO  func(dto PatchDTO) any
	MapToDTO     func(entity T) Resp
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler[T domain.CatalogEntity, CreateDTO any, PatchDTO any, Resp any](
	base *BaseHandler,
	cfg CatalogHandlerConfig[T, CreateDTO, PatchDTO, Resp],
) *CatalogHandler[T, CreateDTO, PatchDTO, Resp] {
	return &CatalogHandler[T, CreateDTO, PatchDTO, Resp]{
		BaseHandler:  base,
		service:      cfg.Service,
		mapCreateDTO: cfg.MapCreateDTO,
		mapPatchDTO:  cfg.MapPatchDTO,
		mapToDTO:     cfg.MapToDTO,
	}
}

// List handles GET /{entity}.
func (h *CatalogHandler[T, CreateDTO, PatchDTO, Resp]) List(c *gin.Context) {
	result, err := h.service.List(c.Request.Context(), h.ListFilter(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	List(h.BaseHandler, c, result, h.mapToDTO)
}

// Get handles GET /{entity}/:id.
func (h *CatalogHandler[T, CreateDTO, PatchDTO, Resp]) Get(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	e, err := h.service.GetByID(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, h.mapToDTO(e))
}

// Create handles POST /{entity}.
func (h *CatalogHandler[T, CreateDTO, PatchDTO, Resp]) Create(c *gin.Context) {
	var req CreateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	e := h.mapCreateDTO(req)
	if err := h.service.Create(c.Request.Context(), e); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, h.mapToDTO(e))
}

// Patch handles PATCH /{entity}/:id. Only the fields present are written.
func (h *CatalogHandler[T, CreateDTO, PatchDTO, Resp]) Patch(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req PatchDTO
	if !h.BindJSON(c, &req) {
		return
	}

	e, err := h.service.Patch(c.Request.Context(), entityID, h.mapPatchDTO(req))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, h.mapToDTO(e))
}

// Delete handles DELETE /{entity}/:id. Sets the deletion mark.
func (h *CatalogHandler[T, CreateDTO, PatchDTO, Resp]) Delete(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), entityID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
