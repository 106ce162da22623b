package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"garageflow/internal/domain/settings"
)

// SettingsService reads and updates the garage in ctx.
type SettingsService interface {
	SettingsReader
	Update(ctx context.Context, patch settings.Patch) (*settings.Settings, error)
}

// SettingsHandler serves the garage settings.
type SettingsHandler struct {
	*BaseHandler
	service SettingsService
}

// NewSettingsHandler creates a settings handler.
func NewSettingsHandler(base *BaseHandler, service SettingsService) *SettingsHandler {
	return &SettingsHandler{BaseHandler: base, service: service}
}

// Get handles GET /settings.
func (h *SettingsHandler) Get(c *gin.Context) {
	st, err := h.service.Current(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, st)
}

// Update handles PATCH /settings.
func (h *SettingsHandler) Update(c *gin.Context) {
	var patch settings.Patch
	if !h.BindJSON(c, &patch) {
		return
	}
	st, err := h.service.Update(c.Request.Context(), patch)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, st)
}
