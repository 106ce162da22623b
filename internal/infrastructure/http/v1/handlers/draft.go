package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"garageflow/internal/core/apperror"
	"garageflow/internal/domain"
	"garageflow/internal/domain/draft"
	"garageflow/internal/infrastructure/http/v1/dto"
)

// DraftHandler saves and restores unsaved form state per user.
type DraftHandler struct {
	*BaseHandler
	store draft.Store
	now   func() time.Time
}

// NewDraftHandler creates a draft handler on store, usually a draft.Autosaver.
func NewDraftHandler(base *BaseHandler, store draft.Store) *DraftHandler {
	return &DraftHandler{BaseHandler: base, store: store, now: func() time.Time { return time.Now().UTC() }}
}

func (h *DraftHandler) key(c *gin.Context) (draft.Key, bool) {
	garageID, err := domain.GarageFromContext(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return draft.Key{}, false
	}
	key := draft.Key{GarageID: garageID, UserID: h.GetUserID(c), FormKey: c.Param("formKey")}
	if err := key.Validate(); err != nil {
		h.Error(c, err)
		return draft.Key{}, false
	}
	return key, true
}

// Get handles GET /drafts/:formKey.
func (h *DraftHandler) Get(c *gin.Context) {
	key, ok := h.key(c)
	if !ok {
		return
	}
	d, found, err := h.store.Load(c.Request.Context(), key)
	if err != nil {
		h.Error(c, err)
		return
	}
	if !found {
		h.Error(c, apperror.NewNotFound("draft", key.FormKey))
		return
	}
	h.OK(c, dto.DraftResponse{FormKey: key.FormKey, Payload: d.Payload, SavedAt: d.SavedAt})
}

// Save handles PUT /drafts/:formKey.
func (h *DraftHandler) Save(c *gin.Context) {
	key, ok := h.key(c)
	if !ok {
		return
	}
	var req dto.SaveDraftRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := draft.ValidatePayload(req.Payload); err != nil {
		h.Error(c, err)
		return
	}

	d := &draft.Draft{Key: key, Payload: req.Payload, SavedAt: h.now()}
	if err := h.store.Save(c.Request.Context(), d); err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.DraftResponse{FormKey: key.FormKey, Payload: d.Payload, SavedAt: d.SavedAt})
}

// Clear handles DELETE /drafts/:formKey, called once the form is submitted.
func (h *DraftHandler) Clear(c *gin.Context) {
	key, ok := h.key(c)
	if !ok {
		return
	}
	if err := h.store.Clear(c.Request.Context(), key); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
