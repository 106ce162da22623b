package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"garageflow/internal/core/apperror"
	"garageflow/internal/core/id"
	"garageflow/internal/domain"
	"garageflow/internal/domain/repairorder"
	"garageflow/internal/infrastructure/http/v1/dto"
)

// maxStartUpload bounds the multipart body of a start request.
const maxStartUpload = 64 << 20

// RepairOrderService is what the repair order endpoints need.
type RepairOrderService interface {
	Create(ctx context.Context, in repairorder.CreateInput) (*repairorder.RepairOrder, error)
	Get(ctx context.Context, orderID id.ID) (*repairorder.RepairOrder, error)
	List(ctx context.Context, filter repairorder.ListFilter) (domain.ListResult[*repairorder.RepairOrder], error)
	Start(ctx context.Context, orderID id.ID, photos []repairorder.Photo) (*repairorder.RepairOrder, error)
	Transition(ctx context.Context, orderID id.ID, to repairorder.Status) (*repairorder.RepairOrder, error)
}

// RepairOrderHandler serves repair orders.
type RepairOrderHandler struct {
	*BaseHandler
	service RepairOrderService
}

// NewRepairOrderHandler creates a repair order handler.
func NewRepairOrderHandler(base *BaseHandler, service RepairOrderService) *RepairOrderHandler {
	return &RepairOrderHandler{BaseHandler: base, service: service}
}

// Create handles POST /repair-orders.
func (h *RepairOrderHandler) Create(c *gin.Context) {
	var req dto.CreateRepairOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	o, err := h.service.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromRepairOrder(o))
}

// Get handles GET /repair-orders/:id.
func (h *RepairOrderHandler) Get(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	o, err := h.service.Get(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromRepairOrder(o))
}

// List handles GET /repair-orders.
func (h *RepairOrderHandler) List(c *gin.Context) {
	filter := repairorder.ListFilter{ListFilter: h.ListFilter(c)}
	if v := c.Query("status"); v != "" {
		st := repairorder.Status(v)
		filter.Status = &st
	}
	if v := c.Query("vehicleId"); v != "" {
		vehicleID, err := id.Parse(v)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid vehicle id").WithDetail("field", "vehicleId"))
			return
		}
		filter.VehicleID = &vehicleID
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	List(h.BaseHandler, c, result, dto.FromRepairOrder)
}

// Start handles POST /repair-orders/:id/start. The body is multipart with
// zero or more "photos" parts; they are uploaded before the status changes.
func (h *RepairOrderHandler) Start(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxStartUpload)
	var files []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil {
		files = form.File["photos"]
	} else if !errors.Is(err, http.ErrNotMultipart) {
		h.Error(c, apperror.NewValidation("invalid multipart body").WithDetail("error", err.Error()))
		return
	}
	if len(files) > repairorder.MaxPhotos {
		h.Error(c, apperror.NewValidation("too many photos").WithDetail("max", repairorder.MaxPhotos))
		return
	}

	photos := make([]repairorder.Photo, 0, len(files))
	var opened []io.Closer
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			h.Error(c, apperror.NewValidation("unreadable photo").WithDetail("name", fh.Filename))
			return
		}
		opened = append(opened, f)
		photos = append(photos, repairorder.Photo{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
		})
	}

	o, err := h.service.Start(c.Request.Context(), orderID, photos)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromRepairOrder(o))
}

// Transition handles POST /repair-orders/:id/transition for every move but
// the start.
func (h *RepairOrderHandler) Transition(c *gin.Context) {
	orderID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.TransitionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	o, err := h.service.Transition(c.Request.Context(), orderID, repairorder.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromRepairOrder(o))
}
