package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"garageflow/internal/core/apperror"
	"garageflow/internal/core/id"
	"garageflow/internal/core/numerator"
	"garageflow/internal/domain"
	"garageflow/internal/domain/billing"
	"garageflow/internal/domain/settings"
	"garageflow/internal/infrastructure/http/v1/dto"
	"garageflow/pkg/logger"
	"garageflow/pkg/money"
)

// BillingService is what the document endpoints need from billing.
type BillingService interface {
	Preview(lines []billing.LineItem) billing.Totals
	PeekNumber(ctx context.Context, cat billing.Category) (numerator.Number, error)
	Create(ctx context.Context, in billing.AssembleInput) (*billing.Document, error)
	Get(ctx context.Context, docID id.ID) (*billing.Document, error)
	List(ctx context.Context, filter billing.ListFilter) (domain.ListResult[*billing.Document], error)
	Transition(ctx context.Context, docID id.ID, to billing.Status) (*billing.Document, error)
	ConvertToInvoice(ctx context.Context, quoteID id.ID) (*billing.Document, error)
}

// SettingsReader returns the settings of the garage in ctx.
type SettingsReader interface {
	Current(ctx context.Context) (*settings.Settings, error)
}

// DocumentHandler serves quotes and invoices.
type DocumentHandler struct {
	*BaseHandler
	service  BillingService
	settings SettingsReader
}

// NewDocumentHandler creates a document handler.
func NewDocumentHandler(base *BaseHandler, service BillingService, settings SettingsReader) *DocumentHandler {
	return &DocumentHandler{BaseHandler: base, service: service, settings: settings}
}

// formatter returns the money formatter of the garage, for currency code
// when given. Formatting never fails a request: bad settings fall back to
// the defaults.
func (h *DocumentHandler) formatter(ctx context.Context, st *settings.Settings, code string) *money.Formatter {
	if code == "" {
		code = st.Currency
	}
	f, err := money.NewFormatter(st.Locale, code)
	if err != nil {
		logger.Warn(ctx, "invalid display settings, using defaults", "locale", st.Locale, "currency", code, "error", err)
		return money.MustFormatter(settings.DefaultLocale, settings.DefaultCurrency)
	}
	return f
}

// Preview handles POST /documents/preview: totals of the lines being edited.
func (h *DocumentHandler) Preview(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.PreviewRequest
	if !h.BindJSON(c, &req) {
		return
	}
	st, err := h.settings.Current(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	lines := dto.ToLineItems(req.Lines, st.DefaultTaxRate)
	totals := h.service.Preview(lines)
	h.OK(c, dto.NewPreviewResponse(lines, totals, h.formatter(ctx, st, "")))
}

// PeekNumber handles GET /documents/next-number/:category.
func (h *DocumentHandler) PeekNumber(c *gin.Context) {
	cat, err := numerator.ParseCategory(c.Param("category"))
	if err != nil {
		h.Error(c, apperror.NewValidation("unknown document category").WithDetail("field", "category"))
		return
	}

	n, err := h.service.PeekNumber(c.Request.Context(), cat)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NumberResponse{Category: cat, Number: n.String(), Sequence: n.Sequence})
}

// Create handles POST /documents.
func (h *DocumentHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	var req dto.CreateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	st, err := h.settings.Current(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	in, err := req.ToInput(st.DefaultTaxRate)
	if err != nil {
		h.Error(c, err)
		return
	}
	doc, err := h.service.Create(ctx, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromDocument(doc, h.formatter(ctx, st, doc.Currency)))
}

// Get handles GET /documents/:id.
func (h *DocumentHandler) Get(c *gin.Context) {
	h.respondDocument(c, func(ctx context.Context, docID id.ID) (*billing.Document, error) {
		return h.service.Get(ctx, docID)
	})
}

// Transition handles POST /documents/:id/transition.
func (h *DocumentHandler) Transition(c *gin.Context) {
	var req dto.TransitionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.respondDocument(c, func(ctx context.Context, docID id.ID) (*billing.Document, error) {
		return h.service.Transition(ctx, docID, billing.Status(req.Status))
	})
}

// Convert handles POST /documents/:id/convert: accepted quote to invoice draft.
func (h *DocumentHandler) Convert(c *gin.Context) {
	ctx := c.Request.Context()
	quoteID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	st, err := h.settings.Current(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	invoice, err := h.service.ConvertToInvoice(ctx, quoteID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromDocument(invoice, h.formatter(ctx, st, invoice.Currency)))
}

func (h *DocumentHandler) respondDocument(c *gin.Context, fn func(context.Context, id.ID) (*billing.Document, error)) {
	ctx := c.Request.Context()
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	doc, err := fn(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	st, err := h.settings.Current(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromDocument(doc, h.formatter(ctx, st, doc.Currency)))
}

// List handles GET /documents.
func (h *DocumentHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	filter, err := h.documentFilter(c)
	if err != nil {
		h.Error(c, err)
		return
	}
	st, err := h.settings.Current(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	List(h.BaseHandler, c, result, dto.SummaryMapper(h.formatter(ctx, st, "")))
}

func (h *DocumentHandler) documentFilter(c *gin.Context) (billing.ListFilter, error) {
	filter := billing.ListFilter{ListFilter: h.ListFilter(c)}

	if v := c.Query("category"); v != "" {
		cat, err := numerator.ParseCategory(v)
		if err != nil {
			return filter, apperror.NewValidation("unknown document category").WithDetail("field", "category")
		}
		filter.Category = &cat
	}
	if v := c.Query("status"); v != "" {
		st := billing.Status(v)
		filter.Status = &st
	}
	if v := c.Query("clientId"); v != "" {
		clientID, err := id.Parse(v)
		if err != nil {
			return filter, apperror.NewValidation("invalid client id").WithDetail("field", "clientId")
		}
		filter.ClientID = &clientID
	}
	for key, dst := range map[string]**time.Time{"dateFrom": &filter.DateFrom, "dateTo": &filter.DateTo} {
		v := c.Query(key)
		if v == "" {
			continue
		}
		d, err := time.Parse(dto.DateLayout, v)
		if err != nil {
			return filter, apperror.NewValidation("date must be YYYY-MM-DD").WithDetail("field", key)
		}
		*dst = &d
	}
	return filter, nil
}
