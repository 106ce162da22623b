package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garageflow/internal/core/apperror"
	appctx "garageflow/internal/core/context"
	"garageflow/internal/core/id"
	"garageflow/internal/core/numerator"
	"garageflow/internal/domain"
	"garageflow/internal/domain/billing"
	"garageflow/internal/domain/draft"
	"garageflow/internal/domain/repairorder"
	"garageflow/internal/domain/settings"
	"garageflow/internal/infrastructure/http/v1/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testGarage = id.New()

func newRouter() *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.Use(func(c *gin.Context) {
		ctx := appctx.WithUser(c.Request.Context(), &appctx.UserContext{
			UserID:   "user-1",
			GarageID: testGarage.String(),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type settingsStub struct {
	st *settings.Settings
}

func (s settingsStub) Current(context.Context) (*settings.Settings, error) {
	cp := *s.st
	return &cp, nil
}

func (s settingsStub) Update(_ context.Context, p settings.Patch) (*settings.Settings, error) {
	cp := *s.st
	p.Apply(&cp)
	return &cp, nil
}

// fakeBilling records the calls made by the handler.
type fakeBilling struct {
	created    *billing.AssembleInput
	listFilter *billing.ListFilter
	createErr  error
	doc        *billing.Document
}

func (f *fakeBilling) Preview(lines []billing.LineItem) billing.Totals {
	return billing.Calculate(lines)
}

func (f *fakeBilling) PeekNumber(_ context.Context, cat billing.Category) (numerator.Number, error) {
	return numerator.Number{Prefix: "F", Sequence: 7}, nil
}

func (f *fakeBilling) Create(_ context.Context, in billing.AssembleInput) (*billing.Document, error) {
	f.created = &in
	if f.createErr != nil {
		return nil, f.createErr
	}
	doc, err := billing.Assemble(testGarage, in, numerator.Number{Prefix: "D", Sequence: 1}, "EUR")
	if err != nil {
		return nil, err
	}
	f.doc = doc
	return doc, nil
}

func (f *fakeBilling) Get(_ context.Context, docID id.ID) (*billing.Document, error) {
	if f.doc == nil || f.doc.ID != docID {
		return nil, apperror.NewNotFound("document", docID.String())
	}
	return f.doc, nil
}

func (f *fakeBilling) List(_ context.Context, filter billing.ListFilter) (domain.ListResult[*billing.Document], error) {
	f.listFilter = &filter
	return domain.ListResult[*billing.Document]{Items: []*billing.Document{}, Limit: filter.Limit}, nil
}

func (f *fakeBilling) Transition(ctx context.Context, docID id.ID, to billing.Status) (*billing.Document, error) {
	doc, err := f.Get(ctx, docID)
	if err != nil {
		return nil, err
	}
	if !billing.CanTransition(doc.Category, doc.Status, to) {
		return nil, apperror.NewInvalidTransition(doc.EntityName(), string(doc.Status), string(to))
	}
	doc.Status = to
	return doc, nil
}

func (f *fakeBilling) ConvertToInvoice(context.Context, id.ID) (*billing.Document, error) {
	return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule, "quote must be accepted before invoicing")
}

func newDocumentRouter(svc *fakeBilling) *gin.Engine {
	r := newRouter()
	h := NewDocumentHandler(NewBaseHandler(), svc, settingsStub{st: settings.Defaults(testGarage)})
	r.POST("/documents", h.Create)
	r.POST("/documents/preview", h.Preview)
	r.GET("/documents", h.List)
	r.GET("/documents/next-number/:category", h.PeekNumber)
	r.GET("/documents/:id", h.Get)
	r.POST("/documents/:id/transition", h.Transition)
	r.POST("/documents/:id/convert", h.Convert)
	return r
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestDocumentHandler_Preview(t *testing.T) {
	r := newDocumentRouter(&fakeBilling{})

	w := doJSON(r, http.MethodPost, "/documents/preview", map[string]any{
		"lines": []map[string]any{
			{"designation": "Vidange", "quantity": "1", "unitPriceExclTax": "59.90"},
			{"designation": "", "quantity": "3", "unitPriceExclTax": "100"},
			{"designation": "Filtre", "quantity": "2", "unitPriceExclTax": "10", "taxRate": "5.5"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Lines []struct {
			TotalExclTax decimal.Decimal `json:"totalExclTax"`
		} `json:"lines"`
		Totals struct {
			TotalExclTax decimal.Decimal `json:"totalExclTax"`
			TotalInclTax decimal.Decimal `json:"totalInclTax"`
			Breakdown    []struct {
				Rate decimal.Decimal `json:"rate"`
			} `json:"breakdown"`
			Display struct {
				TotalInclTax string `json:"totalInclTax"`
			} `json:"display"`
		} `json:"totals"`
	}
	decodeBody(t, w, &resp)

	require.Len(t, resp.Lines, 3)
	assert.True(t, resp.Lines[1].TotalExclTax.IsZero(), "placeholder line is not counted")
	assert.Equal(t, "79.9", resp.Totals.TotalExclTax.String())
	// 59.90 * 1.2 + 20 * 1.055
	assert.Equal(t, "92.98", resp.Totals.TotalInclTax.String())
	require.Len(t, resp.Totals.Breakdown, 2)
	assert.Equal(t, "5.5", resp.Totals.Breakdown[0].Rate.String())
	assert.Contains(t, resp.Totals.Display.TotalInclTax, "92,98")
}

func TestDocumentHandler_Create(t *testing.T) {
	svc := &fakeBilling{}
	r := newDocumentRouter(svc)
	clientID := id.New()

	w := doJSON(r, http.MethodPost, "/documents", map[string]any{
		"category":  "quote",
		"clientId":  clientID.String(),
		"issueDate": "2026-03-02",
		"lines": []map[string]any{
			{"designation": "Plaquettes", "quantity": "1", "unitPriceExclTax": "80"},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.NotNil(t, svc.created)
	assert.Equal(t, numerator.CategoryQuote, svc.created.Category)
	assert.Equal(t, clientID, *svc.created.ClientID)
	assert.Equal(t, "20", svc.created.Lines[0].TaxRate.String(), "garage default rate applied")
	assert.Equal(t, 2026, svc.created.IssueDate.Year())

	var resp struct {
		Number    string `json:"number"`
		IssueDate string `json:"issueDate"`
		Status    string `json:"status"`
	}
	decodeBody(t, w, &resp)
	assert.Equal(t, "D-00001", resp.Number)
	assert.Equal(t, "2026-03-02", resp.IssueDate)
	assert.Equal(t, "draft", resp.Status)
}

func TestDocumentHandler_CreateErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     map[string]any
		svcErr   error
		wantCode int
		wantErr  string
	}{
		{
			name:     "unknown category",
			body:     map[string]any{"category": "receipt"},
			wantCode: http.StatusBadRequest,
			wantErr:  apperror.CodeValidation,
		},
		{
			name:     "bad client id",
			body:     map[string]any{"category": "quote", "clientId": "nope"},
			wantCode: http.StatusBadRequest,
			wantErr:  apperror.CodeValidation,
		},
		{
			name:     "bad date",
			body:     map[string]any{"category": "invoice", "issueDate": "02/03/2026"},
			wantCode: http.StatusBadRequest,
			wantErr:  apperror.CodeValidation,
		},
		{
			name:     "no billable lines",
			body:     map[string]any{"category": "quote", "lines": []map[string]any{{"designation": "", "quantity": "1", "unitPriceExclTax": "5"}}},
			svcErr:   apperror.NewValidationCode(apperror.CodeNoBillableLines, "at least one line"),
			wantCode: http.StatusBadRequest,
			wantErr:  apperror.CodeNoBillableLines,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newDocumentRouter(&fakeBilling{createErr: tt.svcErr})
			w := doJSON(r, http.MethodPost, "/documents", tt.body)

			assert.Equal(t, tt.wantCode, w.Code)
			var body map[string]any
			decodeBody(t, w, &body)
			assert.Equal(t, tt.wantErr, body["code"])
		})
	}
}

func TestDocumentHandler_GetAndTransition(t *testing.T) {
	svc := &fakeBilling{}
	r := newDocumentRouter(svc)
	w := doJSON(r, http.MethodPost, "/documents", map[string]any{
		"category": "quote",
		"clientId": id.New().String(),
		"lines":    []map[string]any{{"designation": "Main d'oeuvre", "quantity": "1.5", "unitPriceExclTax": "60"}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	docID := svc.doc.ID.String()

	w = doJSON(r, http.MethodGet, "/documents/"+docID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, "/documents/"+docID+"/transition", map[string]any{"status": "paid"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(r, http.MethodPost, "/documents/"+docID+"/transition", map[string]any{"status": "sent"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/documents/not-an-id", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/documents/"+id.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDocumentHandler_Convert(t *testing.T) {
	r := newDocumentRouter(&fakeBilling{})
	w := doJSON(r, http.MethodPost, "/documents/"+id.New().String()+"/convert", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestDocumentHandler_PeekNumber(t *testing.T) {
	r := newDocumentRouter(&fakeBilling{})

	w := doJSON(r, http.MethodGet, "/documents/next-number/invoice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Number string `json:"number"`
	}
	decodeBody(t, w, &resp)
	assert.Equal(t, "F-00007", resp.Number)

	w = doJSON(r, http.MethodGet, "/documents/next-number/receipt", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDocumentHandler_ListFilter(t *testing.T) {
	svc := &fakeBilling{}
	r := newDocumentRouter(svc)
	clientID := id.New()

	w := doJSON(r, http.MethodGet, "/documents?category=invoice&status=overdue&clientId="+clientID.String()+"&dateFrom=2026-01-01&limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	f := svc.listFilter
	require.NotNil(t, f)
	assert.Equal(t, numerator.CategoryInvoice, *f.Category)
	assert.Equal(t, billing.StatusOverdue, *f.Status)
	assert.Equal(t, clientID, *f.ClientID)
	assert.Equal(t, 2026, f.DateFrom.Year())
	assert.Nil(t, f.DateTo)
	assert.Equal(t, 10, f.Limit)

	w = doJSON(r, http.MethodGet, "/documents?dateTo=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDraftHandler_Lifecycle(t *testing.T) {
	r := newRouter()
	h := NewDraftHandler(NewBaseHandler(), draft.NewMemoryStore())
	r.GET("/drafts/:formKey", h.Get)
	r.PUT("/drafts/:formKey", h.Save)
	r.DELETE("/drafts/:formKey", h.Clear)

	w := doJSON(r, http.MethodGet, "/drafts/invoice.new", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodPut, "/drafts/invoice.new", map[string]any{"payload": map[string]any{"notes": "pneus"}})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	w = doJSON(r, http.MethodGet, "/drafts/invoice.new", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Payload json.RawMessage `json:"payload"`
	}
	decodeBody(t, w, &resp)
	assert.JSONEq(t, `{"notes":"pneus"}`, string(resp.Payload))

	w = doJSON(r, http.MethodDelete, "/drafts/invoice.new", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(r, http.MethodGet, "/drafts/invoice.new", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodPut, "/drafts/Bad%20Key", map[string]any{"payload": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type fakeRepairOrders struct {
	RepairOrderService
	photos []string
}

func (f *fakeRepairOrders) Start(_ context.Context, orderID id.ID, photos []repairorder.Photo) (*repairorder.RepairOrder, error) {
	o := repairorder.NewRepairOrder(id.New(), id.New(), "bruit au freinage")
	o.ID = orderID
	o.Status = repairorder.StatusInProgress
	for _, p := range photos {
		data, err := io.ReadAll(p.Body)
		if err != nil {
			return nil, err
		}
		f.photos = append(f.photos, p.Name+":"+string(data))
		o.PhotoURLs = append(o.PhotoURLs, "https://blob.local/"+p.Name)
	}
	return o, nil
}

func TestRepairOrderHandler_StartWithPhotos(t *testing.T) {
	svc := &fakeRepairOrders{}
	r := newRouter()
	h := NewRepairOrderHandler(NewBaseHandler(), svc)
	r.POST("/repair-orders/:id/start", h.Start)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range []string{"front.jpg", "dash.jpg"} {
		part, err := mw.CreateFormFile("photos", name)
		require.NoError(t, err)
		_, _ = part.Write([]byte("img-" + name))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/repair-orders/"+id.New().String()+"/start", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"front.jpg:img-front.jpg", "dash.jpg:img-dash.jpg"}, svc.photos)

	var resp struct {
		Status    string   `json:"status"`
		PhotoURLs []string `json:"photoUrls"`
	}
	decodeBody(t, w, &resp)
	assert.Equal(t, "in_progress", resp.Status)
	assert.Len(t, resp.PhotoURLs, 2)
}

func TestRepairOrderHandler_StartWithoutPhotos(t *testing.T) {
	svc := &fakeRepairOrders{}
	r := newRouter()
	h := NewRepairOrderHandler(NewBaseHandler(), svc)
	r.POST("/repair-orders/:id/start", h.Start)

	w := doJSON(r, http.MethodPost, "/repair-orders/"+id.New().String()+"/start", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, svc.photos)
}

func TestSettingsHandler(t *testing.T) {
	r := newRouter()
	h := NewSettingsHandler(NewBaseHandler(), settingsStub{st: settings.Defaults(testGarage)})
	r.GET("/settings", h.Get)
	r.PATCH("/settings", h.Update)

	w := doJSON(r, http.MethodGet, "/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPatch, "/settings", map[string]any{"invoicePrefix": "FA"})
	require.Equal(t, http.StatusOK, w.Code)
	var st settings.Settings
	decodeBody(t, w, &st)
	assert.Equal(t, "FA", st.InvoicePrefix)
	assert.Equal(t, settings.DefaultQuotePrefix, st.QuotePrefix)
}
