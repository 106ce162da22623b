package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"garageflow/internal/core/apperror"
	"garageflow/internal/core/numerator"
	"garageflow/internal/core/types"
	"garageflow/internal/domain/billing"
	"garageflow/pkg/money"
)

// DateLayout is the wire format of business dates.
const DateLayout = "2006-01-02"

// LineRequest is one line as typed in the editor. TaxRate falls back to the
// garage default when omitted.
type LineRequest struct {
	Designation      string           `json:"designation"`
	Description      string           `json:"description"`
	Quantity         decimal.Decimal  `json:"quantity"`
	UnitPriceExclTax decimal.Decimal  `json:"unitPriceExclTax"`
	TaxRate          *decimal.Decimal `json:"taxRate"`
}

// ToLineItems converts request lines. Positions are kept so validation errors
// point at the row the user sees.
func ToLineItems(lines []LineRequest, defaultRate types.TaxRate) []billing.LineItem {
	out := make([]billing.LineItem, len(lines))
	for i, l := range lines {
		rate := defaultRate
		if l.TaxRate != nil {
			rate = *l.TaxRate
		}
		out[i] = billing.LineItem{
			LineNo:           i + 1,
			Designation:      l.Designation,
			Description:      l.Description,
			Quantity:         l.Quantity,
			UnitPriceExclTax: l.UnitPriceExclTax,
			TaxRate:          rate,
		}
	}
	return out
}

// CreateDocumentRequest is the body of POST /documents.
type CreateDocumentRequest struct {
	Category      numerator.Category `json:"category" binding:"required,oneof=quote invoice"`
	Status        billing.Status     `json:"status"`
	Lines         []LineRequest      `json:"lines"`
	ClientID      *string            `json:"clientId"`
	VehicleID     *string            `json:"vehicleId"`
	RepairOrderID *string            `json:"repairOrderId"`
	IssueDate     string             `json:"issueDate"`
	DueDate       string             `json:"dueDate"`
	Notes         string             `json:"notes"`
}

// ToInput converts the request into billing input.
func (r CreateDocumentRequest) ToInput(defaultRate types.TaxRate) (billing.AssembleInput, error) {
	in := billing.AssembleInput{
		Category: r.Category,
		Status:   r.Status,
		Lines:    ToLineItems(r.Lines, defaultRate),
		Notes:    r.Notes,
	}

	var err error
	if in.ClientID, err = optionalID(r.ClientID); err != nil {
		return in, apperror.NewValidation("invalid client id").WithDetail("field", "clientId")
	}
	if in.VehicleID, err = optionalID(r.VehicleID); err != nil {
		return in, apperror.NewValidation("invalid vehicle id").WithDetail("field", "vehicleId")
	}
	if in.RepairOrderID, err = optionalID(r.RepairOrderID); err != nil {
		return in, apperror.NewValidation("invalid repair order id").WithDetail("field", "repairOrderId")
	}
	if r.IssueDate != "" {
		if in.IssueDate, err = time.Parse(DateLayout, r.IssueDate); err != nil {
			return in, apperror.NewValidation("issue date must be YYYY-MM-DD").WithDetail("field", "issueDate")
		}
	}
	if r.DueDate != "" {
		due, err := time.Parse(DateLayout, r.DueDate)
		if err != nil {
			return in, apperror.NewValidation("due date must be YYYY-MM-DD").WithDetail("field", "dueDate")
		}
		in.DueDate = &due
	}
	return in, nil
}

// PreviewRequest is the body of POST /documents/preview.
type PreviewRequest struct {
	Lines []LineRequest `json:"lines"`
}

// TransitionRequest moves a document or repair order to another status.
type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// TaxLineResponse is one rate of the breakdown.
type TaxLineResponse struct {
	Rate        decimal.Decimal `json:"rate"`
	Base        decimal.Decimal `json:"base"`
	Tax         decimal.Decimal `json:"tax"`
	RateDisplay string          `json:"rateDisplay"`
	BaseDisplay string          `json:"baseDisplay"`
	TaxDisplay  string          `json:"taxDisplay"`
}

// TotalsResponse carries exact totals and their display strings.
type TotalsResponse struct {
	TotalExclTax decimal.Decimal   `json:"totalExclTax"`
	TotalTax     decimal.Decimal   `json:"totalTax"`
	TotalInclTax decimal.Decimal   `json:"totalInclTax"`
	Breakdown    []TaxLineResponse `json:"breakdown"`
	Display      TotalsDisplay     `json:"display"`
}

// TotalsDisplay holds the totals rounded and formatted for the garage locale.
type TotalsDisplay struct {
	TotalExclTax string `json:"totalExclTax"`
	TotalTax     string `json:"totalTax"`
	TotalInclTax string `json:"totalInclTax"`
}

// FromTotals formats t with f.
func FromTotals(t billing.Totals, f *money.Formatter) TotalsResponse {
	resp := TotalsResponse{
		TotalExclTax: t.TotalExclTax,
		TotalTax:     t.TotalTax,
		TotalInclTax: t.TotalInclTax,
		Breakdown:    make([]TaxLineResponse, len(t.Breakdown)),
		Display: TotalsDisplay{
			TotalExclTax: f.Format(t.TotalExclTax),
			TotalTax:     f.Format(t.TotalTax),
			TotalInclTax: f.Format(t.TotalInclTax),
		},
	}
	for i, b := range t.Breakdown {
		resp.Breakdown[i] = TaxLineResponse{
			Rate:        b.Rate,
			Base:        b.Base,
			Tax:         b.Tax,
			RateDisplay: f.Rate(b.Rate),
			BaseDisplay: f.Format(b.Base),
			TaxDisplay:  f.Format(b.Tax),
		}
	}
	return resp
}

// LineResponse is a stored line with its derived total.
type LineResponse struct {
	LineNo           int             `json:"lineNo"`
	Designation      string          `json:"designation"`
	Description      string          `json:"description,omitempty"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitPriceExclTax decimal.Decimal `json:"unitPriceExclTax"`
	TaxRate          decimal.Decimal `json:"taxRate"`
	TotalExclTax     decimal.Decimal `json:"totalExclTax"`
	TotalDisplay     string          `json:"totalDisplay"`
}

// PreviewResponse is returned while a document is being edited.
type PreviewResponse struct {
	Lines  []LineResponse `json:"lines"`
	Totals TotalsResponse `json:"totals"`
}

// NewPreviewResponse builds the preview of lines. Placeholder rows are listed
// with a zero total so the editor keeps its row positions.
func NewPreviewResponse(lines []billing.LineItem, t billing.Totals, f *money.Formatter) PreviewResponse {
	out := make([]LineResponse, len(lines))
	for i, l := range lines {
		total := decimal.Zero
		if l.Included() {
			total = l.TotalExclTax()
		}
		out[i] = fromLine(l, total, f)
	}
	return PreviewResponse{Lines: out, Totals: FromTotals(t, f)}
}

func fromLine(l billing.LineItem, total decimal.Decimal, f *money.Formatter) LineResponse {
	return LineResponse{
		LineNo:           l.LineNo,
		Designation:      l.Designation,
		Description:      l.Description,
		Quantity:         l.Quantity,
		UnitPriceExclTax: l.UnitPriceExclTax,
		TaxRate:          l.TaxRate,
		TotalExclTax:     total,
		TotalDisplay:     f.Format(total),
	}
}

// DocumentResponse is a quote or invoice.
type DocumentResponse struct {
	BaseResponse
	Category         numerator.Category `json:"category"`
	Number           string             `json:"number"`
	Status           billing.Status     `json:"status"`
	IssueDate        string             `json:"issueDate"`
	DueDate          *string            `json:"dueDate,omitempty"`
	ClientID         *string            `json:"clientId,omitempty"`
	VehicleID        *string            `json:"vehicleId,omitempty"`
	RepairOrderID    *string            `json:"repairOrderId,omitempty"`
	SourceDocumentID *string            `json:"sourceDocumentId,omitempty"`
	Currency         string             `json:"currency"`
	Notes            string             `json:"notes,omitempty"`
	Lines            []LineResponse     `json:"lines"`
	Totals           TotalsResponse     `json:"totals"`
}

// FromDocument maps a document. Stored totals are authoritative; the
// breakdown is derived from the frozen lines.
func FromDocument(d *billing.Document, f *money.Formatter) DocumentResponse {
	lines := make([]LineResponse, len(d.Lines))
	for i, l := range d.Lines {
		lines[i] = fromLine(l, l.TotalExclTax(), f)
	}

	t := d.Totals()
	t.TotalExclTax = d.TotalExclTax
	t.TotalTax = d.TotalTax
	t.TotalInclTax = d.TotalInclTax

	resp := DocumentResponse{
		BaseResponse:     FromBaseDocument(d.BaseDocument),
		Category:         d.Category,
		Number:           d.Number,
		Status:           d.Status,
		IssueDate:        d.IssueDate.Format(DateLayout),
		ClientID:         idString(d.ClientID),
		VehicleID:        idString(d.VehicleID),
		RepairOrderID:    idString(d.RepairOrderID),
		SourceDocumentID: idString(d.SourceDocumentID),
		Currency:         d.Currency,
		Notes:            d.Notes,
		Lines:            lines,
		Totals:           FromTotals(t, f),
	}
	if d.DueDate != nil {
		s := d.DueDate.Format(DateLayout)
		resp.DueDate = &s
	}
	return resp
}

// DocumentSummary is a row of the document list.
type DocumentSummary struct {
	ID           string             `json:"id"`
	Category     numerator.Category `json:"category"`
	Number       string             `json:"number"`
	Status       billing.Status     `json:"status"`
	IssueDate    string             `json:"issueDate"`
	ClientID     *string            `json:"clientId,omitempty"`
	TotalInclTax decimal.Decimal    `json:"totalInclTax"`
	TotalDisplay string             `json:"totalDisplay"`
}

// SummaryMapper returns a list mapper bound to f.
func SummaryMapper(f *money.Formatter) func(*billing.Document) DocumentSummary {
	return func(d *billing.Document) DocumentSummary {
		return DocumentSummary{
			ID:           d.ID.String(),
			Category:     d.Category,
			Number:       d.Number,
			Status:       d.Status,
			IssueDate:    d.IssueDate.Format(DateLayout),
			ClientID:     idString(d.ClientID),
			TotalInclTax: d.TotalInclTax,
			TotalDisplay: f.Format(d.TotalInclTax),
		}
	}
}

// NumberResponse is the next number of a category, for display only.
type NumberResponse struct {
	Category numerator.Category `json:"category"`
	Number   string             `json:"number"`
	Sequence int64              `json:"sequence"`
}
