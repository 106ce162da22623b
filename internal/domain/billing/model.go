package billing

import (
	"slices"
	"time"

	"garageflow/internal/core/entity"
	"garageflow/internal/core/id"
	"garageflow/internal/core/numerator"
	"garageflow/internal/core/types"
)

// Category is quote or invoice; each has its own counter and prefix.
type Category = numerator.Category

// Status is the lifecycle state of a document.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusRefused  Status = "refused"
	StatusPaid     Status = "paid"
	StatusOverdue  Status = "overdue"
)

var transitions = map[Category]map[Status][]Status{
	numerator.CategoryQuote: {
		StatusDraft: {StatusSent},
		StatusSent:  {StatusAccepted, StatusRefused},
	},
	numerator.CategoryInvoice: {
		StatusDraft:   {StatusSent},
		StatusSent:    {StatusPaid, StatusOverdue},
		StatusOverdue: {StatusPaid},
	},
}

// CanTransition reports whether a document of cat may move from one status to another.
func CanTransition(cat Category, from, to Status) bool {
	return slices.Contains(transitions[cat][from], to)
}

// IsInitial reports whether a document may be created directly in s.
func (s Status) IsInitial() bool {
	return s == StatusDraft || s == StatusSent
}

// ValidFor reports whether s exists in the lifecycle of cat.
func (s Status) ValidFor(cat Category) bool {
	if s.IsInitial() {
		return true
	}
	switch cat {
	case numerator.CategoryQuote:
		return s == StatusAccepted || s == StatusRefused
	case numerator.CategoryInvoice:
		return s == StatusPaid || s == StatusOverdue
	}
	return false
}

// Document is a persisted quote or invoice. Totals and lines are a snapshot
// taken at creation; later catalog price changes never touch them.
type Document struct {
	entity.Document

	Category Category `db:"category" json:"category"`
	Sequence int64    `db:"sequence" json:"sequence"`
	Status   Status   `db:"status" json:"status"`

	// ClientID is the billed party; optional while the document is a draft.
	ClientID      *id.ID `db:"client_id" json:"clientId,omitempty"`
	VehicleID     *id.ID `db:"vehicle_id" json:"vehicleId,omitempty"`
	RepairOrderID *id.ID `db:"repair_order_id" json:"repairOrderId,omitempty"`

	// SourceDocumentID links an invoice to the quote it was converted from.
	SourceDocumentID *id.ID `db:"source_document_id" json:"sourceDocumentId,omitempty"`

	DueDate  *time.Time `db:"due_date" json:"dueDate,omitempty"`
	Currency string     `db:"currency" json:"currency"`

	TotalExclTax types.Money `db:"total_excl_tax" json:"totalExclTax"`
	TotalTax     types.Money `db:"total_tax" json:"totalTax"`
	TotalInclTax types.Money `db:"total_incl_tax" json:"totalInclTax"`

	Lines []LineItem `db:"-" json:"lines"`
}

// Totals recomputes the totals from the line snapshot, breakdown included.
func (d *Document) Totals() Totals {
	return Calculate(d.Lines)
}

// EntityName is used in errors and audit entries.
func (d *Document) EntityName() string {
	if d.Category == numerator.CategoryInvoice {
		return "invoice"
	}
	return "quote"
}
