package billing

import (
	"context"
	"time"

	"garageflow/internal/core/id"
	"garageflow/internal/domain"
)

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -source=repository.go -destination=mock_repository.go -package=billing

// Repository persists documents. Reads are scoped to the garage in ctx.
type Repository interface {
	// Create inserts the document and its lines. A number already used in the
	// same garage and category yields a DUPLICATE_ENTRY AppError.
	Create(ctx context.Context, doc *Document) error

	GetByID(ctx context.Context, docID id.ID) (*Document, error)

	// GetForUpdate locks the document row for the surrounding transaction.
	GetForUpdate(ctx context.Context, docID id.ID) (*Document, error)

	// UpdateStatus moves the document to status if its version still matches.
	UpdateStatus(ctx context.Context, docID id.ID, status Status, expectedVersion int) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Document], error)

	// InvoiceForQuote returns the id of the invoice converted from quoteID.
	InvoiceForQuote(ctx context.Context, quoteID id.ID) (id.ID, bool, error)

	// MarkOverdue moves sent invoices whose due date is before asOf to overdue,
	// across all garages. Returns the affected documents.
	MarkOverdue(ctx context.Context, asOf time.Time) ([]OverdueRef, error)
}

// ListFilter narrows a document listing.
type ListFilter struct {
	domain.ListFilter

	Category *Category
	Status   *Status
	ClientID *id.ID
	DateFrom *time.Time
	DateTo   *time.Time
}

// OverdueRef identifies an invoice flipped to overdue by the batch job.
type OverdueRef struct {
	ID       id.ID  `db:"id"`
	GarageID id.ID  `db:"garage_id"`
	Number   string `db:"number"`
}
