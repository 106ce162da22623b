package entity

import (
	"context"
	"time"

	"garageflow/internal/core/apperror"
)

// Document is the base type for numbered business documents (quotes, invoices).
type Document struct {
	BaseDocument

	// Number is the formatted document number, unique per garage and category.
	Number string `db:"number" json:"number"`

	// IssueDate is the business date printed on the document.
	IssueDate time.Time `db:"issue_date" json:"issueDate"`

	Notes string `db:"notes" json:"notes,omitempty"`
}

// NewDocument creates a new Document dated today.
func NewDocument() Document {
	now := time.Now().UTC()
	return Document{
		BaseDocument: NewBaseDocument(),
		IssueDate:    now.Truncate(24 * time.Hour),
	}
}

// Validate implements Validatable.
func (d *Document) Validate(ctx context.Context) error {
	if err := d.ValidateScope(); err != nil {
		return err
	}
	if d.IssueDate.IsZero() {
		return apperror.NewValidation("issue date is required").
			WithDetail("field", "issueDate")
	}
	return nil
}
