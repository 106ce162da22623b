package billing

import (
	"time"

	"garageflow/internal/core/apperror"
	"garageflow/internal/core/entity"
	"garageflow/internal/core/id"
	"garageflow/internal/core/numerator"
)

// AssembleInput is everything the caller supplies for a new document.
type AssembleInput struct {
	Category Category
	// Status is draft or sent. Empty means draft.
	Status Status
	Lines  []LineItem

	ClientID         *id.ID
	VehicleID        *id.ID
	RepairOrderID    *id.ID
	SourceDocumentID *id.ID

	IssueDate time.Time // zero means today
	DueDate   *time.Time
	Notes     string
}

// Validate checks the input before any number is reserved or anything is written.
func (in *AssembleInput) Validate() error {
	if !in.Category.Valid() {
		return apperror.NewValidation("unknown document category").
			WithDetail("field", "category")
	}
	if in.Status == "" {
		in.Status = StatusDraft
	}
	if !in.Status.IsInitial() {
		return apperror.NewValidation("a document is created as draft or sent").
			WithDetail("field", "status")
	}

	billable := false
	for i, l := range in.Lines {
		if !l.Included() {
			continue
		}
		if err := l.Validate(i + 1); err != nil {
			return err
		}
		billable = billable || l.Billable()
	}
	if !billable {
		return apperror.NewValidationCode(apperror.CodeNoBillableLines,
			"at least one line with a designation and a positive unit price is required").
			WithDetail("field", "lines")
	}

	if in.Status == StatusSent && (in.ClientID == nil || id.IsNil(*in.ClientID)) {
		return apperror.NewValidationCode(apperror.CodePartyRequired,
			"a client is required to send a document").
			WithDetail("field", "clientId")
	}
	if in.DueDate != nil && !in.IssueDate.IsZero() && in.DueDate.Before(in.IssueDate) {
		return apperror.NewValidation("due date is before issue date").
			WithDetail("field", "dueDate")
	}
	return nil
}

// Assemble validates in and builds the document carrying number, frozen totals
// and the included lines. Nothing is persisted.
func Assemble(garageID id.ID, in AssembleInput, number numerator.Number, currency string) (*Document, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	lines := IncludedLines(in.Lines)
	totals := Calculate(lines)

	doc := &Document{
		Document:         entity.NewDocument(),
		Category:         in.Category,
		Sequence:         number.Sequence,
		Status:           in.Status,
		ClientID:         nonNil(in.ClientID),
		VehicleID:        nonNil(in.VehicleID),
		RepairOrderID:    nonNil(in.RepairOrderID),
		SourceDocumentID: nonNil(in.SourceDocumentID),
		DueDate:          in.DueDate,
		Currency:         currency,
		TotalExclTax:     totals.TotalExclTax,
		TotalTax:         totals.TotalTax,
		TotalInclTax:     totals.TotalInclTax,
		Lines:            lines,
	}
	doc.GarageID = garageID
	doc.Number = number.String()
	doc.Notes = in.Notes
	if !in.IssueDate.IsZero() {
		doc.IssueDate = in.IssueDate
	}
	return doc, nil
}

func nonNil(v *id.ID) *id.ID {
	if v == nil || id.IsNil(*v) {
		return nil
	}
	return v
}
