package entity

import (
	"context"
	"strings"

	"garageflow/internal/core/apperror"
)

// Catalog is the base type for reference data: clients, vehicles.
type Catalog struct {
	BaseDocument

	// DeletionMark hides the record from pickers; documents keep pointing at it.
	DeletionMark bool `db:"deletion_mark" json:"deletionMark"`
}

// NewCatalog creates a new Catalog with generated ID.
func NewCatalog() Catalog {
	return Catalog{BaseDocument: NewBaseDocument()}
}

// Validate implements Validatable.
func (c *Catalog) Validate(ctx context.Context) error {
	return c.ValidateScope()
}

// RequireText returns a validation error when value is blank.
func RequireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperror.NewValidation(field+" is required").
			WithDetail("field", field)
	}
	return nil
}
