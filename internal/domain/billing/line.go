// Package billing implements quotes (devis) and invoices (factures):
// line totals, numbering and document assembly.
package billing

import (
	"fmt"
	"strings"

	"garageflow/internal/core/apperror"
	"garageflow/internal/core/types"
)

// LineItem is one billable row of a document.
type LineItem struct {
	LineNo           int            `db:"line_no" json:"lineNo"`
	Designation      string         `db:"designation" json:"designation"`
	Description      string         `db:"description" json:"description,omitempty"`
	Quantity         types.Quantity `db:"quantity" json:"quantity"`
	UnitPriceExclTax types.Money    `db:"unit_price_excl_tax" json:"unitPriceExclTax"`
	TaxRate          types.TaxRate  `db:"tax_rate" json:"taxRate"`
}

// Included reports whether the line counts. Rows with a blank designation are
// placeholders still being edited.
func (l LineItem) Included() bool {
	return strings.TrimSpace(l.Designation) != ""
}

// TotalExclTax is quantity * unit price. Always derived, never stored.
func (l LineItem) TotalExclTax() types.Money {
	return l.Quantity.Mul(l.UnitPriceExclTax)
}

// Tax is the line's tax at full precision.
func (l LineItem) Tax() types.Money {
	return types.ApplyRate(l.TotalExclTax(), l.TaxRate)
}

// Billable reports whether the line carries a positive price.
func (l LineItem) Billable() bool {
	return l.Included() && l.UnitPriceExclTax.IsPositive()
}

// Validate checks the numeric bounds of an included line. pos is the 1-based
// position in the submitted list, reported back to the caller.
func (l LineItem) Validate(pos int) error {
	if !l.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("lineNo", pos)
	}
	if !types.FitsScale(l.Quantity, types.QuantityScale) {
		return apperror.NewValidation(fmt.Sprintf("quantity allows at most %d decimals", types.QuantityScale)).
			WithDetail("field", "quantity").
			WithDetail("lineNo", pos)
	}
	if l.UnitPriceExclTax.IsNegative() {
		return apperror.NewValidation("unit price must not be negative").
			WithDetail("field", "unitPriceExclTax").
			WithDetail("lineNo", pos)
	}
	if !types.FitsScale(l.UnitPriceExclTax, types.PriceScale) {
		return apperror.NewValidation(fmt.Sprintf("unit price allows at most %d decimals", types.PriceScale)).
			WithDetail("field", "unitPriceExclTax").
			WithDetail("lineNo", pos)
	}
	if err := types.ValidateRate(l.TaxRate); err != nil {
		return apperror.NewValidation(err.Error()).
			WithDetail("field", "taxRate").
			WithDetail("lineNo", pos)
	}
	return nil
}

// IncludedLines returns the non-placeholder lines renumbered from 1.
func IncludedLines(lines []LineItem) []LineItem {
	out := make([]LineItem, 0, len(lines))
	for _, l := range lines {
		if !l.Included() {
			continue
		}
		l.Designation = strings.TrimSpace(l.Designation)
		l.LineNo = len(out) + 1
		out = append(out, l)
	}
	return out
}
