// Package settings holds per-garage billing preferences.
package settings

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"garageflow/internal/core/apperror"
	"garageflow/internal/core/id"
	"garageflow/internal/core/numerator"
	"garageflow/internal/core/types"
)

const (
	DefaultQuotePrefix     = "D"
	DefaultInvoicePrefix   = "F"
	DefaultCurrency        = "EUR"
	DefaultLocale          = "fr-FR"
	DefaultPaymentTermDays = 30
)

// Settings is the configuration record of one garage.
type Settings struct {
	GarageID        id.ID         `db:"garage_id" json:"garageId"`
	GarageName      string        `db:"garage_name" json:"garageName"`
	QuotePrefix     string        `db:"quote_prefix" json:"quotePrefix"`
	InvoicePrefix   string        `db:"invoice_prefix" json:"invoicePrefix"`
	Currency        string        `db:"currency" json:"currency"`
	Locale          string        `db:"locale" json:"locale"`
	DefaultTaxRate  types.TaxRate `db:"default_tax_rate" json:"defaultTaxRate"`
	PaymentTermDays int           `db:"payment_term_days" json:"paymentTermDays"`
	AlertEmail      string        `db:"alert_email" json:"alertEmail,omitempty"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updatedAt"`
}

// Defaults returns the settings used until a garage saves its own.
func Defaults(garageID id.ID) *Settings {
	return &Settings{
		GarageID:        garageID,
		QuotePrefix:     DefaultQuotePrefix,
		InvoicePrefix:   DefaultInvoicePrefix,
		Currency:        DefaultCurrency,
		Locale:          DefaultLocale,
		DefaultTaxRate:  decimal.NewFromInt(20),
		PaymentTermDays: DefaultPaymentTermDays,
	}
}

// Prefix returns the number prefix configured for cat.
func (s *Settings) Prefix(cat numerator.Category) string {
	if cat == numerator.CategoryInvoice {
		return s.InvoicePrefix
	}
	return s.QuotePrefix
}

// DueDate returns issue + payment term, or nil when no term is configured.
func (s *Settings) DueDate(issue time.Time) *time.Time {
	if s.PaymentTermDays <= 0 {
		return nil
	}
	due := issue.AddDate(0, 0, s.PaymentTermDays)
	return &due
}

// Validate implements entity.Validatable.
func (s *Settings) Validate(ctx context.Context) error {
	if id.IsNil(s.GarageID) {
		return apperror.NewValidation("garage is required").WithDetail("field", "garageId")
	}
	for field, prefix := range map[string]string{"quotePrefix": s.QuotePrefix, "invoicePrefix": s.InvoicePrefix} {
		if strings.TrimSpace(prefix) == "" || len(prefix) > 16 {
			return apperror.NewValidation("prefix must be 1 to 16 characters").WithDetail("field", field)
		}
	}
	if s.QuotePrefix == s.InvoicePrefix {
		return apperror.NewValidation("quote and invoice prefixes must differ").WithDetail("field", "invoicePrefix")
	}
	if len(s.Currency) != 3 {
		return apperror.NewValidation("currency must be an ISO 4217 code").WithDetail("field", "currency")
	}
	if err := types.ValidateRate(s.DefaultTaxRate); err != nil {
		return apperror.NewValidation(err.Error()).WithDetail("field", "defaultTaxRate")
	}
	if s.PaymentTermDays < 0 || s.PaymentTermDays > 365 {
		return apperror.NewValidation("payment term must be between 0 and 365 days").WithDetail("field", "paymentTermDays")
	}
	return nil
}

// Patch carries a partial settings update. Nil fields are left untouched.
type Patch struct {
	GarageName      *string        `json:"garageName" db:"garage_name"`
	QuotePrefix     *string        `json:"quotePrefix" db:"quote_prefix"`
	InvoicePrefix   *string        `json:"invoicePrefix" db:"invoice_prefix"`
	Currency        *string        `json:"currency" db:"currency"`
	Locale          *string        `json:"locale" db:"locale"`
	DefaultTaxRate  *types.TaxRate `json:"defaultTaxRate" db:"default_tax_rate"`
	PaymentTermDays *int           `json:"paymentTermDays" db:"payment_term_days"`
	AlertEmail      *string        `json:"alertEmail" db:"alert_email"`
}

// Apply copies the set fields of p onto s.
func (p Patch) Apply(s *Settings) {
	if p.GarageName != nil {
		s.GarageName = *p.GarageName
	}
	if p.QuotePrefix != nil {
		s.QuotePrefix = strings.TrimSpace(*p.QuotePrefix)
	}
	if p.InvoicePrefix != nil {
		s.InvoicePrefix = strings.TrimSpace(*p.InvoicePrefix)
	}
	if p.Currency != nil {
		s.Currency = strings.ToUpper(*p.Currency)
	}
	if p.Locale != nil {
		s.Locale = *p.Locale
	}
	if p.DefaultTaxRate != nil {
		s.DefaultTaxRate = *p.DefaultTaxRate
	}
	if p.PaymentTermDays != nil {
		s.PaymentTermDays = *p.PaymentTermDays
	}
	if p.AlertEmail != nil {
		s.AlertEmail = *p.AlertEmail
	}
}
