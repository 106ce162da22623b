// Package money renders amounts for people: locale digits, grouping and the
// currency symbol. Stored values stay decimal; only display goes through here.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter formats amounts of one currency for one locale. Safe for
// concurrent use.
type Formatter struct {
	printer *message.Printer
	unit    currency.Unit
	symbol  string
	suffix  bool
}

// NewFormatter parses a BCP 47 locale ("fr-FR") and an ISO 4217 code ("EUR").
func NewFormatter(locale, code string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("parse currency %q: %w", code, err)
	}

	p := message.NewPrinter(tag)
	base, _ := tag.Base()
	return &Formatter{
		printer: p,
		unit:    unit,
		symbol:  p.Sprint(currency.Symbol(unit)),
		suffix:  base.String() != "en",
	}, nil
}

// MustFormatter is NewFormatter for constant arguments.
func MustFormatter(locale, code string) *Formatter {
	f, err := NewFormatter(locale, code)
	if err != nil {
		panic(err)
	}
	return f
}

// Currency returns the ISO code.
func (f *Formatter) Currency() string {
	return f.unit.String()
}

// Number formats v rounded half away from zero to the currency's two
// decimals, without symbol.
func (f *Formatter) Number(v decimal.Decimal) string {
	n, _ := v.Round(2).Float64()
	return f.printer.Sprint(number.Decimal(n, number.Scale(2)))
}

// Format returns v with its symbol: "1 234,50 €" in French, "€1,234.50" in English.
func (f *Formatter) Format(v decimal.Decimal) string {
	digits := f.Number(v)
	if f.suffix {
		return digits + " " + f.symbol
	}
	if strings.HasPrefix(digits, "-") {
		return "-" + f.symbol + digits[1:]
	}
	return f.symbol + digits
}

// Rate formats a tax percentage: "5,5 %" or "5.5%".
func (f *Formatter) Rate(rate decimal.Decimal) string {
	n, _ := rate.Float64()
	digits := f.printer.Sprint(number.Decimal(n, number.MaxFractionDigits(2)))
	if f.suffix {
		return digits + " %"
	}
	return digits + "%"
}
