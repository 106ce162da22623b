// Package numerator provides domain contracts for document numbering.
package numerator

import (
	"fmt"
	"strconv"
	"strings"
)

// Category separates independent counters. Quotes and invoices never share a sequence.
type Category string

const (
	CategoryQuote   Category = "quote"
	CategoryInvoice Category = "invoice"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategoryQuote || c == CategoryInvoice
}

// ParseCategory accepts the English names and the French ones used on paper ("devis", "facture").
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quote", "devis":
		return CategoryQuote, nil
	case "invoice", "facture":
		return CategoryInvoice, nil
	}
	return "", fmt.Errorf("unknown document category %q", s)
}

// Strategy defines how a number is reserved and committed.
type Strategy int

const (
	// StrategyStrict locks the counter row, inserts the document and advances
	// the counter in one transaction. A failed insert leaves the counter untouched.
	StrategyStrict Strategy = iota

	// StrategyDeferred persists the document first and advances the counter in a
	// separate write. A unique index on the number rejects collisions; a failed
	// advance is reported to the operator.
	StrategyDeferred
)

// ParseStrategy maps configuration values to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(s) {
	case "", "strict":
		return StrategyStrict, nil
	case "deferred":
		return StrategyDeferred, nil
	}
	return StrategyStrict, fmt.Errorf("unknown numbering strategy %q", s)
}

func (s Strategy) String() string {
	if s == StrategyDeferred {
		return "deferred"
	}
	return "strict"
}

// DefaultPadWidth is the zero-padded width of the sequence part.
const DefaultPadWidth = 5

// FirstSequence is the value of a counter that was never advanced.
const FirstSequence int64 = 1

// Number is a formatted document number split into its parts.
type Number struct {
	Prefix   string `json:"prefix"`
	Sequence int64  `json:"sequence"`
}

// String renders {prefix}-{sequence:05d}.
func (n Number) String() string {
	return Format(n.Prefix, n.Sequence)
}

// Format renders prefix and sequence as "D-00007".
func Format(prefix string, seq int64) string {
	return fmt.Sprintf("%s-%0*d", prefix, DefaultPadWidth, seq)
}

// Parse splits a formatted number at its last dash.
func Parse(formatted string) (Number, error) {
	i := strings.LastIndex(formatted, "-")
	if i <= 0 || i == len(formatted)-1 {
		return Number{}, fmt.Errorf("malformed document number %q", formatted)
	}
	seq, err := strconv.ParseInt(formatted[i+1:], 10, 64)
	if err != nil || seq < FirstSequence {
		return Number{}, fmt.Errorf("malformed document number %q", formatted)
	}
	return Number{Prefix: formatted[:i], Sequence: seq}, nil
}
