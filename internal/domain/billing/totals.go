package billing

import (
	"sort"

	"garageflow/internal/core/types"
)

// TaxLine aggregates the lines sharing one tax rate.
type TaxLine struct {
	Rate types.TaxRate `json:"rate"`
	Base types.Money   `json:"base"`
	Tax  types.Money   `json:"tax"`
}

// Totals is the reduction of a line list. Values are exact; round only for display.
type Totals struct {
	TotalExclTax types.Money `json:"totalExclTax"`
	TotalTax     types.Money `json:"totalTax"`
	TotalInclTax types.Money `json:"totalInclTax"`
	Breakdown    []TaxLine   `json:"breakdown"`
}

// Calculate sums the included lines. Tax is computed per line so mixed rates
// are supported. Pure: the same input always gives the same output.
func Calculate(lines []LineItem) Totals {
	t := Totals{
		TotalExclTax: types.Zero(),
		TotalTax:     types.Zero(),
		Breakdown:    []TaxLine{},
	}

	for _, l := range lines {
		if !l.Included() {
			continue
		}
		base := l.TotalExclTax()
		tax := l.Tax()
		t.TotalExclTax = t.TotalExclTax.Add(base)
		t.TotalTax = t.TotalTax.Add(tax)
		t.addToBreakdown(l.TaxRate, base, tax)
	}

	t.TotalInclTax = t.TotalExclTax.Add(t.TotalTax)
	sort.Slice(t.Breakdown, func(i, j int) bool {
		return t.Breakdown[i].Rate.LessThan(t.Breakdown[j].Rate)
	})
	return t
}

func (t *Totals) addToBreakdown(rate types.TaxRate, base, tax types.Money) {
	for i := range t.Breakdown {
		if t.Breakdown[i].Rate.Equal(rate) {
			t.Breakdown[i].Base = t.Breakdown[i].Base.Add(base)
			t.Breakdown[i].Tax = t.Breakdown[i].Tax.Add(tax)
			return
		}
	}
	t.Breakdown = append(t.Breakdown, TaxLine{Rate: rate, Base: base, Tax: tax})
}

// IsZero reports whether nothing is billed.
func (t Totals) IsZero() bool {
	return t.TotalInclTax.IsZero()
}
