package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"garageflow/internal/domain/billing"
	"garageflow/internal/domain/settings"
	"garageflow/pkg/money"
)

var totalsJSON bool

var totalsCmd = &cobra.Command{
	Use:   "totals [file.json]",
	Short: "Compute document totals from a JSON line list",
	Long: `Reads a line list and prints the totals a document built from it would carry.
Lines with a blank designation are ignored, as in the editor.

Input format:
  {
    "locale": "fr-FR",
    "currency": "EUR",
    "defaultTaxRate": "20",
    "lines": [
      {"designation": "Vidange", "quantity": "1", "unitPriceExclTax": "59.90"},
      {"designation": "Main d'oeuvre", "quantity": "1.5", "unitPriceExclTax": "65", "taxRate": "20"}
    ]
  }

Reads standard input when the file is "-".`,
	Example: `  garagectl totals quote.json
  garagectl totals --json - < quote.json`,
	Args: cobra.ExactArgs(1),
	RunE: runTotals,
}

type totalsLine struct {
	Designation      string           `json:"designation"`
	Description      string           `json:"description"`
	Quantity         decimal.Decimal  `json:"quantity"`
	UnitPriceExclTax decimal.Decimal  `json:"unitPriceExclTax"`
	TaxRate          *decimal.Decimal `json:"taxRate"`
}

type totalsInput struct {
	Locale         string           `json:"locale"`
	Currency       string           `json:"currency"`
	DefaultTaxRate *decimal.Decimal `json:"defaultTaxRate"`
	Lines          []totalsLine     `json:"lines"`
}

func (in totalsInput) lineItems() []billing.LineItem {
	rate := decimal.NewFromInt(20)
	if in.DefaultTaxRate != nil {
		rate = *in.DefaultTaxRate
	}
	items := make([]billing.LineItem, len(in.Lines))
	for i, l := range in.Lines {
		r := rate
		if l.TaxRate != nil {
			r = *l.TaxRate
		}
		items[i] = billing.LineItem{
			LineNo:           i + 1,
			Designation:      l.Designation,
			Description:      l.Description,
			Quantity:         l.Quantity,
			UnitPriceExclTax: l.UnitPriceExclTax,
			TaxRate:          r,
		}
	}
	return items
}

func runTotals(cmd *cobra.Command, args []string) error {
	var src io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		src = f
	}
	return computeTotals(src, cmd.OutOrStdout(), totalsJSON)
}

func computeTotals(src io.Reader, out io.Writer, asJSON bool) error {
	var in totalsInput
	if err := json.NewDecoder(src).Decode(&in); err != nil {
		return fmt.Errorf("decode input: %w", err)
	}

	lines := in.lineItems()
	for i, l := range lines {
		if !l.Included() {
			continue
		}
		if err := l.Validate(i + 1); err != nil {
			return err
		}
	}
	totals := billing.Calculate(lines)

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(totals)
	}

	locale, currency := in.Locale, in.Currency
	if locale == "" {
		locale = settings.DefaultLocale
	}
	if currency == "" {
		currency = settings.DefaultCurrency
	}
	f, err := money.NewFormatter(locale, currency)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	for _, tl := range totals.Breakdown {
		fmt.Fprintf(tw, "VAT %s\ton %s\t%s\t\n", f.Rate(tl.Rate), f.Format(tl.Base), f.Format(tl.Tax))
	}
	fmt.Fprintf(tw, "Total excl. tax\t\t%s\t\n", f.Format(totals.TotalExclTax))
	fmt.Fprintf(tw, "Total tax\t\t%s\t\n", f.Format(totals.TotalTax))
	fmt.Fprintf(tw, "Total incl. tax\t\t%s\t\n", f.Format(totals.TotalInclTax))
	return tw.Flush()
}

func init() {
	totalsCmd.Flags().BoolVar(&totalsJSON, "json", false, "print exact totals as JSON")
}
