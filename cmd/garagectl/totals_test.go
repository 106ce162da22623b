package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garageflow/internal/core/numerator"
	"garageflow/internal/domain/billing"
)

const sampleQuote = `{
  "locale": "en-US",
  "currency": "USD",
  "defaultTaxRate": "20",
  "lines": [
    {"designation": "Oil change", "quantity": "1", "unitPriceExclTax": "59.90"},
    {"designation": "", "quantity": "3", "unitPriceExclTax": "1000"},
    {"designation": "Labour", "quantity": "1.5", "unitPriceExclTax": "65"},
    {"designation": "Wiper blades", "quantity": "2", "unitPriceExclTax": "10", "taxRate": "5.5"}
  ]
}`

func TestComputeTotals_JSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, computeTotals(strings.NewReader(sampleQuote), &out, true))

	var got billing.Totals
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))

	assert.True(t, got.TotalExclTax.Equal(decimal.RequireFromString("177.40")), got.TotalExclTax.String())
	assert.True(t, got.TotalTax.Equal(decimal.RequireFromString("32.58")), got.TotalTax.String())
	assert.True(t, got.TotalInclTax.Equal(decimal.RequireFromString("209.98")), got.TotalInclTax.String())
	require.Len(t, got.Breakdown, 2)
	assert.True(t, got.Breakdown[0].Rate.Equal(decimal.RequireFromString("5.5")))
	assert.True(t, got.Breakdown[1].Rate.Equal(decimal.NewFromInt(20)))
}

func TestComputeTotals_Text(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, computeTotals(strings.NewReader(sampleQuote), &out, false))

	text := out.String()
	assert.Contains(t, text, "Total excl. tax")
	assert.Contains(t, text, "177.40")
	assert.Contains(t, text, "209.98")
}

func TestComputeTotals_InvalidLine(t *testing.T) {
	in := `{"lines": [{"designation": "Tyre", "quantity": "-1", "unitPriceExclTax": "80"}]}`

	err := computeTotals(strings.NewReader(in), &bytes.Buffer{}, true)

	assert.Error(t, err)
}

func TestComputeTotals_BadJSON(t *testing.T) {
	err := computeTotals(strings.NewReader("{"), &bytes.Buffer{}, true)

	assert.ErrorContains(t, err, "decode input")
}

func TestCounterTarget(t *testing.T) {
	counterGarage = "0190c5e2-7a3b-7c4d-8e5f-123456789abc"
	counterCategory = "facture"
	t.Cleanup(func() { counterGarage, counterCategory = "", "" })

	garageID, cat, err := counterTarget()

	require.NoError(t, err)
	assert.Equal(t, counterGarage, garageID.String())
	assert.Equal(t, numerator.CategoryInvoice, cat)
}

func TestCounterTarget_InvalidGarage(t *testing.T) {
	counterGarage = "not-a-uuid"
	counterCategory = "quote"
	t.Cleanup(func() { counterGarage, counterCategory = "", "" })

	_, _, err := counterTarget()

	assert.ErrorContains(t, err, "--garage")
}
