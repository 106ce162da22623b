package money

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatter_English(t *testing.T) {
	f := MustFormatter("en-US", "USD")

	assert.Equal(t, "USD", f.Currency())
	assert.Equal(t, "1,234.50", f.Number(decimal.RequireFromString("1234.5")))
	out := f.Format(decimal.RequireFromString("1234.5"))
	assert.True(t, strings.HasSuffix(out, "1,234.50"), out)
	assert.NotEqual(t, "1,234.50", out, "symbol comes first")

	neg := f.Format(decimal.NewFromInt(-3))
	assert.True(t, strings.HasPrefix(neg, "-"), neg)
	assert.True(t, strings.HasSuffix(neg, "3.00"), neg)
	assert.Equal(t, "20%", f.Rate(decimal.NewFromInt(20)))
	assert.Equal(t, "5.5%", f.Rate(decimal.RequireFromString("5.5")))
}

func TestFormatter_French(t *testing.T) {
	f := MustFormatter("fr-FR", "EUR")

	out := f.Format(decimal.RequireFromString("1234.5"))
	assert.Contains(t, out, "234,50")
	assert.Contains(t, out, "€")
	assert.NotContains(t, out, ".")
	assert.Contains(t, f.Rate(decimal.RequireFromString("5.5")), "5,5")
}

func TestFormatter_RoundsHalfAwayFromZero(t *testing.T) {
	f := MustFormatter("en-US", "EUR")

	assert.Equal(t, "0.13", f.Number(decimal.RequireFromString("0.125")))
	assert.Equal(t, "-0.13", f.Number(decimal.RequireFromString("-0.125")))
	assert.Equal(t, "10.00", f.Number(decimal.RequireFromString("9.999")))
}

func TestNewFormatter_Invalid(t *testing.T) {
	_, err := NewFormatter("fr-FR", "EURO")
	require.Error(t, err)

	_, err = NewFormatter("not a locale!", "EUR")
	require.Error(t, err)
}
