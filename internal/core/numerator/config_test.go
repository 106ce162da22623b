package numerator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		prefix string
		seq    int64
		want   string
	}{
		{"D", 7, "D-00007"},
		{"D", 1, "D-00001"},
		{"F", 42, "F-00042"},
		{"F", 123456, "F-123456"},
		{"DEV-2026", 3, "DEV-2026-00003"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.prefix, tt.seq))
			assert.Equal(t, tt.want, Number{Prefix: tt.prefix, Sequence: tt.seq}.String())
		})
	}
}

func TestParse(t *testing.T) {
	n, err := Parse("DEV-2026-00003")
	require.NoError(t, err)
	assert.Equal(t, Number{Prefix: "DEV-2026", Sequence: 3}, n)

	for _, bad := range []string{"", "D", "-00001", "D-", "D-abc", "D-00000"} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("Devis")
	require.NoError(t, err)
	assert.Equal(t, CategoryQuote, c)

	c, err = ParseCategory("invoice")
	require.NoError(t, err)
	assert.Equal(t, CategoryInvoice, c)

	_, err = ParseCategory("receipt")
	assert.Error(t, err)
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyStrict, s)

	s, err = ParseStrategy("deferred")
	require.NoError(t, err)
	assert.Equal(t, StrategyDeferred, s)

	_, err = ParseStrategy("cached")
	assert.Error(t, err)
}
