package entities

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVenueQuoteOutput(t *testing.T) {
	q := &VenueQuote{OutputAmount: "67.5"}
	out, ok := q.Output()
	require.True(t, ok)
	assert.True(t, out.Equal(decimal.RequireFromString("67.5")))

	for _, bad := range []string{"", "0", "-1", "abc"} {
		q := &VenueQuote{OutputAmount: bad}
		_, ok := q.Output()
		assert.False(t, ok, "output %q should be unusable", bad)
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[string]string{
		"67.5":        "67.500000",
		"0.1234567":   "0.123457",
		"40":          "40.000000",
		"0.000000049": "0.000000",
	}
	for in, want := range cases {
		got := FormatAmount(decimal.RequireFromString(in))
		assert.Equal(t, want, got, "input %s", in)
	}
}
