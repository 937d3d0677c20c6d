package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSplitGrossZeroRate(t *testing.T) {
	for _, raw := range []string{"0", "1", "119.00", "0.01", "99999.99"} {
		gross := decimal.RequireFromString(raw)
		net, tax := SplitGross(gross, decimal.Zero)

		assert.True(t, net.Equal(gross), "net should equal gross for %s", raw)
		assert.True(t, tax.IsZero(), "tax should be zero for %s", raw)
	}
}

func TestSplitGrossStandardRate(t *testing.T) {
	net, tax := SplitGross(decimal.RequireFromString("119.00"), decimal.NewFromInt(19))

	assert.Equal(t, "100.00", net.StringFixed(2))
	assert.Equal(t, "19.00", tax.StringFixed(2))
}

func TestSplitGrossRounding(t *testing.T) {
	// 100 / 1.19 = 84.0336... -> net 84.03, tax carries the remainder
	net, tax := SplitGross(decimal.NewFromInt(100), decimal.NewFromInt(19))

	assert.Equal(t, "84.03", net.StringFixed(2))
	assert.Equal(t, "15.97", tax.StringFixed(2))
}

func TestSplitGrossPreservesGross(t *testing.T) {
	cases := []struct {
		gross string
		rate  int64
	}{
		{"119.00", 19},
		{"0.01", 19},
		{"1.00", 7},
		{"12345.67", 20},
		{"0.03", 25},
	}
	for _, tc := range cases {
		gross := decimal.RequireFromString(tc.gross)
		net, tax := SplitGross(gross, decimal.NewFromInt(tc.rate))

		// The charged amount must survive decomposition exactly.
		assert.True(t, net.Add(tax).Equal(gross), "net+tax must equal gross for %s @ %d%%", tc.gross, tc.rate)
		assert.False(t, net.IsNegative())
	}
}

func TestSplitGrossReducedRate(t *testing.T) {
	net, tax := SplitGross(decimal.RequireFromString("107.00"), decimal.NewFromInt(7))

	assert.Equal(t, "100.00", net.StringFixed(2))
	assert.Equal(t, "7.00", tax.StringFixed(2))
}
