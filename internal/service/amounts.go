package service

import "github.com/shopspring/decimal"

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)

// SplitGross decomposes a tax-inclusive gross amount into net and tax for a
// percent rate. The net is rounded to 2 decimal places, half away from zero;
// the tax is the exact remainder so that net + tax always reproduces the
// gross amount that was actually charged.
func SplitGross(gross, ratePercent decimal.Decimal) (net, tax decimal.Decimal) {
	if ratePercent.IsZero() {
		return gross, decimal.Zero
	}
	divisor := one.Add(ratePercent.Div(hundred))
	net = gross.Div(divisor).Round(2)
	tax = gross.Sub(net)
	return net, tax
}
