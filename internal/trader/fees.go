package trader

import "github.com/shopspring/decimal"

// feePrecision is the fractional-digit scale fees are rounded to.
const feePrecision = 8

// CalcFee computes a proportional fee on notional, rounded to 8 fractional
// digits half-to-even. A non-positive rate yields zero.
func CalcFee(feeRate, notional decimal.Decimal) decimal.Decimal {
	if feeRate.Sign() <= 0 {
		return decimal.Zero
	}
	return notional.Mul(feeRate).RoundBank(feePrecision)
}
