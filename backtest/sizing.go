package backtest

import "github.com/shopspring/decimal"

// shareCount sizes a new position from current cash:
// floor(fraction * cash / price). Decimal math keeps the floor exact at
// boundary values where float division would land a hair under a whole share.
func shareCount(cash, fraction, price float64) int64 {
	if cash <= 0 || fraction <= 0 || price <= 0 {
		return 0
	}
	target := decimal.NewFromFloat(cash).Mul(decimal.NewFromFloat(fraction))
	return target.Div(decimal.NewFromFloat(price)).Floor().IntPart()
}
