package backtest

// ConsolidationParams tunes the sideways-base check used to bump candidate
// scores: a tight recent range suggests a breakout has room to run.
type ConsolidationParams struct {
	Lookback    int     `yaml:"lookback" json:"lookback"`
	MaxRangePct float64 `yaml:"max_range_pct" json:"max_range_pct"`
}

func (p ConsolidationParams) withDefaults() ConsolidationParams {
	if p.Lookback <= 0 {
		p.Lookback = 20
	}
	if p.MaxRangePct <= 0 {
		p.MaxRangePct = 0.10
	}
	return p
}

// HasConsolidationBase reports whether the trailing daily bars form a
// low-volatility base, along with the observed range as a fraction of its
// midpoint.
func HasConsolidationBase(daily []Bar, params ConsolidationParams) (bool, float64) {
	p := params.withDefaults()
	if len(daily) < p.Lookback {
		return false, 0
	}
	window := daily[len(daily)-p.Lookback:]
	hi := window[0].High
	lo := window[0].Low
	for _, b := range window[1:] {
		if b.High > hi {
			hi = b.High
		}
		if b.Low < lo {
			lo = b.Low
		}
	}
	mid := (hi + lo) / 2
	if mid <= 0 || hi <= lo {
		return false, 0
	}
	rangePct := (hi - lo) / mid
	return rangePct <= p.MaxRangePct, rangePct
}
