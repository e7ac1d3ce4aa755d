package backtest

import "time"

// TrailingATRParams configures the full-exit swing strategy. Zero values take
// the defaults below so YAML configs only need to name what they sweep.
type TrailingATRParams struct {
	StopPct         float64 `yaml:"stop_pct" json:"stop_pct"`                   // initial stop distance below entry
	ActivatePct     float64 `yaml:"activate_pct" json:"activate_pct"`           // peak profit pct that arms the trail
	TightenPct      float64 `yaml:"tighten_pct" json:"tighten_pct"`             // profit pct where trail narrows
	FlatPct         float64 `yaml:"flat_pct" json:"flat_pct"`                   // profit pct where trail goes flat-percent
	WideATRMult     float64 `yaml:"wide_atr_mult" json:"wide_atr_mult"`
	TightATRMult    float64 `yaml:"tight_atr_mult" json:"tight_atr_mult"`
	FlatTrailPct    float64 `yaml:"flat_trail_pct" json:"flat_trail_pct"`
	TrendBreakPct   float64 `yaml:"trend_break_pct" json:"trend_break_pct"`     // profit ceiling for the trend-break cut
	TrendSMAPeriod  int     `yaml:"trend_sma_period" json:"trend_sma_period"`
	ATRPeriod       int     `yaml:"atr_period" json:"atr_period"`
	MaxHoldDays     int     `yaml:"max_hold_days" json:"max_hold_days"`
}

func (p TrailingATRParams) withDefaults() TrailingATRParams {
	if p.StopPct <= 0 {
		p.StopPct = 0.08
	}
	if p.ActivatePct <= 0 {
		p.ActivatePct = 5
	}
	if p.TightenPct <= 0 {
		p.TightenPct = 10
	}
	if p.FlatPct <= 0 {
		p.FlatPct = 15
	}
	if p.WideATRMult <= 0 {
		p.WideATRMult = 2
	}
	if p.TightATRMult <= 0 {
		p.TightATRMult = 1
	}
	if p.FlatTrailPct <= 0 {
		p.FlatTrailPct = 0.05
	}
	if p.TrendBreakPct <= 0 {
		p.TrendBreakPct = 3
	}
	if p.TrendSMAPeriod <= 0 {
		p.TrendSMAPeriod = 5
	}
	if p.ATRPeriod <= 0 {
		p.ATRPeriod = 14
	}
	if p.MaxHoldDays <= 0 {
		p.MaxHoldDays = 17
	}
	return p
}

// TrailingATRExit is the primary full-exit strategy: a hard stop on the
// intraday low, a progressively tightening close-based trailing stop, a
// trend-break cut for trades that never get going, a momentum-fade exit for
// winners that stall, and a time stop.
type TrailingATRExit struct {
	p TrailingATRParams
}

func NewTrailingATRExit(p TrailingATRParams) *TrailingATRExit {
	return &TrailingATRExit{p: p.withDefaults()}
}

func (s *TrailingATRExit) Name() string               { return "atr_trailing" }
func (s *TrailingATRExit) SupportsPartialExits() bool { return false }

func (s *TrailingATRExit) Params() TrailingATRParams { return s.p }

func (s *TrailingATRExit) InitialStop(entry float64) float64 {
	return entry * (1 - s.p.StopPct)
}

// CheckExit evaluates the exit chain in fixed priority order, risk checks
// first. The hard stop fills at the stop price off the intraday low; every
// other check compares closes only.
func (s *TrailingATRExit) CheckExit(p *Position, price float64, day time.Time, bars []Bar) ExitSignal {
	bar, ok := dayBar(bars)
	if !ok {
		return NoExit()
	}
	st := &p.State
	observeClose(st, price)
	prevClose := st.PrevClose
	st.PrevClose = price

	// 1. Hard stop: intraday low through the stop fills at the stop price.
	if bar.Low <= p.StopPrice {
		return FullExit(ReasonHardStop, p.StopPrice)
	}

	peakProfit := profitPct(p.EntryPrice, st.HighestClose)
	curProfit := profitPct(p.EntryPrice, price)

	// 2. Trailing stop, armed once the trade has worked by ActivatePct.
	if peakProfit >= s.p.ActivatePct {
		atr := lastATR(bars, s.p.ATRPeriod)
		level := trailLevel(st, p.EntryPrice, atr, trailTiers{
			TightenPct:   s.p.TightenPct,
			FlatPct:      s.p.FlatPct,
			WideATRMult:  s.p.WideATRMult,
			TightATRMult: s.p.TightATRMult,
			FlatTrailPct: s.p.FlatTrailPct,
		})
		if price <= level {
			return FullExit(ReasonTrailingStop, price)
		}
	}

	// 3. Trend break: cut trades that stall below the short average before
	// they turn into losers. Suppressed once comfortably profitable.
	if curProfit < s.p.TrendBreakPct {
		if sma := lastSMA(bars, s.p.TrendSMAPeriod); sma > 0 && price < sma {
			return FullExit(ReasonTrendBreak, price)
		}
	}

	// 4. Momentum fade: a down close after the trail is armed.
	if peakProfit >= s.p.ActivatePct && price < prevClose {
		return FullExit(ReasonMomentumFade, price)
	}

	// 5. Time stop.
	if int(day.Sub(p.EntryDate).Hours()/24) >= s.p.MaxHoldDays {
		return FullExit(ReasonTimeStop, price)
	}

	return NoExit()
}
