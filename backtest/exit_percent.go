package backtest

import "time"

// PercentStopParams configures the baseline strategy.
type PercentStopParams struct {
	StopPct     float64 `yaml:"stop_pct" json:"stop_pct"`
	MaxHoldDays int     `yaml:"max_hold_days" json:"max_hold_days"`
}

func (p PercentStopParams) withDefaults() PercentStopParams {
	if p.StopPct <= 0 {
		p.StopPct = 0.08
	}
	if p.MaxHoldDays <= 0 {
		p.MaxHoldDays = 17
	}
	return p
}

// PercentStopExit is the reference baseline: a fixed-percent hard stop and a
// time stop, nothing else. Useful for isolating what the trailing logic adds.
type PercentStopExit struct {
	p PercentStopParams
}

func NewPercentStopExit(p PercentStopParams) *PercentStopExit {
	return &PercentStopExit{p: p.withDefaults()}
}

func (s *PercentStopExit) Name() string               { return "percent_stop" }
func (s *PercentStopExit) SupportsPartialExits() bool { return false }

func (s *PercentStopExit) InitialStop(entry float64) float64 {
	return entry * (1 - s.p.StopPct)
}

func (s *PercentStopExit) CheckExit(p *Position, price float64, day time.Time, bars []Bar) ExitSignal {
	bar, ok := dayBar(bars)
	if !ok {
		return NoExit()
	}
	st := &p.State
	observeClose(st, price)
	st.PrevClose = price

	if bar.Low <= p.StopPrice {
		return FullExit(ReasonHardStop, p.StopPrice)
	}
	if int(day.Sub(p.EntryDate).Hours()/24) >= s.p.MaxHoldDays {
		return FullExit(ReasonTimeStop, price)
	}
	return NoExit()
}
