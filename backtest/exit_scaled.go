package backtest

import "time"

// ScaledExitParams configures the scale-out strategy: fixed slices of the
// original size are taken at successive profit milestones, the remainder runs
// under the trailing logic.
type ScaledExitParams struct {
	StopPct      float64   `yaml:"stop_pct" json:"stop_pct"`
	Levels       []float64 `yaml:"levels" json:"levels"`           // profit fractions, ascending (0.08 = +8%)
	SlicePct     float64   `yaml:"slice_pct" json:"slice_pct"`     // fraction of original shares per level
	ActivatePct  float64   `yaml:"activate_pct" json:"activate_pct"`
	TightenPct   float64   `yaml:"tighten_pct" json:"tighten_pct"`
	FlatPct      float64   `yaml:"flat_pct" json:"flat_pct"`
	WideATRMult  float64   `yaml:"wide_atr_mult" json:"wide_atr_mult"`
	TightATRMult float64   `yaml:"tight_atr_mult" json:"tight_atr_mult"`
	FlatTrailPct float64   `yaml:"flat_trail_pct" json:"flat_trail_pct"`
	ATRPeriod    int       `yaml:"atr_period" json:"atr_period"`
	MaxHoldDays  int       `yaml:"max_hold_days" json:"max_hold_days"`
}

func (p ScaledExitParams) withDefaults() ScaledExitParams {
	if p.StopPct <= 0 {
		p.StopPct = 0.08
	}
	if len(p.Levels) == 0 {
		p.Levels = []float64{0.08, 0.15, 0.25}
	}
	if p.SlicePct <= 0 || p.SlicePct >= 1 {
		p.SlicePct = 0.25
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
	if p.ATRPeriod <= 0 {
		p.ATRPeriod = 14
	}
	if p.MaxHoldDays <= 0 {
		p.MaxHoldDays = 17
	}
	return p
}

// ScaledExit books partial profits at fixed milestones and lets the remainder
// run: hard stop and trailing stop still protect the open shares, the stop
// moves to breakeven after the second slice, and the trend-break/momentum
// cuts are deliberately absent so the runner is governed by the trail alone.
type ScaledExit struct {
	p ScaledExitParams
}

func NewScaledExit(p ScaledExitParams) *ScaledExit {
	return &ScaledExit{p: p.withDefaults()}
}

func (s *ScaledExit) Name() string               { return "scaled" }
func (s *ScaledExit) SupportsPartialExits() bool { return true }

func (s *ScaledExit) Params() ScaledExitParams { return s.p }

func (s *ScaledExit) InitialStop(entry float64) float64 {
	return entry * (1 - s.p.StopPct)
}

func (s *ScaledExit) CheckExit(p *Position, price float64, day time.Time, bars []Bar) ExitSignal {
	bar, ok := dayBar(bars)
	if !ok {
		return NoExit()
	}
	st := &p.State
	observeClose(st, price)
	st.PrevClose = price

	// 1. Hard stop on the remaining shares.
	if bar.Low <= p.StopPrice {
		return FullExit(ReasonHardStop, p.StopPrice)
	}

	// 2. Trailing stop on the remainder once armed.
	if profitPct(p.EntryPrice, st.HighestClose) >= s.p.ActivatePct {
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

	// 3. Next unfired scale level. One slice per day at most; levels left
	// behind by a gap fire on the following days while price holds.
	if st.ScalesFired < len(s.p.Levels) {
		lvl := s.p.Levels[st.ScalesFired]
		if price >= p.EntryPrice*(1+lvl) {
			fired := st.ScalesFired
			st.ScalesFired++
			if fired+1 >= 2 {
				// breakeven stop after the second slice
				p.RaiseStop(p.EntryPrice)
			}
			return PartialExitSignal(scaleReason(fired), price, s.p.SlicePct)
		}
	}

	// 4. Time stop.
	if int(day.Sub(p.EntryDate).Hours()/24) >= s.p.MaxHoldDays {
		return FullExit(ReasonTimeStop, price)
	}

	return NoExit()
}
