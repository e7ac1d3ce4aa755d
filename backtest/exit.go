package backtest

import (
	"swing/indicators"
)

// Exit reason codes carried on ExitSignal and into Trade records.
const (
	ReasonHardStop     = "hard_stop"
	ReasonTrailingStop = "trailing_stop"
	ReasonTrendBreak   = "trend_break"
	ReasonMomentumFade = "momentum_fade"
	ReasonTimeStop     = "time_stop"
	ReasonForceClose   = "force_close_end"

	// Scale-out tags; the numeric suffix is the level index.
	ReasonScale1 = "SCALE_1"
	ReasonScale2 = "SCALE_2"
	ReasonScale3 = "SCALE_3"
)

func scaleReason(level int) string {
	switch level {
	case 0:
		return ReasonScale1
	case 1:
		return ReasonScale2
	default:
		return ReasonScale3
	}
}

func closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// lastATR is the final ATR value over a daily bar window, 0 when the window
// is too short to compute one.
func lastATR(bars []Bar, period int) float64 {
	if len(bars) < period+1 {
		return 0
	}
	high := make([]float64, len(bars))
	low := make([]float64, len(bars))
	cl := make([]float64, len(bars))
	for i, b := range bars {
		high[i], low[i], cl[i] = b.High, b.Low, b.Close
	}
	v := indicators.Last(indicators.ATR(high, low, cl, period))
	if !indicators.Valid(v) {
		return 0
	}
	return v
}

// lastSMA is the final close SMA over a daily bar window, 0 when too short.
func lastSMA(bars []Bar, period int) float64 {
	if len(bars) < period {
		return 0
	}
	v := indicators.Last(indicators.SMA(closes(bars), period))
	if !indicators.Valid(v) {
		return 0
	}
	return v
}

// trailTiers holds the tightening schedule shared by the trailing strategies:
// a wide ATR multiple early, a tight one once the trade works, and a flat
// percent band once it is well in profit.
type trailTiers struct {
	TightenPct   float64 // profit pct where the trail narrows to the tight ATR multiple
	FlatPct      float64 // profit pct where the trail becomes a flat percent of the peak
	WideATRMult  float64
	TightATRMult float64
	FlatTrailPct float64 // e.g. 0.05 for a 5% band
}

// trailLevel computes the current trail line for a peak close and profit, and
// ratchets it through the position state so the line never loosens.
func trailLevel(st *ExitState, entry, atr float64, t trailTiers) float64 {
	peak := st.HighestClose
	profitPct := (peak - entry) / entry * 100

	var dist float64
	switch {
	case profitPct >= t.FlatPct:
		dist = peak * t.FlatTrailPct
	case profitPct >= t.TightenPct:
		dist = t.TightATRMult * atr
	default:
		dist = t.WideATRMult * atr
	}
	if dist <= 0 {
		// no usable ATR yet; fall back to the flat band so the trail exists
		dist = peak * t.FlatTrailPct
	}
	if level := peak - dist; level > st.TrailLevel {
		st.TrailLevel = level
	}
	return st.TrailLevel
}

func profitPct(entry, price float64) float64 {
	if entry <= 0 {
		return 0
	}
	return (price - entry) / entry * 100
}

// observeClose advances the close-tracking state shared by every strategy:
// peak close ratchets up, previous close follows the day just evaluated.
func observeClose(st *ExitState, price float64) {
	if price > st.HighestClose {
		st.HighestClose = price
	}
	st.BarsHeld++
}

// dayBar returns the most recent bar in the window, which the runner
// guarantees is the bar for the day under evaluation.
func dayBar(bars []Bar) (Bar, bool) {
	if len(bars) == 0 {
		return Bar{}, false
	}
	return bars[len(bars)-1], true
}
