package backtest

import (
	"log"
	"sort"
	"time"

	"swing/indicators"
	"swing/trading"
)

// PullbackParams configures the deep-pullback entry detector.
type PullbackParams struct {
	TrendPeriod int     `yaml:"trend_period" json:"trend_period"` // daily SMA gate
	EMAPeriod   int     `yaml:"ema_period" json:"ema_period"`     // intraday pullback EMA
	ATRPeriod   int     `yaml:"atr_period" json:"atr_period"`
	MinStrength float64 `yaml:"min_strength" json:"min_strength"` // reversal body strength gate
	StopATRMult float64 `yaml:"stop_atr_mult" json:"stop_atr_mult"`

	// Evaluation window, exchange-local wall clock.
	WindowStartHour   int `yaml:"window_start_hour" json:"window_start_hour"`
	WindowStartMinute int `yaml:"window_start_minute" json:"window_start_minute"`
	WindowEndHour     int `yaml:"window_end_hour" json:"window_end_hour"`
	WindowEndMinute   int `yaml:"window_end_minute" json:"window_end_minute"`
}

func (p PullbackParams) withDefaults() PullbackParams {
	if p.TrendPeriod <= 0 {
		p.TrendPeriod = 200
	}
	if p.EMAPeriod <= 0 {
		p.EMAPeriod = 20
	}
	if p.ATRPeriod <= 0 {
		p.ATRPeriod = 14
	}
	if p.MinStrength <= 0 {
		p.MinStrength = 0.60
	}
	if p.StopATRMult <= 0 {
		p.StopATRMult = 1.2
	}
	if p.WindowStartHour == 0 && p.WindowStartMinute == 0 {
		p.WindowStartHour = 10
	}
	if p.WindowEndHour == 0 && p.WindowEndMinute == 0 {
		p.WindowEndHour, p.WindowEndMinute = 10, 30
	}
	return p
}

func (p PullbackParams) window() trading.ClockRange {
	return trading.ClockRange{
		StartHour:   p.WindowStartHour,
		StartMinute: p.WindowStartMinute,
		EndHour:     p.WindowEndHour,
		EndMinute:   p.WindowEndMinute,
	}
}

// Non-signal reasons, one per gate. Diagnostics only, never control flow.
const (
	NoSignalTrendFilter  = "trend filter failed"
	NoSignalEmptyWindow  = "empty evaluation window"
	NoSignalNoPullback   = "no pullback below EMA"
	NoSignalNoReversal   = "no reversal above EMA"
	NoSignalWeakReversal = "reversal too weak"
	NoSignalConfirmation = "confirmation failed"
	NoSignalNoEntryBar   = "no entry bar after confirmation"
	NoSignalNoATR        = "insufficient bars for ATR"
)

// Detection is the detector's single immutable per-day result.
type Detection struct {
	Detected   bool
	Reason     string // non-signal gate reason when Detected is false
	EntryIndex int
	EntryPrice float64
	StopPrice  float64
	ATR        float64
	Strength   float64 // reversal body strength, (close-low)/(high-low)
}

func noSignal(reason string) Detection {
	return Detection{Detected: false, Reason: reason}
}

// DetectPullback runs the six ordered gates of the deep-pullback pattern over
// one day's intraday bars. prior carries the previous session's bars so the
// EMA and ATR are already warm when the evaluation window opens; with the
// default EMA-20 on five-minute bars a cold start cannot produce a valid EMA
// before the window closes. trendLevel is the long-horizon daily trend value
// (e.g. the 200-period SMA computed from bars strictly before this day).
// Every gate reads bars strictly after the evaluation point; no gate uses a
// bar's own close to decide an entry on that bar.
func DetectPullback(prior, day []Bar, trendLevel float64, params PullbackParams) Detection {
	p := params.withDefaults()
	if len(day) == 0 {
		return noSignal(NoSignalEmptyWindow)
	}

	// 1. Trend filter: day must open above the long-horizon trend.
	if !indicators.Valid(trendLevel) || day[0].Open <= trendLevel {
		return noSignal(NoSignalTrendFilter)
	}

	// 2. Window filter.
	win := p.window()
	var winIdx []int
	for i, b := range day {
		if win.Contains(b.Time) {
			winIdx = append(winIdx, i)
		}
	}
	if len(winIdx) == 0 {
		return noSignal(NoSignalEmptyWindow)
	}

	// Indicators run over the prior session plus today; day bar i sits at
	// offset off+i in the combined series.
	all := make([]Bar, 0, len(prior)+len(day))
	all = append(all, prior...)
	all = append(all, day...)
	off := len(prior)
	ema := indicators.EMA(closes(all), p.EMAPeriod)

	// 3. Pullback: first window bar closing below the EMA.
	pullback := -1
	for _, i := range winIdx {
		if indicators.Valid(ema[off+i]) && day[i].Close < ema[off+i] {
			pullback = i
			break
		}
	}
	if pullback < 0 {
		return noSignal(NoSignalNoPullback)
	}

	// 4. Reversal: first later window bar back above the EMA with a strong
	// body. Weak wicks that cross the EMA are rejected here.
	reversal := -1
	strength := 0.0
	crossed := false
	for _, i := range winIdx {
		if i <= pullback {
			continue
		}
		if !indicators.Valid(ema[off+i]) || day[i].Close <= ema[off+i] {
			continue
		}
		crossed = true
		s := bodyStrength(day[i])
		if s > p.MinStrength {
			reversal = i
			strength = s
			break
		}
	}
	if reversal < 0 {
		if crossed {
			return noSignal(NoSignalWeakReversal)
		}
		return noSignal(NoSignalNoReversal)
	}

	// 5. Confirmation: the single next bar must also close above the EMA,
	// otherwise the reversal was a one-bar whipsaw.
	conf := reversal + 1
	if conf >= len(day) {
		return noSignal(NoSignalConfirmation)
	}
	if !indicators.Valid(ema[off+conf]) || day[conf].Close <= ema[off+conf] {
		return noSignal(NoSignalConfirmation)
	}

	// 6. Entry setup: the bar after confirmation, looked up in the full day,
	// supplies the entry open; ATR comes from the bars before it.
	entryIdx := conf + 1
	if entryIdx >= len(day) {
		return noSignal(NoSignalNoEntryBar)
	}
	atr := lastATR(all[:off+entryIdx], p.ATRPeriod)
	if atr <= 0 {
		return noSignal(NoSignalNoATR)
	}
	entry := day[entryIdx].Open
	stop := entry - p.StopATRMult*atr
	if stop >= entry || stop <= 0 {
		return noSignal(NoSignalNoATR)
	}
	return Detection{
		Detected:   true,
		EntryIndex: entryIdx,
		EntryPrice: entry,
		StopPrice:  stop,
		ATR:        atr,
		Strength:   strength,
	}
}

// bodyStrength measures where the close sits in the bar's range; 1.0 means a
// close on the high.
func bodyStrength(b Bar) float64 {
	if b.High <= b.Low {
		return 0
	}
	return (b.Close - b.Low) / (b.High - b.Low)
}

// PullbackScanner exposes the detector as a SignalSource over a symbol list.
type PullbackScanner struct {
	bars    BarSource
	symbols []string
	p       PullbackParams
	cons    ConsolidationParams
}

func NewPullbackScanner(bars BarSource, symbols []string, p PullbackParams) *PullbackScanner {
	return &PullbackScanner{
		bars:    bars,
		symbols: symbols,
		p:       p.withDefaults(),
		cons:    ConsolidationParams{}.withDefaults(),
	}
}

// Scan runs the detector for every configured symbol on the given day and
// returns detected candidates sorted best-first. Symbols with missing or thin
// data are skipped with a logged gap, never an error.
func (s *PullbackScanner) Scan(asOf time.Time) ([]Candidate, error) {
	var out []Candidate
	for _, sym := range s.symbols {
		daily, err := s.bars.DailyBars(sym, asOf.AddDate(-2, 0, 0), asOf.AddDate(0, 0, -1))
		if err != nil {
			log.Printf("[SCAN] %s %s: daily bars: %v", sym, asOf.Format("2006-01-02"), err)
			continue
		}
		if len(daily) < s.p.TrendPeriod {
			continue
		}
		trend := indicators.Last(indicators.SMA(closes(daily), s.p.TrendPeriod))

		day, err := s.bars.IntradayBars(sym, asOf)
		if err != nil {
			log.Printf("[SCAN] %s %s: intraday bars: %v", sym, asOf.Format("2006-01-02"), err)
			continue
		}
		det := DetectPullback(s.priorSession(sym, asOf), day, trend, s.p)
		if !det.Detected {
			continue
		}

		score := det.Strength * 10
		based, rangePct := HasConsolidationBase(daily, s.cons)
		if based {
			score += 1
		}
		if score > 10 {
			score = 10
		}
		cand := Candidate{
			Symbol:     sym,
			Date:       asOf,
			Score:      round2(score),
			EntryPrice: det.EntryPrice,
			StopPrice:  det.StopPrice,
			Target:     det.EntryPrice + 2*(det.EntryPrice-det.StopPrice),
			Data: map[string]float64{
				"strength":  round4(det.Strength),
				"atr":       round4(det.ATR),
				"trend_sma": round4(trend),
				"base_pct":  round4(rangePct),
			},
		}
		if err := cand.Validate(); err != nil {
			return nil, err
		}
		out = append(out, cand)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

// priorSession fetches the previous trading day's intraday bars to warm the
// detector's indicators. A source without them degrades to a cold start, which
// the detector reports as a no-signal day rather than an error.
func (s *PullbackScanner) priorSession(sym string, asOf time.Time) []Bar {
	bars, err := s.bars.IntradayBars(sym, trading.PrevTradingDay(asOf))
	if err != nil {
		return nil
	}
	return bars
}
