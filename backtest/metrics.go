package backtest

import (
	"encoding/json"
	"io"
)

// profitFactorCap stands in for the +Inf of a lossless run.
const profitFactorCap = 999

// Results is the aggregate handed back across the core's boundary. Computed
// once at the end of a run, never mutated after construction.
type Results struct {
	Strategy       string  `json:"strategy"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	StartCapital   float64 `json:"start_capital"`
	FinalEquity    float64 `json:"final_equity"`
	TotalReturnPct float64 `json:"total_return_pct"`

	TotalTrades  int     `json:"total_trades"`
	Winners      int     `json:"winners"`
	Losers       int     `json:"losers"`
	WinRatePct   float64 `json:"win_rate_pct"`
	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"`
	ProfitFactor float64 `json:"profit_factor"`
	Expectancy   float64 `json:"expectancy"`
	AvgRMultiple float64 `json:"avg_r_multiple"`

	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	DataGaps       int     `json:"data_gaps,omitempty"`
	EntryFallbacks int     `json:"entry_fallbacks,omitempty"`

	Trades      []Trade   `json:"trades"`
	EquityCurve []float64 `json:"equity_curve"`
}

func computeResults(closed []*Position, equity []float64, cfg RunConfig) *Results {
	trades := make([]Trade, 0, len(closed))
	for _, p := range closed {
		trades = append(trades, p.ToTrade())
	}

	res := &Results{
		Strategy:     cfg.Exit.Name(),
		StartDate:    cfg.Start.Format("2006-01-02"),
		EndDate:      cfg.End.Format("2006-01-02"),
		StartCapital: round2(cfg.InitialCapital),
		Trades:       trades,
		EquityCurve:  equity,
		TotalTrades:  len(trades),
	}

	final := cfg.InitialCapital
	if len(equity) > 0 {
		final = equity[len(equity)-1]
	}
	res.FinalEquity = round2(final)
	if cfg.InitialCapital > 0 {
		res.TotalReturnPct = round2((final - cfg.InitialCapital) / cfg.InitialCapital * 100)
	}

	var grossProfit, grossLoss, pnlSum, rSum float64
	rCount := 0
	for i, t := range trades {
		pnlSum += t.PnL
		if t.PnL > 0 {
			res.Winners++
			grossProfit += t.PnL
		} else if t.PnL < 0 {
			res.Losers++
			grossLoss += -t.PnL
		}
		// only trades with a positive initial risk carry a meaningful R
		if p := closed[i]; p.EntryPrice-p.InitialStop > 0 {
			rSum += t.RMultiple
			rCount++
		}
	}
	if len(trades) > 0 {
		res.WinRatePct = round2(float64(res.Winners) / float64(len(trades)) * 100)
		res.Expectancy = round2(pnlSum / float64(len(trades)))
	}
	if res.Winners > 0 {
		res.AvgWin = round2(grossProfit / float64(res.Winners))
	}
	if res.Losers > 0 {
		res.AvgLoss = round2(grossLoss / float64(res.Losers))
	}
	switch {
	case grossLoss > 0:
		pf := grossProfit / grossLoss
		if pf > profitFactorCap {
			pf = profitFactorCap
		}
		res.ProfitFactor = round2(pf)
	case grossProfit > 0:
		res.ProfitFactor = profitFactorCap
	default:
		res.ProfitFactor = 0
	}
	if rCount > 0 {
		res.AvgRMultiple = round2(rSum / float64(rCount))
	}
	res.MaxDrawdownPct = round2(MaxDrawdownPct(equity))
	return res
}

// MaxDrawdownPct is the largest peak-to-trough percentage decline of an
// equity curve, tracked against a running peak.
func MaxDrawdownPct(equity []float64) float64 {
	peak := 0.0
	maxDD := 0.0
	for _, eq := range equity {
		if eq > peak {
			peak = eq
		}
		if peak > 0 {
			if dd := (peak - eq) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD * 100
}

// WriteResultsJSON serializes one run's results as indented JSON.
func WriteResultsJSON(w io.Writer, res *Results) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
