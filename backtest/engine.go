package backtest

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"swing/trading"
)

// Runner replays a trading-day calendar against one signal source and one
// exit strategy, sharing a single capital pool across every open position.
// Processing is strictly sequential: one day's exits, then entries, then the
// equity snapshot, before the next day begins. The runner is the sole writer
// of position and cash state.
type Runner struct {
	bars BarSource
}

func NewRunner(bars BarSource) *Runner {
	return &Runner{bars: bars}
}

func (cfg RunConfig) validate() error {
	if cfg.Signal == nil {
		return fmt.Errorf("run config: no signal source")
	}
	if cfg.Exit == nil {
		return fmt.Errorf("run config: no exit strategy")
	}
	if cfg.InitialCapital <= 0 {
		return fmt.Errorf("run config: initial capital %.2f", cfg.InitialCapital)
	}
	if cfg.MaxPositions <= 0 {
		return fmt.Errorf("run config: max positions %d", cfg.MaxPositions)
	}
	if cfg.PositionPct <= 0 || cfg.PositionPct > 1 {
		return fmt.Errorf("run config: position pct %.4f", cfg.PositionPct)
	}
	if cfg.Start.IsZero() || cfg.End.IsZero() || cfg.End.Before(cfg.Start) {
		return fmt.Errorf("run config: bad date range %s..%s",
			cfg.Start.Format("2006-01-02"), cfg.End.Format("2006-01-02"))
	}
	return nil
}

// Run executes the full simulation. Data gaps degrade gracefully and are
// counted; invariant violations abort immediately with the underlying error.
func (r *Runner) Run(cfg RunConfig) (*Results, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	lookback := cfg.LookbackDays
	if lookback <= 0 {
		lookback = 90
	}

	cash := cfg.InitialCapital
	var open []*Position
	held := make(map[string]bool)
	var closedPositions []*Position
	var equity []float64
	gaps := 0
	forced := 0

	days := trading.Days(cfg.Start, cfg.End)
	for _, day := range days {
		// Exits first, so entries below size against post-exit cash.
		var still []*Position
		for _, pos := range open {
			bars, err := r.bars.DailyBars(pos.Symbol, day.AddDate(0, 0, -lookback), day)
			if err != nil || len(bars) == 0 || !trading.SameDay(bars[len(bars)-1].Time, day) {
				// no bar for this position today; state is retained
				gaps++
				still = append(still, pos)
				continue
			}
			today := bars[len(bars)-1]
			pos.ObserveBar(today)

			sig := cfg.Exit.CheckExit(pos, today.Close, day, bars)
			if err := sig.Validate(); err != nil {
				return nil, fmt.Errorf("strategy %s: %w", cfg.Exit.Name(), err)
			}
			if sig.Exit {
				if err := r.applyExit(pos, sig, day, &cash); err != nil {
					return nil, err
				}
				if err := pos.checkShares(); err != nil {
					return nil, err
				}
			}
			if pos.Open() {
				still = append(still, pos)
			} else {
				closedPositions = append(closedPositions, pos)
				delete(held, pos.Symbol)
			}
		}
		open = still

		// Entries, best candidates first, sized from current cash.
		if len(open) < cfg.MaxPositions {
			cands, err := cfg.Signal.Scan(day)
			if err != nil {
				if errors.Is(err, ErrInvariant) {
					return nil, err
				}
				gaps++
				log.Printf("[RUN] %s: scan: %v", day.Format("2006-01-02"), err)
				cands = nil
			}
			for _, c := range cands {
				if len(open) >= cfg.MaxPositions {
					break
				}
				if held[c.Symbol] {
					continue
				}
				if err := c.Validate(); err != nil {
					return nil, err
				}
				shares := shareCount(cash, cfg.PositionPct, c.EntryPrice)
				if shares <= 0 {
					// sizing degeneracy; skip the candidate for today
					continue
				}
				stop := cfg.Exit.InitialStop(c.EntryPrice)
				pos, err := NewPosition(c.Symbol, day, c.EntryPrice, shares, stop)
				if err != nil {
					return nil, fmt.Errorf("strategy %s: %w", cfg.Exit.Name(), err)
				}
				cash -= c.EntryPrice * float64(shares)
				open = append(open, pos)
				held[c.Symbol] = true
			}
		}

		// Equity snapshot: cash plus mark-to-market of whatever is open.
		eq := cash
		for _, pos := range open {
			eq += pos.MarketValue()
		}
		equity = append(equity, eq)
	}

	// Force-close whatever is left at the last known price; positions that
	// never saw a bar fall back to their entry price, explicitly counted.
	if len(days) > 0 {
		last := days[len(days)-1]
		for _, pos := range open {
			price := pos.LastPrice
			if !pos.Observed() || price <= 0 {
				price = pos.EntryPrice
				forced++
				log.Printf("[RUN] force close %s at entry price: no market data seen", pos.Symbol)
			}
			shares := pos.Shares
			if err := pos.Close(last, price, ReasonForceClose); err != nil {
				return nil, err
			}
			cash += price * float64(shares)
			closedPositions = append(closedPositions, pos)
		}
		open = nil
	}

	res := computeResults(closedPositions, equity, cfg)
	res.DataGaps = gaps
	res.EntryFallbacks = forced
	return res, nil
}

// applyExit settles one triggered signal against the position and the shared
// cash pool. Partial percents are fractions of the original share count; a
// partial that meets or exceeds the remainder becomes a full close at the
// same price and reason.
func (r *Runner) applyExit(pos *Position, sig ExitSignal, day time.Time, cash *float64) error {
	if sig.Percent >= 1 {
		shares := pos.Shares
		if err := pos.Close(day, sig.Price, sig.Reason); err != nil {
			return err
		}
		*cash += sig.Price * float64(shares)
		return nil
	}
	shares := int64(math.Floor(sig.Percent * float64(pos.OriginalShares)))
	if shares <= 0 {
		// position too small to slice; nothing sold today
		return nil
	}
	if shares >= pos.Shares {
		shares = pos.Shares
	}
	if err := pos.ApplyPartialExit(day, shares, sig.Price, sig.Reason); err != nil {
		return err
	}
	*cash += sig.Price * float64(shares)
	return nil
}
