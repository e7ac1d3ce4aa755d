package backtest

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvariant marks a data-model invariant violation. These indicate a bug
// in a strategy or in the caller and abort the run instead of being clamped.
var ErrInvariant = errors.New("invariant violation")

// Bar is one immutable OHLCV sample. Created by a BarSource, never mutated.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// ValidateBar checks the OHLCV invariants: low <= open,close <= high, volume >= 0.
func ValidateBar(b Bar) error {
	if b.Low > b.High ||
		b.Open < b.Low || b.Open > b.High ||
		b.Close < b.Low || b.Close > b.High {
		return fmt.Errorf("%w: bar %s OHLC out of range", ErrInvariant, b.Time.Format("2006-01-02 15:04"))
	}
	if b.Volume < 0 {
		return fmt.Errorf("%w: bar %s negative volume", ErrInvariant, b.Time.Format("2006-01-02 15:04"))
	}
	return nil
}

// BarSource delivers ordered, de-duplicated bars for a symbol. Implementations
// live outside the simulation core (see the fetcher package) and may cache or
// retry; the core treats a failed fetch as a data gap for that day.
type BarSource interface {
	// DailyBars returns daily bars with timestamps inside [start, end],
	// strictly chronological, no duplicates.
	DailyBars(symbol string, start, end time.Time) ([]Bar, error)
	// IntradayBars returns one trading day's intraday bars in order.
	IntradayBars(symbol string, day time.Time) ([]Bar, error)
}

// Candidate is an entry opportunity emitted by a SignalSource scan. It is
// consumed immediately by the runner to open a position, or discarded.
type Candidate struct {
	Symbol     string             `json:"symbol"`
	Date       time.Time          `json:"date"`
	Score      float64            `json:"score"` // quality, 0..10
	EntryPrice float64            `json:"entry_price"`
	StopPrice  float64            `json:"stop_price"` // must be < EntryPrice
	Target     float64            `json:"target,omitempty"`
	Data       map[string]float64 `json:"data,omitempty"` // strategy-specific metrics
}

// Validate rejects malformed candidates before they reach the runner.
func (c Candidate) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("%w: candidate without symbol", ErrInvariant)
	}
	if c.EntryPrice <= 0 {
		return fmt.Errorf("%w: candidate %s entry price %.4f", ErrInvariant, c.Symbol, c.EntryPrice)
	}
	if c.StopPrice >= c.EntryPrice {
		return fmt.Errorf("%w: candidate %s stop %.4f >= entry %.4f", ErrInvariant, c.Symbol, c.StopPrice, c.EntryPrice)
	}
	if c.Score < 0 || c.Score > 10 {
		return fmt.Errorf("%w: candidate %s score %.2f outside [0,10]", ErrInvariant, c.Symbol, c.Score)
	}
	return nil
}

// SignalSource produces entry candidates for a trading day, sorted best-first.
// An empty slice means no opportunities that day.
type SignalSource interface {
	Scan(asOf time.Time) ([]Candidate, error)
}

// ExitSignal is the decision an exit strategy returns for one position-day.
type ExitSignal struct {
	Exit    bool
	Reason  string
	Price   float64
	Percent float64 // 1.0 = full exit, (0,1) = partial
}

// Validate enforces the signal shape invariants: a non-exit carries no
// reason/price, a partial never reports percent 1.0.
func (s ExitSignal) Validate() error {
	if !s.Exit {
		if s.Reason != "" || s.Price != 0 || s.Percent != 0 {
			return fmt.Errorf("%w: non-exit signal carries payload", ErrInvariant)
		}
		return nil
	}
	if s.Reason == "" {
		return fmt.Errorf("%w: exit signal without reason", ErrInvariant)
	}
	if s.Price <= 0 {
		return fmt.Errorf("%w: exit signal %q with price %.4f", ErrInvariant, s.Reason, s.Price)
	}
	if s.Percent <= 0 || s.Percent > 1 {
		return fmt.Errorf("%w: exit signal %q with percent %.4f", ErrInvariant, s.Reason, s.Percent)
	}
	return nil
}

// FullExit builds a triggered full-liquidation signal.
func FullExit(reason string, price float64) ExitSignal {
	return ExitSignal{Exit: true, Reason: reason, Price: price, Percent: 1}
}

// PartialExitSignal builds a triggered partial signal; percent is a fraction
// of the position's original share count.
func PartialExitSignal(reason string, price, percent float64) ExitSignal {
	return ExitSignal{Exit: true, Reason: reason, Price: price, Percent: percent}
}

// NoExit is the empty decision.
func NoExit() ExitSignal { return ExitSignal{} }

// ExitStrategy is a per-position exit state machine. CheckExit is called once
// per simulated day per open position and returns at most one triggered exit,
// risk checks before profit checks. State lives in the position's ExitState;
// strategies never share state across positions.
type ExitStrategy interface {
	Name() string
	SupportsPartialExits() bool
	InitialStop(entryPrice float64) float64
	CheckExit(p *Position, price float64, day time.Time, bars []Bar) ExitSignal
}

// Trade is the flat closed-trade record carried in Results.
type Trade struct {
	Symbol     string  `json:"symbol"`
	EntryDate  string  `json:"entry_date"`
	EntryPrice float64 `json:"entry_price"`
	ExitDate   string  `json:"exit_date"`
	ExitPrice  float64 `json:"exit_price"`
	Shares     int64   `json:"shares"` // original size
	PnL        float64 `json:"pnl"`    // realized, all partials included
	ReturnPct  float64 `json:"return_pct"`
	RMultiple  float64 `json:"r_multiple"`
	MFEPct     float64 `json:"mfe_pct"`
	MAEPct     float64 `json:"mae_pct"`
	ExitReason string  `json:"exit_reason"`
	Partials   int     `json:"partials,omitempty"`
	DaysHeld   int     `json:"days_held"`
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
