package backtest

import (
	"fmt"
	"time"
)

// PartialExit records one scale-out: how many shares left at what price and why.
type PartialExit struct {
	Date   string  `json:"date"`
	Shares int64   `json:"shares"`
	Price  float64 `json:"price"`
	Reason string  `json:"reason"`
}

// ExitState is the per-position scratch space an exit strategy carries across
// days. One typed struct replaces the loose field bag: ratchet fields only
// ever move one direction through their setters below.
type ExitState struct {
	HighestClose float64
	PrevClose    float64
	TrailLevel   float64
	BarsHeld     int
	ScalesFired  int // count of scale-out levels already taken
}

// Position is one open or closed trade. Mutate only through methods so the
// share-count and stop invariants hold at every step.
type Position struct {
	Symbol         string
	EntryDate      time.Time
	EntryPrice     float64
	Shares         int64 // remaining
	OriginalShares int64
	StopPrice      float64 // hard stop; ratchets toward entry, never loosens
	InitialStop    float64

	ExitDate   time.Time
	ExitPrice  float64
	ExitReason string

	MFEPct float64 // best unrealized profit percent seen
	MAEPct float64 // worst unrealized drawdown percent seen

	LastPrice float64 // last known close, for mark-to-market and force close
	Partials  []PartialExit
	State     ExitState

	realized float64 // P&L banked by partial exits
	observed bool    // at least one daily bar seen since entry
}

// NewPosition opens a trade. The stop must sit below the entry and the share
// count must be positive; anything else is a fatal strategy bug.
func NewPosition(symbol string, date time.Time, entry float64, shares int64, stop float64) (*Position, error) {
	if shares <= 0 {
		return nil, fmt.Errorf("%w: position %s with %d shares", ErrInvariant, symbol, shares)
	}
	if entry <= 0 {
		return nil, fmt.Errorf("%w: position %s with entry %.4f", ErrInvariant, symbol, entry)
	}
	if stop >= entry {
		return nil, fmt.Errorf("%w: position %s stop %.4f >= entry %.4f", ErrInvariant, symbol, stop, entry)
	}
	return &Position{
		Symbol:         symbol,
		EntryDate:      date,
		EntryPrice:     entry,
		Shares:         shares,
		OriginalShares: shares,
		StopPrice:      stop,
		InitialStop:    stop,
		LastPrice:      entry,
		State:          ExitState{HighestClose: entry, PrevClose: entry},
	}, nil
}

// Open reports whether the position still holds shares.
func (p *Position) Open() bool { return p.Shares > 0 }

// RaiseStop ratchets the hard stop upward. Lower values are ignored so a
// trailing rule can never loosen protection.
func (p *Position) RaiseStop(stop float64) {
	if stop > p.StopPrice {
		p.StopPrice = stop
	}
}

// ObserveBar updates excursion tracking and the last known price from one
// daily bar. MFE uses the high, MAE the low, both as percent of entry.
func (p *Position) ObserveBar(b Bar) {
	if p.EntryPrice <= 0 {
		return
	}
	if mfe := (b.High - p.EntryPrice) / p.EntryPrice * 100; mfe > p.MFEPct {
		p.MFEPct = mfe
	}
	if mae := (b.Low - p.EntryPrice) / p.EntryPrice * 100; mae < p.MAEPct {
		p.MAEPct = mae
	}
	p.LastPrice = b.Close
	p.observed = true
}

// Observed reports whether any daily bar arrived after entry; force closes on
// never-observed positions fall back to the entry price.
func (p *Position) Observed() bool { return p.observed }

// ApplyPartialExit banks a scale-out of the given share count.
func (p *Position) ApplyPartialExit(date time.Time, shares int64, price float64, reason string) error {
	if shares <= 0 || shares > p.Shares {
		return fmt.Errorf("%w: partial exit of %d shares with %d remaining (%s)", ErrInvariant, shares, p.Shares, p.Symbol)
	}
	if price <= 0 {
		return fmt.Errorf("%w: partial exit price %.4f (%s)", ErrInvariant, price, p.Symbol)
	}
	p.Shares -= shares
	p.realized += (price - p.EntryPrice) * float64(shares)
	p.Partials = append(p.Partials, PartialExit{
		Date:   date.Format("2006-01-02"),
		Shares: shares,
		Price:  price,
		Reason: reason,
	})
	if p.Shares == 0 {
		// last slice closed the trade
		p.ExitDate = date
		p.ExitPrice = price
		p.ExitReason = reason
	}
	return nil
}

// Close liquidates all remaining shares.
func (p *Position) Close(date time.Time, price float64, reason string) error {
	if p.Shares <= 0 {
		return fmt.Errorf("%w: closing already-closed position %s", ErrInvariant, p.Symbol)
	}
	if price <= 0 {
		return fmt.Errorf("%w: close price %.4f (%s)", ErrInvariant, price, p.Symbol)
	}
	p.realized += (price - p.EntryPrice) * float64(p.Shares)
	p.Shares = 0
	p.ExitDate = date
	p.ExitPrice = price
	p.ExitReason = reason
	return nil
}

// RealizedPnL is the banked profit across partials and the final close.
func (p *Position) RealizedPnL() float64 { return p.realized }

// MarketValue marks the remaining shares at the last known price.
func (p *Position) MarketValue() float64 {
	return float64(p.Shares) * p.LastPrice
}

// checkShares verifies original = remaining + sum(partials) while the
// position is open. A full Close retires the remainder outside the partial
// records, so the check only applies before one.
func (p *Position) checkShares() error {
	if p.ExitReason != "" && len(p.Partials) == 0 {
		return nil
	}
	var sold int64
	for _, pe := range p.Partials {
		sold += pe.Shares
	}
	if p.ExitReason != "" && p.Shares == 0 {
		// closed by the final partial slice or by Close after partials
		if sold > p.OriginalShares {
			return fmt.Errorf("%w: %s partials %d exceed original %d", ErrInvariant, p.Symbol, sold, p.OriginalShares)
		}
		return nil
	}
	if p.Shares+sold != p.OriginalShares {
		return fmt.Errorf("%w: %s shares %d + partials %d != original %d", ErrInvariant, p.Symbol, p.Shares, sold, p.OriginalShares)
	}
	return nil
}

// ToTrade flattens a closed position into its reporting record.
func (p *Position) ToTrade() Trade {
	retPct := 0.0
	if p.EntryPrice > 0 && p.OriginalShares > 0 {
		retPct = p.realized / (p.EntryPrice * float64(p.OriginalShares)) * 100
	}
	r := 0.0
	if risk := p.EntryPrice - p.InitialStop; risk > 0 && p.OriginalShares > 0 {
		r = (p.realized / float64(p.OriginalShares)) / risk
	}
	days := 0
	if !p.ExitDate.IsZero() {
		days = int(p.ExitDate.Sub(p.EntryDate).Hours() / 24)
	}
	return Trade{
		Symbol:     p.Symbol,
		EntryDate:  p.EntryDate.Format("2006-01-02"),
		EntryPrice: round4(p.EntryPrice),
		ExitDate:   p.ExitDate.Format("2006-01-02"),
		ExitPrice:  round4(p.ExitPrice),
		Shares:     p.OriginalShares,
		PnL:        round2(p.realized),
		ReturnPct:  round2(retPct),
		RMultiple:  round2(r),
		MFEPct:     round2(p.MFEPct),
		MAEPct:     round2(p.MAEPct),
		ExitReason: p.ExitReason,
		Partials:   len(p.Partials),
		DaysHeld:   days,
	}
}
