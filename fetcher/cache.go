package fetcher

import (
	"sync"
	"time"

	"swing/backtest"
)

type dailySeries struct {
	start, end time.Time
	bars       []backtest.Bar
}

// Cache memoizes a BarSource. Daily series are kept per symbol with their
// covered range; a request outside the range refetches the union so the
// cached window only ever grows. Intraday days are cached individually.
// Safe for concurrent use.
type Cache struct {
	src backtest.BarSource

	mu       sync.RWMutex
	daily    map[string]*dailySeries
	intraday map[string][]backtest.Bar
}

func NewCache(src backtest.BarSource) *Cache {
	return &Cache{
		src:      src,
		daily:    make(map[string]*dailySeries),
		intraday: make(map[string][]backtest.Bar),
	}
}

// Preload warms the daily cache for every symbol over [start, end]. Failures
// are returned per the first symbol that errors; already-loaded symbols stay.
func (c *Cache) Preload(symbols []string, start, end time.Time) error {
	for _, sym := range symbols {
		if _, err := c.DailyBars(sym, start, end); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache) DailyBars(symbol string, start, end time.Time) ([]backtest.Bar, error) {
	c.mu.RLock()
	s, ok := c.daily[symbol]
	if ok && !start.Before(s.start) && !end.After(s.end) {
		out := clip(s.bars, start, end)
		c.mu.RUnlock()
		return out, nil
	}
	c.mu.RUnlock()

	// Miss or partial coverage: fetch the union of the old and new ranges.
	fetchStart, fetchEnd := start, end
	if ok {
		if s.start.Before(fetchStart) {
			fetchStart = s.start
		}
		if s.end.After(fetchEnd) {
			fetchEnd = s.end
		}
	}
	bars, err := c.src.DailyBars(symbol, fetchStart, fetchEnd)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.daily[symbol] = &dailySeries{start: fetchStart, end: fetchEnd, bars: bars}
	c.mu.Unlock()
	return clip(bars, start, end), nil
}

func (c *Cache) IntradayBars(symbol string, day time.Time) ([]backtest.Bar, error) {
	key := symbol + "|" + day.Format("2006-01-02")

	c.mu.RLock()
	bars, ok := c.intraday[key]
	c.mu.RUnlock()
	if ok {
		return bars, nil
	}

	bars, err := c.src.IntradayBars(symbol, day)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.intraday[key] = bars
	c.mu.Unlock()
	return bars, nil
}
