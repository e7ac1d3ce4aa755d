// Package fetcher supplies market data to the simulation core. Each source
// implements backtest.BarSource; the Cache wrapper memoizes whichever source
// it wraps so a multi-month run does not refetch the same series daily.
package fetcher

import (
	"sort"
	"time"

	"swing/backtest"
)

// normalize sorts bars chronologically and drops same-timestamp duplicates,
// keeping the first occurrence.
func normalize(bars []backtest.Bar) []backtest.Bar {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	out := bars[:0]
	var last time.Time
	for i, b := range bars {
		if i > 0 && b.Time.Equal(last) {
			continue
		}
		out = append(out, b)
		last = b.Time
	}
	return out
}

// clip returns the bars whose timestamps fall inside [start, end].
func clip(bars []backtest.Bar, start, end time.Time) []backtest.Bar {
	var out []backtest.Bar
	for _, b := range bars {
		if b.Time.Before(start) || b.Time.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}
