package indicators

import "math"

// SMA returns the trailing simple moving average aligned to the input length,
// with NaN for the first period-1 warmup points.
func SMA(x []float64, period int) []float64 {
	if period <= 0 {
		return nil
	}
	out := make([]float64, len(x))
	var sum float64
	for i := range x {
		sum += x[i]
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		if i >= period {
			sum -= x[i-period]
		}
		out[i] = sum / float64(period)
	}
	return out
}

// EMA seeds with the first period-sample SMA, then applies the standard
// recurrence with smoothing 2/(period+1). NaN for warmup points.
func EMA(x []float64, period int) []float64 {
	if period <= 0 {
		return nil
	}
	out := make([]float64, len(x))
	if len(x) < period {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	k := 2.0 / float64(period+1)
	var seed float64
	for i := 0; i < period; i++ {
		seed += x[i]
		if i < period-1 {
			out[i] = math.NaN()
		}
	}
	out[period-1] = seed / float64(period)
	for i := period; i < len(x); i++ {
		out[i] = (x[i]-out[i-1])*k + out[i-1]
	}
	return out
}

// TrueRange per bar: max(high-low, |high-prevClose|, |low-prevClose|).
// The first bar has no previous close, so its true range is high-low.
func TrueRange(high, low, close []float64) []float64 {
	n := len(high)
	if n == 0 || len(low) != n || len(close) != n {
		return nil
	}
	out := make([]float64, n)
	out[0] = high[0] - low[0]
	for i := 1; i < n; i++ {
		tr := high[i] - low[i]
		if d := math.Abs(high[i] - close[i-1]); d > tr {
			tr = d
		}
		if d := math.Abs(low[i] - close[i-1]); d > tr {
			tr = d
		}
		out[i] = tr
	}
	return out
}

// ATR is the trailing period-sample mean of true range (mean variant, not the
// Wilder EMA). NaN for the first period-1 points.
func ATR(high, low, close []float64, period int) []float64 {
	return SMA(TrueRange(high, low, close), period)
}

// Last returns the final value of a series, or NaN when the series is empty.
func Last(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return x[len(x)-1]
}

// Valid reports whether v is a usable indicator value (not NaN/Inf).
func Valid(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
