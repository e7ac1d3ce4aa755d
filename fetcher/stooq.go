package fetcher

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jpillora/backoff"

	"swing/backtest"
	"swing/trading"
)

// ErrNoIntraday marks a source that only serves daily bars. Scanners treat it
// as a data gap for the day, not a failure.
var ErrNoIntraday = errors.New("intraday bars not available from this source")

const stooqBaseURL = "https://stooq.com/q/d/l/"

// StooqFetcher pulls free daily OHLCV history from stooq.com as CSV.
// US tickers are suffixed with ".us" on the wire; callers pass plain symbols.
type StooqFetcher struct {
	client  *http.Client
	baseURL string
	retries int
}

func NewStooqFetcher() *StooqFetcher {
	return &StooqFetcher{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL: stooqBaseURL,
		retries: 3,
	}
}

// DailyBars fetches the symbol's daily series for [start, end].
func (f *StooqFetcher) DailyBars(symbol string, start, end time.Time) ([]backtest.Bar, error) {
	url := fmt.Sprintf("%s?s=%s&d1=%s&d2=%s&i=d",
		f.baseURL,
		strings.ToLower(symbol)+".us",
		start.Format("20060102"),
		end.Format("20060102"),
	)

	body, err := f.get(url)
	if err != nil {
		return nil, fmt.Errorf("stooq %s: %w", symbol, err)
	}
	bars, err := parseStooqCSV(body)
	if err != nil {
		return nil, fmt.Errorf("stooq %s: %w", symbol, err)
	}
	return clip(normalize(bars), start, end), nil
}

// IntradayBars is unsupported; stooq's free feed is end-of-day only.
func (f *StooqFetcher) IntradayBars(symbol string, day time.Time) ([]backtest.Bar, error) {
	return nil, ErrNoIntraday
}

// get performs the request with exponential backoff on transport errors and
// 5xx/429 responses.
func (f *StooqFetcher) get(url string) ([]byte, error) {
	b := &backoff.Backoff{
		Min:    500 * time.Millisecond,
		Max:    10 * time.Second,
		Factor: 2,
		Jitter: true,
	}
	var lastErr error
	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			time.Sleep(b.Duration())
		}
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}
		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			continue
		default:
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}
	}
	return nil, fmt.Errorf("all retries exhausted: %w", lastErr)
}

// parseStooqCSV decodes the Date,Open,High,Low,Close,Volume layout. Rows with
// unparsable numbers are skipped; an all-header response means no data.
func parseStooqCSV(body []byte) ([]backtest.Bar, error) {
	r := csv.NewReader(strings.NewReader(string(body)))
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("empty response")
	}

	var bars []backtest.Bar
	for i, rec := range records {
		if i == 0 && strings.EqualFold(rec[0], "Date") {
			continue
		}
		if len(rec) < 5 {
			continue
		}
		day, err := time.ParseInLocation("2006-01-02", rec[0], trading.ET)
		if err != nil {
			continue
		}
		open, err1 := strconv.ParseFloat(rec[1], 64)
		high, err2 := strconv.ParseFloat(rec[2], 64)
		low, err3 := strconv.ParseFloat(rec[3], 64)
		cls, err4 := strconv.ParseFloat(rec[4], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		var volume int64
		if len(rec) > 5 {
			volume, _ = strconv.ParseInt(rec[5], 10, 64)
		}
		bar := backtest.Bar{
			Time:   day,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  cls,
			Volume: volume,
		}
		if err := backtest.ValidateBar(bar); err != nil {
			continue
		}
		bars = append(bars, bar)
	}
	return bars, nil
}
