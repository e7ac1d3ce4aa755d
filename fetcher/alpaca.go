package fetcher

import (
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"swing/backtest"
	"swing/trading"
)

// AlpacaFetcher serves daily and intraday bars from the Alpaca market data
// API. Credentials come from APCA_API_KEY_ID / APCA_API_SECRET_KEY in the
// environment, which the SDK reads on its own.
type AlpacaFetcher struct {
	client       *marketdata.Client
	intradayMins int
}

func NewAlpacaFetcher() *AlpacaFetcher {
	return &AlpacaFetcher{
		client:       marketdata.NewClient(marketdata.ClientOpts{}),
		intradayMins: 5,
	}
}

func (f *AlpacaFetcher) DailyBars(symbol string, start, end time.Time) ([]backtest.Bar, error) {
	bars, err := f.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca daily %s: %w", symbol, err)
	}
	return clip(normalize(convertBars(bars)), start, end), nil
}

// IntradayBars returns the regular session's five-minute bars for one day.
func (f *AlpacaFetcher) IntradayBars(symbol string, day time.Time) ([]backtest.Bar, error) {
	y, m, d := day.In(trading.ET).Date()
	open := time.Date(y, m, d, trading.MarketHours.StartHour, trading.MarketHours.StartMinute, 0, 0, trading.ET)
	close := time.Date(y, m, d, trading.MarketHours.EndHour, trading.MarketHours.EndMinute, 0, 0, trading.ET)

	bars, err := f.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.NewTimeFrame(f.intradayMins, marketdata.Min),
		Start:     open,
		End:       close,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca intraday %s %s: %w", symbol, day.Format("2006-01-02"), err)
	}
	return normalize(convertBars(bars)), nil
}

// convertBars maps SDK bars into the core's type, with timestamps rendered in
// exchange-local time so calendar comparisons line up.
func convertBars(in []marketdata.Bar) []backtest.Bar {
	out := make([]backtest.Bar, 0, len(in))
	for _, b := range in {
		bar := backtest.Bar{
			Time:   b.Timestamp.In(trading.ET),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: int64(b.Volume),
		}
		if err := backtest.ValidateBar(bar); err != nil {
			continue
		}
		out = append(out, bar)
	}
	return out
}
