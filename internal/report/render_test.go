package report

import (
	"bytes"
	"strings"
	"testing"

	"swing/backtest"
)

func sampleResults() *backtest.Results {
	return &backtest.Results{
		Strategy:       "atr_trailing",
		StartDate:      "2024-01-02",
		EndDate:        "2024-06-28",
		StartCapital:   100000,
		FinalEquity:    108500,
		TotalReturnPct: 8.5,
		TotalTrades:    2,
		Winners:        1,
		Losers:         1,
		WinRatePct:     50,
		ProfitFactor:   1.8,
		Trades: []backtest.Trade{
			{Symbol: "AAPL", EntryDate: "2024-02-05", ExitDate: "2024-02-20", EntryPrice: 180, ExitPrice: 195, PnL: 1500, RMultiple: 1.04, ExitReason: "trailing_stop"},
			{Symbol: "NVDA", EntryDate: "2024-03-11", ExitDate: "2024-03-13", EntryPrice: 850, ExitPrice: 800, PnL: -500, RMultiple: -0.73, ExitReason: "hard_stop", Partials: 1},
		},
	}
}

func TestRenderResults(t *testing.T) {
	var buf bytes.Buffer
	RenderResults(&buf, sampleResults())
	out := buf.String()

	for _, want := range []string{"atr_trailing", "AAPL", "NVDA", "trailing_stop", "hard_stop (+1 partials)", "win rate"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRenderResultsEmptyRun(t *testing.T) {
	var buf bytes.Buffer
	res := sampleResults()
	res.Trades = nil
	res.TotalTrades = 0
	RenderResults(&buf, res)
	if strings.Contains(buf.String(), "reason") {
		t.Error("trade table should be omitted for an empty run")
	}
}

func TestRenderScan(t *testing.T) {
	var buf bytes.Buffer
	RenderScan(&buf, &backtest.ScanReport{
		Date: "2024-03-05",
		Candidates: []backtest.Candidate{
			{Symbol: "MSFT", Score: 8.33, EntryPrice: 410.2, StopPrice: 402.1, Target: 426.4, Data: map[string]float64{"strength": 0.8333}},
		},
	})
	out := buf.String()
	if !strings.Contains(out, "MSFT") || !strings.Contains(out, "2024-03-05") {
		t.Fatalf("scan output: %s", out)
	}

	buf.Reset()
	RenderScan(&buf, &backtest.ScanReport{Date: "2024-03-06"})
	if !strings.Contains(buf.String(), "no setups") {
		t.Fatal("empty scan should say so")
	}
}

func TestPlainStripsANSI(t *testing.T) {
	in := "\033[32m+8.50%\033[0m done"
	if got := Plain(in); got != "+8.50% done" {
		t.Fatalf("plain = %q", got)
	}
}
