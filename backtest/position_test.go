package backtest

import (
	"errors"
	"testing"
	"time"
)

func TestNewPositionRejectsBadInputs(t *testing.T) {
	day := testDay(2024, time.March, 4)
	cases := []struct {
		name   string
		entry  float64
		shares int64
		stop   float64
	}{
		{"zero shares", 100, 0, 92},
		{"negative shares", 100, -5, 92},
		{"zero entry", 0, 10, -1},
		{"stop at entry", 100, 10, 100},
		{"stop above entry", 100, 10, 105},
	}
	for _, tc := range cases {
		if _, err := NewPosition("TEST", day, tc.entry, tc.shares, tc.stop); !errors.Is(err, ErrInvariant) {
			t.Errorf("%s: expected invariant error, got %v", tc.name, err)
		}
	}
}

func TestRaiseStopNeverLoosens(t *testing.T) {
	day := testDay(2024, time.March, 4)
	pos := mustPosition(t, 100, 10, 92, day)

	pos.RaiseStop(95)
	if pos.StopPrice != 95 {
		t.Fatalf("stop = %.2f, want 95", pos.StopPrice)
	}
	pos.RaiseStop(90)
	if pos.StopPrice != 95 {
		t.Fatalf("stop loosened to %.2f", pos.StopPrice)
	}
	if pos.InitialStop != 92 {
		t.Fatalf("initial stop must stay at entry-time value, got %.2f", pos.InitialStop)
	}
}

func TestPartialExitAccounting(t *testing.T) {
	day := testDay(2024, time.March, 4)
	pos := mustPosition(t, 100, 400, 92, day)

	if err := pos.ApplyPartialExit(day.AddDate(0, 0, 1), 100, 108, ReasonScale1); err != nil {
		t.Fatalf("partial: %v", err)
	}
	if pos.Shares != 300 || pos.OriginalShares != 400 {
		t.Fatalf("shares after partial: %d/%d", pos.Shares, pos.OriginalShares)
	}
	if err := pos.checkShares(); err != nil {
		t.Fatalf("checkShares: %v", err)
	}
	if !almostEq(pos.RealizedPnL(), 800) {
		t.Fatalf("realized = %.2f, want 800", pos.RealizedPnL())
	}

	// Overselling the remainder is a hard failure.
	if err := pos.ApplyPartialExit(day.AddDate(0, 0, 2), 301, 110, ReasonScale2); !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected invariant error, got %v", err)
	}

	// The final slice closes the trade with the slice's reason.
	if err := pos.ApplyPartialExit(day.AddDate(0, 0, 2), 300, 110, ReasonScale2); err != nil {
		t.Fatalf("final slice: %v", err)
	}
	if pos.Open() {
		t.Fatal("position should be closed after the last slice")
	}
	if pos.ExitReason != ReasonScale2 || pos.ExitPrice != 110 {
		t.Fatalf("close record: %s at %.2f", pos.ExitReason, pos.ExitPrice)
	}
	if err := pos.checkShares(); err != nil {
		t.Fatalf("checkShares after close: %v", err)
	}
}

func TestCloseTwiceFails(t *testing.T) {
	day := testDay(2024, time.March, 4)
	pos := mustPosition(t, 100, 10, 92, day)
	if err := pos.Close(day.AddDate(0, 0, 1), 105, ReasonTimeStop); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := pos.Close(day.AddDate(0, 0, 2), 106, ReasonTimeStop); !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected invariant error on double close, got %v", err)
	}
}

func TestObserveBarTracksExcursions(t *testing.T) {
	day := testDay(2024, time.March, 4)
	pos := mustPosition(t, 100, 10, 92, day)
	if pos.Observed() {
		t.Fatal("fresh position should not be observed")
	}

	pos.ObserveBar(dailyBar(day.AddDate(0, 0, 1), 101, 110, 95, 104))
	if !pos.Observed() {
		t.Fatal("position should be observed after a bar")
	}
	if !almostEq(pos.MFEPct, 10) || !almostEq(pos.MAEPct, -5) {
		t.Fatalf("MFE/MAE = %.2f/%.2f, want 10/-5", pos.MFEPct, pos.MAEPct)
	}
	if pos.LastPrice != 104 {
		t.Fatalf("last price = %.2f, want 104", pos.LastPrice)
	}

	// A quieter bar never shrinks the excursions.
	pos.ObserveBar(dailyBar(day.AddDate(0, 0, 2), 104, 105, 103, 104.5))
	if !almostEq(pos.MFEPct, 10) || !almostEq(pos.MAEPct, -5) {
		t.Fatalf("excursions shrank: %.2f/%.2f", pos.MFEPct, pos.MAEPct)
	}
}

func TestToTradeRMultiple(t *testing.T) {
	day := testDay(2024, time.March, 4)
	pos := mustPosition(t, 100, 10, 95, day)
	if err := pos.Close(day.AddDate(0, 0, 3), 110, ReasonTimeStop); err != nil {
		t.Fatalf("close: %v", err)
	}
	tr := pos.ToTrade()
	// Risk 5/share, gain 10/share.
	if tr.RMultiple != 2 {
		t.Fatalf("R = %.2f, want 2", tr.RMultiple)
	}
	if tr.ReturnPct != 10 {
		t.Fatalf("return = %.2f%%, want 10", tr.ReturnPct)
	}
	if tr.DaysHeld != 3 {
		t.Fatalf("days held = %d, want 3", tr.DaysHeld)
	}
}
