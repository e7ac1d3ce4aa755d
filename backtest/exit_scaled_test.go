package backtest

import (
	"testing"
	"time"
)

func TestScaledExitTakesThreeSlicesThenTrails(t *testing.T) {
	s := NewScaledExit(ScaledExitParams{})
	if !s.SupportsPartialExits() {
		t.Fatal("scaled strategy must report partial-exit support")
	}
	entry := testDay(2024, time.March, 4)
	pos := mustPosition(t, 100, 400, s.InitialStop(100), entry)

	steps := []struct {
		close, low float64
		reason     string
		pct        float64
	}{
		{108, 105, ReasonScale1, 0.25},
		{115, 110, ReasonScale2, 0.25},
		{125, 118, ReasonScale3, 0.25},
	}
	for i, st := range steps {
		day := entry.AddDate(0, 0, i+1)
		sig := s.CheckExit(pos, st.close, day, []Bar{dailyBar(day, st.close, st.close+0.5, st.low, st.close)})
		if !sig.Exit || sig.Reason != st.reason {
			t.Fatalf("step %d: expected %s, got %+v", i, st.reason, sig)
		}
		if sig.Price != st.close || sig.Percent != st.pct {
			t.Fatalf("step %d: slice %.0f%% at %.2f, got %+v", i, st.pct*100, st.close, sig)
		}
		shares := int64(sig.Percent * float64(pos.OriginalShares))
		if err := pos.ApplyPartialExit(day, shares, sig.Price, sig.Reason); err != nil {
			t.Fatalf("step %d: apply partial: %v", i, err)
		}
	}

	// Second slice moves the hard stop to breakeven.
	if pos.StopPrice != 100 {
		t.Fatalf("stop after second slice = %.2f, want breakeven 100", pos.StopPrice)
	}
	if pos.Shares != 100 {
		t.Fatalf("remaining shares = %d, want 100", pos.Shares)
	}

	// The remainder runs under the trail: a close inside the 5% band under
	// the 125 peak ends the trade.
	d4 := entry.AddDate(0, 0, 4)
	sig := s.CheckExit(pos, 118, d4, []Bar{dailyBar(d4, 119, 119, 117, 118)})
	if !sig.Exit || sig.Reason != ReasonTrailingStop {
		t.Fatalf("expected trailing stop on the remainder, got %+v", sig)
	}
	if err := pos.Close(d4, sig.Price, sig.Reason); err != nil {
		t.Fatalf("close: %v", err)
	}

	want := 100*8.0 + 100*15.0 + 100*25.0 + 100*18.0
	if !almostEq(pos.RealizedPnL(), want) {
		t.Fatalf("realized P&L = %.2f, want %.2f", pos.RealizedPnL(), want)
	}
	tr := pos.ToTrade()
	if tr.Partials != 3 || tr.ExitReason != ReasonTrailingStop {
		t.Fatalf("trade record: %+v", tr)
	}
}

func TestScaledExitHardStopBeforeAnySlice(t *testing.T) {
	s := NewScaledExit(ScaledExitParams{})
	entry := testDay(2024, time.March, 4)
	pos := mustPosition(t, 100, 400, s.InitialStop(100), entry)

	day := entry.AddDate(0, 0, 1)
	sig := s.CheckExit(pos, 94, day, []Bar{dailyBar(day, 98, 98, 91, 94)})
	if !sig.Exit || sig.Reason != ReasonHardStop {
		t.Fatalf("expected hard stop, got %+v", sig)
	}
	if !almostEq(sig.Price, 92) {
		t.Fatalf("hard stop fills at %.2f, want 92", sig.Price)
	}
	if pos.State.ScalesFired != 0 {
		t.Fatalf("no slice should have fired, got %d", pos.State.ScalesFired)
	}
}

func TestScaledExitHoldsBelowFirstLevel(t *testing.T) {
	s := NewScaledExit(ScaledExitParams{})
	entry := testDay(2024, time.March, 4)
	pos := mustPosition(t, 100, 400, s.InitialStop(100), entry)

	day := entry.AddDate(0, 0, 1)
	sig := s.CheckExit(pos, 104, day, []Bar{dailyBar(day, 103, 104.5, 102, 104)})
	if sig.Exit {
		t.Fatalf("price below the first level should hold, got %+v", sig)
	}
}
