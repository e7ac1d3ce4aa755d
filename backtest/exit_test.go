package backtest

import (
	"testing"
	"time"

	"swing/trading"
)

// testDay returns a trading-day timestamp in exchange-local time.
func testDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 16, 0, 0, 0, trading.ET)
}

// dailyBar builds one synthetic daily bar closing at 16:00 local.
func dailyBar(day time.Time, o, h, l, c float64) Bar {
	return Bar{Time: day, Open: o, High: h, Low: l, Close: c, Volume: 1_000_000}
}

// flatHistory produces n identical daily bars ending the day before `day`,
// enough to keep SMA/ATR lookups quiet in exit tests.
func flatHistory(day time.Time, n int, price float64) []Bar {
	out := make([]Bar, 0, n)
	for i := n; i > 0; i-- {
		out = append(out, dailyBar(day.AddDate(0, 0, -i), price, price, price, price))
	}
	return out
}

func almostEq(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}

func mustPosition(t *testing.T, entry float64, shares int64, stop float64, day time.Time) *Position {
	t.Helper()
	p, err := NewPosition("TEST", day, entry, shares, stop)
	if err != nil {
		t.Fatalf("NewPosition: %v", err)
	}
	return p
}

func TestExitSignalValidate(t *testing.T) {
	cases := []struct {
		name    string
		sig     ExitSignal
		wantErr bool
	}{
		{"no exit", NoExit(), false},
		{"full exit", FullExit(ReasonHardStop, 92), false},
		{"partial exit", PartialExitSignal(ReasonScale1, 108, 0.25), false},
		{"non-exit with price", ExitSignal{Exit: false, Price: 10}, true},
		{"exit without reason", ExitSignal{Exit: true, Price: 10, Percent: 1}, true},
		{"exit with zero price", ExitSignal{Exit: true, Reason: ReasonTimeStop, Percent: 1}, true},
		{"exit with bad percent", ExitSignal{Exit: true, Reason: ReasonTimeStop, Price: 10, Percent: 1.5}, true},
	}
	for _, tc := range cases {
		err := tc.sig.Validate()
		if tc.wantErr && err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
		}
	}
}

func TestTrailLevelRatchets(t *testing.T) {
	st := &ExitState{HighestClose: 110}
	tiers := trailTiers{TightenPct: 10, FlatPct: 15, WideATRMult: 2, TightATRMult: 1, FlatTrailPct: 0.05}

	// 10% profit on entry 100: tight tier, 1x ATR below the peak.
	level := trailLevel(st, 100, 3, tiers)
	if level != 107 {
		t.Fatalf("tight tier level = %.2f, want 107", level)
	}

	// Peak falls back; the ratchet keeps the old line.
	st.HighestClose = 108
	if got := trailLevel(st, 100, 3, tiers); got != 107 {
		t.Fatalf("ratchet broke: level = %.2f, want 107", got)
	}

	// Deep profit switches to the flat percent band.
	st.HighestClose = 120
	level = trailLevel(st, 100, 3, tiers)
	if !almostEq(level, 114) {
		t.Fatalf("flat tier level = %.2f, want 114", level)
	}
}

func TestTrailLevelNoATRFallsBackToFlatBand(t *testing.T) {
	st := &ExitState{HighestClose: 106}
	tiers := trailTiers{TightenPct: 10, FlatPct: 15, WideATRMult: 2, TightATRMult: 1, FlatTrailPct: 0.05}
	level := trailLevel(st, 100, 0, tiers)
	want := 106 - 106*0.05
	if !almostEq(level, want) {
		t.Fatalf("fallback level = %.4f, want %.4f", level, want)
	}
}

func TestLastATRWindowTooShort(t *testing.T) {
	day := testDay(2024, time.March, 5)
	bars := flatHistory(day, 10, 100)
	if got := lastATR(bars, 14); got != 0 {
		t.Fatalf("lastATR on short window = %.4f, want 0", got)
	}
}

func TestScaleReasonTags(t *testing.T) {
	if scaleReason(0) != ReasonScale1 || scaleReason(1) != ReasonScale2 || scaleReason(2) != ReasonScale3 {
		t.Fatal("scale reason tags do not follow level order")
	}
}
