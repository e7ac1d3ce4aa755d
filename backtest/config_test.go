package backtest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuildExitStrategy(t *testing.T) {
	for _, name := range ExitStrategyNames() {
		s, err := BuildExitStrategy(name, nil)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if s.Name() != name {
			t.Fatalf("built %q, asked for %q", s.Name(), name)
		}
	}
	if _, err := BuildExitStrategy("martingale", nil); err == nil {
		t.Fatal("unknown strategy must fail")
	}
}

func TestBuildExitStrategyAppliesParams(t *testing.T) {
	s, err := BuildExitStrategy("atr_trailing", map[string]any{"stop_pct": 0.12, "max_hold_days": 30})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	trail := s.(*TrailingATRExit)
	p := trail.Params()
	if p.StopPct != 0.12 || p.MaxHoldDays != 30 {
		t.Fatalf("params not applied: %+v", p)
	}
	// Untouched fields keep their defaults.
	if p.ActivatePct != 5 || p.ATRPeriod != 14 {
		t.Fatalf("defaults lost: %+v", p)
	}
}

func TestLoadRunConfig(t *testing.T) {
	raw := `
backtest:
  start: "2024-01-02"
  end: "2024-06-28"
  initial_capital: 50000
  max_positions: 3
  position_pct: 0.25
  symbols: [AAPL, MSFT]
exit:
  type: scaled
  params:
    slice_pct: 0.2
`
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadRunConfig(path, &stubBars{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.InitialCapital != 50000 || cfg.MaxPositions != 3 || cfg.PositionPct != 0.25 {
		t.Fatalf("backtest section: %+v", cfg)
	}
	if len(cfg.Symbols) != 2 {
		t.Fatalf("symbols: %v", cfg.Symbols)
	}
	if cfg.Exit.Name() != "scaled" {
		t.Fatalf("exit strategy = %s, want scaled", cfg.Exit.Name())
	}
	if got := cfg.Exit.(*ScaledExit).Params().SlicePct; got != 0.2 {
		t.Fatalf("slice pct = %.2f, want 0.2", got)
	}
	if cfg.Signal == nil {
		t.Fatal("default signal source not wired")
	}
	if cfg.Start.IsZero() || cfg.End.Before(cfg.Start) {
		t.Fatalf("date range: %s..%s", cfg.Start, cfg.End)
	}
}

func TestLoadRunConfigRejectsUnknownTypes(t *testing.T) {
	raw := "exit:\n  type: fibonacci\n"
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadRunConfig(path, &stubBars{}); err == nil {
		t.Fatal("unknown exit type must fail")
	}
}
