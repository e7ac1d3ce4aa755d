package backtest

import (
	"os"
	"path/filepath"
	"testing"
)

func sampleResults(t *testing.T) *Results {
	t.Helper()
	pos := closedPosition(t, 100, 10, 92, 110)
	return computeResults([]*Position{pos}, []float64{100_000, 100_100}, resultsConfig())
}

func TestResultsHistoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "history.json")

	// Missing file is an empty history.
	items, err := LoadResultsHistory(path)
	if err != nil || items != nil {
		t.Fatalf("missing file: items=%v err=%v", items, err)
	}

	res := sampleResults(t)
	if err := AppendResultsHistory(path, res); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := AppendResultsHistory(path, res); err != nil {
		t.Fatalf("second append: %v", err)
	}

	items, err = LoadResultsHistory(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("history length = %d, want 2", len(items))
	}
	if items[0].Strategy != res.Strategy || items[0].TotalTrades != 1 {
		t.Fatalf("round trip lost fields: %+v", items[0])
	}
}

func TestLoadResultsHistoryPlainArray(t *testing.T) {
	// Files written before the version wrapper are bare arrays.
	path := filepath.Join(t.TempDir(), "history.json")
	raw := `[{"strategy":"atr_trailing","total_trades":4,"start_date":"2024-01-02","end_date":"2024-06-28"}]`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	items, err := LoadResultsHistory(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(items) != 1 || items[0].TotalTrades != 4 {
		t.Fatalf("plain array: %+v", items)
	}
}

func TestLoadResultsHistoryEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("  \n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	items, err := LoadResultsHistory(path)
	if err != nil || items != nil {
		t.Fatalf("empty file: items=%v err=%v", items, err)
	}
}
