package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromFile(t *testing.T) {
	raw := `
data:
  provider: Alpaca
  symbols: [aapl, " msft ", ""]
server:
  port: 8080
results:
  history_path: /tmp/runs.json
`
	path := filepath.Join(t.TempDir(), "app.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Provider != ProviderAlpaca {
		t.Fatalf("provider = %s", cfg.Provider)
	}
	if cfg.Port != 8080 || cfg.HistoryPath != "/tmp/runs.json" {
		t.Fatalf("server/results: %+v", cfg)
	}
	if len(cfg.Symbols) != 2 || cfg.Symbols[0] != "AAPL" || cfg.Symbols[1] != "MSFT" {
		t.Fatalf("symbols not normalized: %v", cfg.Symbols)
	}
}

func TestLoadFromFileRejectsUnknownProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	if err := os.WriteFile(path, []byte("data:\n  provider: bloomberg\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Fatal("unknown provider must fail")
	}
}

func TestGetConfigEnvOverrides(t *testing.T) {
	t.Setenv("SWING_PROVIDER", "alpaca")
	t.Setenv("SWING_SYMBOLS", "tsla,nvda")

	cfg := GetConfig("")
	if cfg.Provider != ProviderAlpaca {
		t.Fatalf("provider = %s", cfg.Provider)
	}
	if len(cfg.Symbols) != 2 || cfg.Symbols[0] != "TSLA" {
		t.Fatalf("symbols = %v", cfg.Symbols)
	}
}

func TestGetConfigDefaults(t *testing.T) {
	t.Setenv("SWING_PROVIDER", "")
	t.Setenv("SWING_SYMBOLS", "")

	cfg := GetConfig("")
	if cfg.Provider != ProviderStooq {
		t.Fatalf("default provider = %s", cfg.Provider)
	}
	if len(cfg.Symbols) == 0 || cfg.Port != 19530 {
		t.Fatalf("defaults: %+v", cfg)
	}
}
