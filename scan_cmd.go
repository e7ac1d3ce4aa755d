package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"swing/backtest"
	"swing/config"
	"swing/internal/report"
	"swing/trading"
)

func runScan(appCfg *config.Config, dateStr string, asJSON bool) error {
	asOf := time.Now().In(trading.ET)
	if dateStr != "" {
		t, err := time.ParseInLocation("2006-01-02", dateStr, trading.ET)
		if err != nil {
			return fmt.Errorf("invalid scan date %q: %w", dateStr, err)
		}
		asOf = t
	}

	bars := newBarSource(appCfg)
	src := backtest.NewPullbackScanner(bars, appCfg.Symbols, backtest.PullbackParams{})

	rep, err := backtest.BuildScanReport(src, asOf)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	report.RenderScan(os.Stdout, rep)
	return nil
}
