package main

import (
	"fmt"
	"log"
	"os"

	"swing/backtest"
	"swing/config"
	"swing/fetcher"
	"swing/internal/report"
)

func runBacktest(appCfg *config.Config, configPath, outPath string) error {
	bars := newBarSource(appCfg)

	cfg, err := backtest.LoadRunConfig(configPath, bars)
	if err != nil {
		return err
	}
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = appCfg.Symbols
		cfg.Signal = backtest.NewPullbackScanner(bars, cfg.Symbols, backtest.PullbackParams{})
	}

	// Warm the daily cache across the whole run plus the trend lookback, so
	// the day loop never refetches.
	if c, ok := bars.(*fetcher.Cache); ok {
		if err := c.Preload(cfg.Symbols, cfg.Start.AddDate(-2, 0, 0), cfg.End); err != nil {
			log.Printf("[DATA] preload: %v (continuing, gaps will be counted)\n", err)
		}
	}

	results, err := backtest.NewRunner(bars).Run(cfg)
	if err != nil {
		return err
	}

	if err := backtest.AppendResultsHistory(appCfg.HistoryPath, results); err != nil {
		log.Printf("[DATA] history append: %v\n", err)
	}

	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		if err := backtest.WriteResultsJSON(f, results); err != nil {
			return err
		}
	}

	report.RenderResults(os.Stdout, results)
	return nil
}

func runHistory(appCfg *config.Config) error {
	items, err := backtest.LoadResultsHistory(appCfg.HistoryPath)
	if err != nil {
		return err
	}
	report.RenderHistory(os.Stdout, items)
	return nil
}
