package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"swing/api"
	"swing/backtest"
	"swing/config"
	"swing/fetcher"
)

var (
	configPath     string
	backtestMode   bool
	backtestConfig string
	backtestOut    string
	scanMode       bool
	scanDate       string
	scanJSON       bool
	historyMode    bool
)

func main() {
	flag.StringVar(&configPath, "config", "", "application config path (YAML)")
	flag.BoolVar(&backtestMode, "backtest", false, "run a backtest and exit")
	flag.StringVar(&backtestConfig, "bt-config", "backtest.yaml", "backtest run config path (YAML)")
	flag.StringVar(&backtestOut, "bt-out", "", "write run results JSON to this path (default stdout summary)")
	flag.BoolVar(&scanMode, "scan", false, "scan the watchlist for entry setups and exit")
	flag.StringVar(&scanDate, "scan-date", "", "scan as of this date, YYYY-MM-DD (default today)")
	flag.BoolVar(&scanJSON, "scan-json", false, "emit the scan report as JSON instead of a table")
	flag.BoolVar(&historyMode, "history", false, "print the stored run history and exit")
	flag.Parse()

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg := config.GetConfig(configPath)
	if err := cfg.Validate(); err != nil {
		log.Printf("[ERROR] config: %v\n", err)
		os.Exit(2)
	}

	if backtestMode {
		if err := runBacktest(cfg, backtestConfig, backtestOut); err != nil {
			log.Printf("[ERROR] backtest: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if scanMode {
		if err := runScan(cfg, scanDate, scanJSON); err != nil {
			log.Printf("[ERROR] scan: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if historyMode {
		if err := runHistory(cfg); err != nil {
			log.Printf("[ERROR] history: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Default mode: serve the HTTP API.
	log.Printf("=== swing backtest service (provider: %s, %d symbols) ===\n", cfg.Provider, len(cfg.Symbols))
	server := api.NewServer(cfg, newBarSource(cfg))
	go func() {
		if err := server.Start(); err != nil {
			log.Printf("[ERROR] http server: %v\n", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("shutting down...")
	if err := server.Shutdown(); err != nil {
		log.Printf("[ERROR] shutdown: %v\n", err)
	}
}

// newBarSource builds the configured provider behind a shared cache.
func newBarSource(cfg *config.Config) backtest.BarSource {
	var src backtest.BarSource
	switch cfg.Provider {
	case config.ProviderAlpaca:
		src = fetcher.NewAlpacaFetcher()
	default:
		src = fetcher.NewStooqFetcher()
	}
	return fetcher.NewCache(src)
}
