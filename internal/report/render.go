// Package report renders run results and scan reports for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"swing/backtest"
)

const rule = "──────────────────────────────────────────────────────────────"

// RenderResults prints one run's summary, metrics and trade log.
func RenderResults(w io.Writer, res *backtest.Results) {
	p := message.NewPrinter(language.English)

	fmt.Fprintln(w, rule)
	p.Fprintf(w, "  %s  %s → %s\n", res.Strategy, res.StartDate, res.EndDate)
	fmt.Fprintln(w, rule)

	p.Fprintf(w, "  capital     %14.2f → %.2f  (%s)\n",
		res.StartCapital, res.FinalEquity, colorPct(res.TotalReturnPct))
	p.Fprintf(w, "  trades      %d  (%d winners, %d losers, %.1f%% win rate)\n",
		res.TotalTrades, res.Winners, res.Losers, res.WinRatePct)
	p.Fprintf(w, "  avg win     %14.2f    avg loss  %14.2f\n", res.AvgWin, res.AvgLoss)
	p.Fprintf(w, "  expectancy  %14.2f    avg R     %14.2f\n", res.Expectancy, res.AvgRMultiple)
	p.Fprintf(w, "  profit factor  %.2f    max drawdown  %.2f%%\n", res.ProfitFactor, res.MaxDrawdownPct)
	if res.DataGaps > 0 || res.EntryFallbacks > 0 {
		p.Fprintf(w, "  data gaps   %d    entry-price fallbacks  %d\n", res.DataGaps, res.EntryFallbacks)
	}

	if len(res.Trades) == 0 {
		fmt.Fprintln(w, rule)
		return
	}

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  %-6s %-10s %-10s %9s %9s %10s %7s  %s\n",
		"symbol", "entry", "exit", "in", "out", "pnl", "R", "reason")
	for _, t := range res.Trades {
		p.Fprintf(w, "  %-6s %-10s %-10s %9.2f %9.2f %s%10.2f\033[0m %7.2f  %s\n",
			t.Symbol, t.EntryDate, t.ExitDate, t.EntryPrice, t.ExitPrice,
			colorBySign(t.PnL), t.PnL, t.RMultiple, exitLabel(t))
	}
	fmt.Fprintln(w, rule)
}

// RenderScan prints the candidates found for one trading day.
func RenderScan(w io.Writer, rep *backtest.ScanReport) {
	p := message.NewPrinter(language.English)

	fmt.Fprintln(w, rule)
	p.Fprintf(w, "  scan %s: %d candidate(s)\n", rep.Date, len(rep.Candidates))
	fmt.Fprintln(w, rule)
	if len(rep.Candidates) == 0 {
		fmt.Fprintln(w, "  no setups today")
		fmt.Fprintln(w, rule)
		return
	}

	fmt.Fprintf(w, "  %-6s %6s %10s %10s %10s %10s\n",
		"symbol", "score", "entry", "stop", "target", "strength")
	for _, c := range rep.Candidates {
		p.Fprintf(w, "  %-6s %6.2f %10.2f %10.2f %10.2f %10.4f\n",
			c.Symbol, c.Score, c.EntryPrice, c.StopPrice, c.Target, c.Data["strength"])
	}
	fmt.Fprintln(w, rule)
}

// RenderHistory prints the stored run history, newest last.
func RenderHistory(w io.Writer, items []*backtest.Results) {
	p := message.NewPrinter(language.English)

	fmt.Fprintln(w, rule)
	p.Fprintf(w, "  %d stored run(s)\n", len(items))
	fmt.Fprintln(w, rule)
	for i, res := range items {
		p.Fprintf(w, "  %2d. %-14s %s → %s  trades %3d  return %s  pf %.2f\n",
			i+1, res.Strategy, res.StartDate, res.EndDate,
			res.TotalTrades, colorPct(res.TotalReturnPct), res.ProfitFactor)
	}
	fmt.Fprintln(w, rule)
}

func exitLabel(t backtest.Trade) string {
	if t.Partials > 0 {
		return fmt.Sprintf("%s (+%d partials)", t.ExitReason, t.Partials)
	}
	return t.ExitReason
}

func colorPct(pct float64) string {
	return fmt.Sprintf("%s%+.2f%%\033[0m", colorBySign(pct), pct)
}

func colorBySign(v float64) string {
	if v > 0 {
		return "\033[32m"
	}
	if v < 0 {
		return "\033[31m"
	}
	return "\033[37m"
}

// Plain strips ANSI escapes, for writing reports to files.
func Plain(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\033' {
			for i < len(s) && s[i] != 'm' {
				i++
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
