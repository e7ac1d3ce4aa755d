package backtest

import (
	"time"

	"swing/trading"
)

// ScanReport is the live-scan output: the candidates a signal source would
// hand the runner for one trading day.
type ScanReport struct {
	Date       string      `json:"date"`
	Candidates []Candidate `json:"candidates"`
}

// BuildScanReport runs the signal source for the most recent trading day at
// or before asOf. An empty candidate list is a valid "nothing today" report.
func BuildScanReport(src SignalSource, asOf time.Time) (*ScanReport, error) {
	day := asOf
	for !trading.IsTradingDay(day) {
		day = day.AddDate(0, 0, -1)
	}
	cands, err := src.Scan(day)
	if err != nil {
		return nil, err
	}
	if cands == nil {
		cands = []Candidate{}
	}
	return &ScanReport{
		Date:       day.Format("2006-01-02"),
		Candidates: cands,
	}, nil
}
