package backtest

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

type persistedResults struct {
	Version int        `json:"version"`
	SavedAt time.Time  `json:"saved_at"`
	Items   []*Results `json:"items"`
}

// LoadResultsHistory reads a results-history file. A missing or empty file is
// an empty history, not an error. Plain arrays from older runs still load.
func LoadResultsHistory(path string) ([]*Results, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, nil
	}

	var v persistedResults
	if err := json.Unmarshal(b, &v); err == nil && len(v.Items) > 0 {
		return v.Items, nil
	}

	// Backward compatibility: plain array.
	var arr []*Results
	if err := json.Unmarshal(b, &arr); err != nil {
		return nil, err
	}
	return arr, nil
}

// AppendResultsHistory adds one run's results to the history file, creating
// it (and its directory) when needed.
func AppendResultsHistory(path string, res *Results) error {
	items, err := LoadResultsHistory(path)
	if err != nil {
		return err
	}
	items = append(items, res)
	return SaveResultsHistory(path, items)
}

// SaveResultsHistory writes the full history with a version wrapper.
func SaveResultsHistory(path string, items []*Results) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	payload := persistedResults{
		Version: 1,
		SavedAt: time.Now(),
		Items:   items,
	}
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
