package backtest

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// YAMLConfig mirrors the backtest section of a config file.
type YAMLConfig struct {
	Backtest struct {
		Start          string   `yaml:"start"`
		End            string   `yaml:"end"`
		InitialCapital float64  `yaml:"initial_capital"`
		MaxPositions   int      `yaml:"max_positions"`
		PositionPct    float64  `yaml:"position_pct"`
		LookbackDays   int      `yaml:"lookback_days"`
		Symbols        []string `yaml:"symbols"`
	} `yaml:"backtest"`

	Signal struct {
		Type   string         `yaml:"type"`
		Params map[string]any `yaml:"params"`
	} `yaml:"signal"`

	Exit struct {
		Type   string         `yaml:"type"`
		Params map[string]any `yaml:"params"`
	} `yaml:"exit"`
}

// RunConfig is the fully-resolved input to Runner.Run.
type RunConfig struct {
	Start          time.Time
	End            time.Time
	InitialCapital float64
	MaxPositions   int
	PositionPct    float64
	LookbackDays   int
	Symbols        []string

	Signal SignalSource
	Exit   ExitStrategy
}

func DefaultRunConfig() RunConfig {
	return RunConfig{
		InitialCapital: 100_000,
		MaxPositions:   5,
		PositionPct:    0.20,
		LookbackDays:   90,
		Exit:           NewTrailingATRExit(TrailingATRParams{}),
	}
}

// LoadRunConfig reads a YAML run config and wires the named signal source and
// exit strategy against the given bar source. Strategy params round-trip
// through YAML so each params struct keeps its own defaults.
func LoadRunConfig(path string, bars BarSource) (RunConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("read config: %w", err)
	}
	var yc YAMLConfig
	if err := yaml.Unmarshal(raw, &yc); err != nil {
		return RunConfig{}, fmt.Errorf("parse yaml: %w", err)
	}

	cfg := DefaultRunConfig()
	if yc.Backtest.InitialCapital > 0 {
		cfg.InitialCapital = yc.Backtest.InitialCapital
	}
	if yc.Backtest.MaxPositions > 0 {
		cfg.MaxPositions = yc.Backtest.MaxPositions
	}
	if yc.Backtest.PositionPct > 0 && yc.Backtest.PositionPct <= 1 {
		cfg.PositionPct = yc.Backtest.PositionPct
	}
	if yc.Backtest.LookbackDays > 0 {
		cfg.LookbackDays = yc.Backtest.LookbackDays
	}
	cfg.Symbols = yc.Backtest.Symbols

	if yc.Backtest.Start != "" {
		t, err := time.ParseInLocation("2006-01-02", yc.Backtest.Start, time.Local)
		if err != nil {
			return RunConfig{}, fmt.Errorf("invalid backtest.start: %w", err)
		}
		cfg.Start = t
	}
	if yc.Backtest.End != "" {
		t, err := time.ParseInLocation("2006-01-02", yc.Backtest.End, time.Local)
		if err != nil {
			return RunConfig{}, fmt.Errorf("invalid backtest.end: %w", err)
		}
		cfg.End = t
	}

	switch yc.Signal.Type {
	case "", "pullback":
		var p PullbackParams
		if yc.Signal.Params != nil {
			b, _ := yaml.Marshal(yc.Signal.Params)
			_ = yaml.Unmarshal(b, &p)
		}
		cfg.Signal = NewPullbackScanner(bars, cfg.Symbols, p)
	default:
		return RunConfig{}, fmt.Errorf("unknown signal.type: %s", yc.Signal.Type)
	}

	exit, err := BuildExitStrategy(yc.Exit.Type, yc.Exit.Params)
	if err != nil {
		return RunConfig{}, err
	}
	cfg.Exit = exit
	return cfg, nil
}

// BuildExitStrategy constructs a named exit strategy from loosely-typed
// params (YAML or JSON-decoded maps).
func BuildExitStrategy(kind string, params map[string]any) (ExitStrategy, error) {
	switch kind {
	case "", "atr_trailing":
		var p TrailingATRParams
		if params != nil {
			b, _ := yaml.Marshal(params)
			_ = yaml.Unmarshal(b, &p)
		}
		return NewTrailingATRExit(p), nil
	case "scaled":
		var p ScaledExitParams
		if params != nil {
			b, _ := yaml.Marshal(params)
			_ = yaml.Unmarshal(b, &p)
		}
		return NewScaledExit(p), nil
	case "percent_stop":
		var p PercentStopParams
		if params != nil {
			b, _ := yaml.Marshal(params)
			_ = yaml.Unmarshal(b, &p)
		}
		return NewPercentStopExit(p), nil
	default:
		return nil, fmt.Errorf("unknown exit.type: %s", kind)
	}
}

// ExitStrategyNames lists the configurable exit strategies for reporting.
func ExitStrategyNames() []string {
	return []string{"atr_trailing", "scaled", "percent_stop"}
}
