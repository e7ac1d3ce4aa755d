package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"swing/backtest"
	"swing/config"
	"swing/trading"
)

// Handler carries the shared dependencies of every route.
type Handler struct {
	cfg     *config.Config
	bars    backtest.BarSource
	started time.Time
}

func NewHandler(cfg *config.Config, bars backtest.BarSource) *Handler {
	return &Handler{cfg: cfg, bars: bars, started: time.Now()}
}

// BacktestRequest is the POST /api/backtest body. Omitted fields fall back to
// the run defaults; omitted symbols fall back to the configured watchlist.
type BacktestRequest struct {
	Start          string   `json:"start" binding:"required"`
	End            string   `json:"end" binding:"required"`
	InitialCapital float64  `json:"initial_capital"`
	MaxPositions   int      `json:"max_positions"`
	PositionPct    float64  `json:"position_pct"`
	LookbackDays   int      `json:"lookback_days"`
	Symbols        []string `json:"symbols"`

	Exit struct {
		Type   string         `json:"type"`
		Params map[string]any `json:"params"`
	} `json:"exit"`

	Signal struct {
		Params map[string]any `json:"params"`
	} `json:"signal"`
}

// RunBacktest executes one simulation and appends it to the stored history.
func (h *Handler) RunBacktest(c *gin.Context) {
	var req BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg, err := h.buildRunConfig(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := backtest.NewRunner(h.bars).Run(cfg)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, backtest.ErrInvariant) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	if err := backtest.AppendResultsHistory(h.cfg.HistoryPath, res); err != nil {
		// the run itself succeeded; report it with a persistence warning
		c.JSON(http.StatusOK, gin.H{"code": 0, "data": res, "warning": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "data": res})
}

func (h *Handler) buildRunConfig(req BacktestRequest) (backtest.RunConfig, error) {
	cfg := backtest.DefaultRunConfig()

	start, err := time.ParseInLocation("2006-01-02", req.Start, trading.ET)
	if err != nil {
		return cfg, err
	}
	end, err := time.ParseInLocation("2006-01-02", req.End, trading.ET)
	if err != nil {
		return cfg, err
	}
	cfg.Start, cfg.End = start, end

	if req.InitialCapital > 0 {
		cfg.InitialCapital = req.InitialCapital
	}
	if req.MaxPositions > 0 {
		cfg.MaxPositions = req.MaxPositions
	}
	if req.PositionPct > 0 && req.PositionPct <= 1 {
		cfg.PositionPct = req.PositionPct
	}
	if req.LookbackDays > 0 {
		cfg.LookbackDays = req.LookbackDays
	}
	cfg.Symbols = req.Symbols
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = h.cfg.Symbols
	}

	exit, err := backtest.BuildExitStrategy(req.Exit.Type, req.Exit.Params)
	if err != nil {
		return cfg, err
	}
	cfg.Exit = exit

	var sp backtest.PullbackParams
	if req.Signal.Params != nil {
		if err := decodeParams(req.Signal.Params, &sp); err != nil {
			return cfg, err
		}
	}
	cfg.Signal = backtest.NewPullbackScanner(h.bars, cfg.Symbols, sp)
	return cfg, nil
}

// decodeParams round-trips loosely-typed JSON params into a typed struct.
func decodeParams(in map[string]any, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// Scan runs the entry detector for the watchlist, by default as of today.
func (h *Handler) Scan(c *gin.Context) {
	asOf := time.Now().In(trading.ET)
	if q := c.Query("date"); q != "" {
		t, err := time.ParseInLocation("2006-01-02", q, trading.ET)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		asOf = t
	}

	src := backtest.NewPullbackScanner(h.bars, h.cfg.Symbols, backtest.PullbackParams{})
	report, err := backtest.BuildScanReport(src, asOf)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "data": report})
}

// GetStrategies lists the configurable exit strategies.
func (h *Handler) GetStrategies(c *gin.Context) {
	names := backtest.ExitStrategyNames()
	c.JSON(http.StatusOK, gin.H{"code": 0, "count": len(names), "data": names})
}

// GetResults returns the stored run history.
func (h *Handler) GetResults(c *gin.Context) {
	items, err := backtest.LoadResultsHistory(h.cfg.HistoryPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "count": len(items), "data": items})
}

// GetStatus reports service liveness and configuration.
func (h *Handler) GetStatus(c *gin.Context) {
	now := time.Now().In(trading.ET)
	c.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": gin.H{
			"provider":     h.cfg.Provider,
			"symbols":      len(h.cfg.Symbols),
			"trading_day":  trading.IsTradingDay(now),
			"market_hours": trading.MarketHours.Contains(now),
			"uptime":       time.Since(h.started).Round(time.Second).String(),
		},
	})
}
