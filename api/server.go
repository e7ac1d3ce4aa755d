package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"swing/backtest"
	"swing/config"
)

// Server is the HTTP front end: backtest runs, live scans, and status over a
// shared bar source.
type Server struct {
	engine *gin.Engine
	server *http.Server
}

// NewServer wires the routes against the given bar source and app config.
func NewServer(cfg *config.Config, bars backtest.BarSource) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())
	engine.Use(loggerMiddleware())

	s := &Server{
		engine: engine,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Port),
			Handler: engine,
		},
	}

	s.setupRoutes(cfg, bars)
	return s
}

func (s *Server) setupRoutes(cfg *config.Config, bars backtest.BarSource) {
	handler := NewHandler(cfg, bars)

	api := s.engine.Group("/api")
	{
		api.POST("/backtest", handler.RunBacktest)
		api.GET("/scan", handler.Scan)
		api.GET("/strategies", handler.GetStrategies)
		api.GET("/results", handler.GetResults)
		api.GET("/status", handler.GetStatus)
	}

	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// Start blocks serving requests until Shutdown.
func (s *Server) Start() error {
	log.Printf("[API] listening on http://localhost%s\n", s.server.Addr)
	log.Println("[API] routes:")
	log.Println("  POST /api/backtest   - run a backtest")
	log.Println("  GET  /api/scan       - scan the watchlist for setups")
	log.Println("  GET  /api/strategies - list exit strategies")
	log.Println("  GET  /api/results    - stored run history")
	log.Println("  GET  /api/status     - service status")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests with a short deadline.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		log.Printf("[API] %s %s %d %v\n", c.Request.Method, path, status, latency)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
