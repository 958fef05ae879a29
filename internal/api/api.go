// Package api exposes the status and control surface over HTTP: account
// state, open positions, start/stop controls and a websocket event stream.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bingx-scalping-bot/internal/notify"
	"bingx-scalping-bot/internal/scalper"
	"bingx-scalping-bot/internal/store"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port           int      `json:"port"`
	ProductionMode bool     `json:"production_mode"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// Server routes dashboard and control requests to the scalper manager.
type Server struct {
	router  *gin.Engine
	manager *scalper.Manager
	trades  store.TradeStore
	hub     *notify.Hub
	cfg     ServerConfig
	log     zerolog.Logger
	http    *http.Server

	accounts map[string]scalper.AccountConfig
}

// NewServer builds the router. Accounts are the configured trading accounts
// the control endpoints may start.
func NewServer(cfg ServerConfig, manager *scalper.Manager, trades store.TradeStore, hub *notify.Hub, accounts []scalper.AccountConfig, log zerolog.Logger) *Server {
	if cfg.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	byID := make(map[string]scalper.AccountConfig, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	s := &Server{
		router:   router,
		manager:  manager,
		trades:   trades,
		hub:      hub,
		cfg:      cfg,
		log:      log.With().Str("component", "api").Logger(),
		accounts: byID,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ws", func(c *gin.Context) {
		s.hub.ServeWS(c.Writer, c.Request)
	})

	apiGroup := s.router.Group("/api")
	{
		apiGroup.GET("/status", s.handleStatus)
		apiGroup.GET("/accounts", s.handleAccounts)
		apiGroup.GET("/accounts/:id/positions", s.handlePositions)
		apiGroup.POST("/accounts/:id/start", s.handleStart)
		apiGroup.POST("/accounts/:id/stop", s.handleStop)
	}
}

// Start serves HTTP until Shutdown.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Int("port", s.cfg.Port).Msg("http server listening")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"running_accounts": s.manager.RunningCount(),
		"ws_clients":       s.hub.ClientCount(),
		"accounts":         s.manager.Statuses(),
	})
}

func (s *Server) handleAccounts(c *gin.Context) {
	type accountView struct {
		ID     string          `json:"id"`
		Name   string          `json:"name"`
		Status *scalper.Status `json:"status,omitempty"`
	}
	var out []accountView
	for id, cfg := range s.accounts {
		view := accountView{ID: id, Name: cfg.Name}
		if instance, ok := s.manager.Get(id); ok {
			st := instance.Status()
			view.Status = &st
		}
		out = append(out, view)
	}
	c.JSON(http.StatusOK, gin.H{"accounts": out})
}

func (s *Server) handlePositions(c *gin.Context) {
	accountID := c.Param("id")
	if _, ok := s.accounts[accountID]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown account"})
		return
	}
	positions, err := s.trades.GetOpenPositions(c.Request.Context(), accountID, "")
	if err != nil {
		s.log.Error().Err(err).Str("account_id", accountID).Msg("position listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "position listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": positions})
}

func (s *Server) handleStart(c *gin.Context) {
	accountID := c.Param("id")
	cfg, ok := s.accounts[accountID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown account"})
		return
	}
	if err := s.manager.StartAccount(context.Background(), cfg); err != nil {
		s.log.Error().Err(err).Str("account_id", accountID).Msg("account start failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "started", "account_id": accountID})
}

func (s *Server) handleStop(c *gin.Context) {
	accountID := c.Param("id")
	if _, ok := s.accounts[accountID]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown account"})
		return
	}
	s.manager.StopAccount(accountID)
	c.JSON(http.StatusOK, gin.H{"status": "stopped", "account_id": accountID})
}
