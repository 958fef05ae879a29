package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"bingx-scalping-bot/config"
	"bingx-scalping-bot/internal/api"
	"bingx-scalping-bot/internal/cache"
	"bingx-scalping-bot/internal/exchange"
	"bingx-scalping-bot/internal/notify"
	"bingx-scalping-bot/internal/scalper"
	"bingx-scalping-bot/internal/store"
)

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	logger.Info().Str("log_level", cfg.Logging.Level).Bool("mock_mode", cfg.Exchange.MockMode).Msg("starting scalping bot")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Trade store: Postgres when configured, in-memory otherwise.
	var trades store.TradeStore
	var pgStore *store.PostgresStore
	if cfg.Database.Enabled {
		pgStore, err = store.NewPostgresStore(ctx, cfg.Database.PostgresConfig, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("trade store initialization failed")
		}
		trades = pgStore
		defer pgStore.Close()
	} else {
		logger.Warn().Msg("database disabled, positions are kept in memory")
		trades = store.NewMemoryStore()
	}

	// Cooldowns: Redis with in-memory fallback, or plain memory.
	var cooldowns store.CooldownStore
	var pairCache scalper.PairCache
	if cfg.Redis.Enabled {
		redisCache, err := cache.New(cfg.Redis, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis initialization failed")
		}
		cooldowns = redisCache
		pairCache = redisCache
		defer redisCache.Close()
	} else {
		cooldowns = store.NewMemoryCooldownStore()
	}

	hub := notify.NewHub(logger)
	go hub.Run(ctx)
	notifier := notify.NewFanout(notify.NewLogSink(logger), hub)

	factory := func(account scalper.AccountConfig) (exchange.Client, error) {
		if cfg.Exchange.MockMode {
			return exchange.NewMockClient(cfg.Exchange.MockBalance), nil
		}
		// Live connectivity plugs in through the Client interface;
		// credentials never pass through this process.
		return nil, fmt.Errorf("no live exchange client configured for account %s, enable mock_mode", account.ID)
	}

	manager := scalper.NewManager(factory, scalper.Deps{
		Trades:    trades,
		Cooldowns: cooldowns,
		Notifier:  notifier,
		PairCache: pairCache,
		Weights:   cfg.Weights,
		Engine:    cfg.Engine,
		Risk:      cfg.Risk,
		Logger:    logger,
	})

	for _, account := range cfg.Accounts {
		if err := manager.StartAccount(ctx, account); err != nil {
			logger.Error().Err(err).Str("account_id", account.ID).Msg("account start failed")
		}
	}

	server := api.NewServer(api.ServerConfig{
		Port:           cfg.Server.Port,
		ProductionMode: cfg.Server.ProductionMode,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, manager, trades, hub, cfg.Accounts, logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			logger.Error().Err(err).Msg("http server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown incomplete")
	}
	manager.Shutdown()
	logger.Info().Msg("bot stopped")
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}
