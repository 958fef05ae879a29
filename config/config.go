// Package config loads the bot configuration from config.json with
// environment variable overrides taking precedence.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"bingx-scalping-bot/internal/cache"
	"bingx-scalping-bot/internal/fusion"
	"bingx-scalping-bot/internal/risk"
	"bingx-scalping-bot/internal/scalper"
	"bingx-scalping-bot/internal/store"
)

// Config is the full bot configuration.
type Config struct {
	Server   ServerConfig            `json:"server"`
	Database DatabaseConfig          `json:"database"`
	Redis    cache.Config            `json:"redis"`
	Logging  LoggingConfig           `json:"logging"`
	Exchange ExchangeConfig          `json:"exchange"`
	Profile  scalper.Profile         `json:"profile"`
	Accounts []scalper.AccountConfig `json:"accounts"`
	Weights  fusion.ScoreWeights     `json:"score_weights"`
	Engine   fusion.EngineConfig     `json:"decision_engine"`
	Risk     risk.Config             `json:"risk"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port           int      `json:"port"`
	ProductionMode bool     `json:"production_mode"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// DatabaseConfig wraps the Postgres settings with an enable switch; when
// disabled the bot runs on the in-memory store.
type DatabaseConfig struct {
	Enabled bool `json:"enabled"`
	store.PostgresConfig
}

// LoggingConfig controls the zerolog output.
type LoggingConfig struct {
	Level  string `json:"level"`
	Pretty bool   `json:"pretty"`
}

// ExchangeConfig selects the market data and order backend.
type ExchangeConfig struct {
	// MockMode trades against the synthetic in-process exchange.
	MockMode    bool    `json:"mock_mode"`
	MockBalance float64 `json:"mock_balance"`
}

// Load reads config.json when present and applies environment overrides.
func Load() (*Config, error) {
	return LoadFile("config.json")
}

// LoadFile reads the given config file and applies environment overrides.
func LoadFile(path string) (*Config, error) {
	cfg := defaults()

	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if len(cfg.Accounts) == 0 {
		cfg.Accounts = []scalper.AccountConfig{{ID: "default", Name: "Default Account"}}
	}
	for i := range cfg.Accounts {
		if isZeroProfile(cfg.Accounts[i].Profile) {
			cfg.Accounts[i].Profile = cfg.Profile
		}
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080},
		Database: DatabaseConfig{
			PostgresConfig: store.PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				User:     "scalper",
				Database: "scalper",
				SSLMode:  "disable",
			},
		},
		Redis: cache.Config{
			Address:  "localhost:6379",
			PoolSize: 10,
		},
		Logging:  LoggingConfig{Level: "info"},
		Exchange: ExchangeConfig{MockMode: true, MockBalance: 10_000},
		Profile:  scalper.DefaultProfile(),
		Weights:  fusion.DefaultScoreWeights(),
		Engine:   fusion.DefaultEngineConfig(),
		Risk:     risk.DefaultConfig(),
	}
}

func applyEnvOverrides(cfg *Config) {
	cfg.Server.Port = getEnvIntOrDefault("WEB_PORT", cfg.Server.Port)
	cfg.Server.ProductionMode = getEnvOrDefault("PRODUCTION_MODE", boolString(cfg.Server.ProductionMode)) == "true"
	if origins := os.Getenv("SERVER_ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.AllowedOrigins = strings.Split(origins, ",")
	}

	cfg.Database.Enabled = getEnvOrDefault("DATABASE_ENABLED", boolString(cfg.Database.Enabled)) == "true"
	cfg.Database.Host = getEnvOrDefault("DATABASE_HOST", cfg.Database.Host)
	cfg.Database.Port = getEnvIntOrDefault("DATABASE_PORT", cfg.Database.Port)
	cfg.Database.User = getEnvOrDefault("DATABASE_USER", cfg.Database.User)
	cfg.Database.Password = getEnvOrDefault("DATABASE_PASSWORD", cfg.Database.Password)
	cfg.Database.Database = getEnvOrDefault("DATABASE_NAME", cfg.Database.Database)
	cfg.Database.SSLMode = getEnvOrDefault("DATABASE_SSLMODE", cfg.Database.SSLMode)

	cfg.Redis.Enabled = getEnvOrDefault("REDIS_ENABLED", boolString(cfg.Redis.Enabled)) == "true"
	cfg.Redis.Address = getEnvOrDefault("REDIS_ADDRESS", cfg.Redis.Address)
	cfg.Redis.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvIntOrDefault("REDIS_DB", cfg.Redis.DB)

	cfg.Logging.Level = getEnvOrDefault("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Pretty = getEnvOrDefault("LOG_PRETTY", boolString(cfg.Logging.Pretty)) == "true"

	cfg.Exchange.MockMode = getEnvOrDefault("MOCK_MODE", boolString(cfg.Exchange.MockMode)) == "true"
	cfg.Exchange.MockBalance = getEnvFloatOrDefault("MOCK_BALANCE", cfg.Exchange.MockBalance)

	cfg.Profile.Leverage = getEnvIntOrDefault("SCALPER_LEVERAGE", cfg.Profile.Leverage)
	cfg.Profile.NotionalUSDT = getEnvFloatOrDefault("SCALPER_NOTIONAL_USDT", cfg.Profile.NotionalUSDT)
	cfg.Profile.MaxOpenPositions = getEnvIntOrDefault("SCALPER_MAX_OPEN_POSITIONS", cfg.Profile.MaxOpenPositions)
	cfg.Profile.MaxDrawdownPercent = getEnvFloatOrDefault("SCALPER_MAX_DRAWDOWN_PERCENT", cfg.Profile.MaxDrawdownPercent)
	cfg.Profile.StopLossCooldown = getEnvDurationOrDefault("SCALPER_SL_COOLDOWN", cfg.Profile.StopLossCooldown)
	cfg.Profile.CycleInterval = getEnvDurationOrDefault("SCALPER_CYCLE_INTERVAL", cfg.Profile.CycleInterval)
}

// isZeroProfile reports whether an account left its profile unset.
func isZeroProfile(p scalper.Profile) bool {
	return p.Timeframe == "" && p.NotionalUSDT == 0 && p.CandleLimit == 0
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
