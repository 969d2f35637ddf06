// Package config loads engine configuration from a YAML file with
// environment overrides. A .env file, when present, is loaded first so
// deployment secrets (database DSN, Redis URL) never sit in the YAML.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete engine configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Pricing PricingConfig `yaml:"pricing"`
	Sizing  SizingConfig  `yaml:"sizing"`
	Risk    RiskConfig    `yaml:"risk"`
	Oracle  OracleConfig  `yaml:"oracle"`
	Limits  LimitsConfig  `yaml:"limits"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port           string  `yaml:"port"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
}

// StorageConfig selects the persistence backend. An empty DatabaseURL
// falls back to the in-memory store.
type StorageConfig struct {
	DatabaseURL     string `yaml:"database_url"`
	RedisURL        string `yaml:"redis_url"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

// PricingConfig controls the CFMM pool.
type PricingConfig struct {
	BaseFee             float64 `yaml:"base_fee"`
	VolatilityWindowHrs int     `yaml:"volatility_window_hours"`
}

// SizingConfig controls the Kelly sizer.
type SizingConfig struct {
	KellyMultiplier float64 `yaml:"kelly_multiplier"`
	MaxPosition     float64 `yaml:"max_position"`
}

// RiskConfig controls the risk engine.
type RiskConfig struct {
	MaxLeverage           float64 `yaml:"max_leverage"`
	MaintenanceMarginRate float64 `yaml:"maintenance_margin_rate"`
	InitialMarginRate     float64 `yaml:"initial_margin_rate"`
	MaxDrawdown           float64 `yaml:"max_drawdown"`
	VaRConfidence         float64 `yaml:"var_confidence"`
}

// OracleConfig controls quote freshness.
type OracleConfig struct {
	MaxAgeSeconds int `yaml:"max_age_seconds"`
}

// LimitsConfig controls the exposure limiter.
type LimitsConfig struct {
	MaxPerMarket   float64 `yaml:"max_per_market"`
	MaxPerCategory float64 `yaml:"max_per_category"`
}

// Load reads the YAML config and applies .env / environment overrides.
// Environment values win over YAML for the keys they cover.
func Load(path string) (*Config, error) {
	// Load .env if present; missing file is not an error.
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// CacheTTL returns the Redis cache TTL as a time.Duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Storage.CacheTTLSeconds) * time.Second
}

// VolatilityWindow returns the realized-volatility window.
func (c *Config) VolatilityWindow() time.Duration {
	return time.Duration(c.Pricing.VolatilityWindowHrs) * time.Hour
}

// OracleMaxAge returns the quote freshness threshold.
func (c *Config) OracleMaxAge() time.Duration {
	return time.Duration(c.Oracle.MaxAgeSeconds) * time.Second
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Storage.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Storage.RedisURL = v
	}
	if v := os.Getenv("BASE_FEE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Pricing.BaseFee = f
		}
	}
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.RateLimitRPS <= 0 {
		cfg.Server.RateLimitRPS = 50
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 100
	}
	if cfg.Storage.CacheTTLSeconds <= 0 {
		cfg.Storage.CacheTTLSeconds = 30
	}
	if cfg.Pricing.BaseFee <= 0 {
		cfg.Pricing.BaseFee = 0.003
	}
	if cfg.Pricing.VolatilityWindowHrs <= 0 {
		cfg.Pricing.VolatilityWindowHrs = 24
	}
	if cfg.Sizing.KellyMultiplier <= 0 {
		cfg.Sizing.KellyMultiplier = 0.25
	}
	if cfg.Sizing.MaxPosition <= 0 {
		cfg.Sizing.MaxPosition = 0.10
	}
	if cfg.Risk.MaxLeverage <= 0 {
		cfg.Risk.MaxLeverage = 5
	}
	if cfg.Risk.MaintenanceMarginRate <= 0 {
		cfg.Risk.MaintenanceMarginRate = 0.05
	}
	if cfg.Risk.InitialMarginRate <= 0 {
		cfg.Risk.InitialMarginRate = 0.10
	}
	if cfg.Risk.MaxDrawdown <= 0 {
		cfg.Risk.MaxDrawdown = 0.20
	}
	if cfg.Risk.VaRConfidence <= 0 {
		cfg.Risk.VaRConfidence = 0.95
	}
	if cfg.Oracle.MaxAgeSeconds <= 0 {
		cfg.Oracle.MaxAgeSeconds = 300
	}
	if cfg.Limits.MaxPerMarket <= 0 {
		cfg.Limits.MaxPerMarket = 100_000
	}
	if cfg.Limits.MaxPerCategory <= 0 {
		cfg.Limits.MaxPerCategory = 500_000
	}
}
