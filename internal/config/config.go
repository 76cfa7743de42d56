// Package config loads service configuration from an optional yaml
// file plus environment overrides. Defaults live in code so a bare
// binary runs against the public provider endpoints with an in-memory
// store.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"wealthtracker/internal/asset"
	"wealthtracker/internal/orchestrate"
)

type Server struct {
	Port              string `mapstructure:"port"`
	RequestTimeoutSec int    `mapstructure:"request_timeout_sec"`
}

// Store selects the durable cache backend.
type Store struct {
	Driver string `mapstructure:"driver"` // memory | postgres | redis

	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"`
	PostgresDatabase string `mapstructure:"postgres_database"`
	PostgresSSLMode  string `mapstructure:"postgres_sslmode"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDatabase int    `mapstructure:"redis_database"`
}

// TTL is the freshness window per asset class, in seconds.
type TTL struct {
	CryptoSec       int `mapstructure:"crypto_sec"`
	StockSec        int `mapstructure:"stock_sec"`
	ThaiStockSec    int `mapstructure:"thai_stock_sec"`
	FundSec         int `mapstructure:"fund_sec"`
	CommoditySec    int `mapstructure:"commodity_sec"`
	ExchangeRateSec int `mapstructure:"exchange_rate_sec"`
}

// TTLs converts the seconds table into the orchestrator's form.
func (t TTL) TTLs() orchestrate.TTLs {
	sec := func(v int) time.Duration { return time.Duration(v) * time.Second }
	return orchestrate.TTLs{
		ByType: map[asset.Type]time.Duration{
			asset.Crypto:       sec(t.CryptoSec),
			asset.Stock:        sec(t.StockSec),
			asset.Fund:         sec(t.FundSec),
			asset.Commodity:    sec(t.CommoditySec),
			asset.ExchangeRate: sec(t.ExchangeRateSec),
		},
		ThaiStock: sec(t.ThaiStockSec),
	}
}

type Bitkub struct {
	Enabled              bool     `mapstructure:"enabled"`
	Endpoint             string   `mapstructure:"endpoint"`
	SchemaVersion        string   `mapstructure:"schema_version"`
	Symbols              []string `mapstructure:"symbols"`
	MaxRequestsPerMinute float64  `mapstructure:"max_requests_per_minute"`
	Burst                int      `mapstructure:"burst"`
	TickerCacheTTLSec    int      `mapstructure:"ticker_cache_ttl_sec"`
}

type Cryptoprices struct {
	Enabled              bool    `mapstructure:"enabled"`
	Endpoint             string  `mapstructure:"endpoint"`
	MaxRequestsPerMinute float64 `mapstructure:"max_requests_per_minute"`
	Burst                int     `mapstructure:"burst"`
}

type Coingecko struct {
	Enabled              bool    `mapstructure:"enabled"`
	Endpoint             string  `mapstructure:"endpoint"`
	VsCurrency           string  `mapstructure:"vs_currency"`
	MaxRequestsPerMinute float64 `mapstructure:"max_requests_per_minute"`
	Burst                int     `mapstructure:"burst"`
}

type Yahoo struct {
	Enabled              bool    `mapstructure:"enabled"`
	BaseURL              string  `mapstructure:"base_url"`
	MaxRequestsPerMinute float64 `mapstructure:"max_requests_per_minute"`
	Burst                int     `mapstructure:"burst"`
}

type SET struct {
	Enabled bool     `mapstructure:"enabled"`
	Symbols []string `mapstructure:"symbols"`
}

type Funds struct {
	// Fund code -> NAV page URL, per scraped source.
	SCBAM         map[string]string `mapstructure:"scbam"`
	FundSuperMart map[string]string `mapstructure:"fundsupermart"`
}

type Gold struct {
	Enabled bool `mapstructure:"enabled"`
}

type ExchangeRateAPI struct {
	Endpoint string `mapstructure:"endpoint"`
}

type Config struct {
	Server          Server          `mapstructure:"server"`
	Store           Store           `mapstructure:"store"`
	TTL             TTL             `mapstructure:"ttl"`
	FetchTimeoutSec int             `mapstructure:"fetch_timeout_sec"`
	Bitkub          Bitkub          `mapstructure:"bitkub"`
	Cryptoprices    Cryptoprices    `mapstructure:"cryptoprices"`
	Coingecko       Coingecko       `mapstructure:"coingecko"`
	Yahoo           Yahoo           `mapstructure:"yahoo"`
	SET             SET             `mapstructure:"set"`
	Funds           Funds           `mapstructure:"funds"`
	Gold            Gold            `mapstructure:"gold"`
	ExchangeRate    ExchangeRateAPI `mapstructure:"exchange_rate"`
}

// Load reads config.yaml (working directory or ~/.wealthtracker) when
// present and applies WEALTH_* environment overrides, e.g.
// WEALTH_STORE_DRIVER=postgres or WEALTH_TTL_CRYPTO_SEC=60.
func Load() (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("WEALTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.wealthtracker")
	if err := v.ReadInConfig(); err != nil {
		// A missing file falls back to defaults; anything else is real.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.request_timeout_sec", 15)

	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.postgres_host", "localhost")
	v.SetDefault("store.postgres_port", 5432)
	v.SetDefault("store.postgres_user", "wealthtracker")
	v.SetDefault("store.postgres_database", "wealthtracker")
	v.SetDefault("store.postgres_sslmode", "disable")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_database", 0)

	v.SetDefault("ttl.crypto_sec", 15*60)
	v.SetDefault("ttl.stock_sec", 15*60)
	v.SetDefault("ttl.thai_stock_sec", 5*60)
	v.SetDefault("ttl.fund_sec", 30*60)
	v.SetDefault("ttl.commodity_sec", 15*60)
	v.SetDefault("ttl.exchange_rate_sec", 60*60)

	v.SetDefault("fetch_timeout_sec", 8)

	v.SetDefault("bitkub.enabled", true)
	v.SetDefault("bitkub.endpoint", "https://api.bitkub.com/api/market/ticker")
	v.SetDefault("bitkub.schema_version", "v1")
	v.SetDefault("bitkub.symbols", []string{"BTC", "ETH", "KUB", "USDT", "ADA", "DOGE", "BNB", "XRP"})
	v.SetDefault("bitkub.max_requests_per_minute", 60)
	v.SetDefault("bitkub.burst", 5)
	v.SetDefault("bitkub.ticker_cache_ttl_sec", 60)

	v.SetDefault("cryptoprices.enabled", true)
	v.SetDefault("cryptoprices.endpoint", "https://cryptoprices.cc")
	v.SetDefault("cryptoprices.max_requests_per_minute", 30)
	v.SetDefault("cryptoprices.burst", 5)

	v.SetDefault("coingecko.enabled", true)
	v.SetDefault("coingecko.endpoint", "https://api.coingecko.com/api/v3/simple/price")
	v.SetDefault("coingecko.vs_currency", "THB")
	v.SetDefault("coingecko.max_requests_per_minute", 10)
	v.SetDefault("coingecko.burst", 2)

	v.SetDefault("yahoo.enabled", true)
	v.SetDefault("yahoo.max_requests_per_minute", 30)
	v.SetDefault("yahoo.burst", 5)

	v.SetDefault("set.enabled", true)
	v.SetDefault("set.symbols", []string{})

	v.SetDefault("gold.enabled", true)

	v.SetDefault("exchange_rate.endpoint", "https://api.exchangerate-api.com/v4/latest")
}

// FetchTimeout returns the per-adapter timeout.
func (c *Config) FetchTimeout() time.Duration {
	if c.FetchTimeoutSec <= 0 {
		return 8 * time.Second
	}
	return time.Duration(c.FetchTimeoutSec) * time.Second
}

// RequestTimeout returns the server-side request budget.
func (c *Config) RequestTimeout() time.Duration {
	if c.Server.RequestTimeoutSec <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Server.RequestTimeoutSec) * time.Second
}
