// Package app wires configuration into the provider registry and the
// durable store. Both binaries share this assembly.
package app

import (
	"log/slog"
	"time"

	"wealthtracker/internal/asset"
	"wealthtracker/internal/config"
	"wealthtracker/internal/httpx"
	"wealthtracker/internal/orchestrate"
	"wealthtracker/internal/provider"
	"wealthtracker/internal/provider/bitkub"
	"wealthtracker/internal/provider/cached"
	"wealthtracker/internal/provider/coingecko"
	"wealthtracker/internal/provider/cryptoprices"
	"wealthtracker/internal/provider/exchangerate"
	"wealthtracker/internal/provider/ratelimit"
	"wealthtracker/internal/provider/scrape"
	"wealthtracker/internal/provider/yahoo"
	"wealthtracker/internal/rates"
	"wealthtracker/internal/resolve"
	"wealthtracker/internal/store"
	"wealthtracker/internal/store/memstore"
	"wealthtracker/internal/store/redistore"
	"wealthtracker/internal/store/sqlstore"
)

// OpenStore opens the configured cache backend. The returned func
// closes it.
func OpenStore(cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Store.Driver {
	case "postgres":
		s, err := sqlstore.New(sqlstore.Config{
			Host:     cfg.Store.PostgresHost,
			Port:     cfg.Store.PostgresPort,
			User:     cfg.Store.PostgresUser,
			Password: cfg.Store.PostgresPassword,
			Database: cfg.Store.PostgresDatabase,
			SSLMode:  cfg.Store.PostgresSSLMode,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case "redis":
		s, err := redistore.New(redistore.Config{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			Database: cfg.Store.RedisDatabase,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return memstore.New(), func() {}, nil
	}
}

// BuildRegistry wires enabled providers in priority order: registration
// order is the fallback order per asset class. It also returns the
// exchange-rate provider used by the currency converter.
func BuildRegistry(cfg *config.Config, httpClient *httpx.Client) (*provider.Registry, provider.Provider) {
	registry := provider.NewRegistry()

	if cfg.Bitkub.Enabled {
		var p provider.Provider = bitkub.New(bitkub.Config{
			Endpoint:      cfg.Bitkub.Endpoint,
			SchemaVersion: cfg.Bitkub.SchemaVersion,
			Symbols:       cfg.Bitkub.Symbols,
		}, httpClient)
		p = ratelimit.New(p, cfg.Bitkub.MaxRequestsPerMinute, cfg.Bitkub.Burst)
		if cfg.Bitkub.TickerCacheTTLSec > 0 {
			p = &cached.Provider{P: p, TTL: time.Duration(cfg.Bitkub.TickerCacheTTLSec) * time.Second, MaxItems: 1000}
		}
		registry.Register(p)
	}
	if cfg.Cryptoprices.Enabled {
		var p provider.Provider = cryptoprices.New(cryptoprices.Config{Endpoint: cfg.Cryptoprices.Endpoint}, httpClient)
		p = ratelimit.New(p, cfg.Cryptoprices.MaxRequestsPerMinute, cfg.Cryptoprices.Burst)
		registry.Register(p)
	}
	if cfg.Coingecko.Enabled {
		var p provider.Provider = coingecko.New(coingecko.Config{
			Endpoint:   cfg.Coingecko.Endpoint,
			VsCurrency: cfg.Coingecko.VsCurrency,
		}, httpClient)
		p = ratelimit.New(p, cfg.Coingecko.MaxRequestsPerMinute, cfg.Coingecko.Burst)
		registry.Register(p)
	}
	if cfg.SET.Enabled && len(cfg.SET.Symbols) > 0 {
		registry.Register(scrape.NewSET(cfg.SET.Symbols, browserClient(httpClient)))
	}
	if cfg.Yahoo.Enabled {
		opts := []yahoo.ClientOption{yahoo.WithHTTPClient(httpClient.HTTP)}
		if cfg.Yahoo.BaseURL != "" {
			opts = append(opts, yahoo.WithBaseURL(cfg.Yahoo.BaseURL))
		}
		var p provider.Provider = yahoo.New(yahoo.Config{}, yahoo.NewClient(opts...))
		p = ratelimit.New(p, cfg.Yahoo.MaxRequestsPerMinute, cfg.Yahoo.Burst)
		registry.Register(p)
	}
	if len(cfg.Funds.SCBAM) > 0 {
		registry.Register(scrape.NewSCBAM(cfg.Funds.SCBAM, browserClient(httpClient)))
	}
	if len(cfg.Funds.FundSuperMart) > 0 {
		registry.Register(scrape.NewFundSuperMart(cfg.Funds.FundSuperMart, browserClient(httpClient)))
	}
	if cfg.Gold.Enabled {
		registry.Register(scrape.NewGold(browserClient(httpClient)))
	}

	rateProvider := exchangerate.New(exchangerate.Config{Endpoint: cfg.ExchangeRate.Endpoint}, httpClient)
	registry.Register(rateProvider)

	return registry, rateProvider
}

// BuildOrchestrator assembles the full request path on top of an open
// store.
func BuildOrchestrator(cfg *config.Config, st store.Store, log *slog.Logger) *orchestrate.Orchestrator {
	httpClient := httpx.New(cfg.FetchTimeout())
	registry, rateProvider := BuildRegistry(cfg, httpClient)
	converter := rates.NewConverter(rateProvider, st, cfg.TTL.TTLs().ByType[asset.ExchangeRate], log)
	resolver := resolve.New(registry, converter, cfg.FetchTimeout(), log)
	return orchestrate.New(st, resolver, cfg.TTL.TTLs(), log)
}

// browserClient clones the shared client with a browser User-Agent for
// scraped pages.
func browserClient(c *httpx.Client) *httpx.Client {
	return &httpx.Client{HTTP: c.HTTP, UserAgent: httpx.BrowserUserAgent, Headers: c.Headers}
}
