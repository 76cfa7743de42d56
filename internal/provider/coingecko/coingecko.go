// Package coingecko quotes crypto symbols from the CoinGecko
// simple-price API. CoinGecko addresses coins by its own ids, so the
// adapter carries a symbol-to-id table.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"wealthtracker/internal/asset"
	"wealthtracker/internal/httpx"
	"wealthtracker/internal/pricing"
)

// defaultIDs maps common ticker symbols to CoinGecko coin ids.
var defaultIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"BNB":   "binancecoin",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"SOL":   "solana",
	"DOT":   "polkadot",
	"MATIC": "matic-network",
	"KUB":   "bitkub-coin",
	"USDT":  "tether",
	"USDC":  "usd-coin",
}

type Config struct {
	Name     string
	Endpoint string
	// VsCurrency is the currency CoinGecko is asked to quote in.
	VsCurrency string
	// IDOverrides extends or replaces entries of the built-in
	// symbol-to-id table.
	IDOverrides map[string]string
}

type Provider struct {
	cfg Config
	ids map[string]string

	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "coingecko"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.coingecko.com/api/v3/simple/price"
	}
	if cfg.VsCurrency == "" {
		cfg.VsCurrency = "THB"
	}
	ids := make(map[string]string, len(defaultIDs)+len(cfg.IDOverrides))
	for k, v := range defaultIDs {
		ids[k] = v
	}
	for k, v := range cfg.IDOverrides {
		ids[strings.ToUpper(k)] = v
	}
	return &Provider{cfg: cfg, ids: ids, client: hc}
}

func (p *Provider) Name() string { return p.cfg.Name }

func (p *Provider) Supports(t asset.Type, symbol string) bool {
	if t != asset.Crypto {
		return false
	}
	_, ok := p.ids[strings.ToUpper(symbol)]
	return ok
}

func (p *Provider) Fetch(ctx context.Context, symbol string) (pricing.Quote, error) {
	id, ok := p.ids[strings.ToUpper(symbol)]
	if !ok {
		return pricing.Quote{}, pricing.UnknownSymbol(p.cfg.Name, symbol)
	}
	vs := strings.ToLower(p.cfg.VsCurrency)
	u := fmt.Sprintf("%s?ids=%s&vs_currencies=%s", p.cfg.Endpoint, id, vs)
	resp, err := p.client.Get(ctx, u)
	if err != nil {
		return pricing.Quote{}, pricing.Unavailable(p.cfg.Name, "price request", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return pricing.Quote{}, pricing.UnavailableStatus(p.cfg.Name, resp.StatusCode)
	}

	var body map[string]map[string]json.Number
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return pricing.Quote{}, pricing.Unavailable(p.cfg.Name, "decode response", err)
	}
	raw, ok := body[id][vs]
	if !ok {
		return pricing.Quote{}, pricing.UnknownSymbol(p.cfg.Name, symbol)
	}
	price, err := pricing.ParsePrice(p.cfg.Name, raw.String())
	if err != nil {
		return pricing.Quote{}, err
	}
	return pricing.Quote{
		Symbol:     strings.ToUpper(symbol),
		Price:      price,
		Currency:   strings.ToUpper(p.cfg.VsCurrency),
		Source:     p.cfg.Name,
		ReceivedAt: time.Now().UTC(),
	}, nil
}
