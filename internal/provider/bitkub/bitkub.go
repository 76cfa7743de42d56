// Package bitkub quotes crypto symbols in THB from the Bitkub exchange
// ticker. The exchange changed wire schema between API versions: v1
// returns a map keyed by ticker pair with numeric fields, v3 returns an
// array of ticker records with string fields. The parser is selected by
// an explicit schema version tag, never by probing the payload.
package bitkub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"wealthtracker/internal/asset"
	"wealthtracker/internal/httpx"
	"wealthtracker/internal/pricing"
)

const (
	SchemaV1 = "v1"
	SchemaV3 = "v3"
)

type Config struct {
	Name          string
	Endpoint      string
	SchemaVersion string
	// Symbols the exchange lists against THB; this is the provider's
	// capability set.
	Symbols []string
}

type Provider struct {
	cfg    Config
	client *httpx.Client
	listed map[string]struct{}
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "bitkub"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.bitkub.com/api/market/ticker"
	}
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = SchemaV1
	}
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = []string{"BTC", "ETH", "KUB", "USDT", "ADA", "DOGE", "BNB", "XRP"}
	}
	listed := make(map[string]struct{}, len(cfg.Symbols))
	for _, s := range cfg.Symbols {
		listed[strings.ToUpper(s)] = struct{}{}
	}
	return &Provider{cfg: cfg, client: hc, listed: listed}
}

func (p *Provider) Name() string { return p.cfg.Name }

func (p *Provider) Supports(t asset.Type, symbol string) bool {
	if t != asset.Crypto {
		return false
	}
	_, ok := p.listed[strings.ToUpper(symbol)]
	return ok
}

func (p *Provider) Fetch(ctx context.Context, symbol string) (pricing.Quote, error) {
	symbol = strings.ToUpper(symbol)
	switch p.cfg.SchemaVersion {
	case SchemaV1:
		return p.fetchV1(ctx, symbol)
	case SchemaV3:
		return p.fetchV3(ctx, symbol)
	default:
		return pricing.Quote{}, pricing.Unavailable(p.cfg.Name, fmt.Sprintf("unsupported schema version %q", p.cfg.SchemaVersion), nil)
	}
}

// num accepts both raw JSON numbers and numeric strings; the exchange
// switched between the two across API versions.
type num string

func (n *num) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		s = ""
	}
	*n = num(s)
	return nil
}

// v1 is a map keyed "THB_<SYMBOL>" with numeric fields.
type v1Ticker struct {
	Last          num `json:"last"`
	PercentChange num `json:"percentChange"`
	High24Hr      num `json:"high24hr"`
	Low24Hr       num `json:"low24hr"`
}

func (p *Provider) fetchV1(ctx context.Context, symbol string) (pricing.Quote, error) {
	resp, err := p.client.Get(ctx, p.cfg.Endpoint)
	if err != nil {
		return pricing.Quote{}, pricing.Unavailable(p.cfg.Name, "ticker request", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return pricing.Quote{}, pricing.UnavailableStatus(p.cfg.Name, resp.StatusCode)
	}

	var tickers map[string]v1Ticker
	if err := json.NewDecoder(resp.Body).Decode(&tickers); err != nil {
		return pricing.Quote{}, pricing.Unavailable(p.cfg.Name, "decode ticker", err)
	}
	t, ok := tickers["THB_"+symbol]
	if !ok {
		return pricing.Quote{}, pricing.UnknownSymbol(p.cfg.Name, symbol)
	}
	return p.quote(symbol, t.Last, t.PercentChange, t.High24Hr, t.Low24Hr)
}

// v3 is an array of ticker records keyed "<SYMBOL>_THB" with string
// fields.
type v3Ticker struct {
	Symbol        string `json:"symbol"`
	Last          num    `json:"last"`
	PercentChange num    `json:"percent_change"`
	High24Hr      num    `json:"high_24_hr"`
	Low24Hr       num    `json:"low_24_hr"`
}

func (p *Provider) fetchV3(ctx context.Context, symbol string) (pricing.Quote, error) {
	pair := symbol + "_THB"
	resp, err := p.client.Get(ctx, p.cfg.Endpoint+"?sym="+url.QueryEscape(pair))
	if err != nil {
		return pricing.Quote{}, pricing.Unavailable(p.cfg.Name, "ticker request", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return pricing.Quote{}, pricing.UnavailableStatus(p.cfg.Name, resp.StatusCode)
	}

	var tickers []v3Ticker
	if err := json.NewDecoder(resp.Body).Decode(&tickers); err != nil {
		return pricing.Quote{}, pricing.Unavailable(p.cfg.Name, "decode ticker", err)
	}
	for _, t := range tickers {
		if strings.EqualFold(t.Symbol, pair) {
			return p.quote(symbol, t.Last, t.PercentChange, t.High24Hr, t.Low24Hr)
		}
	}
	return pricing.Quote{}, pricing.UnknownSymbol(p.cfg.Name, symbol)
}

func (p *Provider) quote(symbol string, last, change, high, low num) (pricing.Quote, error) {
	price, err := pricing.ParsePrice(p.cfg.Name, string(last))
	if err != nil {
		return pricing.Quote{}, err
	}
	q := pricing.Quote{
		Symbol:     symbol,
		Price:      price,
		Currency:   "THB",
		Source:     p.cfg.Name,
		ReceivedAt: time.Now().UTC(),
	}
	if c, err := strconv.ParseFloat(string(change), 64); err == nil {
		q.Change24h = &c
	}
	if h, err := pricing.ParsePrice(p.cfg.Name, string(high)); err == nil {
		q.High24h = &h
	}
	if l, err := pricing.ParsePrice(p.cfg.Name, string(low)); err == nil {
		q.Low24h = &l
	}
	return q, nil
}
