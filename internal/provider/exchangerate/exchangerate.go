// Package exchangerate quotes currency pairs from the
// exchangerate-api.com latest endpoint. A pair symbol is the two ISO
// codes concatenated, e.g. "USDTHB".
package exchangerate

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"wealthtracker/internal/asset"
	"wealthtracker/internal/httpx"
	"wealthtracker/internal/pricing"
)

type Config struct {
	Name     string
	Endpoint string
}

type Provider struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "exchangerate-api"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.exchangerate-api.com/v4/latest"
	}
	return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() string { return p.cfg.Name }

func (p *Provider) Supports(t asset.Type, symbol string) bool {
	return t == asset.ExchangeRate && len(symbol) == 6
}

// SplitPair splits a six-letter pair symbol into base and quote codes.
func SplitPair(symbol string) (from, to string, ok bool) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if len(s) != 6 {
		return "", "", false
	}
	return s[:3], s[3:], true
}

func (p *Provider) Fetch(ctx context.Context, symbol string) (pricing.Quote, error) {
	from, to, ok := SplitPair(symbol)
	if !ok {
		return pricing.Quote{}, pricing.UnknownSymbol(p.cfg.Name, symbol)
	}
	resp, err := p.client.Get(ctx, p.cfg.Endpoint+"/"+from)
	if err != nil {
		return pricing.Quote{}, pricing.Unavailable(p.cfg.Name, "rate request", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return pricing.Quote{}, pricing.UnavailableStatus(p.cfg.Name, resp.StatusCode)
	}

	var body struct {
		Rates map[string]json.Number `json:"rates"`
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return pricing.Quote{}, pricing.Unavailable(p.cfg.Name, "decode rates", err)
	}
	raw, ok := body.Rates[to]
	if !ok {
		return pricing.Quote{}, pricing.UnknownSymbol(p.cfg.Name, symbol)
	}
	rate, err := pricing.ParsePrice(p.cfg.Name, raw.String())
	if err != nil {
		return pricing.Quote{}, err
	}
	return pricing.Quote{
		Symbol:     from + to,
		Price:      rate,
		Currency:   to,
		Source:     p.cfg.Name,
		ReceivedAt: time.Now().UTC(),
	}, nil
}
