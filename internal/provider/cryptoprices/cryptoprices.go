// Package cryptoprices quotes any crypto symbol in USD from the
// cryptoprices.cc plain-text endpoint. It is the generic fallback for
// symbols the exchange ticker does not list.
package cryptoprices

import (
	"context"
	"io"
	"net/url"
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
		cfg.Name = "cryptoprices"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://cryptoprices.cc"
	}
	return &Provider{cfg: cfg, client: hc}
}

func (p *Provider) Name() string { return p.cfg.Name }

// Supports accepts every crypto symbol; the endpoint answers 404 for
// unknown ones.
func (p *Provider) Supports(t asset.Type, _ string) bool { return t == asset.Crypto }

func (p *Provider) Fetch(ctx context.Context, symbol string) (pricing.Quote, error) {
	u := p.cfg.Endpoint + "/" + url.PathEscape(strings.ToUpper(symbol)) + "/"
	resp, err := p.client.Get(ctx, u)
	if err != nil {
		return pricing.Quote{}, pricing.Unavailable(p.cfg.Name, "price request", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == 404 {
		return pricing.Quote{}, pricing.UnknownSymbol(p.cfg.Name, symbol)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return pricing.Quote{}, pricing.UnavailableStatus(p.cfg.Name, resp.StatusCode)
	}

	// The body is the bare USD price as text.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
	if err != nil {
		return pricing.Quote{}, pricing.Unavailable(p.cfg.Name, "read body", err)
	}
	price, err := pricing.ParsePrice(p.cfg.Name, string(body))
	if err != nil {
		return pricing.Quote{}, err
	}
	return pricing.Quote{
		Symbol:     strings.ToUpper(symbol),
		Price:      price,
		Currency:   "USD",
		Source:     p.cfg.Name,
		ReceivedAt: time.Now().UTC(),
	}, nil
}
