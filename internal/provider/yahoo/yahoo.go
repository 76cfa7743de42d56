package yahoo

import (
	"context"
	"strings"
	"time"

	"wealthtracker/internal/asset"
	"wealthtracker/internal/pricing"
)

type Config struct {
	Name string
}

// Provider adapts the chart client to the provider contract. It is the
// generic stock quote source: it accepts any stock symbol and reports
// whatever currency the listing trades in.
type Provider struct {
	cfg    Config
	client *Client
}

func New(cfg Config, client *Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "yahoo"
	}
	return &Provider{cfg: cfg, client: client}
}

func (p *Provider) Name() string { return p.cfg.Name }

func (p *Provider) Supports(t asset.Type, _ string) bool { return t == asset.Stock }

func (p *Provider) Fetch(ctx context.Context, symbol string) (pricing.Quote, error) {
	price, currency, err := p.client.RegularMarketPrice(ctx, symbol)
	if err != nil {
		return pricing.Quote{}, err
	}
	return pricing.Quote{
		Symbol:     strings.ToUpper(symbol),
		Price:      price,
		Currency:   currency,
		Source:     p.cfg.Name,
		ReceivedAt: time.Now().UTC(),
	}, nil
}
