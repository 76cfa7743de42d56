// Package ratelimit gates provider calls behind a token-bucket limiter.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"

	"wealthtracker/internal/asset"
	"wealthtracker/internal/pricing"
	"wealthtracker/internal/provider"
)

// Provider wraps an upstream provider and waits for a limiter token
// before each fetch, or returns early when the context is canceled.
type Provider struct {
	P       provider.Provider
	Limiter *rate.Limiter
}

// New wraps p with a limiter allowing rpm requests per minute with the
// given burst. A non-positive rpm disables limiting.
func New(p provider.Provider, rpm float64, burst int) *Provider {
	if burst <= 0 {
		burst = 1
	}
	var lim *rate.Limiter
	if rpm > 0 {
		lim = rate.NewLimiter(rate.Limit(rpm/60.0), burst)
	}
	return &Provider{P: p, Limiter: lim}
}

func (p *Provider) Name() string { return p.P.Name() }

func (p *Provider) Supports(t asset.Type, symbol string) bool { return p.P.Supports(t, symbol) }

func (p *Provider) Fetch(ctx context.Context, symbol string) (pricing.Quote, error) {
	if p.Limiter != nil {
		if err := p.Limiter.Wait(ctx); err != nil {
			return pricing.Quote{}, pricing.Unavailable(p.P.Name(), "rate limiter wait", err)
		}
	}
	return p.P.Fetch(ctx, symbol)
}
