// Package resolve walks an asset's fallback chain until one provider
// succeeds. Providers are tried strictly in priority order, one at a
// time: priority encodes trust and cost, not speed, so the first
// success wins and later providers are never consulted.
package resolve

import (
	"context"
	"log/slog"
	"time"

	"wealthtracker/internal/pricing"
	"wealthtracker/internal/provider"
	"wealthtracker/internal/rates"
)

type Resolver struct {
	registry  *provider.Registry
	converter *rates.Converter
	timeout   time.Duration
	log       *slog.Logger
}

// New builds a resolver. timeout bounds each individual adapter call;
// a provider that times out does not eat into the next provider's
// budget.
func New(reg *provider.Registry, conv *rates.Converter, timeout time.Duration, log *slog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Resolver{registry: reg, converter: conv, timeout: timeout, log: log.With("component", "resolve")}
}

// Resolve fetches a live quote for the query, normalized to the
// requested currency. On total failure it returns a *ResolutionError
// wrapping pricing.ErrAllProvidersFailed; falling back to stale cache
// is the caller's job.
func (r *Resolver) Resolve(ctx context.Context, q pricing.Query) (pricing.Quote, error) {
	chain := r.registry.ChainFor(q.Type, q.Symbol)
	if len(chain) == 0 {
		return pricing.Quote{}, pricing.ErrNoProviders
	}

	var attempts []error
	for _, p := range chain {
		cctx, cancel := context.WithTimeout(ctx, r.timeout)
		quote, err := p.Fetch(cctx, q.Symbol)
		cancel()
		if err != nil {
			r.log.Debug("provider failed, trying next",
				"provider", p.Name(), "symbol", q.Symbol, "error", err)
			attempts = append(attempts, err)
			continue
		}
		quote, err = r.converter.Convert(ctx, quote, q.Currency)
		if err != nil {
			r.log.Debug("currency conversion failed, trying next",
				"provider", p.Name(), "symbol", q.Symbol, "error", err)
			attempts = append(attempts, err)
			continue
		}
		return quote, nil
	}
	return pricing.Quote{}, &pricing.ResolutionError{Symbol: q.Symbol, Attempts: attempts}
}
