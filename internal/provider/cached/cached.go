// Package cached wraps a provider with a short in-process TTL cache per
// symbol. It is a micro-cache for chatty ticker endpoints (the durable
// cache store is a separate layer); a 60s TTL gives the exchange ticker
// an ultra-fresh view without hammering the upstream.
package cached

import (
	"context"
	"sync"
	"time"

	"wealthtracker/internal/asset"
	"wealthtracker/internal/pricing"
	"wealthtracker/internal/provider"
)

type entry struct {
	expiresAt time.Time
	quote     pricing.Quote
}

// Provider caches successful fetches per symbol for a TTL. Failures are
// never cached.
type Provider struct {
	P        provider.Provider
	TTL      time.Duration
	MaxItems int

	mu    sync.RWMutex
	items map[string]entry
}

func (c *Provider) Name() string { return c.P.Name() }

func (c *Provider) Supports(t asset.Type, symbol string) bool { return c.P.Supports(t, symbol) }

func (c *Provider) Fetch(ctx context.Context, symbol string) (pricing.Quote, error) {
	if c.TTL <= 0 {
		return c.P.Fetch(ctx, symbol)
	}

	now := time.Now()
	c.mu.RLock()
	e, ok := c.items[symbol]
	c.mu.RUnlock()
	if ok && now.Before(e.expiresAt) {
		return e.quote, nil
	}

	q, err := c.P.Fetch(ctx, symbol)
	if err != nil {
		return pricing.Quote{}, err
	}

	c.mu.Lock()
	if c.items == nil {
		c.items = make(map[string]entry)
	}
	c.items[symbol] = entry{expiresAt: now.Add(c.TTL), quote: q}
	// best-effort cap: drop expired entries first, then arbitrary ones
	if c.MaxItems > 0 && len(c.items) > c.MaxItems {
		for k, v := range c.items {
			if now.After(v.expiresAt) {
				delete(c.items, k)
			}
			if len(c.items) <= c.MaxItems {
				break
			}
		}
		for k := range c.items {
			if len(c.items) <= c.MaxItems {
				break
			}
			delete(c.items, k)
		}
	}
	c.mu.Unlock()
	return q, nil
}
