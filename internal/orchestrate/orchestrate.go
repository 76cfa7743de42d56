// Package orchestrate is the request-facing policy layer: cache-aside
// single-asset reads and the batch coordinator. The durable store is an
// injected dependency so tests can substitute an in-memory one; there
// is no ambient cache instance.
package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"wealthtracker/internal/asset"
	"wealthtracker/internal/pricing"
	"wealthtracker/internal/store"
)

// StaleWarning marks a response served from cache past its TTL after
// every live provider failed.
const StaleWarning = "stale data"

// NotCachedSource marks a batch placeholder row for a cache miss.
const NotCachedSource = "not_cached"

// Resolver is the live-fetch dependency ([resolve.Resolver]).
type Resolver interface {
	Resolve(ctx context.Context, q pricing.Query) (pricing.Quote, error)
}

// TTLs is the authoritative freshness configuration, one value per
// asset class. Thai-listed stocks trade on a faster book than the
// orchestrator's default stock window, so stock queries priced in THB
// use the dedicated ThaiStock value.
type TTLs struct {
	ByType    map[asset.Type]time.Duration
	ThaiStock time.Duration
}

// DefaultTTLs returns the default freshness windows.
func DefaultTTLs() TTLs {
	return TTLs{
		ByType: map[asset.Type]time.Duration{
			asset.Crypto:       15 * time.Minute,
			asset.Stock:        15 * time.Minute,
			asset.Fund:         30 * time.Minute,
			asset.Commodity:    15 * time.Minute,
			asset.ExchangeRate: time.Hour,
		},
		ThaiStock: 5 * time.Minute,
	}
}

// For returns the TTL governing one query.
func (t TTLs) For(q pricing.Query) time.Duration {
	if q.Type == asset.Stock && strings.EqualFold(q.Currency, "THB") && t.ThaiStock > 0 {
		return t.ThaiStock
	}
	if d, ok := t.ByType[q.Type]; ok {
		return d
	}
	return 15 * time.Minute
}

type Orchestrator struct {
	store          store.Store
	resolver       Resolver
	ttls           TTLs
	refreshTimeout time.Duration
	log            *slog.Logger

	// refreshes deduplicates concurrent background refreshes per key:
	// a trigger while one is in flight joins it instead of issuing a
	// second upstream fetch.
	refreshes singleflight.Group
	wg        sync.WaitGroup

	now func() time.Time
}

func New(s store.Store, r Resolver, ttls TTLs, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:          s,
		resolver:       r,
		ttls:           ttls,
		refreshTimeout: 30 * time.Second,
		log:            log.With("component", "orchestrate"),
		now:            time.Now,
	}
}

// GetPrice serves one price query. Fresh cache is returned immediately
// (with a detached background refresh); otherwise the fallback chain is
// resolved synchronously and written through. When every provider fails
// the last known value is served with a warning; with nothing cached
// the error wraps pricing.ErrPriceUnavailable.
func (o *Orchestrator) GetPrice(ctx context.Context, q pricing.Query) (pricing.Response, error) {
	key := q.Key()

	if !q.ForceRefresh {
		cached, err := o.store.Get(ctx, key)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			// A broken store is a cache miss, never a request failure.
			o.log.Warn("cache read failed", "key", key.String(), "error", err)
		}
		if err == nil && cached.Fresh(o.ttls.For(q), o.now()) {
			o.refreshAsync(q)
			return cachedResponse(q, cached, ""), nil
		}
	}

	quote, err := o.resolver.Resolve(ctx, q)
	if err == nil {
		if perr := o.store.Put(ctx, key, quote.Price, quote.Source); perr != nil {
			o.log.Warn("cache write failed", "key", key.String(), "error", perr)
		}
		return pricing.Response{
			Symbol:   q.Symbol,
			Price:    quote.Price,
			Currency: q.Currency,
			Source:   quote.Source,
			Cached:   false,
		}, nil
	}

	// Last known value, however old.
	if cached, gerr := o.store.Get(ctx, key); gerr == nil {
		o.log.Info("serving stale cache after resolution failure",
			"key", key.String(), "age", o.now().Sub(cached.CachedAt).String(), "error", err)
		return cachedResponse(q, cached, StaleWarning), nil
	}
	return pricing.Response{}, fmt.Errorf("%s: %w: %v", key.String(), pricing.ErrPriceUnavailable, err)
}

// GetMany serves a batch of queries from one multi-key store read,
// preserving input order. It never blocks on upstream providers: cached
// entries of any age are returned as-is, misses get a flagged zero
// placeholder, and refreshes for miss/stale rows run in the background.
func (o *Orchestrator) GetMany(ctx context.Context, queries []pricing.Query) []pricing.Response {
	keys := make([]asset.Key, len(queries))
	for i, q := range queries {
		keys[i] = q.Key()
	}
	cached, err := o.store.GetMany(ctx, keys)
	if err != nil {
		o.log.Warn("batch cache read failed", "keys", len(keys), "error", err)
		cached = map[asset.Key]store.CachedPrice{}
	}

	now := o.now()
	out := make([]pricing.Response, len(queries))
	for i, q := range queries {
		c, ok := cached[q.Key()]
		if ok && !q.ForceRefresh {
			warning := ""
			if !c.Fresh(o.ttls.For(q), now) {
				warning = StaleWarning
				o.refreshAsync(q)
			}
			out[i] = cachedResponse(q, c, warning)
			continue
		}
		out[i] = pricing.Response{
			Symbol:   q.Symbol,
			Currency: q.Currency,
			Source:   NotCachedSource,
			Cached:   false,
			Warning:  "price not cached yet",
		}
		o.refreshAsync(q)
	}
	return out
}

// refreshAsync resolves and writes through in a detached goroutine with
// its own timeout budget. Failures are logged, never surfaced; a
// concurrent refresh for the same key is joined, not duplicated.
func (o *Orchestrator) refreshAsync(q pricing.Query) {
	key := q.Key()
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		_, err, _ := o.refreshes.Do(key.String(), func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), o.refreshTimeout)
			defer cancel()
			quote, err := o.resolver.Resolve(ctx, q)
			if err != nil {
				return nil, err
			}
			if perr := o.store.Put(ctx, key, quote.Price, quote.Source); perr != nil {
				return nil, perr
			}
			return quote, nil
		})
		if err != nil {
			o.log.Warn("background refresh failed", "key", key.String(), "error", err)
		}
	}()
}

// Wait blocks until in-flight background refreshes finish. Used by
// graceful shutdown and tests.
func (o *Orchestrator) Wait() { o.wg.Wait() }

func cachedResponse(q pricing.Query, c store.CachedPrice, warning string) pricing.Response {
	return pricing.Response{
		Symbol:   q.Symbol,
		Price:    c.Price,
		Currency: q.Currency,
		Source:   c.Source,
		Cached:   true,
		CachedAt: c.CachedAt,
		Warning:  warning,
	}
}
