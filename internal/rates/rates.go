// Package rates converts prices between currencies. It is a degenerate
// instance of the cache-aside pattern, keyed by currency pair instead
// of asset symbol, with a static last-resort table behind the live
// provider and the cache.
package rates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wealthtracker/internal/asset"
	"wealthtracker/internal/pricing"
	"wealthtracker/internal/provider"
	"wealthtracker/internal/store"
)

// StaticFallback holds documented approximate rates, used only when the
// live rate provider and the rate cache are both empty.
var StaticFallback = map[string]decimal.Decimal{
	"USDTHB": decimal.RequireFromString("35.5"),
	"CADTHB": decimal.RequireFromString("26.0"),
	"THBUSD": decimal.RequireFromString("0.028"),
	"THBCAD": decimal.RequireFromString("0.038"),
}

// ErrRateUnavailable means no live rate, no cached rate and no static
// entry exist for the pair.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

type Converter struct {
	provider provider.Provider
	store    store.Store
	ttl      time.Duration
	static   map[string]decimal.Decimal
	log      *slog.Logger
}

func NewConverter(p provider.Provider, s store.Store, ttl time.Duration, log *slog.Logger) *Converter {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Converter{provider: p, store: s, ttl: ttl, static: StaticFallback, log: log.With("component", "rates")}
}

// Rate returns the conversion rate from one currency to another along
// with the source that produced it ("cache", the provider name,
// "cache_stale" or "static").
func (c *Converter) Rate(ctx context.Context, from, to string) (decimal.Decimal, string, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1), "identity", nil
	}
	pair := from + to
	key := asset.Key{Type: asset.ExchangeRate, Symbol: pair, Currency: to}
	now := time.Now()

	// Fresh cache wins. Store read errors degrade to a miss.
	cached, err := c.store.Get(ctx, key)
	haveCached := err == nil
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		c.log.Warn("rate cache read failed", "pair", pair, "error", err)
	}
	if haveCached && cached.Fresh(c.ttl, now) {
		return cached.Price, "cache", nil
	}

	q, err := c.provider.Fetch(ctx, pair)
	if err == nil {
		if perr := c.store.Put(ctx, key, q.Price, q.Source); perr != nil {
			c.log.Warn("rate cache write failed", "pair", pair, "error", perr)
		}
		return q.Price, q.Source, nil
	}
	c.log.Debug("live rate fetch failed", "pair", pair, "error", err)

	// Last known rate, however old.
	if haveCached {
		return cached.Price, "cache_stale", nil
	}
	if rate, ok := c.static[pair]; ok {
		return rate, "static", nil
	}
	return decimal.Zero, "", fmt.Errorf("%w: %s", ErrRateUnavailable, pair)
}

// Convert converts a quote's price into the requested currency. The
// returned quote keeps its provenance; a converted price appends the
// rate source to it.
func (c *Converter) Convert(ctx context.Context, q pricing.Quote, currency string) (pricing.Quote, error) {
	currency = strings.ToUpper(currency)
	if strings.ToUpper(q.Currency) == currency {
		return q, nil
	}
	rate, rateSource, err := c.Rate(ctx, q.Currency, currency)
	if err != nil {
		return pricing.Quote{}, err
	}
	q.Price = q.Price.Mul(rate)
	q.Currency = currency
	q.Source = q.Source + "+" + rateSource
	// OHLC context no longer matches the converted currency.
	q.High24h, q.Low24h = nil, nil
	return q, nil
}
