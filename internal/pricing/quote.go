// Package pricing holds the normalized price values exchanged between
// providers, the resolver and the orchestrator, plus the error taxonomy
// for fetch and resolution failures.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"wealthtracker/internal/asset"
)

// Quote is the normalized shape returned by all providers. Price is a
// decimal to avoid float rounding on money values.
type Quote struct {
	Symbol     string          `json:"symbol"`
	Price      decimal.Decimal `json:"price"`
	Currency   string          `json:"currency"`
	Source     string          `json:"source"`
	ReceivedAt time.Time       `json:"received_at"`

	// Optional market context, present when the provider reports it.
	Change24h *float64         `json:"change_24h,omitempty"`
	High24h   *decimal.Decimal `json:"high_24h,omitempty"`
	Low24h    *decimal.Decimal `json:"low_24h,omitempty"`
}

// Query is an ephemeral price request. It is never persisted.
type Query struct {
	Type         asset.Type
	Symbol       string
	Currency     string
	ForceRefresh bool
}

// Key returns the cache natural key for the query.
func (q Query) Key() asset.Key {
	return asset.Key{Type: q.Type, Symbol: q.Symbol, Currency: q.Currency}
}

// Response is what the caller-facing surface returns. A degraded value
// (stale cache, batch placeholder) always carries a Warning so it stays
// distinguishable from a real zero-value price.
type Response struct {
	Symbol   string          `json:"symbol"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	Source   string          `json:"source"`
	Cached   bool            `json:"cached"`
	CachedAt time.Time       `json:"cached_at,omitempty"`
	Warning  string          `json:"warning,omitempty"`
}
