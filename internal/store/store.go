// Package store defines the durable price cache port. Records are keyed
// by (asset type, symbol, currency); writes are last-writer-wins
// upserts on that key and staleness is derived from CachedAt, never
// stored.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"wealthtracker/internal/asset"
)

// ErrNotFound is returned by Get when no record exists for the key.
var ErrNotFound = errors.New("price not cached")

// CachedPrice is the last known price for one asset in one currency.
type CachedPrice struct {
	Key      asset.Key
	Price    decimal.Decimal
	Source   string
	CachedAt time.Time
}

// Fresh reports whether the record is younger than ttl.
func (c CachedPrice) Fresh(ttl time.Duration, now time.Time) bool {
	return now.Sub(c.CachedAt) < ttl
}

// Store is the durable cache. Implementations need per-key atomicity
// only; concurrent writers racing on one key is acceptable because a
// price is a point-in-time external fact.
type Store interface {
	Get(ctx context.Context, key asset.Key) (CachedPrice, error)
	// Put upserts on the natural key with CachedAt set by the store.
	Put(ctx context.Context, key asset.Key, price decimal.Decimal, source string) error
	// GetMany reads all keys in one round trip; absent keys are simply
	// missing from the result map.
	GetMany(ctx context.Context, keys []asset.Key) (map[asset.Key]CachedPrice, error)
}
