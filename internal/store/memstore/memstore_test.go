package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"wealthtracker/internal/asset"
	"wealthtracker/internal/store"
)

func TestPutGet_UpsertOnNaturalKey(t *testing.T) {
	s := New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return now }

	key := asset.Key{Type: asset.Crypto, Symbol: "BTC", Currency: "THB"}
	ctx := context.Background()

	if _, err := s.Get(ctx, key); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	if err := s.Put(ctx, key, decimal.RequireFromString("3500000"), "bitkub"); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if got.Source != "bitkub" || !got.CachedAt.Equal(now) {
		t.Fatalf("unexpected record: %+v", got)
	}

	// Second write replaces, never duplicates.
	now = now.Add(time.Minute)
	if err := s.Put(ctx, key, decimal.RequireFromString("3600000"), "coingecko"); err != nil {
		t.Fatal(err)
	}
	got, err = s.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if got.Price.String() != "3600000" || got.Source != "coingecko" {
		t.Fatalf("upsert did not replace: %+v", got)
	}
}

func TestGetMany_AbsentKeysMissing(t *testing.T) {
	s := New()
	ctx := context.Background()

	btc := asset.Key{Type: asset.Crypto, Symbol: "BTC", Currency: "THB"}
	eth := asset.Key{Type: asset.Crypto, Symbol: "ETH", Currency: "THB"}
	s.Seed(btc, decimal.RequireFromString("3500000"), "bitkub", time.Now().UTC())

	out, err := s.GetMany(ctx, []asset.Key{btc, eth})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 {
		t.Fatalf("want 1 hit, got %d", len(out))
	}
	if _, ok := out[eth]; ok {
		t.Fatalf("absent key must be missing from result")
	}
}

func TestCachedPrice_Fresh(t *testing.T) {
	now := time.Now()
	c := store.CachedPrice{CachedAt: now.Add(-4 * time.Minute)}
	if !c.Fresh(5*time.Minute, now) {
		t.Fatalf("4m old with 5m ttl must be fresh")
	}
	if c.Fresh(4*time.Minute, now) {
		t.Fatalf("exactly ttl old must be stale")
	}
}
