package cached

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"wealthtracker/internal/asset"
	"wealthtracker/internal/pricing"
)

type scriptedProvider struct {
	calls int
	err   error
}

func (s *scriptedProvider) Name() string                     { return "scripted" }
func (s *scriptedProvider) Supports(asset.Type, string) bool { return true }

func (s *scriptedProvider) Fetch(_ context.Context, symbol string) (pricing.Quote, error) {
	s.calls++
	if s.err != nil {
		return pricing.Quote{}, s.err
	}
	return pricing.Quote{Symbol: symbol, Price: decimal.NewFromInt(int64(s.calls))}, nil
}

func TestFetch_SecondCallServedFromCache(t *testing.T) {
	inner := &scriptedProvider{}
	p := &Provider{P: inner, TTL: time.Minute}

	first, err := p.Fetch(context.Background(), "BTC")
	if err != nil {
		t.Fatal(err)
	}
	second, err := p.Fetch(context.Background(), "BTC")
	if err != nil {
		t.Fatal(err)
	}
	if inner.calls != 1 {
		t.Fatalf("want one upstream call, got %d", inner.calls)
	}
	if !first.Price.Equal(second.Price) {
		t.Fatalf("cached quote differs: %s vs %s", first.Price, second.Price)
	}
}

func TestFetch_DistinctSymbolsCachedSeparately(t *testing.T) {
	inner := &scriptedProvider{}
	p := &Provider{P: inner, TTL: time.Minute}

	if _, err := p.Fetch(context.Background(), "BTC"); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Fetch(context.Background(), "ETH"); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Fatalf("want one upstream call per symbol, got %d", inner.calls)
	}
}

func TestFetch_FailuresNotCached(t *testing.T) {
	inner := &scriptedProvider{err: pricing.Unavailable("scripted", "down", nil)}
	p := &Provider{P: inner, TTL: time.Minute}

	if _, err := p.Fetch(context.Background(), "BTC"); err == nil {
		t.Fatalf("want error from upstream")
	}
	inner.err = nil
	if _, err := p.Fetch(context.Background(), "BTC"); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Fatalf("failure must not be cached, got %d calls", inner.calls)
	}
}

func TestFetch_ZeroTTLBypassesCache(t *testing.T) {
	inner := &scriptedProvider{}
	p := &Provider{P: inner}

	for range 3 {
		if _, err := p.Fetch(context.Background(), "BTC"); err != nil {
			t.Fatal(err)
		}
	}
	if inner.calls != 3 {
		t.Fatalf("zero ttl must bypass the cache, got %d calls", inner.calls)
	}
}
