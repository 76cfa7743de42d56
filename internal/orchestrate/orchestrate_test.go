package orchestrate_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"wealthtracker/internal/asset"
	"wealthtracker/internal/orchestrate"
	"wealthtracker/internal/pricing"
	"wealthtracker/internal/store/memstore"
)

// fakeResolver counts calls and returns a canned quote or error. An
// optional gate blocks every resolution until released.
type fakeResolver struct {
	mu    sync.Mutex
	calls []pricing.Query

	quote pricing.Quote
	err   error
	gate  chan struct{}
}

func (f *fakeResolver) Resolve(ctx context.Context, q pricing.Query) (pricing.Quote, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q)
	f.mu.Unlock()
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return pricing.Quote{}, ctx.Err()
		}
	}
	if f.err != nil {
		return pricing.Quote{}, f.err
	}
	return f.quote, nil
}

func (f *fakeResolver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func btcQuery() pricing.Query {
	return pricing.Query{Type: asset.Crypto, Symbol: "BTC", Currency: "THB"}
}

func thbQuote(symbol, price, source string) pricing.Quote {
	return pricing.Quote{
		Symbol:     symbol,
		Price:      decimal.RequireFromString(price),
		Currency:   "THB",
		Source:     source,
		ReceivedAt: time.Now(),
	}
}

func TestGetPrice_FreshCacheHit(t *testing.T) {
	st := memstore.New()
	st.Seed(btcQuery().Key(), decimal.RequireFromString("3500000"), "bitkub", time.Now().Add(-time.Minute).UTC())

	res := &fakeResolver{quote: thbQuote("BTC", "3600000", "bitkub")}
	o := orchestrate.New(st, res, orchestrate.DefaultTTLs(), discard())

	resp, err := o.GetPrice(context.Background(), btcQuery())
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Cached || resp.Warning != "" {
		t.Fatalf("want clean cached response, got %+v", resp)
	}
	if resp.Price.String() != "3500000" || resp.Source != "bitkub" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	// The hit still triggers a detached refresh.
	o.Wait()
	if res.callCount() != 1 {
		t.Fatalf("want 1 background resolve, got %d", res.callCount())
	}
	got, err := st.Get(context.Background(), btcQuery().Key())
	if err != nil {
		t.Fatal(err)
	}
	if got.Price.String() != "3600000" {
		t.Fatalf("background refresh did not write through: %+v", got)
	}
}

func TestGetPrice_MissResolvesAndWritesThrough(t *testing.T) {
	st := memstore.New()
	res := &fakeResolver{quote: thbQuote("BTC", "3500000", "bitkub")}
	o := orchestrate.New(st, res, orchestrate.DefaultTTLs(), discard())

	resp, err := o.GetPrice(context.Background(), btcQuery())
	if err != nil {
		t.Fatal(err)
	}
	if resp.Cached {
		t.Fatalf("miss must resolve live: %+v", resp)
	}
	if resp.Price.String() != "3500000" || resp.Source != "bitkub" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	got, err := st.Get(context.Background(), btcQuery().Key())
	if err != nil {
		t.Fatalf("write-through missing: %v", err)
	}
	if got.Price.String() != "3500000" {
		t.Fatalf("unexpected cached record: %+v", got)
	}
}

func TestGetPrice_ExpiredEntryResolvesSynchronously(t *testing.T) {
	st := memstore.New()
	st.Seed(btcQuery().Key(), decimal.RequireFromString("3400000"), "bitkub", time.Now().Add(-time.Hour).UTC())

	res := &fakeResolver{quote: thbQuote("BTC", "3500000", "bitkub")}
	o := orchestrate.New(st, res, orchestrate.DefaultTTLs(), discard())

	resp, err := o.GetPrice(context.Background(), btcQuery())
	if err != nil {
		t.Fatal(err)
	}
	if resp.Cached || resp.Price.String() != "3500000" {
		t.Fatalf("expired entry must resolve live: %+v", resp)
	}
}

func TestGetPrice_ServesStaleWhenAllProvidersFail(t *testing.T) {
	st := memstore.New()
	cachedAt := time.Now().Add(-2 * time.Hour).UTC()
	st.Seed(btcQuery().Key(), decimal.RequireFromString("3400000"), "bitkub", cachedAt)

	res := &fakeResolver{err: &pricing.ResolutionError{Symbol: "BTC"}}
	o := orchestrate.New(st, res, orchestrate.DefaultTTLs(), discard())

	resp, err := o.GetPrice(context.Background(), btcQuery())
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Cached || resp.Warning != orchestrate.StaleWarning {
		t.Fatalf("want stale cached response with warning, got %+v", resp)
	}
	if resp.Price.String() != "3400000" || !resp.CachedAt.Equal(cachedAt) {
		t.Fatalf("unexpected stale response: %+v", resp)
	}
}

func TestGetPrice_TotalFailure(t *testing.T) {
	st := memstore.New()
	res := &fakeResolver{err: &pricing.ResolutionError{Symbol: "BTC"}}
	o := orchestrate.New(st, res, orchestrate.DefaultTTLs(), discard())

	_, err := o.GetPrice(context.Background(), btcQuery())
	if !errors.Is(err, pricing.ErrPriceUnavailable) {
		t.Fatalf("want ErrPriceUnavailable, got %v", err)
	}
}

func TestGetPrice_ForceRefreshBypassesFreshCache(t *testing.T) {
	st := memstore.New()
	st.Seed(btcQuery().Key(), decimal.RequireFromString("3400000"), "bitkub", time.Now().UTC())

	res := &fakeResolver{quote: thbQuote("BTC", "3500000", "bitkub")}
	o := orchestrate.New(st, res, orchestrate.DefaultTTLs(), discard())

	q := btcQuery()
	q.ForceRefresh = true
	resp, err := o.GetPrice(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Cached || resp.Price.String() != "3500000" {
		t.Fatalf("force refresh must resolve live: %+v", resp)
	}
}

func TestGetMany_MixedHitsStaleAndMisses(t *testing.T) {
	st := memstore.New()
	fresh := pricing.Query{Type: asset.Crypto, Symbol: "BTC", Currency: "THB"}
	stale := pricing.Query{Type: asset.Crypto, Symbol: "ETH", Currency: "THB"}
	miss := pricing.Query{Type: asset.Crypto, Symbol: "KUB", Currency: "THB"}
	st.Seed(fresh.Key(), decimal.RequireFromString("3500000"), "bitkub", time.Now().Add(-time.Minute).UTC())
	st.Seed(stale.Key(), decimal.RequireFromString("120000"), "bitkub", time.Now().Add(-time.Hour).UTC())

	res := &fakeResolver{quote: thbQuote("X", "1", "bitkub")}
	o := orchestrate.New(st, res, orchestrate.DefaultTTLs(), discard())

	out := o.GetMany(context.Background(), []pricing.Query{fresh, stale, miss})
	if len(out) != 3 {
		t.Fatalf("want 3 rows, got %d", len(out))
	}

	if !out[0].Cached || out[0].Warning != "" || out[0].Symbol != "BTC" {
		t.Fatalf("fresh row wrong: %+v", out[0])
	}
	if !out[1].Cached || out[1].Warning != orchestrate.StaleWarning {
		t.Fatalf("stale row must carry warning: %+v", out[1])
	}
	if out[1].Price.String() != "120000" {
		t.Fatalf("stale row must keep last value: %+v", out[1])
	}
	if out[2].Cached || out[2].Source != orchestrate.NotCachedSource || out[2].Warning == "" {
		t.Fatalf("miss row must be a flagged placeholder: %+v", out[2])
	}
	if !out[2].Price.IsZero() {
		t.Fatalf("placeholder price must be zero: %+v", out[2])
	}

	// Stale and miss rows refresh in the background; fresh does not.
	o.Wait()
	if got := res.callCount(); got != 2 {
		t.Fatalf("want 2 background resolves, got %d", got)
	}
}

func TestGetMany_NeverBlocksOnProviders(t *testing.T) {
	st := memstore.New()
	res := &fakeResolver{gate: make(chan struct{}), quote: thbQuote("BTC", "3500000", "bitkub")}
	o := orchestrate.New(st, res, orchestrate.DefaultTTLs(), discard())

	done := make(chan []pricing.Response, 1)
	go func() {
		done <- o.GetMany(context.Background(), []pricing.Query{btcQuery()})
	}()
	select {
	case out := <-done:
		if out[0].Source != orchestrate.NotCachedSource {
			t.Fatalf("want placeholder while provider hangs: %+v", out[0])
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("batch read blocked on a hanging provider")
	}

	close(res.gate)
	o.Wait()
}

func TestRefresh_ConcurrentTriggersShareOneFlight(t *testing.T) {
	st := memstore.New()
	st.Seed(btcQuery().Key(), decimal.RequireFromString("3500000"), "bitkub", time.Now().UTC())

	res := &fakeResolver{gate: make(chan struct{}), quote: thbQuote("BTC", "3600000", "bitkub")}
	o := orchestrate.New(st, res, orchestrate.DefaultTTLs(), discard())

	for range 5 {
		if _, err := o.GetPrice(context.Background(), btcQuery()); err != nil {
			t.Fatal(err)
		}
	}
	// Let the trigger goroutines reach the in-flight refresh.
	time.Sleep(200 * time.Millisecond)
	close(res.gate)
	o.Wait()

	if got := res.callCount(); got != 1 {
		t.Fatalf("want concurrent refreshes deduplicated to 1 resolve, got %d", got)
	}
}

func TestTTLs_ThaiStockWindow(t *testing.T) {
	ttls := orchestrate.DefaultTTLs()

	thai := pricing.Query{Type: asset.Stock, Symbol: "PTT", Currency: "THB"}
	if ttls.For(thai) != 5*time.Minute {
		t.Fatalf("THB stock must use the Thai window, got %v", ttls.For(thai))
	}
	us := pricing.Query{Type: asset.Stock, Symbol: "VOO", Currency: "USD"}
	if ttls.For(us) != 15*time.Minute {
		t.Fatalf("non-THB stock must use the stock window, got %v", ttls.For(us))
	}
	fund := pricing.Query{Type: asset.Fund, Symbol: "SCBSET", Currency: "THB"}
	if ttls.For(fund) != 30*time.Minute {
		t.Fatalf("fund window wrong: %v", ttls.For(fund))
	}
}
