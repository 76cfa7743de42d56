package rates_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"wealthtracker/internal/asset"
	"wealthtracker/internal/pricing"
	"wealthtracker/internal/provider/providermock"
	"wealthtracker/internal/rates"
	"wealthtracker/internal/store/memstore"
)

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func rateKey(pair, to string) asset.Key {
	return asset.Key{Type: asset.ExchangeRate, Symbol: pair, Currency: to}
}

func TestRate_Identity(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := providermock.NewMockProvider(ctrl)

	c := rates.NewConverter(p, memstore.New(), time.Hour, discard())
	rate, source, err := c.Rate(t.Context(), "THB", "thb")
	require.NoError(t, err)
	require.Equal(t, "identity", source)
	require.True(t, rate.Equal(decimal.NewFromInt(1)))
}

func TestRate_FreshCacheSkipsProvider(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := providermock.NewMockProvider(ctrl) // no Fetch expected

	st := memstore.New()
	st.Seed(rateKey("USDTHB", "THB"), decimal.RequireFromString("36.1"), "exchangerate-api", time.Now().UTC())

	c := rates.NewConverter(p, st, time.Hour, discard())
	rate, source, err := c.Rate(t.Context(), "USD", "THB")
	require.NoError(t, err)
	require.Equal(t, "cache", source)
	require.Equal(t, "36.1", rate.String())
}

func TestRate_LiveFetchWritesThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := providermock.NewMockProvider(ctrl)
	p.EXPECT().
		Fetch(gomock.Any(), "USDTHB").
		Return(pricing.Quote{Symbol: "USDTHB", Price: decimal.RequireFromString("36.4"), Currency: "THB", Source: "exchangerate-api"}, nil).
		Times(1)

	st := memstore.New()
	c := rates.NewConverter(p, st, time.Hour, discard())

	rate, source, err := c.Rate(t.Context(), "USD", "THB")
	require.NoError(t, err)
	require.Equal(t, "exchangerate-api", source)
	require.Equal(t, "36.4", rate.String())

	cached, err := st.Get(t.Context(), rateKey("USDTHB", "THB"))
	require.NoError(t, err)
	require.Equal(t, "36.4", cached.Price.String())
}

func TestRate_StaleCacheBeatsStatic(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := providermock.NewMockProvider(ctrl)
	p.EXPECT().
		Fetch(gomock.Any(), "USDTHB").
		Return(pricing.Quote{}, pricing.Unavailable("exchangerate-api", "down", nil)).
		Times(1)

	st := memstore.New()
	st.Seed(rateKey("USDTHB", "THB"), decimal.RequireFromString("34.9"), "exchangerate-api", time.Now().Add(-48*time.Hour).UTC())

	c := rates.NewConverter(p, st, time.Hour, discard())
	rate, source, err := c.Rate(t.Context(), "USD", "THB")
	require.NoError(t, err)
	require.Equal(t, "cache_stale", source)
	require.Equal(t, "34.9", rate.String())
}

func TestRate_StaticFallbackWhenNothingElse(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := providermock.NewMockProvider(ctrl)
	p.EXPECT().
		Fetch(gomock.Any(), "USDTHB").
		Return(pricing.Quote{}, pricing.Unavailable("exchangerate-api", "down", nil)).
		Times(1)

	c := rates.NewConverter(p, memstore.New(), time.Hour, discard())
	rate, source, err := c.Rate(t.Context(), "USD", "THB")
	require.NoError(t, err)
	require.Equal(t, "static", source)
	require.Equal(t, "35.5", rate.String())
}

func TestRate_UnknownPairFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := providermock.NewMockProvider(ctrl)
	p.EXPECT().
		Fetch(gomock.Any(), "JPYKRW").
		Return(pricing.Quote{}, pricing.Unavailable("exchangerate-api", "down", nil)).
		Times(1)

	c := rates.NewConverter(p, memstore.New(), time.Hour, discard())
	_, _, err := c.Rate(t.Context(), "JPY", "KRW")
	require.ErrorIs(t, err, rates.ErrRateUnavailable)
}

func TestConvert_MultipliesAndTagsSource(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := providermock.NewMockProvider(ctrl) // static table only

	high := decimal.RequireFromString("101")
	q := pricing.Quote{
		Symbol:   "VOO",
		Price:    decimal.RequireFromString("100"),
		Currency: "USD",
		Source:   "yahoo",
		High24h:  &high,
	}
	p.EXPECT().
		Fetch(gomock.Any(), "USDTHB").
		Return(pricing.Quote{}, pricing.Unavailable("exchangerate-api", "down", nil)).
		Times(1)

	c := rates.NewConverter(p, memstore.New(), time.Hour, discard())
	got, err := c.Convert(t.Context(), q, "THB")
	require.NoError(t, err)
	require.True(t, got.Price.Equal(decimal.RequireFromString("3550")), "got %s", got.Price)
	require.Equal(t, "THB", got.Currency)
	require.Equal(t, "yahoo+static", got.Source)
	require.Nil(t, got.High24h)
}

func TestConvert_SameCurrencyIsNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := providermock.NewMockProvider(ctrl)

	q := pricing.Quote{Symbol: "BTC", Price: decimal.RequireFromString("3500000"), Currency: "THB", Source: "bitkub"}
	c := rates.NewConverter(p, memstore.New(), time.Hour, discard())
	got, err := c.Convert(t.Context(), q, "THB")
	require.NoError(t, err)
	require.Equal(t, q, got)
}
