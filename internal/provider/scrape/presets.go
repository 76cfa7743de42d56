package scrape

import (
	"wealthtracker/internal/asset"
	"wealthtracker/internal/httpx"
)

// NewSET scrapes the Stock Exchange of Thailand quote page for the
// configured Thai-listed symbols. Quotes are in THB.
func NewSET(symbols []string, hc *httpx.Client) *Provider {
	return New(Config{
		Name:        "set",
		AssetType:   asset.Stock,
		Currency:    "THB",
		URLTemplate: "https://www.set.or.th/th/market/product/stock/quote/%s",
		Selectors: []string{
			".stock-info",
			".price",
			".last-price",
			`[data-testid="last-price"]`,
			".stock-price",
			".quote-price",
		},
		Symbols: symbols,
	}, hc)
}

// NewSCBAM scrapes SCBAM fund NAV pages. Fund codes map to per-fund
// page URLs.
func NewSCBAM(fundURLs map[string]string, hc *httpx.Client) *Provider {
	return New(Config{
		Name:       "scbam",
		AssetType:  asset.Fund,
		Currency:   "THB",
		SymbolURLs: fundURLs,
		Selectors: []string{
			"#tab-fillup1 > div > div:nth-child(2) > div:nth-child(2) > div:nth-child(2) > h2",
			"#tab-fillup1 > div > div:nth-child(2) > div:nth-child(2) > div:nth-child(4) > h2",
			".price-value",
		},
		Symbols: keys(fundURLs),
	}, hc)
}

// NewFundSuperMart scrapes FundSuperMart fund pages.
func NewFundSuperMart(fundURLs map[string]string, hc *httpx.Client) *Provider {
	return New(Config{
		Name:       "fundsupermart",
		AssetType:  asset.Fund,
		Currency:   "THB",
		SymbolURLs: fundURLs,
		Selectors: []string{
			"table tbody tr:nth-child(2) td:nth-child(3) span",
		},
		Symbols: keys(fundURLs),
	}, hc)
}

// NewGold scrapes the gold spot price (USD per ounce).
func NewGold(hc *httpx.Client) *Provider {
	return New(Config{
		Name:        "gold",
		AssetType:   asset.Commodity,
		Currency:    "USD",
		URLTemplate: "https://markets.businessinsider.com/commodities/gold-price",
		Selectors: []string{
			".price-section__current-value",
		},
		Symbols: []string{"XAU", "GOLD"},
	}, hc)
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
