// Package scrape quotes assets from provider web pages that expose no
// API: Thai SET stock quotes, SCBAM and FundSuperMart fund NAV pages,
// and the gold spot page. Selector lists are provider configuration;
// the core policy is fixed: try candidates in order, accept the first
// positive parseable number, skip placeholder values such as a bare
// dash.
package scrape

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"wealthtracker/internal/asset"
	"wealthtracker/internal/httpx"
	"wealthtracker/internal/pricing"
)

type Config struct {
	Name      string
	AssetType asset.Type
	Currency  string
	// URLTemplate builds the page URL from the symbol (one %s verb). A
	// template without a verb is a fixed page.
	URLTemplate string
	// SymbolURLs overrides the template for specific symbols (fund
	// codes map to per-fund pages).
	SymbolURLs map[string]string
	// Selectors are tried in order against the fetched markup.
	Selectors []string
	// Symbols is the capability set. Empty means any symbol of
	// AssetType, which only makes sense together with a %s template.
	Symbols []string
}

type Provider struct {
	cfg    Config
	client *httpx.Client
	listed map[string]struct{}
}

func New(cfg Config, hc *httpx.Client) *Provider {
	var listed map[string]struct{}
	if len(cfg.Symbols) > 0 {
		listed = make(map[string]struct{}, len(cfg.Symbols))
		for _, s := range cfg.Symbols {
			listed[strings.ToUpper(s)] = struct{}{}
		}
	}
	return &Provider{cfg: cfg, client: hc, listed: listed}
}

func (p *Provider) Name() string { return p.cfg.Name }

func (p *Provider) Supports(t asset.Type, symbol string) bool {
	if t != p.cfg.AssetType {
		return false
	}
	if p.listed == nil {
		return true
	}
	if _, ok := p.listed[strings.ToUpper(symbol)]; ok {
		return true
	}
	_, ok := p.cfg.SymbolURLs[strings.ToUpper(symbol)]
	return ok
}

func (p *Provider) Fetch(ctx context.Context, symbol string) (pricing.Quote, error) {
	u := p.url(symbol)
	resp, err := p.client.Get(ctx, u)
	if err != nil {
		return pricing.Quote{}, pricing.Unavailable(p.cfg.Name, "page request", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return pricing.Quote{}, pricing.UnavailableStatus(p.cfg.Name, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return pricing.Quote{}, pricing.Unavailable(p.cfg.Name, "parse markup", err)
	}
	price, ok := firstPrice(doc, p.cfg.Selectors)
	if !ok {
		return pricing.Quote{}, pricing.UnknownSymbol(p.cfg.Name, symbol)
	}
	return pricing.Quote{
		Symbol:     strings.ToUpper(symbol),
		Price:      price,
		Currency:   p.cfg.Currency,
		Source:     p.cfg.Name,
		ReceivedAt: time.Now().UTC(),
	}, nil
}

func (p *Provider) url(symbol string) string {
	if u, ok := p.cfg.SymbolURLs[strings.ToUpper(symbol)]; ok {
		return u
	}
	if strings.Contains(p.cfg.URLTemplate, "%s") {
		return fmt.Sprintf(p.cfg.URLTemplate, symbol)
	}
	return p.cfg.URLTemplate
}

var numberPattern = regexp.MustCompile(`[0-9][0-9,]*\.?[0-9]*`)

// firstPrice walks the selector candidates in order and returns the
// first positive parseable number found under any of them.
func firstPrice(doc *goquery.Document, selectors []string) (decimal.Decimal, bool) {
	for _, sel := range selectors {
		var found decimal.Decimal
		var ok bool
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.TrimSpace(s.Text())
			if text == "" || text == "-" {
				return true
			}
			m := numberPattern.FindString(text)
			if m == "" {
				return true
			}
			d, err := pricing.ParsePrice("scrape", m)
			if err != nil {
				return true
			}
			found, ok = d, true
			return false
		})
		if ok {
			return found, true
		}
	}
	return decimal.Zero, false
}
