// Package yahoo quotes listed stocks and ETFs from the Yahoo Finance
// chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"wealthtracker/internal/pricing"
)

const baseURL = "https://query1.finance.yahoo.com"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=yahoo_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a client for the Yahoo Finance chart API.
type Client struct {
	// baseURL is the base URL for the API.
	baseURL string
	// httpClient performs the requests.
	httpClient HTTPClient
	// header contains additional headers sent with each request.
	header http.Header
}

// ClientOption is a configuration option for the client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewClient creates a new Yahoo Finance chart client.
func NewClient(options ...ClientOption) *Client {
	client := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		header:     http.Header{},
	}
	for _, option := range options {
		option(client)
	}
	return client
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string      `json:"currency"`
				Symbol             string      `json:"symbol"`
				RegularMarketPrice json.Number `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// RegularMarketPrice fetches the current market price for a symbol and
// the currency it is denominated in.
func (c *Client) RegularMarketPrice(ctx context.Context, symbol string) (decimal.Decimal, string, error) {
	const name = "yahoo"

	u := fmt.Sprintf("%s/v8/finance/chart/%s", c.baseURL, url.PathEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return decimal.Zero, "", pricing.Unavailable(name, "creating request", err)
	}
	req.Header = c.header.Clone()

	res, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, "", pricing.Unavailable(name, "performing request", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return decimal.Zero, "", pricing.UnknownSymbol(name, symbol)
	default:
		return decimal.Zero, "", pricing.UnavailableStatus(name, res.StatusCode)
	}

	var body chartResponse
	dec := json.NewDecoder(res.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return decimal.Zero, "", pricing.Unavailable(name, "decoding chart response", err)
	}
	if body.Chart.Error != nil {
		return decimal.Zero, "", pricing.UnknownSymbol(name, symbol)
	}
	if len(body.Chart.Result) == 0 {
		return decimal.Zero, "", pricing.UnknownSymbol(name, symbol)
	}
	meta := body.Chart.Result[0].Meta
	price, err := pricing.ParsePrice(name, meta.RegularMarketPrice.String())
	if err != nil {
		return decimal.Zero, "", err
	}
	currency := meta.Currency
	if currency == "" {
		currency = "USD"
	}
	return price, currency, nil
}
