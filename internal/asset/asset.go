// Package asset defines the asset classes tracked by the service and the
// natural key under which prices are cached.
package asset

import "fmt"

// Type is the asset class of a tracked holding.
type Type string

const (
	Crypto       Type = "crypto"
	Stock        Type = "stock"
	Fund         Type = "fund"
	Commodity    Type = "commodity"
	ExchangeRate Type = "exchange_rate"
)

// Types lists every valid asset class.
var Types = []Type{Crypto, Stock, Fund, Commodity, ExchangeRate}

// ParseType validates a wire/config string into a Type.
func ParseType(s string) (Type, error) {
	for _, t := range Types {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown asset type %q", s)
}

// Key is the natural key of a cached price: at most one live record
// exists per Key and writes are upserts on it.
type Key struct {
	Type     Type
	Symbol   string
	Currency string
}

func (k Key) String() string {
	return string(k.Type) + ":" + k.Symbol + ":" + k.Currency
}
