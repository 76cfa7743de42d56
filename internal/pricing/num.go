package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrice parses a numeric payload from a provider. Providers return
// raw numbers or numeric strings depending on API version, sometimes
// with thousands separators. Non-positive or unparseable values are
// rejected as KindInvalidPrice.
func ParsePrice(provider, raw string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" || s == "-" {
		return decimal.Zero, InvalidPrice(provider, "empty price")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, InvalidPrice(provider, "unparseable price "+raw)
	}
	if !d.IsPositive() {
		return decimal.Zero, InvalidPrice(provider, "non-positive price "+raw)
	}
	return d, nil
}
