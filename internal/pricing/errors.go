package pricing

import (
	"errors"
	"fmt"
)

// FetchKind categorizes a provider fetch failure. All kinds are
// equivalent for fallback purposes: the resolver moves on to the next
// provider in the chain.
type FetchKind string

const (
	// KindUnavailable is a network error, timeout or non-2xx response.
	KindUnavailable FetchKind = "unavailable"
	// KindUnknownSymbol means the provider answered but has no data for
	// the requested symbol.
	KindUnknownSymbol FetchKind = "unknown_symbol"
	// KindInvalidPrice means the provider returned unparseable, NaN,
	// negative or zero numeric data.
	KindInvalidPrice FetchKind = "invalid_price"
)

// FetchError is a structured provider failure.
type FetchError struct {
	Kind       FetchKind
	Provider   string
	StatusCode int
	Message    string
	Cause      error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", e.Provider, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// Unavailable creates a network/timeout/non-2xx fetch error.
func Unavailable(provider, message string, cause error) *FetchError {
	return &FetchError{Kind: KindUnavailable, Provider: provider, Message: message, Cause: cause}
}

// UnavailableStatus creates an Unavailable error from an HTTP status.
func UnavailableStatus(provider string, status int) *FetchError {
	return &FetchError{Kind: KindUnavailable, Provider: provider, StatusCode: status, Message: "unexpected status"}
}

// UnknownSymbol creates an error for a symbol absent from the response.
func UnknownSymbol(provider, symbol string) *FetchError {
	return &FetchError{Kind: KindUnknownSymbol, Provider: provider, Message: fmt.Sprintf("symbol %q not present", symbol)}
}

// InvalidPrice creates an error for non-positive or unparseable prices.
func InvalidPrice(provider, message string) *FetchError {
	return &FetchError{Kind: KindInvalidPrice, Provider: provider, Message: message}
}

// IsFetchKind reports whether err is a FetchError of the given kind.
func IsFetchKind(err error, kind FetchKind) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == kind
}

// ErrAllProvidersFailed is returned by the resolver when every provider
// in the fallback chain failed. The orchestrator still attempts a stale
// cache read before surfacing failure.
var ErrAllProvidersFailed = errors.New("all providers failed")

// ErrNoProviders is returned when no registered provider supports the
// requested asset type and symbol.
var ErrNoProviders = errors.New("no provider supports this asset")

// ErrPriceUnavailable is the caller-visible failure: every provider
// failed and the cache holds no last known value.
var ErrPriceUnavailable = errors.New("price unavailable")

// ResolutionError wraps the per-provider failures of one resolution
// attempt. It unwraps to ErrAllProvidersFailed.
type ResolutionError struct {
	Symbol   string
	Attempts []error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s: %v (%d providers tried)", e.Symbol, ErrAllProvidersFailed, len(e.Attempts))
}

func (e *ResolutionError) Unwrap() error { return ErrAllProvidersFailed }
