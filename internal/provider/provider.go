// Package provider defines the upstream price source contract and the
// registry that turns registered providers into per-asset fallback
// chains.
package provider

import (
	"context"

	"wealthtracker/internal/asset"
	"wealthtracker/internal/pricing"
)

// Provider is one upstream price source. Fetch returns the normalized
// quote for a single symbol or a *pricing.FetchError.
//
//go:generate mockgen -package=providermock -destination=providermock/provider.go -source=provider.go Provider
type Provider interface {
	Name() string
	// Supports declares which asset types and symbols this provider can
	// quote. Chains are built by filtering on it, never by symbol lists
	// at call sites.
	Supports(t asset.Type, symbol string) bool
	Fetch(ctx context.Context, symbol string) (pricing.Quote, error)
}
