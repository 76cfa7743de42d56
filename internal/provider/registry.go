package provider

import "wealthtracker/internal/asset"

// Registry holds providers in priority order. Registration order is the
// fallback order: the first registered provider that supports an asset
// is tried first, and priority encodes trust, not speed.
type Registry struct {
	providers []Provider
}

func NewRegistry(providers ...Provider) *Registry {
	return &Registry{providers: providers}
}

// Register appends a provider at the lowest priority.
func (r *Registry) Register(p Provider) {
	r.providers = append(r.providers, p)
}

// ChainFor returns the ordered fallback chain for an asset: every
// registered provider that supports it, in registration order.
func (r *Registry) ChainFor(t asset.Type, symbol string) []Provider {
	var chain []Provider
	for _, p := range r.providers {
		if p.Supports(t, symbol) {
			chain = append(chain, p)
		}
	}
	return chain
}
