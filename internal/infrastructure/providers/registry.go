package providers

import (
	"fmt"

	"thunder-text-core/internal/domain"
	"thunder-text-core/internal/ports"
)

// Registry resolves ad-platform adapters by provider name.
type Registry struct {
	platforms map[domain.Provider]ports.AdPlatform
}

// NewRegistry builds a registry from the given adapters.
func NewRegistry(platforms ...ports.AdPlatform) *Registry {
	m := make(map[domain.Provider]ports.AdPlatform, len(platforms))
	for _, p := range platforms {
		m[p.Name()] = p
	}
	return &Registry{platforms: m}
}

var _ ports.PlatformRegistry = (*Registry)(nil)

// Platform returns the adapter for provider, or ErrNotConfigured when no
// adapter was wired (missing credentials at startup).
func (r *Registry) Platform(provider domain.Provider) (ports.AdPlatform, error) {
	p, ok := r.platforms[provider]
	if !ok {
		return nil, fmt.Errorf("provider %s: %w", provider, domain.ErrNotConfigured)
	}
	return p, nil
}
