package ppp

import "sync"

// registryTier is one tier node in the process-wide ordered registry.
type registryTier struct {
	tier      Tier
	factories []LayerFactory
}

// LayerRegistry is the process-wide ordered sequence of tiers, each an
// unordered group of LayerFactories sharing a tier number. It is
// mutated only at module load/unload in normal operation and is
// otherwise treated as read-only from session contexts; the mutex here
// exists to make that discipline safe under test and under dynamic
// layer (un)registration rather than to protect a hot path.
type LayerRegistry struct {
	mu    sync.RWMutex
	tiers []*registryTier
}

// NewLayerRegistry creates an empty registry.
func NewLayerRegistry() *LayerRegistry {
	return &LayerRegistry{}
}

// DefaultRegistry is the process-wide registry used by the package-level
// RegisterLayer/UnregisterLayer helpers, mirroring the core's exported
// ppp_register_layer/ppp_unregister_layer operating on global state.
var DefaultRegistry = NewLayerRegistry()

// RegisterLayer registers factory under name against the default,
// process-wide registry.
func RegisterLayer(name string, factory LayerFactory) error {
	return DefaultRegistry.Register(name, factory)
}

// UnregisterLayer removes factory from the default, process-wide
// registry.
func UnregisterLayer(factory LayerFactory) {
	DefaultRegistry.Unregister(factory)
}

// Register derives factory's tier from name and appends it to that
// tier's factory list, creating the tier node if needed while
// preserving ascending tier order. Registration order within a tier is
// preserved.
func (r *LayerRegistry) Register(name string, factory LayerFactory) error {
	tier, err := tierForName(name)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	node := r.findOrCreateTierLocked(tier)
	node.factories = append(node.factories, factory)
	return nil
}

// Unregister removes factory from whichever tier holds it. Empty tiers
// are left in place (they simply contribute no LayerData at pipeline
// construction time).
func (r *LayerRegistry) Unregister(factory LayerFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, node := range r.tiers {
		for i, f := range node.factories {
			if f == factory {
				node.factories = append(node.factories[:i], node.factories[i+1:]...)
				return
			}
		}
	}
}

// findOrCreateTierLocked returns the registry's node for tier,
// inserting a new one at the correct ascending position if none
// exists. Callers must hold r.mu for writing.
func (r *LayerRegistry) findOrCreateTierLocked(tier Tier) *registryTier {
	for _, node := range r.tiers {
		if node.tier == tier {
			return node
		}
	}

	node := &registryTier{tier: tier}

	insertAt := len(r.tiers)
	for i, existing := range r.tiers {
		if existing.tier > tier {
			insertAt = i
			break
		}
	}

	r.tiers = append(r.tiers, nil)
	copy(r.tiers[insertAt+1:], r.tiers[insertAt:])
	r.tiers[insertAt] = node

	return node
}

// snapshot returns an ascending-tier-order copy of (tier, factories)
// pairs for pipeline construction. The slices are copied so later
// registry mutation cannot affect an in-flight pipeline build.
func (r *LayerRegistry) snapshot() []registryTier {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]registryTier, 0, len(r.tiers))
	for _, node := range r.tiers {
		if len(node.factories) == 0 {
			continue
		}
		factories := make([]LayerFactory, len(node.factories))
		copy(factories, node.factories)
		out = append(out, registryTier{tier: node.tier, factories: factories})
	}
	return out
}
