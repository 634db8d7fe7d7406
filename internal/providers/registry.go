package providers

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ProviderConfig describes a registered provider. Instances are built
// lazily on first use so disabled providers cost nothing.
type ProviderConfig struct {
	Name     string
	Priority int // lower wins
	Enabled  bool
	Factory  func(leagues LeagueMappingSource) SportsProvider
}

// Registry holds the ordered provider set. Registration normally happens
// once at startup; re-registering a name replaces the config and drops the
// cached instance.
type Registry struct {
	mu        sync.RWMutex
	configs   map[string]*ProviderConfig
	instances map[string]SportsProvider
	leagues   LeagueMappingSource
}

func NewRegistry() *Registry {
	return &Registry{
		configs:   make(map[string]*ProviderConfig),
		instances: make(map[string]SportsProvider),
	}
}

// Initialize injects the league mapping source. Must be called before any
// provider lookup.
func (r *Registry) Initialize(leagues LeagueMappingSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leagues = leagues
}

// Register adds or replaces a provider config.
func (r *Registry) Register(cfg ProviderConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.configs[cfg.Name]; exists {
		logrus.Infof("[REGISTRY] Re-registering provider %s (priority %d)", cfg.Name, cfg.Priority)
		delete(r.instances, cfg.Name)
	}
	c := cfg
	r.configs[cfg.Name] = &c
}

// SetEnabled toggles a provider without re-registering it.
func (r *Registry) SetEnabled(name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.configs[name]
	if !ok {
		return fmt.Errorf("provider %q not registered", name)
	}
	cfg.Enabled = enabled
	return nil
}

// Get returns the (lazily built) instance for a name, nil if unknown
// or disabled.
func (r *Registry) Get(name string) SportsProvider {
	r.mu.RLock()
	cfg, ok := r.configs[name]
	if !ok || !cfg.Enabled {
		r.mu.RUnlock()
		return nil
	}
	if inst, ok := r.instances[name]; ok {
		r.mu.RUnlock()
		return inst
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if inst, ok := r.instances[name]; ok {
		return inst
	}
	inst := cfg.Factory(r.leagues)
	r.instances[name] = inst
	return inst
}

// GetAll returns enabled providers in ascending priority order.
func (r *Registry) GetAll() []SportsProvider {
	r.mu.RLock()
	names := make([]string, 0, len(r.configs))
	for name, cfg := range r.configs {
		if cfg.Enabled {
			names = append(names, name)
		}
	}
	configs := r.configs
	r.mu.RUnlock()

	sort.Slice(names, func(i, j int) bool {
		return configs[names[i]].Priority < configs[names[j]].Priority
	})

	out := make([]SportsProvider, 0, len(names))
	for _, name := range names {
		if inst := r.Get(name); inst != nil {
			out = append(out, inst)
		}
	}
	return out
}

// GetForLeague returns the highest-priority enabled provider supporting
// the league, or nil.
func (r *Registry) GetForLeague(league string) SportsProvider {
	for _, p := range r.GetAll() {
		if p.SupportsLeague(league) {
			return p
		}
	}
	return nil
}

// IsProviderPremium reports provider capability; unknown names default to
// premium so callers never skip enrichment for a misspelled name.
func (r *Registry) IsProviderPremium(name string) bool {
	if p := r.Get(name); p != nil {
		return p.IsPremium()
	}
	return true
}

// DefaultRegistry builds the standard provider set: ESPN primary,
// TheSportsDB fallback.
func DefaultRegistry(leagues LeagueMappingSource, espnRate float64, timeout time.Duration, retryCount int, tsdbKey string) *Registry {
	r := NewRegistry()
	r.Initialize(leagues)
	r.Register(ProviderConfig{
		Name:     "espn",
		Priority: 1,
		Enabled:  true,
		Factory: func(l LeagueMappingSource) SportsProvider {
			return NewESPNProvider(l, espnRate, timeout, retryCount)
		},
	})
	r.Register(ProviderConfig{
		Name:     "tsdb",
		Priority: 10,
		Enabled:  true,
		Factory: func(l LeagueMappingSource) SportsProvider {
			return NewTSDBProvider(tsdbKey, timeout)
		},
	})
	return r
}
