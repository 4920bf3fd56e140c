// Package vision adapts cloud AI shot classifiers into a stream of typed
// detections. Classifier processes speak a JSON-line protocol on stdout;
// the adapter normalizes raw (result, position) pairs and rejects anything
// it does not recognize before handoff to the drill engine.
package vision

import (
	"sort"
	"sync"

	"github.com/Johnjr1/BallPoint/internal/domain"
)

// ProviderSpec describes how to launch a classifier provider process.
type ProviderSpec struct {
	Name    string
	Command string
	Args    []string
	Env     map[string]string
}

// ProviderRegistry is a thread-safe registry of classifier providers.
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[string]ProviderSpec
}

// NewProviderRegistry creates an empty registry.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderSpec),
	}
}

// Register adds a provider spec to the registry.
// Returns ErrProviderUnavailable if a provider with the same name is already registered.
func (r *ProviderRegistry) Register(spec ProviderSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[spec.Name]; exists {
		return domain.WrapEngineError(
			domain.ErrProviderUnavailable.Code,
			"provider already registered",
			nil,
		)
	}
	r.providers[spec.Name] = spec
	return nil
}

// Get returns the spec for the named provider, or ErrProviderUnavailable if not found.
func (r *ProviderRegistry) Get(name string) (ProviderSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	spec, ok := r.providers[name]
	if !ok {
		return ProviderSpec{}, domain.ErrProviderUnavailable
	}
	return spec, nil
}

// List returns all registered provider names in sorted order.
func (r *ProviderRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
