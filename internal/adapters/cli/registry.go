package cli

import (
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"

	"github.com/hugo-lorenzo-mato/cli-worker/internal/core"
	"github.com/hugo-lorenzo-mato/cli-worker/internal/logging"
)

// ProviderFactory creates a provider sharing the registry's runner and logger.
type ProviderFactory func(runner *Runner, logger *logging.Logger) core.Provider

// Registry manages the available agent CLIs.
type Registry struct {
	factories map[core.ProviderID]ProviderFactory
	providers map[core.ProviderID]core.Provider
	runner    *Runner
	logger    *logging.Logger
	mu        sync.Mutex
}

// NewRegistry creates a registry with the built-in providers.
func NewRegistry(logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Registry{
		factories: make(map[core.ProviderID]ProviderFactory),
		providers: make(map[core.ProviderID]core.Provider),
		runner:    NewRunner(logger),
		logger:    logger,
	}
	r.registerBuiltins()
	return r
}

func (r *Registry) registerBuiltins() {
	r.RegisterFactory(core.ProviderKimi, func(rn *Runner, l *logging.Logger) core.Provider {
		return NewKimiProvider(rn, l)
	})
	r.RegisterFactory(core.ProviderClaude, func(rn *Runner, l *logging.Logger) core.Provider {
		return NewClaudeProvider(rn, l)
	})
	r.RegisterFactory(core.ProviderOpenCode, func(rn *Runner, l *logging.Logger) core.Provider {
		return NewOpenCodeProvider(rn, l)
	})
}

// RegisterFactory registers or replaces the factory for id.
func (r *Registry) RegisterFactory(id core.ProviderID, factory ProviderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[id] = factory
	delete(r.providers, id)
}

// Register adds a provider instance directly.
func (r *Registry) Register(p core.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID()] = p
}

// Get returns the provider for id, creating it on first use.
func (r *Registry) Get(id core.ProviderID) (core.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.providers[id]; ok {
		return p, nil
	}
	factory, ok := r.factories[id]
	if !ok {
		return nil, core.ErrNotFound("provider", string(id))
	}
	p := factory(r.runner, r.logger)
	r.providers[id] = p
	return p, nil
}

// Lookup resolves a user-supplied provider name. Unknown names produce a
// validation error listing the valid providers and, when one is close,
// a suggestion.
func (r *Registry) Lookup(name string) (core.Provider, error) {
	id, ok := core.ParseProviderID(strings.TrimSpace(name))
	if !ok {
		err := core.ErrValidation(core.CodeUnknownProvider, "unknown provider: "+name).
			WithDetail("valid", strings.Join(r.names(), ", "))
		if s := r.Suggest(name); len(s) > 0 {
			err = err.WithDetail("suggestion", s[0])
		}
		return nil, err
	}
	return r.Get(id)
}

// IDs returns registered provider IDs in display order.
func (r *Registry) IDs() []core.ProviderID {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]core.ProviderID, 0, len(r.factories))
	for _, id := range core.ProviderIDs() {
		if _, ok := r.factories[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Has checks whether a provider is registered.
func (r *Registry) Has(id core.ProviderID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.factories[id]
	if !ok {
		_, ok = r.providers[id]
	}
	return ok
}

// Suggest returns registered provider names that fuzzily match partial.
func (r *Registry) Suggest(partial string) []string {
	partial = strings.ToLower(strings.TrimSpace(partial))
	names := r.names()
	if partial == "" {
		return names
	}

	matches := fuzzy.Find(partial, names)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Str)
	}
	return out
}

func (r *Registry) names() []string {
	ids := r.IDs()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return names
}
