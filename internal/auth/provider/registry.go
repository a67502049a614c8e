package provider

import "fmt"

// Registry holds all configured OAuth providers and allows
// lookup by provider name. It performs no auth logic itself.
// Unconfigured providers are simply absent; their routes answer
// "not configured" instead of being dropped.
type Registry struct {
	providers map[string]OAuthProvider
}

// NewRegistry registers the given OAuth providers by name.
// Nil entries (disabled providers) are skipped.
func NewRegistry(list ...OAuthProvider) *Registry {
	m := make(map[string]OAuthProvider)
	for _, p := range list {
		if p == nil {
			continue
		}
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

// Get returns the OAuth provider by name or an error if not registered.
func (r *Registry) Get(name string) (OAuthProvider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("oauth provider %s is not configured", name)
	}
	return p, nil
}
