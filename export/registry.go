package export

import (
	"fmt"

	"github.com/eugene-nechvoloda/meetyai/store"
)

// Factory builds a Provider from decrypted credentials and the stored
// configuration's destination identifiers.
type Factory func(creds Credentials, cfg store.ExportConfig) (Provider, error)

// Registry maps provider names to adapter factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry with all built-in adapters. Providers
// without an adapter are registered with a factory that returns
// ErrNotImplemented so callers get an explicit error instead of a
// missing-provider one.
func NewRegistry() *Registry {
	r := &Registry{factories: map[string]Factory{}}
	r.Register(ProviderAirtable, newAirtableProvider)
	r.Register(ProviderLinear, newLinearProvider)
	r.Register(ProviderGitHub, newGitHubProvider)
	r.Register(ProviderGitLab, newGitLabProvider)
	r.Register(ProviderGoogleSheets, newSheetsProvider)
	r.Register(ProviderJira, newJiraProvider)
	r.Register(ProviderNotion, notImplemented(ProviderNotion))
	return r
}

// Register adds or replaces the factory for a provider name.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Provider builds an adapter for the named provider.
func (r *Registry) Provider(name string, creds Credentials, cfg store.ExportConfig) (Provider, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return f(creds, cfg)
}

func notImplemented(name string) Factory {
	return func(Credentials, store.ExportConfig) (Provider, error) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotImplemented)
	}
}
