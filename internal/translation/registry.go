package translation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"horse.fit/camtranslate/internal/config"
)

// DefaultProviderName is used when TRANSLATION_PROVIDER is unset.
const DefaultProviderName = "local"

// ErrUnknownProvider is wrapped by lookups for names nothing registered.
var ErrUnknownProvider = errors.New("translation provider is not registered")

// Registry maps provider names to providers. Names are case-insensitive.
type Registry struct {
	providers       map[string]Provider
	defaultProvider string
}

func NewRegistry(defaultProvider string) *Registry {
	name := providerKey(defaultProvider)
	if name == "" {
		name = DefaultProviderName
	}
	return &Registry{
		providers:       make(map[string]Provider),
		defaultProvider: name,
	}
}

// NewRegistryFromConfig registers the local and LibreTranslate providers and fails
// when TRANSLATION_PROVIDER names neither.
func NewRegistryFromConfig(cfg *config.Config) (*Registry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	registry := NewRegistry(cfg.TranslationProvider)
	for _, provider := range []Provider{
		NewLocalProvider(cfg.TranslationEndpoint, cfg.TranslationModel, cfg.TranslationTimeout),
		NewLibreTranslateProvider(cfg.LibreTranslateURL, cfg.LibreTranslateAPIKey, cfg.TranslationTimeout),
	} {
		if err := registry.Register(provider); err != nil {
			return nil, err
		}
	}

	if _, err := registry.Provider(""); err != nil {
		return nil, fmt.Errorf("TRANSLATION_PROVIDER: %w", err)
	}
	return registry, nil
}

// Register adds provider, replacing any earlier one with the same name.
func (r *Registry) Register(provider Provider) error {
	if r == nil {
		return fmt.Errorf("registry is nil")
	}
	if provider == nil {
		return fmt.Errorf("provider is nil")
	}
	name := providerKey(provider.Name())
	if name == "" {
		return fmt.Errorf("provider name is required")
	}
	r.providers[name] = provider
	return nil
}

// Provider resolves name, or the default provider when name is empty.
func (r *Registry) Provider(name string) (Provider, error) {
	if r == nil {
		return nil, fmt.Errorf("registry is nil")
	}
	key := providerKey(name)
	if key == "" {
		key = r.defaultProvider
	}
	if provider, ok := r.providers[key]; ok {
		return provider, nil
	}
	return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownProvider, key, strings.Join(r.ProviderNames(), ", "))
}

func (r *Registry) ProviderNames() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func providerKey(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
