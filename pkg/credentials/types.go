package credentials

import "sort"

// Credentials is the on-disk shape of credentials.toml:
//
//	version = 0
//
//	[providers.huggingface]
//	api_key = "hf_..."
type Credentials struct {
	Version   int                           `toml:"version"`
	Providers map[string]ProviderCredential `toml:"providers"`
}

// ProviderCredential is one provider's stored key.
type ProviderCredential struct {
	APIKey string `toml:"api_key"`
}

func newCredentials() *Credentials {
	return &Credentials{
		Version:   currentVersion,
		Providers: make(map[string]ProviderCredential),
	}
}

// Key returns the stored key for provider, or "".
func (c *Credentials) Key(provider string) string {
	return c.Providers[provider].APIKey
}

// Names returns the providers with a non-empty stored key, sorted.
func (c *Credentials) Names() []string {
	names := make([]string, 0, len(c.Providers))
	for name, pc := range c.Providers {
		if pc.APIKey != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
