package session

import (
	"fmt"
	"log/slog"

	"github.com/papercomputeco/advisor/pkg/config"
	"github.com/papercomputeco/advisor/pkg/credentials"
	"github.com/papercomputeco/advisor/pkg/eventstream"
	"github.com/papercomputeco/advisor/pkg/llm/provider"
	"github.com/papercomputeco/advisor/pkg/logger"
)

// CredentialResolver looks up the API key for a provider namespace.
type CredentialResolver interface {
	Resolve(provider string) (string, credentials.Source, error)
}

// FromSettings builds a Config from effective settings. Profiles that need
// a credential still get a Config when none is found; the provider will
// answer with an auth failure.
func FromSettings(cfg *config.Config, creds CredentialResolver, sender provider.Sender, publisher eventstream.Publisher, log *slog.Logger) (Config, error) {
	if log == nil {
		log = logger.Nop()
	}

	profile, err := cfg.Profile()
	if err != nil {
		return Config{}, err
	}

	var key string
	if creds != nil {
		var source credentials.Source
		key, source, err = creds.Resolve(profile.Provider)
		if err != nil {
			return Config{}, fmt.Errorf("resolving %s credential: %w", profile.Provider, err)
		}
		if source != credentials.SourceNone {
			log.Debug("using credential", "provider", profile.Provider, "source", string(source))
		}
	}
	if key == "" && profile.NeedsCredential() {
		log.Warn("no credential configured",
			"provider", profile.Provider,
			"env", credentials.EnvVarForProvider(profile.Provider),
		)
	}

	return Config{
		Profile:      profile,
		Params:       cfg.Params(),
		SystemPrompt: cfg.Session.SystemPrompt,
		Credential:   key,
		Timeout:      cfg.Session.Timeout.Duration,
		Window:       cfg.Session.HistoryTurns,
		Sender:       sender,
		Publisher:    publisher,
		Logger:       log,
	}, nil
}
