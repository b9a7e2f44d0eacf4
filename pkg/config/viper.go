package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/advisor/pkg/dotdir"
)

// EnvPrefix prefixes every environment override, e.g. ADVISOR_PROVIDER_PROFILE.
const EnvPrefix = "ADVISOR"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the ADVISOR_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (ADVISOR_PROVIDER_PROFILE, ADVISOR_API_LISTEN, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	target, err := dotdir.NewManager().Find(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	v.AddConfigPath(target)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes the effective Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Version: v.GetInt("version"),
		Provider: ProviderConfig{
			Profile:  v.GetString("provider.profile"),
			Endpoint: v.GetString("provider.endpoint"),
			Model:    v.GetString("provider.model"),
		},
		Generation: GenerationConfig{
			MaxTokens:   v.GetInt("generation.max_tokens"),
			Temperature: v.GetFloat64("generation.temperature"),
			TopP:        v.GetFloat64("generation.top_p"),
			DoSample:    v.GetBool("generation.do_sample"),
		},
		Session: SessionConfig{
			SystemPrompt: v.GetString("session.system_prompt"),
			Timeout:      Duration{v.GetDuration("session.timeout")},
			HistoryTurns: v.GetInt("session.history_turns"),
		},
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
		EventStream: EventStreamConfig{
			Provider: v.GetString("eventstream.provider"),
			Brokers:  brokers(v),
			Topic:    v.GetString("eventstream.topic"),
		},
	}

	if cfg.Session.Timeout.Duration <= 0 {
		cfg.Session.Timeout = Duration{defaultTimeout}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// brokers accepts both a TOML array and a comma separated env/flag value.
func brokers(v *viper.Viper) []string {
	var out []string
	for _, b := range v.GetStringSlice("eventstream.brokers") {
		out = append(out, splitList(b)...)
	}
	return out
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("provider.profile", d.Provider.Profile)
	v.SetDefault("provider.endpoint", d.Provider.Endpoint)
	v.SetDefault("provider.model", d.Provider.Model)

	v.SetDefault("generation.max_tokens", d.Generation.MaxTokens)
	v.SetDefault("generation.temperature", d.Generation.Temperature)
	v.SetDefault("generation.top_p", d.Generation.TopP)
	v.SetDefault("generation.do_sample", d.Generation.DoSample)

	v.SetDefault("session.system_prompt", d.Session.SystemPrompt)
	v.SetDefault("session.timeout", d.Session.Timeout.String())
	v.SetDefault("session.history_turns", d.Session.HistoryTurns)

	v.SetDefault("api.listen", d.API.Listen)

	v.SetDefault("eventstream.provider", d.EventStream.Provider)
	v.SetDefault("eventstream.brokers", d.EventStream.Brokers)
	v.SetDefault("eventstream.topic", d.EventStream.Topic)
}
