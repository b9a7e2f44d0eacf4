// Package config loads and saves .advisor/config.toml and layers flags and
// ADVISOR_* environment variables over it with viper.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/advisor/pkg/dotdir"
	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/llm/provider"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

// orderedKeys matches the TOML section layout.
var orderedKeys = []string{
	"provider.profile",
	"provider.endpoint",
	"provider.model",
	"generation.max_tokens",
	"generation.temperature",
	"generation.top_p",
	"generation.do_sample",
	"session.system_prompt",
	"session.timeout",
	"session.history_turns",
	"api.listen",
	"eventstream.provider",
	"eventstream.brokers",
	"eventstream.topic",
}

type Configer struct {
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	path, err := dotdir.NewManager().File(override, configFile)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return &Configer{targetPath: path}, nil
}

// ValidConfigKeys returns every supported configuration key in section order.
func ValidConfigKeys() []string {
	out := make([]string, 0, len(orderedKeys))
	for _, k := range orderedKeys {
		if _, ok := configKeys[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads config.toml from the target .advisor/ directory. A
// missing file yields NewDefaultConfig(); keys absent from the file keep
// their defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return ParseConfigTOML(data)
}

// SaveConfig persists the configuration to config.toml in the target .advisor/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// Get returns the string form of key on cfg.
func (cfg *Config) Get(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}
	return info.get(cfg), nil
}

// PresetConfig returns the default config pointed at the named profile.
func PresetConfig(profile string) (*Config, error) {
	if _, err := provider.Lookup(profile); err != nil {
		return nil, fmt.Errorf("unknown preset: %w", err)
	}

	cfg := NewDefaultConfig()
	cfg.Provider.Profile = profile
	return cfg, nil
}

// ValidPresetNames returns the list of recognized preset names.
func ValidPresetNames() []string {
	return provider.SupportedProfiles()
}

// ParseConfigTOML parses raw TOML bytes over the defaults.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	if cfg.Provider.Profile == "" {
		cfg.Provider.Profile = defaultProfile
	}

	return cfg, nil
}

// Validate checks values that the TOML decoder cannot.
func (cfg *Config) Validate() error {
	var errs []error

	if _, err := provider.Lookup(cfg.Provider.Profile); err != nil {
		errs = append(errs, err)
	}
	if t := cfg.Generation.Temperature; t < 0 || t > 2 {
		errs = append(errs, fmt.Errorf("generation.temperature %g out of range [0, 2]", t))
	}
	if p := cfg.Generation.TopP; p < 0 || p > 1 {
		errs = append(errs, fmt.Errorf("generation.top_p %g out of range [0, 1]", p))
	}
	if cfg.Generation.MaxTokens < 0 {
		errs = append(errs, errors.New("generation.max_tokens must not be negative"))
	}
	if cfg.Session.HistoryTurns < 0 {
		errs = append(errs, errors.New("session.history_turns must not be negative"))
	}
	switch cfg.EventStream.Provider {
	case EventStreamNop:
	case EventStreamKafka:
		if len(cfg.EventStream.Brokers) == 0 || cfg.EventStream.Topic == "" {
			errs = append(errs, errors.New("kafka eventstream needs brokers and a topic"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown eventstream.provider %q", cfg.EventStream.Provider))
	}

	return errors.Join(errs...)
}

// Profile resolves the configured profile with endpoint and model overrides.
func (cfg *Config) Profile() (provider.Profile, error) {
	p, err := provider.Lookup(cfg.Provider.Profile)
	if err != nil {
		return provider.Profile{}, err
	}
	return p.WithEndpoint(cfg.Provider.Endpoint).WithModel(cfg.Provider.Model), nil
}

// Params returns the generation parameters.
func (cfg *Config) Params() llm.GenerationParams {
	return llm.GenerationParams{
		MaxTokens:   cfg.Generation.MaxTokens,
		Temperature: cfg.Generation.Temperature,
		TopP:        cfg.Generation.TopP,
		DoSample:    cfg.Generation.DoSample,
	}
}
