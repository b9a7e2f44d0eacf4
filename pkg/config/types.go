package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent advisor configuration stored as
// config.toml in the .advisor/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Provider    ProviderConfig    `toml:"provider"`
	Generation  GenerationConfig  `toml:"generation"`
	Session     SessionConfig     `toml:"session"`
	API         APIConfig         `toml:"api"`
	EventStream EventStreamConfig `toml:"eventstream"`
}

// ProviderConfig selects the backend profile and optional overrides of its
// endpoint and model.
type ProviderConfig struct {
	Profile  string `toml:"profile,omitempty"`
	Endpoint string `toml:"endpoint,omitempty"`
	Model    string `toml:"model,omitempty"`
}

// GenerationConfig holds sampling parameters. MaxTokens of zero takes the
// profile default.
type GenerationConfig struct {
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
	TopP        float64 `toml:"top_p"`
	DoSample    bool    `toml:"do_sample"`
}

// SessionConfig holds per-conversation settings.
type SessionConfig struct {
	SystemPrompt string   `toml:"system_prompt,omitempty"`
	Timeout      Duration `toml:"timeout,omitempty"`
	HistoryTurns int      `toml:"history_turns"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// EventStreamConfig selects where turn events go.
type EventStreamConfig struct {
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// Duration is a time.Duration that reads and writes as a string like "60s".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func intKey(name string, field func(c *Config) *int) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.Itoa(*field(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid value for %s: want a non-negative integer, got %q", name, v)
			}
			*field(c) = n
			return nil
		},
	}
}

func floatKey(name string, lo, hi float64, field func(c *Config) *float64) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatFloat(*field(c), 'g', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f < lo || f > hi {
				return fmt.Errorf("invalid value for %s: want a number in [%g, %g], got %q", name, lo, hi, v)
			}
			*field(c) = f
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"provider.profile": {
		get: func(c *Config) string { return c.Provider.Profile },
		set: func(c *Config, v string) error { c.Provider.Profile = v; return nil },
	},
	"provider.endpoint": {
		get: func(c *Config) string { return c.Provider.Endpoint },
		set: func(c *Config, v string) error { c.Provider.Endpoint = v; return nil },
	},
	"provider.model": {
		get: func(c *Config) string { return c.Provider.Model },
		set: func(c *Config, v string) error { c.Provider.Model = v; return nil },
	},
	"generation.max_tokens": intKey("generation.max_tokens", func(c *Config) *int { return &c.Generation.MaxTokens }),
	"generation.temperature": floatKey("generation.temperature", 0, 2,
		func(c *Config) *float64 { return &c.Generation.Temperature }),
	"generation.top_p": floatKey("generation.top_p", 0, 1,
		func(c *Config) *float64 { return &c.Generation.TopP }),
	"generation.do_sample": {
		get: func(c *Config) string { return strconv.FormatBool(c.Generation.DoSample) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for generation.do_sample: %w", err)
			}
			c.Generation.DoSample = b
			return nil
		},
	},
	"session.system_prompt": {
		get: func(c *Config) string { return c.Session.SystemPrompt },
		set: func(c *Config, v string) error { c.Session.SystemPrompt = v; return nil },
	},
	"session.timeout": {
		get: func(c *Config) string { return c.Session.Timeout.String() },
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				return fmt.Errorf("invalid value for session.timeout: want a positive duration like 60s, got %q", v)
			}
			c.Session.Timeout = Duration{d}
			return nil
		},
	},
	"session.history_turns": intKey("session.history_turns", func(c *Config) *int { return &c.Session.HistoryTurns }),
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"eventstream.provider": {
		get: func(c *Config) string { return c.EventStream.Provider },
		set: func(c *Config, v string) error {
			switch v {
			case EventStreamNop, EventStreamKafka:
				c.EventStream.Provider = v
				return nil
			default:
				return fmt.Errorf("invalid value for eventstream.provider: want %q or %q, got %q", EventStreamNop, EventStreamKafka, v)
			}
		},
	},
	"eventstream.brokers": {
		get: func(c *Config) string { return strings.Join(c.EventStream.Brokers, ",") },
		set: func(c *Config, v string) error { c.EventStream.Brokers = splitList(v); return nil },
	},
	"eventstream.topic": {
		get: func(c *Config) string { return c.EventStream.Topic },
		set: func(c *Config, v string) error { c.EventStream.Topic = v; return nil },
	},
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
