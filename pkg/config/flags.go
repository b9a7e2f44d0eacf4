package config

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline, so the same logical flag
// cannot drift between "advisor chat" and "advisor serve".
type Flag struct {
	// Name is the long flag name (e.g. "profile").
	Name string

	// Shorthand is the one-letter short flag (e.g. "p"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "provider.profile").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string

	// HideDefault keeps long defaults out of --help.
	HideDefault bool
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
const (
	FlagProfile      = "profile"
	FlagEndpoint     = "endpoint"
	FlagModel        = "model"
	FlagMaxTokens    = "max-tokens"
	FlagTemperature  = "temperature"
	FlagTopP         = "top-p"
	FlagSystemPrompt = "system-prompt"
	FlagTimeout      = "timeout"
	FlagHistoryTurns = "history-turns"
	FlagListen       = "listen"
	FlagEventStream  = "eventstream"
	FlagBrokers      = "brokers"
	FlagTopic        = "topic"
)

// SessionFlags are shared by every command that talks to a provider.
var SessionFlags = FlagSet{
	FlagProfile:      {Name: "profile", Shorthand: "p", ViperKey: "provider.profile", Description: "Provider profile (see 'advisor profiles')"},
	FlagEndpoint:     {Name: "endpoint", ViperKey: "provider.endpoint", Description: "Override the profile endpoint URL"},
	FlagModel:        {Name: "model", Shorthand: "m", ViperKey: "provider.model", Description: "Override the profile model"},
	FlagMaxTokens:    {Name: "max-tokens", ViperKey: "generation.max_tokens", Description: "Maximum new tokens (0 uses the profile default)"},
	FlagTemperature:  {Name: "temperature", ViperKey: "generation.temperature", Description: "Sampling temperature"},
	FlagTopP:         {Name: "top-p", ViperKey: "generation.top_p", Description: "Nucleus sampling probability"},
	FlagSystemPrompt: {Name: "system-prompt", ViperKey: "session.system_prompt", Description: "System prompt injected at the start of each conversation", HideDefault: true},
	FlagTimeout:      {Name: "timeout", ViperKey: "session.timeout", Description: "Per-request provider timeout"},
	FlagHistoryTurns: {Name: "history-turns", ViperKey: "session.history_turns", Description: "History turns sent with each request (0 sends all)"},
}

// ServeFlags are specific to "advisor serve".
var ServeFlags = FlagSet{
	FlagListen:      {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the API server to listen on"},
	FlagEventStream: {Name: "eventstream", ViperKey: "eventstream.provider", Description: "Turn event backend (nop, kafka)"},
	FlagBrokers:     {Name: "brokers", ViperKey: "eventstream.brokers", Description: "Comma separated Kafka brokers"},
	FlagTopic:       {Name: "topic", ViperKey: "eventstream.topic", Description: "Kafka topic for turn events"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}
	defaultVal := ""
	if !def.HideDefault {
		defaultVal = defaults().GetString(def.ViperKey)
	}
	cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
}

// AddIntFlag registers an int flag on cmd from the given FlagSet.
func AddIntFlag(cmd *cobra.Command, fs FlagSet, key string, target *int) {
	def, ok := fs[key]
	if !ok {
		return
	}
	cmd.Flags().IntVarP(target, def.Name, def.Shorthand, defaults().GetInt(def.ViperKey), def.Description)
}

// AddFloatFlag registers a float64 flag on cmd from the given FlagSet.
func AddFloatFlag(cmd *cobra.Command, fs FlagSet, key string, target *float64) {
	def, ok := fs[key]
	if !ok {
		return
	}
	cmd.Flags().Float64VarP(target, def.Name, def.Shorthand, defaults().GetFloat64(def.ViperKey), def.Description)
}

// AddDurationFlag registers a duration flag on cmd from the given FlagSet.
func AddDurationFlag(cmd *cobra.Command, fs FlagSet, key string, target *time.Duration) {
	def, ok := fs[key]
	if !ok {
		return
	}
	cmd.Flags().DurationVarP(target, def.Name, def.Shorthand, defaults().GetDuration(def.ViperKey), def.Description)
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
//
// Only flags the user actually set win over env and file values; viper
// falls through to the next layer for unchanged flags.
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// SessionFlagValues holds the flag targets for SessionFlags. Commands read
// effective values through viper, not from these fields.
type SessionFlagValues struct {
	Profile      string
	Endpoint     string
	Model        string
	SystemPrompt string
	MaxTokens    int
	HistoryTurns int
	Temperature  float64
	TopP         float64
	Timeout      time.Duration
}

// Register adds every SessionFlags entry to cmd.
func (sv *SessionFlagValues) Register(cmd *cobra.Command) {
	AddStringFlag(cmd, SessionFlags, FlagProfile, &sv.Profile)
	AddStringFlag(cmd, SessionFlags, FlagEndpoint, &sv.Endpoint)
	AddStringFlag(cmd, SessionFlags, FlagModel, &sv.Model)
	AddStringFlag(cmd, SessionFlags, FlagSystemPrompt, &sv.SystemPrompt)
	AddIntFlag(cmd, SessionFlags, FlagMaxTokens, &sv.MaxTokens)
	AddIntFlag(cmd, SessionFlags, FlagHistoryTurns, &sv.HistoryTurns)
	AddFloatFlag(cmd, SessionFlags, FlagTemperature, &sv.Temperature)
	AddFloatFlag(cmd, SessionFlags, FlagTopP, &sv.TopP)
	AddDurationFlag(cmd, SessionFlags, FlagTimeout, &sv.Timeout)
}

// Keys returns the registry keys of fs.
func (fs FlagSet) Keys() []string {
	out := make([]string, 0, len(fs))
	for k := range fs {
		out = append(out, k)
	}
	return out
}

func defaults() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}
