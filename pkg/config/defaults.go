package config

import (
	"time"

	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/llm/provider"
)

// Event stream backends.
const (
	EventStreamNop   = "nop"
	EventStreamKafka = "kafka"
)

const (
	defaultProfile      = provider.HFZephyr
	defaultTimeout      = 60 * time.Second
	defaultHistoryTurns = 20
	defaultAPIListen    = ":8081"
	defaultBroker       = "localhost:9092"
	defaultTopic        = "advisor.turns"
)

// DefaultSystemPrompt is the gadget advisor persona.
const DefaultSystemPrompt = "You are a helpful and knowledgeable gadget advisor. You assist users in choosing the best " +
	"electronic devices, including smartphones, laptops, tablets, smartwatches, and more.\n\n" +
	"Always consider the user's needs such as budget, usage (e.g., gaming, work, photography), and preferences " +
	"(e.g., battery life, camera quality, performance). Provide detailed but easy-to-understand explanations of " +
	"device specifications like processor, RAM, camera setup, display type, battery, and software.\n\n" +
	"Compare models clearly when asked, and suggest the best options available in the market. " +
	"Be honest and unbiased; highlight both pros and cons.\n\n" +
	"Your tone is friendly, professional, and trustworthy. You do not fake information. If you're unsure, " +
	"explain that and suggest how the user could verify it."

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Provider: ProviderConfig{
			Profile: defaultProfile,
		},
		Generation: GenerationConfig{
			MaxTokens:   0,
			Temperature: llm.DefaultTemperature,
			TopP:        llm.DefaultTopP,
			DoSample:    true,
		},
		Session: SessionConfig{
			SystemPrompt: DefaultSystemPrompt,
			Timeout:      Duration{defaultTimeout},
			HistoryTurns: defaultHistoryTurns,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		EventStream: EventStreamConfig{
			Provider: EventStreamNop,
			Brokers:  []string{defaultBroker},
			Topic:    defaultTopic,
		},
	}
}
