package llm

import "encoding/json"

const (
	// DefaultTemperature is applied when no temperature is configured.
	DefaultTemperature = 0.7

	// DefaultTopP is the default nucleus-sampling probability.
	DefaultTopP = 0.9
)

// GenerationParams are the sampling parameters sent with every request.
// A zero MaxTokens means "use the profile default".
type GenerationParams struct {
	MaxTokens   int     `json:"max_tokens" toml:"max_tokens"`
	Temperature float64 `json:"temperature" toml:"temperature"`
	TopP        float64 `json:"top_p" toml:"top_p"`
	DoSample    bool    `json:"do_sample" toml:"do_sample"`
}

// DefaultGenerationParams returns the documented defaults with MaxTokens
// left to the profile.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		Temperature: DefaultTemperature,
		TopP:        DefaultTopP,
		DoSample:    true,
	}
}

// WithDefaults returns a copy of p where MaxTokens falls back to maxTokens
// when unset.
func (p GenerationParams) WithDefaults(maxTokens int) GenerationParams {
	if p.MaxTokens <= 0 {
		p.MaxTokens = maxTokens
	}
	return p
}

// RequestPayload is a provider-shaped request ready to be sent.
// It is produced fresh for every call and never mutated afterwards.
type RequestPayload struct {
	// Model the request targets. Substituted into the endpoint template.
	Model string

	// Body is the JSON-encodable request body.
	Body any

	// Prompt is the rendered prompt string for single-string profiles.
	// It is empty for chat-messages profiles. The normalizer uses it to
	// strip echoed prompts.
	Prompt string

	// Messages is the ordered message list for chat-messages profiles.
	Messages []Turn

	// Params are the generation parameters that went into Body.
	Params GenerationParams
}

// Encode serializes the payload body.
func (p *RequestPayload) Encode() ([]byte, error) {
	return json.Marshal(p.Body)
}
