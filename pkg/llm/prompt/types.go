package prompt

import (
	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/llm/provider"
)

// completionRequest is the Hugging Face Inference / TGI text-generation format.
type completionRequest struct {
	Inputs     string           `json:"inputs"`
	Parameters completionParams `json:"parameters"`
}

type completionParams struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	TopP           float64 `json:"top_p"`
	DoSample       bool    `json:"do_sample"`
	ReturnFullText bool    `json:"return_full_text"`
}

// chatMessage is a single {role, content} record.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the OpenAI-compatible chat completions format.
type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	Stream      bool          `json:"stream"`
}

// ollamaRequest is the Ollama /api/chat format with nested options.
type ollamaRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	NumPredict  int     `json:"num_predict"`
}

func newCompletionRequest(text string, params llm.GenerationParams) completionRequest {
	return completionRequest{
		Inputs: text,
		Parameters: completionParams{
			MaxNewTokens:   params.MaxTokens,
			Temperature:    params.Temperature,
			TopP:           params.TopP,
			DoSample:       params.DoSample,
			ReturnFullText: false,
		},
	}
}

func newChatRequest(profile provider.Profile, turns []llm.Turn, params llm.GenerationParams) any {
	messages := make([]chatMessage, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, chatMessage{Role: string(t.Role), Content: t.Content})
	}

	// Chat APIs have no sampling switch; greedy decoding is temperature 0.
	temperature := params.Temperature
	if !params.DoSample {
		temperature = 0
	}

	if profile.Params == provider.ParamsOptions {
		return ollamaRequest{
			Model:    profile.Model,
			Messages: messages,
			Stream:   false,
			Options: ollamaOptions{
				Temperature: temperature,
				TopP:        params.TopP,
				NumPredict:  params.MaxTokens,
			},
		}
	}

	return chatRequest{
		Model:       profile.Model,
		Messages:    messages,
		MaxTokens:   params.MaxTokens,
		Temperature: temperature,
		TopP:        params.TopP,
		Stream:      false,
	}
}
