package provider

import (
	"fmt"
	"sort"
)

// Built-in profile names.
const (
	HFZephyr   = "hf-zephyr"
	HFMistral  = "hf-mistral"
	HFDialoGPT = "hf-dialogpt"
	TGI        = "tgi"
	OpenAI     = "openai"
	Groq       = "groq"
	Together   = "together"
	Ollama     = "ollama"
)

const hfInferenceEndpoint = "https://api-inference.huggingface.co/models/{model}"

var bearer = map[string]string{"Authorization": "Bearer {credential}"}

var profiles = map[string]Profile{
	HFZephyr: {
		Name:        HFZephyr,
		Provider:    "huggingface",
		Description: "Zephyr 7B on the Hugging Face Inference API",
		Endpoint:    hfInferenceEndpoint,
		Model:       "HuggingFaceH4/zephyr-7b-beta",
		Headers:     bearer,
		Request:     CompletionSingleString,
		Response:    ArrayOfGeneratedText,
		Template:    ZephyrTemplate,
		MaxTokens:   512,
	},
	HFMistral: {
		Name:        HFMistral,
		Provider:    "huggingface",
		Description: "Mistral 7B Instruct on the Hugging Face Inference API",
		Endpoint:    hfInferenceEndpoint,
		Model:       "mistralai/Mistral-7B-Instruct-v0.2",
		Headers:     bearer,
		Request:     CompletionSingleString,
		Response:    ArrayOfGeneratedText,
		Template:    InstTemplate,
		MaxTokens:   512,
	},
	HFDialoGPT: {
		Name:        HFDialoGPT,
		Provider:    "huggingface",
		Description: "DialoGPT medium on the Hugging Face Inference API",
		Endpoint:    hfInferenceEndpoint,
		Model:       "microsoft/DialoGPT-medium",
		Headers:     bearer,
		Request:     CompletionSingleString,
		Response:    ArrayOfGeneratedText,
		Template:    EOSTemplate,
		MaxTokens:   256,
	},
	TGI: {
		Name:        TGI,
		Provider:    "huggingface",
		Description: "Self-hosted text-generation-inference /generate endpoint",
		Endpoint:    "http://localhost:8080/generate",
		Headers:     bearer,
		Request:     CompletionSingleString,
		Response:    ObjectGeneratedText,
		Template:    PlainTemplate,
		MaxTokens:   256,
	},
	OpenAI: {
		Name:        OpenAI,
		Provider:    "openai",
		Description: "OpenAI chat completions",
		Endpoint:    "https://api.openai.com/v1/chat/completions",
		Model:       "gpt-4o-mini",
		Headers:     bearer,
		Request:     ChatMessagesArray,
		Response:    ChatCompletionChoices,
		Params:      ParamsInline,
		MaxTokens:   512,
	},
	Groq: {
		Name:        Groq,
		Provider:    "groq",
		Description: "Groq OpenAI-compatible chat completions",
		Endpoint:    "https://api.groq.com/openai/v1/chat/completions",
		Model:       "llama-3.1-8b-instant",
		Headers:     bearer,
		Request:     ChatMessagesArray,
		Response:    ChatCompletionChoices,
		Params:      ParamsInline,
		MaxTokens:   512,
	},
	Together: {
		Name:        Together,
		Provider:    "together",
		Description: "Together AI OpenAI-compatible chat completions",
		Endpoint:    "https://api.together.xyz/v1/chat/completions",
		Model:       "meta-llama/Llama-3-8b-chat-hf",
		Headers:     bearer,
		Request:     ChatMessagesArray,
		Response:    ChatCompletionChoices,
		Params:      ParamsInline,
		MaxTokens:   512,
	},
	Ollama: {
		Name:        Ollama,
		Provider:    "ollama",
		Description: "Local Ollama /api/chat",
		Endpoint:    "http://localhost:11434/api/chat",
		Model:       "llama3.2",
		Request:     ChatMessagesArray,
		Response:    AssistantMessageObject,
		Params:      ParamsOptions,
		MaxTokens:   512,
	},
}

// SupportedProfiles returns the sorted names of all built-in profiles.
func SupportedProfiles() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profiles returns every built-in profile sorted by name.
func Profiles() []Profile {
	out := make([]Profile, 0, len(profiles))
	for _, name := range SupportedProfiles() {
		p, _ := Lookup(name)
		out = append(out, p)
	}
	return out
}

// Lookup returns a copy of the named built-in profile.
// Returns an error if the profile is not recognized.
func Lookup(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile: %q (supported: %v)", name, SupportedProfiles())
	}

	headers := make(map[string]string, len(p.Headers))
	for k, v := range p.Headers {
		headers[k] = v
	}
	p.Headers = headers

	return p, nil
}
