// Package provider describes inference backends as static profiles and sends
// provider-shaped payloads to them.
package provider

import (
	"errors"
	"fmt"
	"strings"
)

// RequestShape selects how a request body is assembled.
type RequestShape string

const (
	// CompletionSingleString renders the whole conversation into one prompt string.
	CompletionSingleString RequestShape = "completion-single-string"

	// ChatMessagesArray sends an ordered list of {role, content} records.
	ChatMessagesArray RequestShape = "chat-messages-array"
)

// ResponseShape selects where the reply text lives in a response body.
type ResponseShape string

const (
	// ArrayOfGeneratedText is `[{"generated_text": "..."}]`.
	ArrayOfGeneratedText ResponseShape = "array-of-generated-text"

	// ObjectGeneratedText is `{"generated_text": "..."}`.
	ObjectGeneratedText ResponseShape = "object-generated-text"

	// ChatCompletionChoices is `{"choices": [{"message": {"content": "..."}}]}`.
	ChatCompletionChoices ResponseShape = "chat-completion-choices"

	// AssistantMessageObject is `{"message": {"role": "assistant", "content": "..."}}`.
	AssistantMessageObject ResponseShape = "assistant-message-object"
)

// ParamStyle selects where generation parameters go in a chat request body.
type ParamStyle string

const (
	// ParamsInline puts max_tokens, temperature and top_p at the top level.
	ParamsInline ParamStyle = "inline"

	// ParamsOptions nests them under an "options" object.
	ParamsOptions ParamStyle = "options"
)

const (
	modelPlaceholder      = "{model}"
	credentialPlaceholder = "{credential}"
)

// Profile is the static description of one backend. Profiles are values;
// the With* helpers return modified copies.
type Profile struct {
	// Name is the catalogue key (e.g. "hf-zephyr").
	Name string `json:"name"`

	// Provider is the credential namespace (e.g. "huggingface", "openai").
	Provider string `json:"provider"`

	// Description is a one-line summary for listings.
	Description string `json:"description,omitempty"`

	// Endpoint is the URL template. "{model}" is replaced by the model.
	Endpoint string `json:"endpoint"`

	// Model is the default model name.
	Model string `json:"model,omitempty"`

	// Headers are header templates. "{credential}" is replaced by the
	// credential; headers that need one are dropped when it is empty.
	Headers map[string]string `json:"headers,omitempty"`

	Request  RequestShape  `json:"request_shape"`
	Response ResponseShape `json:"response_shape"`

	// Template renders single-string prompts. Ignored by chat profiles.
	Template Template `json:"template"`

	// Params selects the chat parameter layout.
	Params ParamStyle `json:"param_style,omitempty"`

	// MaxTokens is the default output token budget.
	MaxTokens int `json:"max_tokens"`
}

// URL returns the endpoint with the model substituted. An empty model
// falls back to the profile default.
func (p Profile) URL(model string) string {
	if model == "" {
		model = p.Model
	}
	return strings.ReplaceAll(p.Endpoint, modelPlaceholder, model)
}

// RenderHeaders returns the headers to send with the given credential.
func (p Profile) RenderHeaders(credential string) map[string]string {
	out := make(map[string]string, len(p.Headers))
	for k, v := range p.Headers {
		if strings.Contains(v, credentialPlaceholder) {
			if credential == "" {
				continue
			}
			v = strings.ReplaceAll(v, credentialPlaceholder, credential)
		}
		out[k] = v
	}
	return out
}

// NeedsCredential reports whether any header carries the credential.
func (p Profile) NeedsCredential() bool {
	for _, v := range p.Headers {
		if strings.Contains(v, credentialPlaceholder) {
			return true
		}
	}
	return false
}

// WithEndpoint returns a copy with the endpoint overridden when non-empty.
func (p Profile) WithEndpoint(endpoint string) Profile {
	if endpoint != "" {
		p.Endpoint = endpoint
	}
	return p
}

// WithModel returns a copy with the model overridden when non-empty.
func (p Profile) WithModel(model string) Profile {
	if model != "" {
		p.Model = model
	}
	return p
}

// Validate checks that the profile is internally consistent.
func (p Profile) Validate() error {
	var errs []error

	if p.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if p.Endpoint == "" {
		errs = append(errs, errors.New("endpoint is required"))
	}
	if strings.Contains(p.Endpoint, modelPlaceholder) && p.Model == "" {
		errs = append(errs, errors.New("endpoint needs a model but none is set"))
	}

	switch p.Request {
	case CompletionSingleString:
		if p.Template.Name == "" {
			errs = append(errs, errors.New("completion profiles need a prompt template"))
		}
	case ChatMessagesArray:
	default:
		errs = append(errs, fmt.Errorf("unknown request shape %q", p.Request))
	}

	switch p.Response {
	case ArrayOfGeneratedText, ObjectGeneratedText, ChatCompletionChoices, AssistantMessageObject:
	default:
		errs = append(errs, fmt.Errorf("unknown response shape %q", p.Response))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid profile %q: %w", p.Name, err)
	}
	return nil
}
