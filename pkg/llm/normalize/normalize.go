// Package normalize extracts plain reply text from provider responses.
package normalize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/llm/provider"
	"github.com/papercomputeco/advisor/pkg/utils"
)

const maxDetailLen = 256

// Normalize turns a raw 200 response body into an Outcome. echo is the
// prompt that was sent for single-string profiles; it is stripped from the
// reply when the provider returns it.
func Normalize(raw []byte, profile provider.Profile, echo string) llm.Outcome {
	if !json.Valid(raw) {
		return llm.Failure(llm.KindParseError, utils.Truncate(strings.TrimSpace(string(raw)), maxDetailLen))
	}

	text, err := extract(raw, profile.Response)
	if err != nil {
		return llm.Failure(llm.KindUnexpectedShape, err.Error())
	}

	if profile.Request == provider.CompletionSingleString {
		text = StripEcho(text, echo, profile.Template)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return llm.Failure(llm.KindEmptyResponse, "provider returned no text")
	}

	return llm.Success(text)
}

func extract(raw []byte, shape provider.ResponseShape) (string, error) {
	switch shape {
	case provider.ArrayOfGeneratedText:
		var resp []generatedText
		if err := json.Unmarshal(raw, &resp); err != nil {
			return "", shapeError(raw, "expected an array of generated_text objects")
		}
		if len(resp) == 0 {
			return "", shapeError(raw, "empty generated_text array")
		}
		if resp[0].GeneratedText == nil {
			return "", shapeError(raw, "missing generated_text")
		}
		return *resp[0].GeneratedText, nil

	case provider.ObjectGeneratedText:
		var resp generatedText
		if err := json.Unmarshal(raw, &resp); err != nil {
			return "", shapeError(raw, "expected a generated_text object")
		}
		if resp.GeneratedText == nil {
			return "", shapeError(raw, "missing generated_text")
		}
		return *resp.GeneratedText, nil

	case provider.ChatCompletionChoices:
		var resp chatCompletionResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return "", shapeError(raw, "expected a chat completion object")
		}
		if len(resp.Choices) == 0 {
			return "", shapeError(raw, "no choices")
		}
		msg := resp.Choices[0].Message
		if msg == nil || msg.Content == nil {
			return "", shapeError(raw, "missing choices[0].message.content")
		}
		return *msg.Content, nil

	case provider.AssistantMessageObject:
		var resp assistantMessageResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return "", shapeError(raw, "expected an assistant message object")
		}
		if resp.Message == nil || resp.Message.Content == nil {
			return "", shapeError(raw, "missing message.content")
		}
		return *resp.Message.Content, nil

	default:
		return "", fmt.Errorf("unknown response shape %q", shape)
	}
}

// shapeError describes a mismatch, surfacing an embedded provider error
// message when the body carries one.
func shapeError(raw []byte, msg string) error {
	var envelope struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error != "" {
		return fmt.Errorf("%s (provider error: %s)", msg, utils.Truncate(envelope.Error, maxDetailLen))
	}
	return fmt.Errorf("%s", msg)
}
