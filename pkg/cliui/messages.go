package cliui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/papercomputeco/advisor/pkg/llm"
)

var kindMessages = map[llm.Kind]string{
	llm.KindAuth:             "The provider rejected the credential. Run 'advisor auth <provider>' or set the provider's API key variable.",
	llm.KindNotFound:         "The model or endpoint was not found. Check provider.model and provider.endpoint.",
	llm.KindRateLimited:      "Rate limited by the provider. Wait a moment and send your message again.",
	llm.KindLoading:          "The model is still loading (cold start). Try again in a few seconds.",
	llm.KindServerError:      "The provider had an internal error. Try again shortly.",
	llm.KindConnection:       "Could not reach the provider. Check your network and the endpoint URL.",
	llm.KindTimeout:          "The provider took too long to answer. Try again or raise session.timeout.",
	llm.KindParseError:       "The provider sent a response that is not valid JSON.",
	llm.KindEmptyResponse:    "The model returned an empty reply. Try rephrasing your question.",
	llm.KindUnexpectedShape:  "The provider response did not have the expected format for this profile.",
	llm.KindUnexpectedStatus: "The provider answered with an unexpected HTTP status.",
}

// OutcomeMessage returns the user-facing message for a failure kind.
func OutcomeMessage(kind llm.Kind) string {
	if msg, ok := kindMessages[kind]; ok {
		return msg
	}
	return "Something went wrong talking to the provider."
}

// ErrorLine formats err for the chat transcript. Provider failures get their
// category message plus detail; anything else is printed as is.
func ErrorLine(err error) string {
	var ce *llm.CallError
	if !errors.As(err, &ce) {
		return fmt.Sprintf("%s %v", FailMark, err)
	}

	mark := FailMark
	if ce.Kind.Retryable() {
		mark = WarnMark
	}

	var b strings.Builder
	b.WriteString(mark)
	b.WriteString(" ")
	b.WriteString(OutcomeMessage(ce.Kind))

	var detail []string
	if ce.StatusCode != 0 {
		detail = append(detail, fmt.Sprintf("http %d", ce.StatusCode))
	}
	if ce.Detail != "" {
		detail = append(detail, ce.Detail)
	}
	if len(detail) > 0 {
		b.WriteString(" ")
		b.WriteString(DimStyle.Render("(" + strings.Join(detail, ": ") + ")"))
	}
	return b.String()
}
