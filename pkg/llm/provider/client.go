package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/advisor/pkg/llm"
	"github.com/papercomputeco/advisor/pkg/logger"
	"github.com/papercomputeco/advisor/pkg/utils"
)

const (
	// DefaultTimeout bounds a single provider call when none is given.
	DefaultTimeout = 60 * time.Second

	maxResponseBytes = 8 << 20
	maxDetailLen     = 512
)

// Sender sends one payload to a provider and returns the raw 200 body.
// Failures are returned as *llm.CallError.
type Sender interface {
	Send(ctx context.Context, payload *llm.RequestPayload, profile Profile, credential string, timeout time.Duration) ([]byte, error)
}

// Client is the HTTP Sender. It issues exactly one request per Send and
// never retries.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client. A nil httpClient uses a fresh *http.Client
// without its own timeout (Send applies the per-call timeout); a nil logger
// discards output.
func NewClient(httpClient *http.Client, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{httpClient: httpClient, logger: log}
}

// Send posts the payload to the profile endpoint.
func (c *Client) Send(ctx context.Context, payload *llm.RequestPayload, profile Profile, credential string, timeout time.Duration) ([]byte, error) {
	if payload == nil {
		return nil, llm.NewCallError(llm.KindParseError, "nil request payload")
	}

	body, err := payload.Encode()
	if err != nil {
		return nil, &llm.CallError{Kind: llm.KindParseError, Detail: "encoding request", Cause: err}
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := profile.URL(payload.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &llm.CallError{Kind: llm.KindConnection, Detail: "creating request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", utils.UserAgent())
	for k, v := range profile.RenderHeaders(credential) {
		req.Header.Set(k, v)
	}

	c.logger.Debug("sending provider request",
		"profile", profile.Name,
		"url", url,
		"bytes", len(body),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, classifyTransportError(err)
	}

	c.logger.Debug("provider responded",
		"profile", profile.Name,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyStatus(resp.StatusCode, respBody)
	}

	return respBody, nil
}

// ClassifyStatus maps a non-200 status to a *llm.CallError.
func ClassifyStatus(status int, body []byte) *llm.CallError {
	var kind llm.Kind
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = llm.KindAuth
	case status == http.StatusNotFound:
		kind = llm.KindNotFound
	case status == http.StatusTooManyRequests:
		kind = llm.KindRateLimited
	case status == http.StatusServiceUnavailable:
		kind = llm.KindLoading
	case status >= 500 && status <= 599:
		kind = llm.KindServerError
	default:
		kind = llm.KindUnexpectedStatus
	}

	return &llm.CallError{
		Kind:       kind,
		StatusCode: status,
		Detail:     errorDetail(body),
	}
}

// classifyTransportError separates deadline expiry from other connection
// failures (DNS, refused, reset).
func classifyTransportError(err error) *llm.CallError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &llm.CallError{Kind: llm.KindTimeout, Detail: "request timed out", Cause: err}
	}
	return &llm.CallError{Kind: llm.KindConnection, Detail: err.Error(), Cause: err}
}

// errorDetail pulls a human readable message out of a provider error body.
// Hugging Face sends {"error": "..."}, OpenAI-style APIs send
// {"error": {"message": "..."}}. Anything else is returned truncated.
func errorDetail(body []byte) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Error) > 0 {
		var msg string
		if json.Unmarshal(envelope.Error, &msg) == nil && msg != "" {
			return utils.Truncate(msg, maxDetailLen)
		}

		var obj struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		}
		if json.Unmarshal(envelope.Error, &obj) == nil && obj.Message != "" {
			if obj.Type != "" {
				return utils.Truncate(fmt.Sprintf("%s: %s", obj.Type, obj.Message), maxDetailLen)
			}
			return utils.Truncate(obj.Message, maxDetailLen)
		}
	}

	return utils.Truncate(strings.TrimSpace(string(body)), maxDetailLen)
}
