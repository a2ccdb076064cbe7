// Package gateway is the client side of the chat gateway, used by the
// terminal REPL.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	httputils "chatgw/chatgw/utils/http"
	"chatgw/chatgw/utils/types"
)

const (
	DefaultHealthTimeout = 3 * time.Second
	DefaultChatTimeout   = 120 * time.Second
)

// ErrOllamaDown is returned by Health when the gateway is up but reports
// the inference server as unreachable.
var ErrOllamaDown = errors.New("the Ollama server is down or unreachable. Start Ollama and try again")

// APIError is a non-2xx answer from the gateway, carrying its "detail".
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return e.Detail
}

type Client struct {
	chatURL       string
	healthURL     string
	apiKey        string
	http          *http.Client
	healthTimeout time.Duration
	chatTimeout   time.Duration
}

// NewClient accepts an API URL pointing either at the API root (".../api")
// or at the chat endpoint itself (".../api/chat").
func NewClient(apiURL, apiKey string) *Client {
	chatURL, healthURL := endpoints(apiURL)
	return &Client{
		chatURL:       chatURL,
		healthURL:     healthURL,
		apiKey:        apiKey,
		http:          &http.Client{},
		healthTimeout: DefaultHealthTimeout,
		chatTimeout:   DefaultChatTimeout,
	}
}

func endpoints(apiURL string) (chatURL, healthURL string) {
	base := strings.TrimRight(strings.TrimSpace(apiURL), "/")
	if strings.HasSuffix(base, "/chat") {
		return base, strings.TrimSuffix(base, "/chat") + "/health"
	}
	return base + "/chat", base + "/health"
}

func (c *Client) ChatURL() string   { return c.chatURL }
func (c *Client) HealthURL() string { return c.healthURL }

// Health fetches /api/health. With requireOllama, a gateway that reports
// the inference server as down yields ErrOllamaDown.
func (c *Client) Health(ctx context.Context, requireOllama bool) (*types.HealthResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	var resp types.HealthResponse
	if err := httputils.GetJSON(ctx, c.http, c.healthURL, nil, &resp); err != nil {
		return nil, fmt.Errorf("API is not available: %w", err)
	}
	if requireOllama && !resp.Ollama {
		return &resp, ErrOllamaDown
	}
	return &resp, nil
}

// Chat posts a conversation. An error response from the gateway comes back
// as *APIError.
func (c *Client) Chat(ctx context.Context, req types.ChatRequest) (*types.ChatResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.chatTimeout)
	defer cancel()

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+c.apiKey)

	var resp types.ChatResponse
	err := httputils.PostJSON(ctx, c.http, c.chatURL, headers, req, &resp)
	if err != nil {
		var se *httputils.StatusError
		if errors.As(err, &se) {
			return nil, &APIError{StatusCode: se.StatusCode, Detail: detailOf(se)}
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("chat request timed out after %s: %w", c.chatTimeout, err)
		}
		return nil, err
	}
	return &resp, nil
}

// detailOf pulls "detail" out of an error body, falling back to the raw
// body and then to the status code.
func detailOf(se *httputils.StatusError) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(se.Body, &body); err == nil && len(body.Detail) > 0 {
		var s string
		if err := json.Unmarshal(body.Detail, &s); err == nil {
			if s != "" {
				return s
			}
		} else if string(body.Detail) != "null" {
			return string(body.Detail)
		}
	}
	if raw := strings.TrimSpace(string(se.Body)); raw != "" {
		return raw
	}
	return fmt.Sprintf("HTTP %d", se.StatusCode)
}
