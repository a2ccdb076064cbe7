package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	httputils "chatgw/chatgw/utils/http"
	"chatgw/chatgw/utils/logging"

	"go.uber.org/zap"
)

const (
	DefaultTemperature = 0.2
	DefaultPingTimeout = 5 * time.Second
	DefaultChatTimeout = 60 * time.Second
)

type ClientConfig struct {
	// BaseURL of the Ollama server, e.g. http://127.0.0.1:11434 (no /api suffix).
	BaseURL     string
	PingTimeout time.Duration
	ChatTimeout time.Duration
	HTTPClient  *http.Client
}

// OllamaClient is the gateway's only door to the inference server.
// It keeps no state between calls and is safe for concurrent use.
type OllamaClient struct {
	baseURL     string
	pingTimeout time.Duration
	chatTimeout time.Duration
	http        *http.Client
}

func NewOllamaClient(cfg ClientConfig) *OllamaClient {
	c := &OllamaClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		pingTimeout: cfg.PingTimeout,
		chatTimeout: cfg.ChatTimeout,
		http:        cfg.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = "http://127.0.0.1:11434"
	}
	if c.pingTimeout <= 0 {
		c.pingTimeout = DefaultPingTimeout
	}
	if c.chatTimeout <= 0 {
		c.chatTimeout = DefaultChatTimeout
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	return c
}

type ChatRequest struct {
	Model    string      `json:"model"`
	Messages []Message   `json:"messages"`
	Stream   bool        `json:"stream"`
	Options  ChatOptions `json:"options"`
}

type ChatOptions struct {
	Temperature float64 `json:"temperature"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse uses pointers so a missing message or content is detectable.
type chatResponse struct {
	Message *struct {
		Role    string  `json:"role"`
		Content *string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

type ModelInfo struct {
	Name       string `json:"name"`
	Model      string `json:"model,omitempty"`
	ModifiedAt string `json:"modified_at,omitempty"`
	Size       int64  `json:"size,omitempty"`
	Digest     string `json:"digest,omitempty"`
}

type tagsResponse struct {
	Models []ModelInfo `json:"models"`
}

func (c *OllamaClient) tagsURL() string { return c.baseURL + "/api/tags" }
func (c *OllamaClient) chatURL() string { return c.baseURL + "/api/chat" }

// Ping reports whether the tag listing answers with a 2xx. It never fails.
func (c *OllamaClient) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.pingTimeout)
	defer cancel()
	if err := httputils.GetJSON(ctx, c.http, c.tagsURL(), nil, nil); err != nil {
		logging.AppLogger.Warn("ollama ping failed", zap.String("host", c.baseURL), zap.Error(err))
		return false
	}
	return true
}

// ListModels returns the installed models. A body without a "models" key
// yields an empty list.
func (c *OllamaClient) ListModels(ctx context.Context) ([]ModelInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.pingTimeout)
	defer cancel()
	var resp tagsResponse
	if err := httputils.GetJSON(ctx, c.http, c.tagsURL(), nil, &resp); err != nil {
		return nil, classify("list models", err)
	}
	return resp.Models, nil
}

// HasModel reports whether name is installed. Only a failure to reach the
// server is an error; an odd or failed tag listing simply means "no".
func (c *OllamaClient) HasModel(ctx context.Context, name string) (bool, error) {
	models, err := c.ListModels(ctx)
	if err != nil {
		var e *Error
		if errors.As(err, &e) && (e.Kind == KindUnreachable || e.Kind == KindTimeout) {
			logging.ErrorLogger.Error("ollama unreachable while checking model", zap.String("model", name), zap.Error(err))
			return false, err
		}
		logging.AppLogger.Warn("model check failed, treating as not installed", zap.String("model", name), zap.Error(err))
		return false, nil
	}
	for _, m := range models {
		if modelMatches(name, m.Name) {
			return true, nil
		}
	}
	logging.AppLogger.Info("model not installed", zap.String("model", name), zap.Int("installed", len(models)))
	return false, nil
}

// modelMatches compares a requested model against an installed tag.
// "phi" matches any tag of phi; "phi:2.7b" must match exactly, with an
// untagged installed name standing for ":latest".
func modelMatches(requested, installed string) bool {
	requested = strings.TrimSpace(requested)
	if requested == "" || installed == "" {
		return false
	}
	reqBase, reqTag, reqTagged := strings.Cut(requested, ":")
	instBase, instTag, instTagged := strings.Cut(installed, ":")
	if reqBase != instBase {
		return false
	}
	if !reqTagged {
		return true
	}
	if !instTagged {
		instTag = "latest"
	}
	return reqTag == instTag
}

// CallOptions are the per-call knobs of Chat. A zero Timeout means the
// client's configured chat timeout.
type CallOptions struct {
	Temperature float64
	Timeout     time.Duration
}

type ChatOption func(*CallOptions)

func WithTemperature(t float64) ChatOption {
	return func(o *CallOptions) { o.Temperature = t }
}

func WithTimeout(d time.Duration) ChatOption {
	return func(o *CallOptions) {
		if d > 0 {
			o.Timeout = d
		}
	}
}

// ResolveOptions applies opts on top of the defaults.
func ResolveOptions(opts ...ChatOption) CallOptions {
	o := CallOptions{Temperature: DefaultTemperature}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Chat performs a single non-streaming completion and returns the
// assistant's text. Every failure is an *Error.
func (c *OllamaClient) Chat(ctx context.Context, messages []Message, model string, opts ...ChatOption) (string, error) {
	defer logging.LogDuration(ctx, "ollama_chat")()

	o := ResolveOptions(opts...)
	if o.Timeout == 0 {
		o.Timeout = c.chatTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, o.Timeout)
	defer cancel()

	req := ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
		Options:  ChatOptions{Temperature: o.Temperature},
	}
	logging.AppLogger.Debug("sending chat request",
		zap.String("model", model), zap.Int("messages", len(messages)), zap.Float64("temperature", o.Temperature))

	var resp chatResponse
	if err := httputils.PostJSON(ctx, c.http, c.chatURL(), nil, req, &resp); err != nil {
		e := classify("chat", err)
		logging.ErrorLogger.Error("ollama chat failed",
			zap.String("model", model), zap.String("kind", e.Kind.String()), zap.Error(err))
		return "", e
	}
	if resp.Message == nil || resp.Message.Content == nil {
		logging.ErrorLogger.Error("ollama chat response missing message.content", zap.String("model", model))
		return "", &Error{Kind: KindMalformedResponse, Message: "chat: unexpected response shape"}
	}
	content := *resp.Message.Content
	logging.AppLogger.Info("received chat response", zap.String("model", model), zap.Int("chars", len(content)))
	return content, nil
}
