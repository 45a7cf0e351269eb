// Package llm is a provider-neutral chat completion client.
package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/Abraxas-365/supportdesk/pkg/errx"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// Options are the per-request generation settings
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	JSONMode    bool
}

// Option configures a request
type Option func(*Options)

func WithModel(model string) Option {
	return func(o *Options) { o.Model = model }
}

func WithTemperature(t float64) Option {
	return func(o *Options) { o.Temperature = t }
}

func WithMaxTokens(n int) Option {
	return func(o *Options) { o.MaxTokens = n }
}

// WithJSONMode asks the provider for a JSON object response when it supports it
func WithJSONMode() Option {
	return func(o *Options) { o.JSONMode = true }
}

// Provider is implemented by each vendor adapter
type Provider interface {
	Name() string
	Chat(ctx context.Context, messages []Message, opts Options) (Message, error)
}

// SplitSystem separates system messages (joined) from the conversation
func SplitSystem(messages []Message) (string, []Message) {
	var system []string
	rest := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}

var errRegistry = errx.NewRegistry("LLM")

var (
	ErrCodeNoMessages = errRegistry.Register(
		"NO_MESSAGES",
		errx.TypeValidation,
		http.StatusBadRequest,
		"At least one message is required",
	)

	ErrCodeProviderFailed = errRegistry.Register(
		"PROVIDER_FAILED",
		errx.TypeExternal,
		http.StatusBadGateway,
		"LLM provider request failed",
	)

	ErrCodeEmptyResponse = errRegistry.Register(
		"EMPTY_RESPONSE",
		errx.TypeExternal,
		http.StatusBadGateway,
		"LLM provider returned no content",
	)
)

func NewProviderFailedError(provider string, cause error) *errx.Error {
	return errRegistry.NewWithCause(ErrCodeProviderFailed, cause).
		WithDetail("provider", provider)
}

func NewEmptyResponseError(provider string) *errx.Error {
	return errRegistry.New(ErrCodeEmptyResponse).
		WithDetail("provider", provider)
}

// Client wraps a Provider with default options
type Client struct {
	provider Provider
	defaults []Option
}

// NewClient creates a client for a provider
func NewClient(provider Provider, defaults ...Option) *Client {
	return &Client{provider: provider, defaults: defaults}
}

// Provider returns the underlying provider name
func (c *Client) Provider() string {
	return c.provider.Name()
}

// Chat sends messages and returns the assistant reply
func (c *Client) Chat(ctx context.Context, messages []Message, opts ...Option) (Message, error) {
	if len(messages) == 0 {
		return Message{}, errRegistry.New(ErrCodeNoMessages)
	}

	options := Options{MaxTokens: 1024}
	for _, opt := range c.defaults {
		opt(&options)
	}
	for _, opt := range opts {
		opt(&options)
	}

	reply, err := c.provider.Chat(ctx, messages, options)
	if err != nil {
		if _, ok := errx.As(err); ok {
			return Message{}, err
		}
		return Message{}, NewProviderFailedError(c.provider.Name(), err)
	}
	if strings.TrimSpace(reply.Content) == "" {
		return Message{}, NewEmptyResponseError(c.provider.Name())
	}
	if reply.Role == "" {
		reply.Role = RoleAssistant
	}
	return reply, nil
}
