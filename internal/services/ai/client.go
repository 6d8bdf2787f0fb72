// Package ai provides the completion client backing ai-query nodes. It talks
// to any OpenAI-compatible chat completions endpoint.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tendrilhq/tendril/pkg/ports"
)

// Client implements ports.Completer against a chat completions API.
type Client struct {
	client  *resty.Client
	baseURL string
	apiKey  string
	model   string
}

var _ ports.Completer = (*Client)(nil)

type Option func(*Client)

// WithModel sets the model identifier sent with each request.
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// WithTimeout sets the per-request timeout. Default is 60s.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.client.SetTimeout(timeout)
	}
}

// New creates a completion client. baseURL is the API root, e.g.
// "https://api.openai.com/v1".
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		client:  resty.New().SetTimeout(60 * time.Second),
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   "gpt-4o-mini",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends prompt (and optional system instruction) and returns the
// first choice's text.
func (c *Client) Complete(ctx context.Context, prompt, system string) (string, error) {
	var messages []message
	if system != "" {
		messages = append(messages, message{Role: "system", Content: system})
	}
	messages = append(messages, message{Role: "user", Content: prompt})

	var out chatResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(c.apiKey).
		SetBody(chatRequest{Model: c.model, Messages: messages}).
		SetResult(&out).
		SetError(&out).
		Post(c.baseURL + "/chat/completions")
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if resp.IsError() {
		if out.Error != nil && out.Error.Message != "" {
			return "", fmt.Errorf("completion API error: %s", out.Error.Message)
		}
		return "", fmt.Errorf("completion API returned status %d", resp.StatusCode())
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("completion API returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}
