// Package openai implements inference.Client using the OpenAI Chat
// Completions API (non-streaming single-turn requests).
package openai

import (
	"context"
	"strings"

	"github.com/openai/openai-go"

	"github.com/docfoundry/docfoundry/inference"
)

// Options configure the OpenAI adapter. Fields mirror a minimal subset of
// Chat Completion parameters; extend via functional options without breaking
// callers.
type Options struct {
	Model               string
	MaxCompletionTokens int64
}

// Client wraps the OpenAI Chat Completions API behind inference.Client.
type Client struct {
	client *openai.Client
	opts   Options
}

// New creates the adapter using the SDK's environment-configured client.
func New(optFns ...func(o *Options)) *Client {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates the adapter from an existing SDK client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Client {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{client: client, opts: opts}
}

// Complete implements inference.Client.
func (c *Client) Complete(ctx context.Context, prompt string, opts inference.CallOptions) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages:            []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Model:               c.opts.Model,
		Temperature:         openai.Float(opts.Temperature),
		MaxCompletionTokens: openai.Int(c.opts.MaxCompletionTokens),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", inference.Classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", inference.ErrBackendMalformed
	}
	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", inference.ErrBackendMalformed
	}
	return text, nil
}

// Info implements inference.Client.
func (c *Client) Info() inference.Info {
	return inference.Info{Backend: "openai", Model: c.opts.Model}
}
