// Package anthropic implements inference.Client using the Anthropic
// Messages API (non-streaming single-turn requests).
package anthropic

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/docfoundry/docfoundry/inference"
)

// Options configure the Anthropic adapter.
type Options struct {
	Model     anthropic.Model
	MaxTokens int64
	APIKey    string
}

// Client wraps the Anthropic Messages API behind inference.Client.
type Client struct {
	client *anthropic.Client
	opts   Options
}

// New creates the adapter. The API key falls back to the SDK's environment
// lookup when not set explicitly.
func New(optFns ...func(o *Options)) *Client {
	opts := Options{
		Model:     anthropic.ModelClaude3_5Sonnet20241022,
		MaxTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)
	return &Client{client: &client, opts: opts}
}

// Complete implements inference.Client.
func (c *Client) Complete(ctx context.Context, prompt string, opts inference.CallOptions) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       c.opts.Model,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: anthropic.Float(opts.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", inference.Classify(err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.AsText().Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", inference.ErrBackendMalformed
	}
	return sb.String(), nil
}

// Info implements inference.Client.
func (c *Client) Info() inference.Info {
	return inference.Info{Backend: "anthropic", Model: string(c.opts.Model)}
}
