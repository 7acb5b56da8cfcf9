// Package ollama implements inference.Client against a local Ollama server
// using the langchaingo abstraction.
package ollama

import (
	"context"
	"net/http"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/docfoundry/docfoundry/inference"
)

// Options configure the Ollama adapter.
type Options struct {
	ServerURL  string
	Model      string
	HTTPClient *http.Client
}

// Client wraps an Ollama-served model behind the inference.Client interface.
type Client struct {
	llm  *ollama.LLM
	opts Options
}

// New creates the adapter with optional overrides. Defaults target a local
// Ollama instance serving llama3.2.
func New(optFns ...func(o *Options)) (*Client, error) {
	opts := Options{
		ServerURL: "http://localhost:11434",
		Model:     "llama3.2",
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	llmOpts := []ollama.Option{
		ollama.WithServerURL(opts.ServerURL),
		ollama.WithModel(opts.Model),
	}
	if opts.HTTPClient != nil {
		llmOpts = append(llmOpts, ollama.WithHTTPClient(opts.HTTPClient))
	}

	llm, err := ollama.New(llmOpts...)
	if err != nil {
		return nil, inference.Classify(err)
	}
	return &Client{llm: llm, opts: opts}, nil
}

// Complete implements inference.Client.
func (c *Client) Complete(ctx context.Context, prompt string, opts inference.CallOptions) (string, error) {
	text, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt,
		llms.WithTemperature(opts.Temperature))
	if err != nil {
		return "", inference.Classify(err)
	}
	if strings.TrimSpace(text) == "" {
		return "", inference.ErrBackendMalformed
	}
	return text, nil
}

// Info implements inference.Client.
func (c *Client) Info() inference.Info {
	return inference.Info{Backend: "ollama", Model: c.opts.Model}
}
