// Package docfoundry provides a high-level façade over the pipeline
// orchestrator and its service abstractions (sessions, artifacts, generation
// strategies & logging) for turning free-text engineering queries into
// generated documents. Most applications interact with this package by:
//  1. Creating a Foundry via New() with an inference backend (optionally
//     overriding default in-memory services)
//  2. Submitting queries asynchronously (Submit + Events) or synchronously
//     (SubmitAndWait)
//  3. Fetching the terminal summary (Summary)
//
// The façade delegates pipeline execution to orchestrator.Orchestrator while
// keeping setup and usage ergonomics concise. All defaults are safe for
// local development and testing; production deployments typically supply
// durable store implementations and a structured logger.
package docfoundry

import (
	"context"
	"time"

	"github.com/docfoundry/docfoundry/core"
	"github.com/docfoundry/docfoundry/dispatch"
	"github.com/docfoundry/docfoundry/inference"
	"github.com/docfoundry/docfoundry/logging"
	"github.com/docfoundry/docfoundry/orchestrator"
)

// Options configures the Foundry instance.
type Options struct {
	// Domains are the expert perspectives applied to every query.
	Domains []core.DomainTag

	// CallTimeout bounds each inference round trip.
	CallTimeout time.Duration

	// Temperature is forwarded to the analysis backend.
	Temperature float64

	// GracePeriod is how long a pipeline keeps running without any
	// subscriber attached. Zero disables abandonment.
	GracePeriod time.Duration

	// Stores (defaults to in-memory implementations if not provided).
	SessionStore  core.SessionStore
	ArtifactStore core.ArtifactStore

	// Registry maps document types to generation strategies; defaults to
	// all built-in strategies writing under ./data.
	Registry *dispatch.Registry

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// Foundry is the high-level façade aggregating the orchestrator and its
// services.
type Foundry struct {
	orch *orchestrator.Orchestrator
}

// New creates a Foundry around the given inference backend. The backend is
// wrapped with the standard retry policy; pass an already-wrapped client to
// keep full control.
func New(backend inference.Client, optFns ...func(o *Options)) *Foundry {
	opts := Options{
		Domains:     core.DefaultDomains(),
		CallTimeout: 60 * time.Second,
		Temperature: 0.7,
		Logger:      logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	client := backend
	if _, wrapped := backend.(*inference.RetryClient); !wrapped {
		client = inference.NewRetryClient(backend, opts.Logger)
	}

	orch := orchestrator.New(client, func(o *orchestrator.Options) {
		o.Domains = opts.Domains
		o.CallTimeout = opts.CallTimeout
		o.Temperature = opts.Temperature
		o.GracePeriod = opts.GracePeriod
		if opts.SessionStore != nil {
			o.SessionStore = opts.SessionStore
		}
		if opts.ArtifactStore != nil {
			o.ArtifactStore = opts.ArtifactStore
		}
		o.Registry = opts.Registry
		o.Logger = opts.Logger
	})

	return &Foundry{orch: orch}
}

// Submit starts the pipeline for a query and returns the conversation id.
func (f *Foundry) Submit(ctx context.Context, query string) (string, error) {
	return f.orch.Submit(ctx, query, "")
}

// Events returns the ordered progress stream for a conversation: full
// history first, then live events until the pipeline finishes.
func (f *Foundry) Events(ctx context.Context, conversationID string) (<-chan core.ProgressEvent, error) {
	return f.orch.Subscribe(ctx, conversationID)
}

// Summary returns the terminal generation result.
func (f *Foundry) Summary(conversationID string) (*core.GenerationResult, error) {
	return f.orch.Summary(conversationID)
}

// Conversation returns a snapshot of the full conversation state.
func (f *Foundry) Conversation(conversationID string) (*core.Conversation, error) {
	return f.orch.Conversation(conversationID)
}

// SubmitAndWait is a synchronous helper: it submits the query, drains the
// event stream and returns the collected events together with the terminal
// summary.
func (f *Foundry) SubmitAndWait(ctx context.Context, query string) (string, []core.ProgressEvent, *core.GenerationResult, error) {
	id, err := f.orch.Submit(ctx, query, "")
	if err != nil {
		return "", nil, nil, err
	}
	ch, err := f.orch.Subscribe(ctx, id)
	if err != nil {
		return id, nil, nil, err
	}

	var events []core.ProgressEvent
	for {
		select {
		case <-ctx.Done():
			return id, events, nil, ctx.Err()
		case ev, ok := <-ch:
			if !ok {
				summary, err := f.orch.Summary(id)
				if err != nil {
					return id, events, nil, err
				}
				return id, events, summary, nil
			}
			events = append(events, ev)
		}
	}
}

// Shutdown cancels running pipelines and waits for them to settle.
func (f *Foundry) Shutdown(ctx context.Context) error {
	return f.orch.Shutdown(ctx)
}
