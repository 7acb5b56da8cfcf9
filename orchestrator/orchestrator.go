package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/docfoundry/docfoundry/artifact"
	"github.com/docfoundry/docfoundry/bus"
	"github.com/docfoundry/docfoundry/core"
	"github.com/docfoundry/docfoundry/decision"
	"github.com/docfoundry/docfoundry/dispatch"
	"github.com/docfoundry/docfoundry/expert"
	"github.com/docfoundry/docfoundry/generate"
	"github.com/docfoundry/docfoundry/inference"
	"github.com/docfoundry/docfoundry/logging"
	"github.com/docfoundry/docfoundry/session"
)

// ErrNotFinished is returned by Summary while the pipeline is still running.
var ErrNotFinished = errors.New("conversation not finished")

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// Domains is the set of expert perspectives applied to every query.
	Domains []core.DomainTag
	// CallTimeout bounds each inference round trip.
	CallTimeout time.Duration
	// Temperature is forwarded to the analysis backend.
	Temperature float64
	// GracePeriod is how long a pipeline keeps starting new stages without
	// any subscriber attached. Zero disables abandonment entirely.
	GracePeriod time.Duration
	// Session management services.
	SessionStore core.SessionStore
	// Per-stage snapshot persistence.
	ArtifactStore core.ArtifactStore
	// Registry maps document types to generation strategies.
	Registry *dispatch.Registry
	// Logging services.
	Logger logging.Logger
}

// Orchestrator coordinates pipeline execution: creates conversations, fans
// out the domain analyses, runs the decision and generation stages, streams
// events, and persists snapshots. Public methods are safe for concurrent
// use.
type Orchestrator struct {
	experts  *expert.Runner
	decider  *decision.Stage
	registry *dispatch.Registry

	store     core.SessionStore
	artifacts core.ArtifactStore
	events    *bus.Bus
	logger    logging.Logger

	domains []core.DomainTag
	grace   time.Duration

	rootCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu   sync.Mutex
	runs map[string]*run
}

// run is the in-process bookkeeping for one conversation's pipeline.
type run struct {
	dispatcher *dispatch.Dispatcher
	started    time.Time
	grace      time.Duration

	subOnce    sync.Once
	subscribed chan struct{}
	done       chan struct{}
}

// attach marks that at least one subscriber is watching the conversation.
func (r *run) attach() {
	r.subOnce.Do(func() { close(r.subscribed) })
}

// abandoned reports whether the pipeline should stop starting new stages:
// the grace period elapsed and nobody ever subscribed.
func (r *run) abandoned() bool {
	if r.grace <= 0 {
		return false
	}
	select {
	case <-r.subscribed:
		return false
	default:
	}
	return time.Since(r.started) > r.grace
}

// New constructs an Orchestrator with optional overrides.
func New(client inference.Client, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		Domains:       core.DefaultDomains(),
		CallTimeout:   60 * time.Second,
		Temperature:   0.7,
		SessionStore:  session.NewInMemoryStore(),
		ArtifactStore: artifact.NewInMemoryStore(),
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Registry == nil {
		// generate.All returns distinct document types, so registry
		// construction cannot fail here.
		opts.Registry, _ = dispatch.NewRegistry(generate.All()...)
	}

	rootCtx, cancel := context.WithCancel(context.Background())

	return &Orchestrator{
		experts: expert.NewRunner(client, func(o *expert.Options) {
			o.Timeout = opts.CallTimeout
			o.Temperature = opts.Temperature
			o.Logger = opts.Logger
		}),
		decider: decision.NewStage(client, func(o *decision.Options) {
			o.Timeout = opts.CallTimeout
			o.Logger = opts.Logger
		}),
		registry:  opts.Registry,
		store:     opts.SessionStore,
		artifacts: opts.ArtifactStore,
		events:    bus.New(),
		logger:    opts.Logger,
		domains:   opts.Domains,
		grace:     opts.GracePeriod,
		rootCtx:   rootCtx,
		cancel:    cancel,
		runs:      make(map[string]*run),
	}
}

// Submit registers the query and starts the pipeline in the background. An
// empty conversationID gets a fresh id. Submitting an id that is already
// known, running or finished, returns the id without dispatching anything
// again.
func (o *Orchestrator) Submit(ctx context.Context, query, conversationID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if conversationID == "" {
		conversationID = core.NewID()
	}

	o.mu.Lock()
	if _, active := o.runs[conversationID]; active {
		o.mu.Unlock()
		return conversationID, nil
	}
	if _, err := o.store.Create(conversationID, query); err != nil {
		o.mu.Unlock()
		if errors.Is(err, core.ErrConversationExists) {
			// Finished in a previous submission; nothing to redo.
			return conversationID, nil
		}
		return "", fmt.Errorf("create conversation: %w", err)
	}
	r := &run{
		dispatcher: dispatch.NewDispatcher(o.registry, func(do *dispatch.Options) {
			do.Logger = o.logger
		}),
		started:    time.Now(),
		grace:      o.grace,
		subscribed: make(chan struct{}),
		done:       make(chan struct{}),
	}
	o.runs[conversationID] = r
	o.mu.Unlock()

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer close(r.done)
		o.pipeline(o.rootCtx, r, conversationID, query)
	}()

	return conversationID, nil
}

// Subscribe returns a channel that replays the conversation's full event
// history and then streams live events until the conversation reaches a
// terminal stage or ctx is cancelled.
func (o *Orchestrator) Subscribe(ctx context.Context, conversationID string) (<-chan core.ProgressEvent, error) {
	if _, err := o.store.Get(conversationID); err != nil {
		return nil, err
	}
	o.mu.Lock()
	if r, ok := o.runs[conversationID]; ok {
		r.attach()
	}
	o.mu.Unlock()
	return o.events.Subscribe(ctx, conversationID), nil
}

// Summary returns the terminal generation result. Unknown conversations
// yield core.ErrUnknownConversation; running ones yield ErrNotFinished.
func (o *Orchestrator) Summary(conversationID string) (*core.GenerationResult, error) {
	conv, err := o.store.Get(conversationID)
	if err != nil {
		return nil, err
	}
	if conv.Generation == nil {
		if conv.Stage.Terminal() {
			// Failed before the generation stage ever produced a result.
			return &core.GenerationResult{Success: false, Error: conv.Error}, nil
		}
		return nil, ErrNotFinished
	}
	g := *conv.Generation
	return &g, nil
}

// Conversation returns a snapshot of the full conversation state.
func (o *Orchestrator) Conversation(conversationID string) (*core.Conversation, error) {
	return o.store.Snapshot(conversationID)
}

// Wait blocks until the conversation's pipeline finishes or ctx is
// cancelled. Conversations with no active run return immediately.
func (o *Orchestrator) Wait(ctx context.Context, conversationID string) error {
	o.mu.Lock()
	r, ok := o.runs[conversationID]
	o.mu.Unlock()
	if !ok {
		_, err := o.store.Get(conversationID)
		return err
	}
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown cancels all running pipelines and waits for them to record their
// terminal state or for ctx to expire.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	o.cancel()
	finished := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
