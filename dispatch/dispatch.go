// Package dispatch selects and runs exactly one document generation strategy
// per conversation. A Dispatcher is a small state machine (PENDING, RUNNING,
// SUCCEEDED, FAILED) enforcing the at-most-one-generation invariant: the
// selected strategy gets one retry on failure, and no cross-strategy
// fallback is ever attempted; the decision stage already made the type
// choice.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/docfoundry/docfoundry/core"
	"github.com/docfoundry/docfoundry/logging"
)

var (
	// ErrGenerationFailed indicates the selected strategy failed twice.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrAlreadyRunning indicates a concurrent Dispatch call raced an
	// in-flight one. The first caller owns the run.
	ErrAlreadyRunning = errors.New("generation already running")

	// ErrNoStrategy indicates no generator is registered for the decided
	// document type. This is a wiring error, not a runtime condition.
	ErrNoStrategy = errors.New("no generation strategy for document type")
)

// State is the dispatcher lifecycle state.
type State int

const (
	// StatePending is the initial state.
	StatePending State = iota
	// StateRunning means a strategy is executing.
	StateRunning
	// StateSucceeded is the successful terminal state.
	StateSucceeded
	// StateFailed is the failed terminal state.
	StateFailed
)

// String returns the wire name of the state.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Registry holds the closed set of generation strategies keyed by document
// type. Immutable after construction.
type Registry struct {
	generators map[core.DocumentType]core.Generator
}

// NewRegistry builds a registry from the given strategies. Registering two
// strategies for the same document type is rejected.
func NewRegistry(generators ...core.Generator) (*Registry, error) {
	m := make(map[core.DocumentType]core.Generator, len(generators))
	for _, g := range generators {
		dt := g.DocumentType()
		if _, dup := m[dt]; dup {
			return nil, fmt.Errorf("duplicate generation strategy for %q", dt)
		}
		m[dt] = g
	}
	return &Registry{generators: m}, nil
}

// Get returns the strategy for the document type.
func (r *Registry) Get(dt core.DocumentType) (core.Generator, bool) {
	g, ok := r.generators[dt]
	return g, ok
}

// Options configure a Dispatcher.
type Options struct {
	Logger logging.Logger
}

// Dispatcher runs generation for a single conversation. One instance per
// conversation; safe for concurrent use.
type Dispatcher struct {
	registry *Registry
	logger   logging.Logger

	mu     sync.Mutex
	state  State
	result *core.GenerationResult
}

// NewDispatcher creates a dispatcher in StatePending.
func NewDispatcher(registry *Registry, optFns ...func(o *Options)) *Dispatcher {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Dispatcher{registry: registry, logger: opts.Logger, state: StatePending}
}

// State returns the current lifecycle state.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Result returns the stored generation result once the dispatcher is
// terminal, nil before that.
func (d *Dispatcher) Result() *core.GenerationResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.result == nil {
		return nil
	}
	r := *d.result
	return &r
}

// Dispatch transitions PENDING → RUNNING, runs the strategy selected by the
// decision (with exactly one retry on failure) and settles into SUCCEEDED or
// FAILED. Calling Dispatch again after a terminal state returns the stored
// result without invoking any strategy.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	query string,
	decision core.WorkflowDecision,
	results map[core.DomainTag]core.DomainResult,
) (core.GenerationResult, error) {
	d.mu.Lock()
	switch d.state {
	case StateRunning:
		d.mu.Unlock()
		return core.GenerationResult{}, ErrAlreadyRunning
	case StateSucceeded, StateFailed:
		res := *d.result
		d.mu.Unlock()
		if !res.Success {
			return res, fmt.Errorf("%w: %s", ErrGenerationFailed, res.Error)
		}
		return res, nil
	}
	d.state = StateRunning
	d.mu.Unlock()

	gen, ok := d.registry.Get(decision.DocumentType)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrNoStrategy, decision.DocumentType)
		return d.settle(core.GenerationResult{
			DocumentType: decision.DocumentType,
			Success:      false,
			Error:        err.Error(),
		}, err)
	}

	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		start := time.Now()
		generated, err := gen.Generate(ctx, query, results)
		if err == nil {
			d.logger.Info("generation succeeded",
				"document_type", decision.DocumentType, "attempt", attempt, "duration", time.Since(start))
			return d.settle(core.GenerationResult{
				DocumentType: decision.DocumentType,
				ArtifactPath: generated.ArtifactPath,
				PreviewPaths: generated.PreviewPaths,
				Success:      true,
			}, nil)
		}
		lastErr = err
		d.logger.Warn("generation attempt failed",
			"document_type", decision.DocumentType, "attempt", attempt, "error", err)
		if ctx.Err() != nil {
			break
		}
	}

	err := fmt.Errorf("%w: %s: %v", ErrGenerationFailed, decision.DocumentType, lastErr)
	return d.settle(core.GenerationResult{
		DocumentType: decision.DocumentType,
		Success:      false,
		Error:        lastErr.Error(),
	}, err)
}

func (d *Dispatcher) settle(res core.GenerationResult, err error) (core.GenerationResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if res.Success {
		d.state = StateSucceeded
	} else {
		d.state = StateFailed
	}
	d.result = &res
	return res, err
}
