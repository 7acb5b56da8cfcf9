package core

import (
	"fmt"
	"sync"
	"time"
)

// Stage is one of the ordered pipeline phases a conversation passes through.
// A conversation's stage never moves backward.
type Stage int

const (
	// StageCreated is the initial stage after the first message.
	StageCreated Stage = iota
	// StageAnalyzing covers the concurrent domain expert fan-out.
	StageAnalyzing
	// StageDeciding covers the workflow decision call.
	StageDeciding
	// StageGenerating covers the generation dispatch.
	StageGenerating
	// StageCompleted is the successful terminal stage.
	StageCompleted
	// StageFailed is the failed terminal stage.
	StageFailed
)

// String returns the wire name of the stage.
func (s Stage) String() string {
	switch s {
	case StageCreated:
		return "created"
	case StageAnalyzing:
		return "analyzing"
	case StageDeciding:
		return "deciding"
	case StageGenerating:
		return "generating"
	case StageCompleted:
		return "completed"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the stage ends the conversation lifecycle.
func (s Stage) Terminal() bool { return s == StageCompleted || s == StageFailed }

// Conversation tracks one end-to-end pipeline run for a single user query.
// It is owned exclusively by a SessionStore and mutated only inside the
// store's Advance critical section; everything handed out of the store is a
// clone.
//
// Contract:
//   - NextEvent assigns gap-free sequence numbers starting at 1
//   - AdvanceStage never moves the stage backward
//   - Generation is set at most once
//   - Clone performs deep copies for safe divergence.
type Conversation struct {
	ID            string                      `json:"id"`
	Query         string                      `json:"query"`
	Stage         Stage                       `json:"stage"`
	Events        []ProgressEvent             `json:"events"`
	DomainResults map[DomainTag]DomainResult  `json:"domain_results"`
	Decision      *WorkflowDecision           `json:"decision,omitempty"`
	Generation    *GenerationResult           `json:"generation,omitempty"`
	Error         string                      `json:"error,omitempty"`
	Created       time.Time                   `json:"created"`
	Updated       time.Time                   `json:"updated"`
	mu            sync.RWMutex
}

// NewConversation creates a conversation in StageCreated.
func NewConversation(id, query string) *Conversation {
	now := time.Now().UTC()
	return &Conversation{
		ID:            id,
		Query:         query,
		Stage:         StageCreated,
		Events:        []ProgressEvent{},
		DomainResults: map[DomainTag]DomainResult{},
		Created:       now,
		Updated:       now,
	}
}

// NextEvent appends and returns a new progress event carrying the next
// sequence number. Events are append-only, so the next number is always
// len(events)+1, which keeps the sequence gap-free from 1.
func (c *Conversation) NextEvent(step string, domain DomainTag, status EventStatus, detail string) ProgressEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	ev := ProgressEvent{
		ConversationID: c.ID,
		Seq:            len(c.Events) + 1,
		Step:           step,
		Domain:         domain,
		Status:         status,
		Detail:         detail,
		Timestamp:      time.Now().UTC(),
	}
	c.Events = append(c.Events, ev)
	c.Updated = ev.Timestamp
	return ev
}

// AdvanceStage moves the conversation forward. Moving backward or leaving a
// terminal stage is rejected.
func (c *Conversation) AdvanceStage(next Stage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if next < c.Stage {
		return fmt.Errorf("stage cannot move backward: %s -> %s", c.Stage, next)
	}
	if c.Stage.Terminal() && next != c.Stage {
		return fmt.Errorf("conversation %s already terminal in stage %s", c.ID, c.Stage)
	}
	c.Stage = next
	c.Updated = time.Now().UTC()
	return nil
}

// SetDomainResult records the outcome of one domain analysis. Each domain
// writes into its own disjoint slot; results are immutable once set.
func (c *Conversation) SetDomainResult(res DomainResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.DomainResults[res.Domain]; exists {
		return
	}
	c.DomainResults[res.Domain] = res
	c.Updated = time.Now().UTC()
}

// SetDecision records the workflow decision. The first decision wins;
// decisions are computed once and then immutable.
func (c *Conversation) SetDecision(d WorkflowDecision) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Decision != nil {
		return
	}
	c.Decision = &d
	c.Updated = time.Now().UTC()
}

// SetGeneration records the generation result. At most one generation result
// exists per conversation; later calls are ignored.
func (c *Conversation) SetGeneration(g GenerationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Generation != nil {
		return
	}
	c.Generation = &g
	c.Updated = time.Now().UTC()
}

// SetError records the terminal error detail.
func (c *Conversation) SetError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Error = msg
	c.Updated = time.Now().UTC()
}

// GetEvents returns a defensive copy of the event history.
func (c *Conversation) GetEvents() []ProgressEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	events := make([]ProgressEvent, len(c.Events))
	copy(events, c.Events)
	return events
}

// Clone returns a deep copy of the conversation safe for independent use.
func (c *Conversation) Clone() *Conversation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	clone := &Conversation{
		ID:            c.ID,
		Query:         c.Query,
		Stage:         c.Stage,
		Events:        make([]ProgressEvent, len(c.Events)),
		DomainResults: make(map[DomainTag]DomainResult, len(c.DomainResults)),
		Error:         c.Error,
		Created:       c.Created,
		Updated:       c.Updated,
	}
	copy(clone.Events, c.Events)
	for k, v := range c.DomainResults {
		clone.DomainResults[k] = v
	}
	if c.Decision != nil {
		d := *c.Decision
		clone.Decision = &d
	}
	if c.Generation != nil {
		g := *c.Generation
		clone.Generation = &g
	}
	return clone
}

// SessionStore persists conversations and serializes their mutation.
//
// Advance is the single point where conversation state mutates: the store
// runs fn under a per-conversation critical section, which is what makes the
// at-most-one-generation-per-conversation invariant enforceable. fn must be
// short and must not block on I/O.
type SessionStore interface {
	Create(id, query string) (*Conversation, error)
	Get(id string) (*Conversation, error)
	GetOrCreate(id, query string) (*Conversation, error)
	Advance(id string, fn func(*Conversation) error) error
	Snapshot(id string) (*Conversation, error)
}
