// Package bus implements the per-conversation progress event stream. Every
// published event is appended to the conversation's log and never mutated or
// removed; subscribers receive the full history first (late joiners included)
// followed by a live feed, always in publish order. No ordering guarantee
// exists across different conversations.
package bus

import (
	"context"
	"sync"

	"github.com/docfoundry/docfoundry/core"
	"github.com/docfoundry/docfoundry/logging"
)

// Options configure a Bus.
type Options struct {
	// BufferSize sets the channel buffering handed to subscribers.
	BufferSize int
	// Logger defaults to no-op.
	Logger logging.Logger
}

// Bus is the process-wide progress event bus. Safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	logs   map[string]*conversationLog
	buffer int
	logger logging.Logger
}

// conversationLog is the append-only event history of one conversation.
// Subscribers track their own read index over it, which is what makes the
// stream restartable-from-zero for late joiners.
type conversationLog struct {
	mu     sync.Mutex
	cond   *sync.Cond
	events []core.ProgressEvent
	closed bool
}

func newConversationLog() *conversationLog {
	l := &conversationLog{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// New creates a Bus with optional overrides.
func New(optFns ...func(o *Options)) *Bus {
	opts := Options{BufferSize: 64, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Bus{
		logs:   make(map[string]*conversationLog),
		buffer: opts.BufferSize,
		logger: opts.Logger,
	}
}

func (b *Bus) log(conversationID string) *conversationLog {
	b.mu.RLock()
	l, ok := b.logs[conversationID]
	b.mu.RUnlock()
	if ok {
		return l
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if l, ok = b.logs[conversationID]; ok {
		return l
	}
	l = newConversationLog()
	b.logs[conversationID] = l
	return l
}

// Publish appends the event to its conversation's log and wakes subscribers.
func (b *Bus) Publish(ev core.ProgressEvent) {
	l := b.log(ev.ConversationID)
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		b.logger.Warn("event published after stream close",
			"conversation_id", ev.ConversationID, "seq", ev.Seq)
		return
	}
	l.events = append(l.events, ev)
	l.cond.Broadcast()
	l.mu.Unlock()
}

// Close marks the conversation's stream finished. Subscribers drain the
// remaining history and their channels close. Idempotent.
func (b *Bus) Close(conversationID string) {
	l := b.log(conversationID)
	l.mu.Lock()
	l.closed = true
	l.cond.Broadcast()
	l.mu.Unlock()
}

// History returns a copy of every event published so far.
func (b *Bus) History(conversationID string) []core.ProgressEvent {
	l := b.log(conversationID)
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]core.ProgressEvent, len(l.events))
	copy(out, l.events)
	return out
}

// Subscribe returns a channel yielding every event published so far followed
// by a live feed of new events, in publish order. The channel closes when
// the conversation's stream is closed and fully drained, or when ctx is
// cancelled.
func (b *Bus) Subscribe(ctx context.Context, conversationID string) <-chan core.ProgressEvent {
	l := b.log(conversationID)
	ch := make(chan core.ProgressEvent, b.buffer)

	// cond.Wait cannot select on ctx.Done; a watcher wakes the reader so it
	// can observe cancellation. done releases the watcher when the reader
	// finishes first, e.g. a drained stream under a non-cancellable ctx.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.cond.Broadcast()
			l.mu.Unlock()
		case <-done:
		}
	}()

	go func() {
		defer close(ch)
		defer close(done)
		idx := 0
		for {
			l.mu.Lock()
			for idx >= len(l.events) && !l.closed && ctx.Err() == nil {
				l.cond.Wait()
			}
			if ctx.Err() != nil {
				l.mu.Unlock()
				return
			}
			if idx >= len(l.events) && l.closed {
				l.mu.Unlock()
				return
			}
			ev := l.events[idx]
			idx++
			l.mu.Unlock()

			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}
