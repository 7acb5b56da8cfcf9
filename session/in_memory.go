package session

import (
	"sync"

	"github.com/docfoundry/docfoundry/core"
)

// InMemoryStore is a volatile SessionStore keeping conversations in a
// process-local map. Safe for concurrent access; different conversations
// never contend with each other. Reads hand out clones so the only path
// that mutates a conversation is Advance.
type InMemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*entry
}

// entry pairs a conversation with its per-conversation mutex so Advance
// critical sections of different conversations do not serialize globally.
type entry struct {
	mu           sync.Mutex
	conversation *core.Conversation
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{conversations: make(map[string]*entry)}
}

// Create registers a new conversation. The id must be unused.
func (s *InMemoryStore) Create(id, query string) (*core.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.conversations[id]; exists {
		return nil, core.ErrConversationExists
	}
	conv := core.NewConversation(id, query)
	s.conversations[id] = &entry{conversation: conv}
	return conv.Clone(), nil
}

// GetOrCreate returns a clone of the existing conversation, creating it
// first when absent. Used by the orchestrator for idempotent resubmission.
func (s *InMemoryStore) GetOrCreate(id, query string) (*core.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, exists := s.conversations[id]
	if !exists {
		e = &entry{conversation: core.NewConversation(id, query)}
		s.conversations[id] = e
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conversation.Clone(), nil
}

// Get returns a clone of the conversation or core.ErrUnknownConversation.
func (s *InMemoryStore) Get(id string) (*core.Conversation, error) {
	e, err := s.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conversation.Clone(), nil
}

// Advance runs fn against the live conversation under its per-conversation
// mutex. fn must be short and non-blocking; it is the single point where
// conversation state mutates.
func (s *InMemoryStore) Advance(id string, fn func(*core.Conversation) error) error {
	e, err := s.entry(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.conversation)
}

// Snapshot returns a clone of the full session state for persistence.
func (s *InMemoryStore) Snapshot(id string) (*core.Conversation, error) {
	return s.Get(id)
}

func (s *InMemoryStore) entry(id string) (*entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.conversations[id]
	if !ok {
		return nil, core.ErrUnknownConversation
	}
	return e, nil
}
