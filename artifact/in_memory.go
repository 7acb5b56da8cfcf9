package artifact

import "sync"

// InMemoryStore is an in-process ArtifactStore implementation useful for
// tests, examples and single-process prototypes. It keeps all records in a
// nested map guarded by an RWMutex. Data is copied on save / retrieval to
// avoid accidental external mutation of internal buffers.
//
// Layout: conversationID -> name -> raw bytes
//
// It does not enforce retention limits, size quotas, or eviction. For
// anything that must survive a process restart, use FSStore.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]map[string][]byte
}

// NewInMemoryStore returns an empty in-memory artifact store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]map[string][]byte)}
}

// Save stores (or overwrites) the record bytes for the given conversation
// and name. The input slice is copied before storage.
func (a *InMemoryStore) Save(conversationID, name string, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.records[conversationID]; !exists {
		a.records[conversationID] = make(map[string][]byte)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	a.records[conversationID][name] = cp
	return nil
}

// Get returns a copy of the stored record bytes or ErrNotFound.
func (a *InMemoryStore) Get(conversationID, name string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	m, ok := a.records[conversationID]
	if !ok {
		return nil, ErrNotFound
	}
	data, ok := m[name]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// List returns the record names stored for the conversation. The slice is a
// snapshot and safe for caller mutation.
func (a *InMemoryStore) List(conversationID string) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	m, ok := a.records[conversationID]
	if !ok {
		return []string{}, nil
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	return names, nil
}

// Delete removes the record if present or returns ErrNotFound.
func (a *InMemoryStore) Delete(conversationID, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	m, ok := a.records[conversationID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m[name]; !ok {
		return ErrNotFound
	}
	delete(m, name)
	return nil
}
