package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FSStore is a filesystem-backed ArtifactStore. Each conversation owns one
// directory under the root; each record is one file named <name>. Record
// names are restricted to a flat, path-safe charset so a caller can never
// escape the conversation directory.
//
// Layout: <root>/<conversationID>/<name>
type FSStore struct {
	root string
	mu   sync.Mutex
}

// NewFSStore creates (if needed) the root directory and returns a store
// writing under it.
func NewFSStore(root string) (*FSStore, error) {
	if root == "" {
		return nil, fmt.Errorf("artifact root must not be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact root: %w", err)
	}
	return &FSStore{root: root}, nil
}

// Root returns the directory the store writes under.
func (a *FSStore) Root() string { return a.root }

// Save writes the record, creating the conversation directory on first use.
func (a *FSStore) Save(conversationID, name string, data []byte) error {
	path, err := a.path(conversationID, name)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create conversation dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

// Get reads the record bytes or returns ErrNotFound.
func (a *FSStore) Get(conversationID, name string) ([]byte, error) {
	path, err := a.path(conversationID, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	return data, nil
}

// List returns the record names stored for the conversation in sorted order.
func (a *FSStore) List(conversationID string) ([]string, error) {
	if err := validSegment(conversationID); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(a.root, conversationID))
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the record file or returns ErrNotFound.
func (a *FSStore) Delete(conversationID, name string) error {
	path, err := a.path(conversationID, name)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete artifact: %w", err)
	}
	return nil
}

func (a *FSStore) path(conversationID, name string) (string, error) {
	if err := validSegment(conversationID); err != nil {
		return "", err
	}
	if err := validSegment(name); err != nil {
		return "", err
	}
	return filepath.Join(a.root, conversationID, name), nil
}

// validSegment rejects ids and names that could traverse outside the store
// root. Conversation ids are uuids and record names are fixed snapshot file
// names, so anything else indicates a caller bug.
func validSegment(s string) error {
	if s == "" || s == "." || s == ".." {
		return fmt.Errorf("invalid artifact path segment %q", s)
	}
	if strings.ContainsAny(s, `/\`) {
		return fmt.Errorf("invalid artifact path segment %q", s)
	}
	return nil
}
