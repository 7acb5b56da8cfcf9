package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/docfoundry/docfoundry/core"
)

// SQLiteStore implements core.SessionStore on SQLite. Conversations are
// stored as one self-describing JSON snapshot per row plus a normalized
// events table for inspection with plain SQL. A process-wide per-id mutex
// map provides the Advance critical section; the database provides
// durability, not locking.
type SQLiteStore struct {
	db *sql.DB

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewSQLiteStore opens (and migrates) the database at dsn.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection so the schema survives across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	store := &SQLiteStore{db: db, locks: make(map[string]*sync.Mutex)}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			stage TEXT NOT NULL,
			snapshot TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS progress_events (
			conversation_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			step TEXT NOT NULL,
			domain TEXT,
			status TEXT NOT NULL,
			detail TEXT,
			ts DATETIME NOT NULL,
			PRIMARY KEY (conversation_id, seq),
			FOREIGN KEY (conversation_id) REFERENCES conversations(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_conversation ON progress_events(conversation_id, seq)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Create implements core.SessionStore.
func (s *SQLiteStore) Create(id, query string) (*core.Conversation, error) {
	lock := s.lock(id)
	lock.Lock()
	defer lock.Unlock()

	conv := core.NewConversation(id, query)
	data, err := json.Marshal(conv)
	if err != nil {
		return nil, fmt.Errorf("marshal conversation: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO conversations (id, stage, snapshot) VALUES (?, ?, ?)`,
		id, conv.Stage.String(), string(data),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, core.ErrConversationExists
		}
		return nil, fmt.Errorf("insert conversation: %w", err)
	}
	return conv, nil
}

// GetOrCreate implements core.SessionStore.
func (s *SQLiteStore) GetOrCreate(id, query string) (*core.Conversation, error) {
	conv, err := s.Get(id)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, core.ErrUnknownConversation) {
		return nil, err
	}
	conv, err = s.Create(id, query)
	if errors.Is(err, core.ErrConversationExists) {
		return s.Get(id)
	}
	return conv, err
}

// Get implements core.SessionStore.
func (s *SQLiteStore) Get(id string) (*core.Conversation, error) {
	lock := s.lock(id)
	lock.Lock()
	defer lock.Unlock()
	return s.load(id)
}

// Advance implements core.SessionStore: load, apply fn, persist, all under
// the per-conversation mutex.
func (s *SQLiteStore) Advance(id string, fn func(*core.Conversation) error) error {
	lock := s.lock(id)
	lock.Lock()
	defer lock.Unlock()

	conv, err := s.load(id)
	if err != nil {
		return err
	}
	before := len(conv.Events)
	if err := fn(conv); err != nil {
		return err
	}
	return s.save(conv, before)
}

// Snapshot implements core.SessionStore.
func (s *SQLiteStore) Snapshot(id string) (*core.Conversation, error) {
	return s.Get(id)
}

func (s *SQLiteStore) load(id string) (*core.Conversation, error) {
	var data string
	err := s.db.QueryRow(`SELECT snapshot FROM conversations WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrUnknownConversation
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	var conv core.Conversation
	if err := json.Unmarshal([]byte(data), &conv); err != nil {
		return nil, fmt.Errorf("decode conversation: %w", err)
	}
	return &conv, nil
}

func (s *SQLiteStore) save(conv *core.Conversation, eventsBefore int) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("marshal conversation: %w", err)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`UPDATE conversations SET stage = ?, snapshot = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		conv.Stage.String(), string(data), conv.ID,
	); err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	for _, ev := range conv.Events[eventsBefore:] {
		if _, err := tx.Exec(
			`INSERT INTO progress_events (conversation_id, seq, step, domain, status, detail, ts)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			ev.ConversationID, ev.Seq, ev.Step, string(ev.Domain), string(ev.Status), ev.Detail, ev.Timestamp,
		); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) lock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}
