// Package localstore implements the durable key/value store backing the
// point of sale. SQLite holds the persisted records; an in-memory
// write-through cache serves repeated reads without touching disk.
package localstore

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/vileopratama/vitech/pkg/types"
)

//go:embed schema.sql
var schemaSQL string

// Config holds the parameters needed to attach a Store.
type Config struct {
	// DataDir is the directory the database file lives in. Created if
	// missing. Empty means the current directory.
	DataDir string

	// InstanceID scopes record names so several registers can share one
	// DataDir without reading each other's state.
	InstanceID string
}

// Store is a durable key/value store with an in-memory cache. All methods
// are safe for concurrent use. A Store starts detached; call Attach before
// reading or writing.
type Store struct {
	mu       sync.RWMutex
	attached bool
	config   Config
	db       *sql.DB
	cache    map[string]json.RawMessage
}

// NewStore creates a detached Store.
func NewStore() *Store {
	return &Store{
		cache: make(map[string]json.RawMessage),
	}
}

// Attach opens the database under config.DataDir and prepares the schema.
// Existing records survive across attach cycles.
// Returns ErrAlreadyAttached if already attached.
func (s *Store) Attach(config Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return types.ErrAlreadyAttached
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}

	dbPath := filepath.Join(dataDir, "lounge.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return err
	}

	s.db = db
	s.config = config
	s.cache = make(map[string]json.RawMessage)
	s.attached = true

	return nil
}

// Detach closes the database and drops the cache. After Detach all
// operations return ErrStoreDetached. Detach is idempotent.
func (s *Store) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return nil // idempotent
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return err
		}
		s.db = nil
	}

	s.attached = false
	s.cache = make(map[string]json.RawMessage)

	return nil
}

// key scopes a record name to this instance.
func (s *Store) key(name string) string {
	return "lounge_db_" + s.config.InstanceID + "_" + name
}

// Load reads the record under name into out. It returns false, leaving out
// untouched, when the record is missing or its stored value does not decode,
// so callers keep their pre-set defaults either way.
// Returns ErrStoreDetached if the store is not attached.
func (s *Store) Load(name string, out any) (bool, error) {
	// Write lock: a cache miss fills the cache.
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return false, types.ErrStoreDetached
	}

	key := s.key(name)
	raw, ok := s.cache[key]
	if !ok {
		var value []byte
		err := s.db.QueryRow("SELECT value FROM records WHERE name = ?", key).Scan(&value)
		if err == sql.ErrNoRows {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("load %s: %w", name, err)
		}
		raw = json.RawMessage(value)
		s.cache[key] = raw
	}

	if err := json.Unmarshal(raw, out); err != nil {
		// A corrupt record reads as absent.
		return false, nil
	}
	return true, nil
}

// Save writes value under name, replacing any previous record, and updates
// the cache. Returns ErrStoreDetached if the store is not attached.
func (s *Store) Save(name string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return types.ErrStoreDetached
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}

	key := s.key(name)
	_, err = s.db.Exec(
		"INSERT INTO records (name, value) VALUES (?, ?) ON CONFLICT(name) DO UPDATE SET value = excluded.value",
		key, []byte(raw),
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}

	s.cache[key] = raw
	return nil
}

// Clear removes the named records. Missing names are not an error.
// Returns ErrStoreDetached if the store is not attached.
func (s *Store) Clear(names ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return types.ErrStoreDetached
	}

	for _, name := range names {
		key := s.key(name)
		if _, err := s.db.Exec("DELETE FROM records WHERE name = ?", key); err != nil {
			return fmt.Errorf("clear %s: %w", name, err)
		}
		delete(s.cache, key)
	}
	return nil
}
