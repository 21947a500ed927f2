// Package store persists registered clients and their pending messages.
//
// All operations are serialized through one store-wide mutex. Operations are
// short and the store is not on the throughput-critical path relative to
// network I/O, so whole-store locking is the simplest contract that keeps
// fetch-and-remove atomic and registration checks race-free under any number
// of connection goroutines.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/mattn/go-sqlite3"

	"github.com/cipherpost/relay-node/pkg/protocol"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrInvalidClient  = errors.New("invalid client record")
	ErrInvalidMessage = errors.New("invalid message record")
)

// LastSeenUnknown is the last-seen sentinel stored at registration, before
// the client has issued any further request.
const LastSeenUnknown = "Not Available"

// Client is a registered client row
type Client struct {
	ID        protocol.ClientID
	Username  string
	PublicKey []byte
	LastSeen  string
}

// Message is a stored message awaiting its recipient's next fetch
type Message struct {
	ID      int64
	To      protocol.ClientID
	From    protocol.ClientID
	Type    protocol.MessageType
	Content []byte
}

// Store manages the clients and messages tables
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (creating if needed) the relay database at path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	st := &Store{db: db}

	if err := st.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return st, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS clients(
		id BLOB NOT NULL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		public_key BLOB NOT NULL,
		last_seen TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages(
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		to_client BLOB NOT NULL,
		from_client BLOB NOT NULL,
		type INTEGER NOT NULL,
		content BLOB
	);

	-- Index for fast pending-message lookup by recipient
	CREATE INDEX IF NOT EXISTS idx_messages_to_client ON messages(to_client);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// isConstraintErr reports whether err is a sqlite uniqueness violation
func isConstraintErr(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}
