package store

import (
	"database/sql"
	"fmt"

	"github.com/cipherpost/relay-node/pkg/protocol"
)

// ===== CLIENT OPERATIONS =====

func validateClient(c *Client) error {
	if c.ID.IsZero() {
		return fmt.Errorf("%w: zero id", ErrInvalidClient)
	}
	if c.Username == "" || len(c.Username) >= protocol.UsernameSize {
		return fmt.Errorf("%w: bad username length %d", ErrInvalidClient, len(c.Username))
	}
	if len(c.PublicKey) != protocol.PublicKeySize {
		return fmt.Errorf("%w: bad public key length %d", ErrInvalidClient, len(c.PublicKey))
	}
	if c.LastSeen == "" {
		return fmt.Errorf("%w: empty last seen", ErrInvalidClient)
	}
	return nil
}

// AddClient inserts a new client row. An id or username collision returns
// ErrAlreadyExists; the schema's UNIQUE constraints back the in-process
// check-then-insert done by the registration handler.
func (s *Store) AddClient(c *Client) error {
	if err := validateClient(c); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `INSERT INTO clients (id, username, public_key, last_seen) VALUES (?, ?, ?, ?)`

	_, err := s.db.Exec(query, c.ID[:], c.Username, c.PublicKey, c.LastSeen)
	if err != nil {
		if isConstraintErr(err) {
			return fmt.Errorf("%w: client %s", ErrAlreadyExists, c.Username)
		}
		return fmt.Errorf("failed to add client: %w", err)
	}

	return nil
}

// GetClientByUsername retrieves a client by its unique username
func (s *Store) GetClientByUsername(username string) (*Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT id, username, public_key, last_seen FROM clients WHERE username = ?`
	return s.scanClient(s.db.QueryRow(query, username))
}

// GetClientByID retrieves a client by its 16-byte identifier
func (s *Store) GetClientByID(id protocol.ClientID) (*Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT id, username, public_key, last_seen FROM clients WHERE id = ?`
	return s.scanClient(s.db.QueryRow(query, id[:]))
}

func (s *Store) scanClient(row *sql.Row) (*Client, error) {
	var client Client
	var rawID []byte

	err := row.Scan(&rawID, &client.Username, &client.PublicKey, &client.LastSeen)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	copy(client.ID[:], rawID)
	return &client, nil
}

// ListClients retrieves all registered clients in registration order.
// Public keys are not loaded; the user list never carries them.
func (s *Store) ListClients() ([]*Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `SELECT id, username, last_seen FROM clients ORDER BY rowid ASC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []*Client
	for rows.Next() {
		var client Client
		var rawID []byte

		if err := rows.Scan(&rawID, &client.Username, &client.LastSeen); err != nil {
			return nil, err
		}

		copy(client.ID[:], rawID)
		clients = append(clients, &client)
	}

	return clients, rows.Err()
}

// UpdateLastSeen stamps the client's last-seen time with the current local
// time. Unknown ids are a no-op; the caller does not pre-check registration.
func (s *Store) UpdateLastSeen(id protocol.ClientID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `UPDATE clients SET last_seen = datetime('now', 'localtime') WHERE id = ?`
	_, err := s.db.Exec(query, id[:])
	return err
}

// CountClients returns the number of registered clients
func (s *Store) CountClients() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM clients`).Scan(&count)
	return count, err
}
