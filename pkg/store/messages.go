package store

import (
	"fmt"

	"github.com/cipherpost/relay-node/pkg/protocol"
)

// ===== MESSAGE OPERATIONS =====

func validateMessage(m *Message) error {
	if m.To.IsZero() {
		return fmt.Errorf("%w: zero recipient id", ErrInvalidMessage)
	}
	if m.From.IsZero() {
		return fmt.Errorf("%w: zero sender id", ErrInvalidMessage)
	}
	if _, err := protocol.ParseMessageType(uint8(m.Type)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return nil
}

// AddMessage stores a message for later delivery and returns its assigned id.
// Recipient and sender ids are not checked against the clients table; the
// store holds messages for whichever recipient eventually fetches them.
func (s *Store) AddMessage(m *Message) (int64, error) {
	if err := validateMessage(m); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `INSERT INTO messages (to_client, from_client, type, content) VALUES (?, ?, ?, ?)`

	result, err := s.db.Exec(query, m.To[:], m.From[:], uint8(m.Type), m.Content)
	if err != nil {
		return 0, fmt.Errorf("failed to store message: %w", err)
	}

	return result.LastInsertId()
}

// FetchAndRemovePending atomically reads and deletes every message addressed
// to the given client, in insertion order. Read and delete happen in one
// transaction under the store mutex: a message returned here can never be
// returned again, and a message arriving concurrently is either fully
// included or left for the next fetch.
func (s *Store) FetchAndRemovePending(id protocol.ClientID) ([]*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin fetch transaction: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT id, from_client, type, content FROM messages WHERE to_client = ? ORDER BY id ASC`

	rows, err := tx.Query(query, id[:])
	if err != nil {
		return nil, err
	}

	var messages []*Message
	for rows.Next() {
		var msg Message
		var rawFrom []byte
		var msgType uint8

		if err := rows.Scan(&msg.ID, &rawFrom, &msgType, &msg.Content); err != nil {
			rows.Close()
			return nil, err
		}

		msg.To = id
		msg.Type = protocol.MessageType(msgType)
		copy(msg.From[:], rawFrom)
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to read pending messages: %w", err)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	// Deleting before a complete scan would drop messages that were never
	// returned, so every row error above aborts the transaction.
	if _, err := tx.Exec(`DELETE FROM messages WHERE to_client = ?`, id[:]); err != nil {
		return nil, fmt.Errorf("failed to remove fetched messages: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit fetch transaction: %w", err)
	}

	return messages, nil
}

// CountPendingMessages returns the total number of undelivered messages
func (s *Store) CountPendingMessages() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}
