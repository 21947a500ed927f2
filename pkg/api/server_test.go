package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cipherpost/relay-node/pkg/network"
	"github.com/cipherpost/relay-node/pkg/protocol"
	"github.com/cipherpost/relay-node/pkg/store"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "relay.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	relay := network.NewServer(0, st)
	require.NoError(t, relay.Start())
	t.Cleanup(func() { relay.Stop() })

	return NewServer(st, relay), st
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatus(t *testing.T) {
	srv, st := newTestServer(t)

	var alice protocol.ClientID
	alice[0] = 0x01
	require.NoError(t, st.AddClient(&store.Client{
		ID:        alice,
		Username:  "alice",
		PublicKey: bytes.Repeat([]byte{0xA1}, protocol.PublicKeySize),
		LastSeen:  store.LastSeenUnknown,
	}))

	var bob protocol.ClientID
	bob[0] = 0x02
	_, err := st.AddMessage(&store.Message{
		To:      alice,
		From:    bob,
		Type:    protocol.TextMessage,
		Content: []byte("hi"),
	})
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/v1/status", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var status StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))

	assert.Equal(t, "running", status.Status)
	assert.Equal(t, 1, status.RegisteredClients)
	assert.Equal(t, 1, status.PendingMessages)
	assert.Zero(t, status.ActiveConnections)
}
