// Package network implements the relay's TCP front end: it accepts client
// connections, frames requests, dispatches them to opcode handlers and
// writes responses back.
package network

import (
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cipherpost/relay-node/pkg/protocol"
	"github.com/cipherpost/relay-node/pkg/store"
)

const (
	// DefaultMaxConnections caps concurrently served clients
	DefaultMaxConnections = 100

	// payloadReadTimeout bounds how long a peer may stall while the server
	// waits for the remainder of a declared payload.
	payloadReadTimeout = 30 * time.Second

	// maxPayloadSize bounds the declared payload length so a single header
	// cannot make the server allocate gigabytes up front.
	maxPayloadSize = 16 << 20
)

// Request is one framed client request handed to an opcode handler
type Request struct {
	Header  *protocol.RequestHeader
	Payload []byte
}

// Handler processes one request kind. Handlers are stateless beyond the
// injected store; any failure maps to the generic error response.
type Handler interface {
	Handle(req *Request) (code uint16, payload []byte)
}

// Server is the relay's connection multiplexer
type Server struct {
	port     int
	maxConns int
	store    *store.Store
	handlers map[uint16]Handler

	listener net.Listener
	mu       sync.Mutex
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup

	closing        atomic.Bool
	requestsServed atomic.Uint64
	startTime      time.Time
}

// NewServer creates a relay server bound to the given port. Port 0 lets the
// kernel pick one; see Addr.
func NewServer(port int, st *store.Store) *Server {
	s := &Server{
		port:      port,
		maxConns:  DefaultMaxConnections,
		store:     st,
		conns:     make(map[net.Conn]struct{}),
		startTime: time.Now(),
	}

	s.handlers = map[uint16]Handler{
		protocol.CodeRegister:       &registrationHandler{store: st},
		protocol.CodeListClients:    &listClientsHandler{store: st},
		protocol.CodeFetchPublicKey: &fetchPublicKeyHandler{store: st},
		protocol.CodeSendMessage:    &sendMessageHandler{store: st},
		protocol.CodeFetchPending:   &fetchPendingHandler{store: st},
	}

	return s
}

// SetMaxConnections overrides the concurrent connection cap
func (s *Server) SetMaxConnections(n int) {
	if n > 0 {
		s.maxConns = n
	}
}

// Start binds the listener on all interfaces and begins accepting
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return err
	}

	s.listener = listener
	log.Printf("Relay server listening on %s", listener.Addr())

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Addr returns the bound listener address
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and every live connection, then waits for all
// connection loops to drain. Safe to call more than once.
func (s *Server) Stop() error {
	if !s.closing.CompareAndSwap(false, true) {
		return nil
	}

	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}

	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	return err
}

// Stats returns a snapshot of server statistics
func (s *Server) Stats() map[string]interface{} {
	s.mu.Lock()
	active := len(s.conns)
	s.mu.Unlock()

	return map[string]interface{}{
		"active_connections": active,
		"requests_served":    s.requestsServed.Load(),
		"uptime_seconds":     uint64(time.Since(s.startTime).Seconds()),
	}
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.closing.Load() {
				log.Printf("Accept error: %v", err)
			}
			return
		}

		if !s.track(conn) {
			log.Printf("Connection limit reached, rejecting %s", conn.RemoteAddr())
			conn.Close()
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.conns) >= s.maxConns {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

// handleConnection serves framed requests on one connection until the peer
// disconnects or breaks framing. A semantic failure inside a handler answers
// the generic error response and keeps the connection; a framing failure
// closes it without a response.
func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()
	defer s.untrack(conn)

	log.Printf("Accepted connection from %s", conn.RemoteAddr())
	defer log.Printf("Closed connection to %s", conn.RemoteAddr())

	for {
		header, err := protocol.ReadRequestHeader(conn)
		if err != nil {
			if err != io.EOF && !s.closing.Load() {
				log.Printf("Header error from %s: %v", conn.RemoteAddr(), err)
			}
			return
		}

		if header.PayloadSize > maxPayloadSize {
			log.Printf("Oversized payload (%d bytes) declared by %s", header.PayloadSize, conn.RemoteAddr())
			return
		}

		payload := make([]byte, header.PayloadSize)
		if header.PayloadSize > 0 {
			conn.SetReadDeadline(time.Now().Add(payloadReadTimeout))
			_, err := io.ReadFull(conn, payload)
			conn.SetReadDeadline(time.Time{})
			if err != nil {
				log.Printf("Incomplete payload from %s: %v", conn.RemoteAddr(), err)
				return
			}
		}

		log.Printf("Received request: client=%s version=%d code=%d payload=%d",
			header.ClientID, header.Version, header.Code, header.PayloadSize)

		handler, ok := s.handlers[header.Code]
		if !ok {
			log.Printf("Unknown request code %d from %s", header.Code, conn.RemoteAddr())
			return
		}

		code, respPayload := handler.Handle(&Request{Header: header, Payload: payload})

		// Every successfully framed request stamps the requester, including
		// ones answered with the error code. Unregistered ids are a no-op.
		if err := s.store.UpdateLastSeen(header.ClientID); err != nil {
			log.Printf("Failed to update last seen for %s: %v", header.ClientID, err)
		}
		s.requestsServed.Add(1)

		if err := protocol.WriteResponse(conn, code, respPayload); err != nil {
			log.Printf("Write error to %s: %v", conn.RemoteAddr(), err)
			return
		}
	}
}
