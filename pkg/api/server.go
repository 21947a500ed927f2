// Package api provides the relay's HTTP operational status endpoint.
// It is a diagnostics surface for operators, not part of the wire protocol.
package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cipherpost/relay-node/pkg/network"
	"github.com/cipherpost/relay-node/pkg/store"
)

// StatusResponse reports relay health and load
type StatusResponse struct {
	Status            string `json:"status"`
	UptimeSeconds     uint64 `json:"uptimeSeconds"`
	RegisteredClients int    `json:"registeredClients"`
	PendingMessages   int    `json:"pendingMessages"`
	ActiveConnections int    `json:"activeConnections"`
	RequestsServed    uint64 `json:"requestsServed"`
}

// ErrorResponse reports a failed status query
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server is the HTTP ops server
type Server struct {
	store      *store.Store
	relay      *network.Server
	router     *gin.Engine
	httpServer *http.Server
	startTime  time.Time
}

// NewServer creates the ops server over the given store and relay
func NewServer(st *store.Store, relay *network.Server) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		store:     st,
		relay:     relay,
		router:    gin.New(),
		startTime: time.Now(),
	}

	s.router.Use(gin.Recovery())

	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	v1.GET("/status", s.handleStatus)

	return s
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleStatus(c *gin.Context) {
	clients, err := s.store.CountClients()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	pending, err := s.store.CountPendingMessages()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	stats := s.relay.Stats()

	c.JSON(http.StatusOK, StatusResponse{
		Status:            "running",
		UptimeSeconds:     uint64(time.Since(s.startTime).Seconds()),
		RegisteredClients: clients,
		PendingMessages:   pending,
		ActiveConnections: stats["active_connections"].(int),
		RequestsServed:    stats["requests_served"].(uint64),
	})
}

// Start serves the ops API on addr without blocking
func (s *Server) Start(addr string) {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Ops API error: %v", err)
		}
	}()

	log.Printf("Ops API listening on %s", addr)
}

// Stop shuts the ops API down gracefully
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
