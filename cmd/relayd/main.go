package main

import (
	"bufio"
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cipherpost/relay-node/pkg/api"
	"github.com/cipherpost/relay-node/pkg/config"
	"github.com/cipherpost/relay-node/pkg/network"
	"github.com/cipherpost/relay-node/pkg/store"
)

const opsShutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	port := config.ResolvePort(cfg.PortFile)

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	log.Printf("Store initialized at %s", cfg.DBPath)

	relay := network.NewServer(port, st)
	relay.SetMaxConnections(cfg.MaxConnections)

	if err := relay.Start(); err != nil {
		log.Fatalf("Failed to start relay server: %v", err)
	}

	var ops *api.Server
	if cfg.OpsAddr != "" {
		ops = api.NewServer(st, relay)
		ops.Start(cfg.OpsAddr)
	}

	log.Printf("Relay server listening on port %d. Enter 'q' to shut down.", port)

	waitForShutdown(relay, ops, st)
}

// consoleListener reports on the returned channel once the operator enters
// the shutdown command.
func consoleListener() <-chan struct{} {
	quit := make(chan struct{})

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if strings.EqualFold(strings.TrimSpace(scanner.Text()), "q") {
				close(quit)
				return
			}
		}
	}()

	return quit
}

func waitForShutdown(relay *network.Server, ops *api.Server, st *store.Store) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-consoleListener():
		log.Println("Shutdown requested from console")
	case sig := <-sigChan:
		log.Printf("Received signal %v", sig)
	}

	log.Println("Shutting down gracefully...")

	if ops != nil {
		ctx, cancel := context.WithTimeout(context.Background(), opsShutdownTimeout)
		if err := ops.Stop(ctx); err != nil {
			log.Printf("Error stopping ops API: %v", err)
		}
		cancel()
	}

	if err := relay.Stop(); err != nil {
		log.Printf("Error stopping relay: %v", err)
	}

	if err := st.Close(); err != nil {
		log.Printf("Error closing store: %v", err)
	}

	log.Println("Relay server stopped")
}
