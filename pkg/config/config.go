// Package config resolves process settings for the relay server.
//
// Settings come from the environment (RELAY_* variables); the listening port
// comes from a one-line port file, falling back to the default when the file
// is missing or unusable.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// DefaultPort is used when the port file is absent, empty or invalid
const DefaultPort = 1357

// Config holds environment-driven settings
type Config struct {
	DBPath         string `split_words:"true" default:"relay.db"`
	PortFile       string `split_words:"true" default:"myport.info"`
	OpsAddr        string `split_words:"true" default:""`
	MaxConnections int    `split_words:"true" default:"100"`
}

// Load reads settings from RELAY_* environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("relay", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ResolvePort reads the listening port from the given port file. Any
// problem (missing file, empty file, garbage content, out-of-range value)
// logs a warning and yields DefaultPort.
func ResolvePort(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Port file not found, using default port %d", DefaultPort)
		return DefaultPort
	}

	raw := strings.TrimSpace(string(data))
	if raw == "" {
		log.Printf("Port file is empty, using default port %d", DefaultPort)
		return DefaultPort
	}

	port, err := strconv.Atoi(raw)
	if err != nil || port < 1 || port > 65535 {
		log.Printf("Port file contains invalid data %q, using default port %d", raw, DefaultPort)
		return DefaultPort
	}

	return port
}
