package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePortFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "port.info")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolvePort(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{name: "valid port", content: "4444", want: 4444},
		{name: "valid port with whitespace", content: "  9000\n", want: 9000},
		{name: "empty file", content: "", want: DefaultPort},
		{name: "garbage", content: "not-a-port", want: DefaultPort},
		{name: "negative", content: "-1", want: DefaultPort},
		{name: "out of range", content: "70000", want: DefaultPort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writePortFile(t, tt.content)
			assert.Equal(t, tt.want, ResolvePort(path))
		})
	}
}

func TestResolvePortMissingFile(t *testing.T) {
	assert.Equal(t, DefaultPort, ResolvePort(filepath.Join(t.TempDir(), "missing.info")))
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"RELAY_DB_PATH", "RELAY_PORT_FILE", "RELAY_OPS_ADDR", "RELAY_MAX_CONNECTIONS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "relay.db", cfg.DBPath)
	assert.Equal(t, "myport.info", cfg.PortFile)
	assert.Empty(t, cfg.OpsAddr)
	assert.Equal(t, 100, cfg.MaxConnections)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("RELAY_DB_PATH", "/tmp/other.db")
	t.Setenv("RELAY_MAX_CONNECTIONS", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/other.db", cfg.DBPath)
	assert.Equal(t, 5, cfg.MaxConnections)
}
