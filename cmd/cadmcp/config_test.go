package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateEnv clears every variable LoadConfig reads.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CADMCP_ENV", "production")
	for _, key := range []string{"CAD_TYPE", "CAD_OUTPUT_DIR", "REDIS_ADDR", "HTTP_ADDR", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaultsWhenFileMissing(t *testing.T) {
	isolateEnv(t)
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "drawing.dwg", cfg.DefaultSavePath())
}

func TestLoadConfigFromYAML(t *testing.T) {
	isolateEnv(t)
	path := writeConfig(t, `
server:
  name: Test Server
  http_addr: ":9090"
cad:
  type: zwcad
  startup_wait_time: 5s
  command_delay: 250ms
output:
  directory: /tmp/out
journal:
  max_entities: 10
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "Test Server", cfg.Server.Name)
	assert.Equal(t, "1.0.0", cfg.Server.Version, "unset keys keep their defaults")
	assert.Equal(t, ":9090", cfg.Server.HTTPAddr)
	assert.Equal(t, "ZWCAD", cfg.CAD.Type)
	assert.Equal(t, 5*time.Second, cfg.CAD.StartupWait)
	assert.Equal(t, 250*time.Millisecond, cfg.CAD.CommandDelay)
	assert.Equal(t, 10, cfg.Journal.MaxEntities)
	assert.Equal(t, "cadmcp", cfg.Journal.KeyPrefix)

	dc := cfg.DriverConfig()
	assert.Equal(t, "/tmp/out", dc.OutputDir)
	assert.EqualValues(t, "ZWCAD", dc.Type)
}

func TestLoadConfigInvalidYAMLFallsBackToDefaults(t *testing.T) {
	isolateEnv(t)
	cfg, err := LoadConfig(writeConfig(t, "cad: [not a map"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	isolateEnv(t)
	t.Setenv("CAD_TYPE", "gcad")
	t.Setenv("CAD_OUTPUT_DIR", "/srv/drawings")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("HTTP_ADDR", ":7000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := LoadConfig(writeConfig(t, "cad:\n  type: AUTOCAD\n"))
	require.NoError(t, err)
	assert.Equal(t, "GCAD", cfg.CAD.Type)
	assert.Equal(t, "/srv/drawings", cfg.Output.Directory)
	assert.Equal(t, "localhost:6379", cfg.Journal.RedisAddr)
	assert.Equal(t, ":7000", cfg.Server.HTTPAddr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  string
	}{
		{name: "unknown cad type in file", yaml: "cad:\n  type: SOLIDWORKS\n"},
		{name: "unknown cad type in env", env: "BRICSCAD"},
		{name: "negative delay", yaml: "cad:\n  command_delay: -1s\n"},
		{name: "negative journal bound", yaml: "journal:\n  max_entities: -5\n"},
		{name: "negative cache size", yaml: "parser:\n  cache_size: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			if tt.env != "" {
				t.Setenv("CAD_TYPE", tt.env)
			}
			_, err := LoadConfig(writeConfig(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}
