package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 5, cfg.Orchestrator.MaxConcurrentAgents)
	assert.Equal(t, 30, cfg.Orchestrator.TimeoutSeconds)
	assert.Equal(t, 30*time.Second, cfg.Orchestrator.Timeout())
	assert.Equal(t, TransportStdio, cfg.Provider.Transport)
	assert.Equal(t, []string{"provider"}, cfg.Provider.Args)
	assert.Equal(t, DefaultBackendURL, cfg.Backend.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "simple", cfg.Logger.Format)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "minesweeper-agents", cfg.Observability.Tracing.ServiceName)
	require.NoError(t, cfg.Validate())
}

func TestParse(t *testing.T) {
	t.Setenv("MS_BACKEND", "http://backend:5022/api")

	cfg, err := Parse([]byte(`
orchestrator:
  max_concurrent_agents: 2
  timeout_seconds: 3
provider:
  transport: streamable-http
  url: http://localhost:9000/mcp
backend:
  base_url: ${MS_BACKEND}
  timeout: 2s
logger:
  level: ${MS_LOG_LEVEL:-debug}
`))
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Orchestrator.MaxConcurrentAgents)
	assert.Equal(t, 3*time.Second, cfg.Orchestrator.Timeout())
	assert.Equal(t, TransportStreamableHTTP, cfg.Provider.Transport)
	assert.Empty(t, cfg.Provider.Args)
	assert.Equal(t, "http://backend:5022/api", cfg.Backend.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestParse_JSON(t *testing.T) {
	cfg, err := Parse([]byte(`{"orchestrator": {"timeout_seconds": 7}}`))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Orchestrator.TimeoutSeconds)
}

func TestParse_LoggerFormats(t *testing.T) {
	for _, format := range LogFormats {
		cfg, err := Parse([]byte("logger:\n  format: " + format + "\n"))
		require.NoError(t, err, format)
		assert.Equal(t, format, cfg.Logger.Format)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"negative concurrency", "orchestrator:\n  max_concurrent_agents: -1\n"},
		{"unknown transport", "provider:\n  transport: smoke-signals\n"},
		{"http without url", "provider:\n  transport: streamable-http\n"},
		{"bad log level", "logger:\n  level: loud\n"},
		{"bad log format", "logger:\n  format: xml\n"},
		{"unknown key", "orchestrator:\n  max_agents: 3\n"},
		{"bad exporter", "observability:\n  tracing:\n    exporter: zipkin\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("empty path yields defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  address: \":9090\"\n"), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.Server.Address)
	})
}

func TestExpandEnvString(t *testing.T) {
	t.Setenv("MS_SET", "value")

	tests := []struct {
		in   string
		want string
	}{
		{"${MS_SET}", "value"},
		{"$MS_SET/x", "value/x"},
		{"${MS_UNSET_VAR:-fallback}", "fallback"},
		{"${MS_SET:-fallback}", "value"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, expandEnvString(tt.in), tt.in)
	}
}
