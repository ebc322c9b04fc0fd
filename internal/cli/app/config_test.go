package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"BACKOFFICE_API_URL", "BACKOFFICE_API_KEY", "BACKOFFICE_STATE_FILE",
		"BACKOFFICE_IDLE_TIMEOUT", "BACKOFFICE_IDLE_WARNING",
		"BACKOFFICE_REQUEST_RATE", "ENV", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	require.Empty(t, cfg.APIBaseURL)
	require.Equal(t, "backoffice.db", cfg.StateFile)
	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "text", cfg.LogFormat)
	require.Equal(t, 15*time.Minute, cfg.IdleTimeout)
	require.Equal(t, time.Minute, cfg.WarningGrace)
	require.Zero(t, cfg.RequestRate)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("BACKOFFICE_API_URL", "https://backoffice.example.com")
	t.Setenv("BACKOFFICE_API_KEY", "key-123")
	t.Setenv("BACKOFFICE_IDLE_TIMEOUT", "30m")
	t.Setenv("BACKOFFICE_IDLE_WARNING", "2")
	t.Setenv("BACKOFFICE_REQUEST_RATE", "2.5")
	t.Setenv("LOG_FORMAT", "json")

	cfg := LoadConfig()

	require.Equal(t, "https://backoffice.example.com", cfg.APIBaseURL)
	require.Equal(t, "key-123", cfg.APIKey)
	require.Equal(t, 30*time.Minute, cfg.IdleTimeout)
	require.Equal(t, 2*time.Minute, cfg.WarningGrace, "bare integers are minutes")
	require.Equal(t, 2.5, cfg.RequestRate)
	require.Equal(t, "json", cfg.LogFormat)
}
