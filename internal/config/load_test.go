package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Load tests run from a temp working directory so a developer's local
// config.yaml never bleeds into assertions.
func chdirTemp(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("HELPDESK_DATABASE_URL", "postgres://localhost:5432/helpdesk")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, time.Minute, cfg.Scheduler.TickInterval)
	assert.Equal(t, "UTC", cfg.Scheduler.Timezone)
	assert.Equal(t, "postgres://localhost:5432/helpdesk", cfg.Database.URL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("HELPDESK_DATABASE_URL", "postgres://db:5432/helpdesk")
	t.Setenv("HELPDESK_SERVER_PORT", "9090")
	t.Setenv("HELPDESK_SERVER_LOG_LEVEL", "debug")
	t.Setenv("HELPDESK_SCHEDULER_ENABLED", "false")
	t.Setenv("HELPDESK_SCHEDULER_TICK_INTERVAL", "30s")
	t.Setenv("HELPDESK_SCHEDULER_TIMEZONE", "Europe/Berlin")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.TickInterval)
	assert.Equal(t, "Europe/Berlin", cfg.Scheduler.Timezone)
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	chdirTemp(t)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	chdirTemp(t)
	t.Setenv("HELPDESK_DATABASE_URL", "postgres://db:5432/helpdesk")
	t.Setenv("HELPDESK_SERVER_LOG_LEVEL", "verbose")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoad_InvalidTimezone(t *testing.T) {
	chdirTemp(t)
	t.Setenv("HELPDESK_DATABASE_URL", "postgres://db:5432/helpdesk")
	t.Setenv("HELPDESK_SCHEDULER_TIMEZONE", "Mars/Olympus_Mons")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scheduler timezone")
}

func TestLoad_SubSecondTickIntervalRejected(t *testing.T) {
	chdirTemp(t)
	t.Setenv("HELPDESK_DATABASE_URL", "postgres://db:5432/helpdesk")
	t.Setenv("HELPDESK_SCHEDULER_TICK_INTERVAL", "100ms")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}
