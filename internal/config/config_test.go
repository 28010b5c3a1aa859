package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATABASE_URL", "ALLOWED_ORIGINS", "LOG_LEVEL", "APP_ENV",
		"TICK_RATE", "ROUND_DURATION", "START_POLICY", "MAX_PLAYERS", "MSG_RATE", "MSG_BURST"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 20, cfg.TickRate)
	assert.Equal(t, 180*time.Second, cfg.RoundDuration)
	assert.Equal(t, "allReady", cfg.StartPolicy)
	assert.Equal(t, 8, cfg.MaxPlayers)
	assert.Equal(t, 60.0, cfg.MessageRate)
	assert.Equal(t, 30, cfg.MessageBurst)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("TICK_RATE", "30")
	t.Setenv("ROUND_DURATION", "90")
	t.Setenv("START_POLICY", "unconditional")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, 30, cfg.TickRate)
	assert.Equal(t, 90*time.Second, cfg.RoundDuration)
	assert.Equal(t, "unconditional", cfg.StartPolicy)
	assert.True(t, cfg.IsProduction())

	t.Setenv("ROUND_DURATION", "2m30s")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 150*time.Second, cfg.RoundDuration)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"non-numeric tick rate", "TICK_RATE", "fast"},
		{"tick rate out of range", "TICK_RATE", "0"},
		{"bad policy", "START_POLICY", "whenever"},
		{"bad duration", "ROUND_DURATION", "soon"},
		{"bad rate", "MSG_RATE", "lots"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestInitConfigLoadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("FREEZETAG_TEST_VALUE=hello\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("FREEZETAG_TEST_VALUE") })

	InitConfig(path)

	v, err := GetEnvVariable("FREEZETAG_TEST_VALUE")
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
}

func TestGetEnvVariable(t *testing.T) {
	_, err := GetEnvVariable("")
	assert.Error(t, err)

	t.Setenv("FREEZETAG_EMPTY", "")
	_, err = GetEnvVariable("FREEZETAG_EMPTY")
	assert.Error(t, err)
}
