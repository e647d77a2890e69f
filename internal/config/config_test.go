package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"HOST", "PORT", "ALLOW_ORIGINS", "LOG_LEVEL", "MAX_UPLOAD_MB", "LOG_FILE", "TABLES_FILE", "CURRENT_BUNDLE", "WORKERS"} {
		t.Setenv(k, "")
	}
	cfg := fromEnv()
	assert.Equal(t, "127.0.0.1:8082", cfg.Addr())
	assert.Equal(t, []string{"*"}, cfg.AllowOrigins)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, int64(64<<20), cfg.MaxUploadBytes())
	assert.Empty(t, cfg.TablesFile)
	assert.Zero(t, cfg.Workers)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ALLOW_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("MAX_UPLOAD_MB", "junk")
	t.Setenv("WORKERS", "4")
	t.Setenv("CURRENT_BUNDLE", "2026 Spring Mystery Bundle")
	cfg := fromEnv()
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowOrigins)
	assert.Equal(t, 64, cfg.MaxUploadMB)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "2026 Spring Mystery Bundle", cfg.CurrentBundle)
}

func TestLoadTables(t *testing.T) {
	tb, err := Config{}.LoadTables()
	require.NoError(t, err)
	assert.Equal(t, "2025 Holiday Mystery Bundle", tb.CurrentBundle().Name)

	tb, err = Config{CurrentBundle: "2026 Spring Mystery Bundle"}.LoadTables()
	require.NoError(t, err)
	assert.Equal(t, "2026 Spring Mystery Bundle", tb.CurrentBundle().Name)
	assert.Equal(t, "2026 Spring Mystery Bundle", tb.CurrentBundle().Item)

	_, err = Config{TablesFile: filepath.Join(t.TempDir(), "missing.yaml")}.LoadTables()
	assert.Error(t, err)
}

func TestSetupLogger(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)
	file := filepath.Join(t.TempDir(), "logs", "app.log")
	logger := SetupLogger(Config{LogLevel: "debug", LogFile: file})
	logger.Info().Msg("hello")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	_, err := os.Stat(filepath.Dir(file))
	assert.NoError(t, err)

	SetupLogger(Config{LogLevel: "nonsense"})
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
