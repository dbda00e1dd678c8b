package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  name: shrimpwatch\n"))
	require.NoError(t, err)

	assert.Equal(t, "https://hammerhead-app-2s5sw.ondigitalocean.app", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.RequestTimeout)
	assert.Equal(t, 30*time.Second, cfg.Sync.Interval)
	assert.Equal(t, 7, cfg.Sync.HistoryDays)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadTrimsTrailingSlash(t *testing.T) {
	cfg, err := Load(writeConfig(t, "api:\n  base_url: https://backend.example.com/\n"))
	require.NoError(t, err)
	assert.Equal(t, "https://backend.example.com", cfg.API.BaseURL)
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	_, err := Load(writeConfig(t, "storage:\n  driver: redis\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.driver")
}

func TestValidateRequiresDSNForPostgres(t *testing.T) {
	_, err := Load(writeConfig(t, "storage:\n  driver: postgres\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.dsn")
}

func TestValidateRejectsNonPositiveInterval(t *testing.T) {
	_, err := Load(writeConfig(t, "sync:\n  interval: 0s\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync.interval")
}
