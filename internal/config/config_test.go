package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsNeedSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("CONFIG_PATH", "")
	_, err := Load("")
	assert.ErrorContains(t, err, "jwt_secret")
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
server:
  port: 9000
  read_timeout: 5s
database:
  url: postgres://file
  max_retries: 5
auth:
  jwt_secret: from-file
limits:
  radio_max_options: 7
`)
	t.Setenv("DATABASE_URL", "postgres://env")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "postgres://env", cfg.Database.URL)
	assert.Equal(t, 5, cfg.Database.MaxRetries)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)

	limits := cfg.CustomFieldLimits()
	assert.Equal(t, 7, limits.RadioMaxOptions)
	assert.Equal(t, 200, limits.DropdownMaxOptions)
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	t.Setenv("AUTH_ENABLED", "false")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.False(t, cfg.Auth.Enabled)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_BadInput(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		_, err := Load(writeFile(t, "server: ["))
		assert.Error(t, err)
	})
	t.Run("port env", func(t *testing.T) {
		t.Setenv("APP_PORT", "eighty")
		_, err := Load(writeFile(t, "auth:\n  jwt_secret: s\n"))
		assert.ErrorContains(t, err, "APP_PORT")
	})
	t.Run("port range", func(t *testing.T) {
		_, err := Load(writeFile(t, "server:\n  port: 70000\nauth:\n  jwt_secret: s\n"))
		assert.ErrorContains(t, err, "port")
	})
}
