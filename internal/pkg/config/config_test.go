package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magelan-app/magelan/internal/pkg/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  name: magelan
  port: 9090
  env: prod
mysql:
  host: db.internal
  port: 3306
  username: magelan
  password: secret
  database: magelan
payment:
  base_url: http://payments:8081
  timeout: 3s
scheduler:
  interval: 1m
  stale_after: 30m
log:
  level: debug
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "prod", cfg.Server.Env)
	assert.Equal(t, "db.internal", cfg.MySQL.Host)
	assert.Equal(t, "http://payments:8081", cfg.Payment.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Payment.Timeout)
	assert.Equal(t, time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, 30*time.Minute, cfg.Scheduler.StaleAfter)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
server:
  name: magelan
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "dev", cfg.Server.Env)
	assert.Equal(t, 5*time.Second, cfg.Payment.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, time.Hour, cfg.Scheduler.StaleAfter)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
`)
	t.Setenv("MAGELAN_SERVER_PORT", "7070")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestMySQLConfig_DSN(t *testing.T) {
	cfg := config.MySQLConfig{
		Host:     "db.internal",
		Port:     3306,
		Username: "magelan",
		Password: "secret",
		Database: "magelan",
	}

	assert.Equal(t,
		"magelan:secret@tcp(db.internal:3306)/magelan?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.DSN(),
	)
}
