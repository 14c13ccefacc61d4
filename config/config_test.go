// config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, ModeAll, cfg.Mode)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Gateway.Timeout)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lumi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode: gateway
server:
  port: "9000"
gateway:
  notes_url: http://notes:8001
  folders_url: http://folders:8002
  timeout: 10s
log:
  level: debug
`), 0o644))

	t.Setenv("LUMI_PORT", "9100")
	t.Setenv("GATEWAY_HEALTH_TTL", "2s")

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, ModeGateway, cfg.Mode)
	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, "http://notes:8001", cfg.Gateway.NotesURL)
	assert.Equal(t, 10*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, 2*time.Second, cfg.Gateway.HealthTTL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("LUMI_MODE=folders\nDB_MAX_OPEN_CONNS=3\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("LUMI_MODE")
		os.Unsetenv("DB_MAX_OPEN_CONNS")
	})

	cfg, err := Load("", envFile)
	require.NoError(t, err)

	assert.Equal(t, ModeFolders, cfg.Mode)
	assert.Equal(t, 3, cfg.Database.MaxOpenConns)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), "nope.env"))
	assert.NoError(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Run("duration", func(t *testing.T) {
		t.Setenv("GATEWAY_TIMEOUT", "soon")
		_, err := Load("", "")
		assert.ErrorContains(t, err, "GATEWAY_TIMEOUT")
	})
	t.Run("mode", func(t *testing.T) {
		t.Setenv("LUMI_MODE", "sideways")
		_, err := Load("", "")
		assert.ErrorContains(t, err, "unknown mode")
	})
}

func TestValidate_Export(t *testing.T) {
	cfg := Default()
	cfg.Mode = ModeExport
	cfg.Database.URL = ""
	assert.NoError(t, cfg.Validate(), "export reads through the API, not the database")

	cfg.Export.APIURL = ""
	assert.ErrorContains(t, cfg.Validate(), "export.api_url")
}

func TestValidate_ClientModes(t *testing.T) {
	for _, mode := range []string{ModeTree, ModeMove} {
		cfg := Default()
		cfg.Mode = mode
		cfg.Database.URL = ""
		cfg.Export.Dir = ""
		assert.NoError(t, cfg.Validate(), mode)

		cfg.Export.APIURL = ""
		assert.ErrorContains(t, cfg.Validate(), "export.api_url", mode)
	}
}
