package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
api:
  url: https://zuul.example.org/
  tenant: main
  request_timeout: 10s
dashboard:
  listen: 0.0.0.0:9010
  refresh_interval: 3
  remaining_policy: computable
storage:
  workdir: /var/lib/cidash
redis: redis://localhost:6379/0
notification:
  webhook_url: https://hooks.example.org/ci
`

func TestParse(t *testing.T) {
	config, err := Parse([]byte(sampleConfig), false)
	require.NoError(t, err)

	assert.Equal(t, "https://zuul.example.org/", config.API.URL)
	assert.Equal(t, "main", config.API.Tenant)
	assert.Equal(t, 10*time.Second, config.API.RequestTimeout.Duration)
	assert.Equal(t, 3*time.Second, config.Dashboard.RefreshInterval.Duration)
	assert.Equal(t, "computable", config.Dashboard.RemainingPolicy)
	assert.Equal(t, 5*time.Second, config.Dashboard.StatusCacheTTL.Duration)
	assert.Equal(t, 500, config.Storage.MaxSnapshots)
	assert.Equal(t, "/var/lib/cidash/cidash.db", config.Storage.DBPath())
	assert.Equal(t, "redis://localhost:6379/0", config.Redis)
	assert.False(t, config.IsDev)
}

func TestParse_Defaults(t *testing.T) {
	config, err := Parse([]byte("api:\n  url: http://localhost:9000\n"), false)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, config.API.RequestTimeout.Duration)
	assert.Equal(t, "127.0.0.1:9010", config.Dashboard.Listen)
	assert.Equal(t, "strict", config.Dashboard.RemainingPolicy)
	assert.Empty(t, config.Redis)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing url", "api:\n  tenant: main\n"},
		{"bad url", "api:\n  url: not a url\n"},
		{"bad policy", "api:\n  url: http://x\ndashboard:\n  remaining_policy: fastest\n"},
		{"bad duration", "api:\n  url: http://x\n  request_timeout: soon\n"},
		{"zero timeout", "api:\n  url: http://x\n  request_timeout: 0\n"},
		{"bad webhook", "api:\n  url: http://x\nnotification:\n  webhook_url: nope\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), false)
			assert.Error(t, err)
		})
	}
}

func TestParse_DevMovesWorkdir(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	config, err := Parse([]byte(sampleConfig), true)
	require.NoError(t, err)
	assert.True(t, config.IsDev)
	assert.True(t, strings.HasSuffix(config.Storage.Workdir, "/tmp/cidash"))
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	config, err := Parse([]byte(sampleConfig), false)
	require.NoError(t, err)
	require.NoError(t, Save(path, config))

	t.Setenv("CIDASH_CONFIG_PATH", path)
	t.Setenv("DEV", "")
	loaded, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, config, loaded)
	assert.Equal(t, path, Paths()[0])
}
