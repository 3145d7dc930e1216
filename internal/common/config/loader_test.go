package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: test-dashboard
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "test-dashboard", cfg.App.Name)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "prospects", cfg.Database.Elasticsearch.Index)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 0, cfg.Store.Latency.Read)
}

func TestLoadFromFile_ReadsLatency(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: memory
  latency:
    read: 300
    get_by_id: 200
    create: 400
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 300*time.Millisecond, GetDuration(cfg.Store.Latency.Read))
	assert.Equal(t, 200*time.Millisecond, GetDuration(cfg.Store.Latency.GetByID))
	assert.Equal(t, 400*time.Millisecond, GetDuration(cfg.Store.Latency.Create))
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_DB_USER", "agency")
	path := writeConfig(t, `
store:
  backend: postgres
database:
  postgres:
    host: db.internal
    database: dashboard
    user: ${TEST_DB_USER}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "agency", cfg.Database.Postgres.User)
	assert.Contains(t, cfg.Database.Postgres.GetDSN(), "user=agency")
	assert.Contains(t, cfg.Database.Postgres.GetDSN(), "sslmode=disable")
}

func TestLoadFromFile_EnvOverride(t *testing.T) {
	t.Setenv("DASH_LOGGING_LEVEL", "debug")
	path := writeConfig(t, `
logging:
  level: warn
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "unknown backend",
			body:    "store:\n  backend: mongo\n",
			wantErr: "store.backend",
		},
		{
			name:    "postgres without host",
			body:    "store:\n  backend: postgres\n",
			wantErr: "database.postgres.host is required",
		},
		{
			name:    "cache without redis",
			body:    "store:\n  cache:\n    enabled: true\n",
			wantErr: "database.redis.address is required",
		},
		{
			name:    "elasticsearch without addresses",
			body:    "database:\n  elasticsearch:\n    enabled: true\n",
			wantErr: "database.elasticsearch.addresses is required",
		},
		{
			name:    "sns without topic",
			body:    "integrations:\n  aws:\n    sns:\n      enabled: true\n",
			wantErr: "topic_arn is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
