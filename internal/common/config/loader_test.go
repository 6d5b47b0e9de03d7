// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: counsel
    user: ${COUNSEL_TEST_DB_USER}
  redis:
    address: localhost:6379
workers:
  score-lead:
    enabled: false
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaultsAndExpandsEnv(t *testing.T) {
	t.Setenv("COUNSEL_TEST_DB_USER", "counsellor")

	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "counsellor", cfg.Database.Postgres.User)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "anthropic", cfg.APIs.GenAI.Provider)
	assert.Equal(t, int64(1024), cfg.APIs.GenAI.MaxTokens)
	assert.Equal(t, "programs", cfg.Catalog.Index)
	assert.Equal(t, 24, cfg.Pipeline.SLAHours)
	assert.Equal(t, "@every 15m", cfg.Pipeline.SweepSchedule)
	assert.Equal(t, 3, cfg.Pipeline.DefaultTopN)
	assert.Equal(t, ":8080", cfg.App.HTTPAddr)

	wc := cfg.Workers["score-lead"]
	assert.False(t, wc.Enabled)
	assert.Equal(t, 5, wc.MaxJobsActive)
	assert.Equal(t, 30000, wc.Timeout)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing broker",
			yaml:    "database:\n  postgres:\n    host: db\n    database: x\n  redis:\n    address: r:6379\n",
			wantErr: "camunda.broker_address",
		},
		{
			name:    "missing redis",
			yaml:    "camunda:\n  broker_address: z:26500\ndatabase:\n  postgres:\n    host: db\n    database: x\n",
			wantErr: "database.redis.address",
		},
		{
			name:    "unknown genai provider",
			yaml:    minimalYAML + "apis:\n  genai:\n    provider: carrier-pigeon\n",
			wantErr: "carrier-pigeon",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOverrideEmptyConfig_UsesAnthropicKey(t *testing.T) {
	t.Setenv("GENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	cfg := &Config{}
	overrideEmptyConfig(cfg)
	assert.Equal(t, "sk-test", cfg.APIs.GenAI.APIKey)
}

func TestGetWorkerConfig(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"rank-programs": {Enabled: false, MaxJobsActive: 2, Timeout: 1000},
	}}

	assert.False(t, IsWorkerEnabled(cfg, "rank-programs"))
	assert.True(t, IsWorkerEnabled(cfg, "score-lead"))
	assert.Equal(t, 30000, GetWorkerConfig(cfg, "score-lead").Timeout)
	assert.Equal(t, 2*time.Second, GetDuration(2000))
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "counsel", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=counsel sslmode=disable", p.GetDSN())
}
