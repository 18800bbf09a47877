package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.RateLimit.Backend)
	assert.Empty(t, cfg.Server.TrustedProxies)
	assert.Len(t, cfg.RateLimit.Zones, 5)

	upload := cfg.RateLimit.Zones[ZoneUpload]
	assert.Equal(t, 10, upload.MaxRequests)
	assert.Equal(t, time.Minute, upload.Window())

	auth := cfg.RateLimit.Zones[ZoneAuth]
	assert.Equal(t, 5, auth.MaxRequests)
	assert.Equal(t, 15*time.Minute, auth.Window())

	free, ok := cfg.Plan(PlanFree)
	require.True(t, ok)
	assert.Equal(t, int64(500), free.StorageLimit)
}

func TestLoadJSONOverridesSingleZone(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"server": {"port": "9090"},
		"rate_limit": {"zones": {"api": {"window_duration_ms": 1000, "max_requests": 3}}}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 3, cfg.RateLimit.Zones[ZoneAPI].MaxRequests)
	assert.Equal(t, 200, cfg.RateLimit.Zones[ZonePublic].MaxRequests)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  port: "7070"
plans:
  - name: free
    storage_limit_mb: 100
    max_upload_size_mb: 5
    transformations_limit: 50
    team_members: 1
logging:
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "json", cfg.Logging.Format)
	require.Len(t, cfg.Plans, 1)
	assert.Equal(t, int64(100), cfg.Plans[0].StorageLimit)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "6060")
	t.Setenv("DATABASE_URL", "postgres://example/db")
	t.Setenv("RATE_LIMIT_BACKEND", "redis")
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 172.16.0.0/12")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "6060", cfg.Server.Port)
	assert.Equal(t, "postgres://example/db", cfg.Database.DSN)
	assert.Equal(t, "redis", cfg.RateLimit.Backend)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache.internal:6379", cfg.Redis.GetRedisAddr())
	assert.Equal(t, []string{"10.0.0.1", "172.16.0.0/12"}, cfg.Server.TrustedProxies)
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing free plan", func(c *Config) {
			c.Plans = []PlanConfig{{Name: PlanPro, StorageLimit: 1, MaxUploadSize: 1, TransformationsLimit: 1}}
		}},
		{"zero max requests", func(c *Config) {
			c.RateLimit.Zones[ZoneAPI] = ZoneConfig{WindowDurationMs: 1000, MaxRequests: 0}
		}},
		{"missing zone", func(c *Config) { delete(c.RateLimit.Zones, ZonePayment) }},
		{"unknown backend", func(c *Config) { c.RateLimit.Backend = "etcd" }},
		{"bad trusted proxy", func(c *Config) { c.Server.TrustedProxies = []string{"10.0.0.0/8", "lb.internal"} }},
		{"bad cron", func(c *Config) { c.Retention.Schedule = "every day" }},
		{"graylog without addr", func(c *Config) { c.Logging.Channel = "graylog" }},
		{"production without secret", func(c *Config) { c.Server.Environment = "production" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			ApplyDefaults(&cfg)
			require.NoError(t, cfg.Validate())

			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
