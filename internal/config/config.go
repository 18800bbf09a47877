package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Zone names
const (
	ZoneAuth    = "auth"
	ZoneAPI     = "api"
	ZoneUpload  = "upload"
	ZonePayment = "payment"
	ZonePublic  = "public"
)

// Plan tier names
const (
	PlanFree       = "free"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	Database  DatabaseConfig  `json:"database" yaml:"database"`
	Redis     RedisConfig     `json:"redis" yaml:"redis"`
	Auth      AuthConfig      `json:"auth" yaml:"auth"`
	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`
	Plans     []PlanConfig    `json:"plans" yaml:"plans"`
	Webhook   WebhookConfig   `json:"webhook" yaml:"webhook"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	Retention RetentionConfig `json:"retention" yaml:"retention"`
	Health    HealthConfig    `json:"health" yaml:"health"`
}

type ServerConfig struct {
	Port        string `json:"port" yaml:"port"`
	Environment string `json:"environment" yaml:"environment"`
	// Timeouts in seconds
	ReadTimeout  int `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout int `json:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  int `json:"idle_timeout" yaml:"idle_timeout"`

	// Proxies (IPs or CIDRs) whose X-Forwarded-For is believed. Empty trusts none.
	TrustedProxies []string `json:"trusted_proxies" yaml:"trusted_proxies"`
}

type DatabaseConfig struct {
	DSN          string `json:"dsn" yaml:"dsn"`
	MaxIdleConns int    `json:"max_idle_conns" yaml:"max_idle_conns"`
	MaxOpenConns int    `json:"max_open_conns" yaml:"max_open_conns"`
	LogLevel     string `json:"log_level" yaml:"log_level"` // silent, error, warn, info
}

type RedisConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Host     string `json:"host" yaml:"host"`
	Port     string `json:"port" yaml:"port"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
}

func (r RedisConfig) GetRedisAddr() string {
	return r.Host + ":" + r.Port
}

type AuthConfig struct {
	// Shared secret for verifying identity provider tokens (HS256)
	JWTSecret string `json:"jwt_secret" yaml:"jwt_secret"`
	Issuer    string `json:"issuer" yaml:"issuer"`
}

type RateLimitConfig struct {
	Backend         string                `json:"backend" yaml:"backend"` // "memory" or "redis"
	SweepIntervalMs int64                 `json:"sweep_interval_ms" yaml:"sweep_interval_ms"`
	Zones           map[string]ZoneConfig `json:"zones" yaml:"zones"`
	Breaker         BreakerConfig         `json:"breaker" yaml:"breaker"`
}

// ZoneConfig is the fixed-window quota for one named zone
type ZoneConfig struct {
	WindowDurationMs int64 `json:"window_duration_ms" yaml:"window_duration_ms"`
	MaxRequests      int   `json:"max_requests" yaml:"max_requests"`
}

func (z ZoneConfig) Window() time.Duration {
	return time.Duration(z.WindowDurationMs) * time.Millisecond
}

type BreakerConfig struct {
	MaxFailures     int `json:"max_failures" yaml:"max_failures"`
	TimeoutSeconds  int `json:"timeout_seconds" yaml:"timeout_seconds"`
	HalfOpenSuccess int `json:"half_open_success" yaml:"half_open_success"`
}

type PlanConfig struct {
	Name                 string `json:"name" yaml:"name"`
	StorageLimit         int64  `json:"storage_limit_mb" yaml:"storage_limit_mb"`
	MaxUploadSize        int64  `json:"max_upload_size_mb" yaml:"max_upload_size_mb"`
	TransformationsLimit int64  `json:"transformations_limit" yaml:"transformations_limit"`
	TeamMembers          int    `json:"team_members" yaml:"team_members"` // -1 = unlimited
}

type WebhookConfig struct {
	Secret string `json:"secret" yaml:"secret"`
}

type LoggingConfig struct {
	Level       string `json:"level" yaml:"level"`
	Format      string `json:"format" yaml:"format"`   // text, json
	Channel     string `json:"channel" yaml:"channel"` // stdout, graylog, both
	GraylogAddr string `json:"graylog_addr" yaml:"graylog_addr"`
}

type RetentionConfig struct {
	RequestLogDays int    `json:"request_log_days" yaml:"request_log_days"`
	Schedule       string `json:"schedule" yaml:"schedule"`
	BufferSize     int    `json:"buffer_size" yaml:"buffer_size"`
}

type HealthConfig struct {
	IntervalSeconds int `json:"interval_seconds" yaml:"interval_seconds"`
	TimeoutSeconds  int `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// Reads the config file at path (JSON, or YAML by extension), applies defaults
// and environment overrides, then validates. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		file, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %q: %w", path, err)
		}

		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(file, &cfg)
		default:
			err = json.Unmarshal(file, &cfg)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
		}
	}

	ApplyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		cfg.Server.Environment = v
	}
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		cfg.Server.TrustedProxies = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Server.TrustedProxies = append(cfg.Server.TrustedProxies, p)
			}
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		cfg.Redis.Host = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		cfg.Redis.Port = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("WEBHOOK_SECRET"); v != "" {
		cfg.Webhook.Secret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RATE_LIMIT_BACKEND"); v != "" {
		cfg.RateLimit.Backend = v
	}
}

// Returns the plan config with the given name
func (c *Config) Plan(name string) (PlanConfig, bool) {
	for _, p := range c.Plans {
		if p.Name == name {
			return p, true
		}
	}
	return PlanConfig{}, false
}
