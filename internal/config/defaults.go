package config

// Zone table used when the config file does not override a zone
func DefaultZones() map[string]ZoneConfig {
	return map[string]ZoneConfig{
		ZoneAuth:    {WindowDurationMs: 15 * 60 * 1000, MaxRequests: 5},
		ZoneAPI:     {WindowDurationMs: 60 * 1000, MaxRequests: 100},
		ZoneUpload:  {WindowDurationMs: 60 * 1000, MaxRequests: 10},
		ZonePayment: {WindowDurationMs: 60 * 1000, MaxRequests: 10},
		ZonePublic:  {WindowDurationMs: 60 * 1000, MaxRequests: 200},
	}
}

func DefaultPlans() []PlanConfig {
	return []PlanConfig{
		{Name: PlanFree, StorageLimit: 500, MaxUploadSize: 10, TransformationsLimit: 1000, TeamMembers: 1},
		{Name: PlanPro, StorageLimit: 10240, MaxUploadSize: 100, TransformationsLimit: 25000, TeamMembers: 5},
		{Name: PlanEnterprise, StorageLimit: 102400, MaxUploadSize: 500, TransformationsLimit: 250000, TeamMembers: -1},
	}
}

// Fills zero values with defaults. Zones missing from the file are taken from
// the default table one by one, so a file can override a single zone.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.Environment == "" {
		cfg.Server.Environment = "development"
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 15
	}
	if cfg.Server.IdleTimeout <= 0 {
		cfg.Server.IdleTimeout = 60
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "host=localhost user=postgres password=postgres dbname=media_quota port=5432 sslmode=disable"
	}
	if cfg.Database.MaxIdleConns <= 0 {
		cfg.Database.MaxIdleConns = 10
	}
	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = 100
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == "" {
		cfg.Redis.Port = "6379"
	}

	if cfg.RateLimit.Backend == "" {
		cfg.RateLimit.Backend = "memory"
	}
	if cfg.RateLimit.SweepIntervalMs <= 0 {
		cfg.RateLimit.SweepIntervalMs = 60 * 1000
	}
	if cfg.RateLimit.Zones == nil {
		cfg.RateLimit.Zones = make(map[string]ZoneConfig)
	}
	for name, zone := range DefaultZones() {
		if _, ok := cfg.RateLimit.Zones[name]; !ok {
			cfg.RateLimit.Zones[name] = zone
		}
	}
	if cfg.RateLimit.Breaker.MaxFailures <= 0 {
		cfg.RateLimit.Breaker.MaxFailures = 5
	}
	if cfg.RateLimit.Breaker.TimeoutSeconds <= 0 {
		cfg.RateLimit.Breaker.TimeoutSeconds = 30
	}
	if cfg.RateLimit.Breaker.HalfOpenSuccess <= 0 {
		cfg.RateLimit.Breaker.HalfOpenSuccess = 1
	}

	if len(cfg.Plans) == 0 {
		cfg.Plans = DefaultPlans()
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Channel == "" {
		cfg.Logging.Channel = "stdout"
	}

	if cfg.Retention.RequestLogDays <= 0 {
		cfg.Retention.RequestLogDays = 30
	}
	if cfg.Retention.Schedule == "" {
		cfg.Retention.Schedule = "0 3 * * *"
	}
	if cfg.Retention.BufferSize <= 0 {
		cfg.Retention.BufferSize = 1000
	}

	if cfg.Health.IntervalSeconds <= 0 {
		cfg.Health.IntervalSeconds = 10
	}
	if cfg.Health.TimeoutSeconds <= 0 {
		cfg.Health.TimeoutSeconds = 2
	}
}
