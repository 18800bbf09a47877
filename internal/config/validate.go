package config

import (
	"errors"
	"fmt"
	"net"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/robfig/cron/v3"
)

var requiredZones = []string{ZoneAuth, ZoneAPI, ZoneUpload, ZonePayment, ZonePublic}

func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Server),
		validation.Field(&c.Database),
		validation.Field(&c.RateLimit),
		validation.Field(&c.Plans, validation.Required, validation.By(hasFreePlan)),
		validation.Field(&c.Logging),
		validation.Field(&c.Retention),
	)
	if err != nil {
		return err
	}

	if c.Server.Environment == "production" && c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required in production")
	}

	return nil
}

func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Port, validation.Required),
		validation.Field(&s.Environment, validation.In("development", "staging", "production", "test")),
		validation.Field(&s.TrustedProxies, validation.Each(validation.By(ipOrCIDR))),
	)
}

func (d DatabaseConfig) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.DSN, validation.Required),
		validation.Field(&d.LogLevel, validation.In("silent", "error", "warn", "info")),
	)
}

func (r RateLimitConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Backend, validation.Required, validation.In("memory", "redis")),
		validation.Field(&r.Zones, validation.Required, validation.By(hasAllZones)),
	)
}

func (z ZoneConfig) Validate() error {
	return validation.ValidateStruct(&z,
		validation.Field(&z.WindowDurationMs, validation.Required, validation.Min(int64(1))),
		validation.Field(&z.MaxRequests, validation.Required, validation.Min(1)),
	)
}

func (p PlanConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required),
		validation.Field(&p.StorageLimit, validation.Required, validation.Min(int64(1))),
		validation.Field(&p.MaxUploadSize, validation.Required, validation.Min(int64(1))),
		validation.Field(&p.TransformationsLimit, validation.Required, validation.Min(int64(1))),
		validation.Field(&p.TeamMembers, validation.Min(-1)),
	)
}

func (l LoggingConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("trace", "debug", "info", "warn", "warning", "error", "fatal", "panic")),
		validation.Field(&l.Format, validation.In("text", "json")),
		validation.Field(&l.Channel, validation.In("stdout", "graylog", "both")),
		validation.Field(&l.GraylogAddr, validation.When(l.Channel == "graylog" || l.Channel == "both", validation.Required)),
	)
}

func (r RetentionConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RequestLogDays, validation.Min(1)),
		validation.Field(&r.Schedule, validation.Required, validation.By(validCronSpec)),
	)
}

func ipOrCIDR(value interface{}) error {
	addr, _ := value.(string)
	if net.ParseIP(addr) != nil {
		return nil
	}
	if _, _, err := net.ParseCIDR(addr); err == nil {
		return nil
	}
	return fmt.Errorf("%q is not an IP address or CIDR", addr)
}

func hasAllZones(value interface{}) error {
	zones, _ := value.(map[string]ZoneConfig)
	for _, name := range requiredZones {
		if _, ok := zones[name]; !ok {
			return fmt.Errorf("zone %q is not configured", name)
		}
	}
	return nil
}

func hasFreePlan(value interface{}) error {
	plans, _ := value.([]PlanConfig)
	for _, p := range plans {
		if p.Name == PlanFree {
			return nil
		}
	}
	return fmt.Errorf("plan %q is required as the default fallback", PlanFree)
}

func validCronSpec(value interface{}) error {
	spec, _ := value.(string)
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", spec, err)
	}
	return nil
}
