package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("COUNT_AUTH_JWT_SECRET", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.App.Port != 8080 || cfg.GRPC.Port != 50051 {
		t.Fatalf("unexpected ports http=%d grpc=%d", cfg.App.Port, cfg.GRPC.Port)
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.Limit != 100 || cfg.RateLimit.Window != time.Minute {
		t.Fatalf("unexpected rate limit defaults %+v", cfg.RateLimit)
	}
	if cfg.RateLimit.FailurePolicy != "open" {
		t.Fatalf("expected fail-open default, got %q", cfg.RateLimit.FailurePolicy)
	}
	if cfg.Cache.ListTTL != 300*time.Second || cfg.Cache.CounterTTL != time.Hour || cfg.Cache.PreferencesTTL != 600*time.Second {
		t.Fatalf("unexpected cache ttls %+v", cfg.Cache)
	}
	if cfg.Redis.CounterPrefix != "counter" || cfg.Redis.CachePrefix != "cache" || cfg.Redis.RateLimitPrefix != "rate_limit" {
		t.Fatalf("unexpected redis prefixes %+v", cfg.Redis)
	}
	if cfg.Auth.CookieName != "sb-access-token" {
		t.Fatalf("unexpected cookie name %q", cfg.Auth.CookieName)
	}
	if len(cfg.Kafka.Brokers) != 0 {
		t.Fatalf("expected no kafka brokers by default, got %v", cfg.Kafka.Brokers)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("COUNT_AUTH_JWT_SECRET", "secret")
	t.Setenv("COUNT_RATE_LIMIT_LIMIT", "5")
	t.Setenv("COUNT_RATE_LIMIT_WINDOW", "10s")
	t.Setenv("REDIS_HOST", "cache.internal")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.RateLimit.Limit != 5 || cfg.RateLimit.Window != 10*time.Second {
		t.Fatalf("expected overrides to apply, got %+v", cfg.RateLimit)
	}
	if cfg.Redis.Host != "cache.internal" {
		t.Fatalf("expected unprefixed env fallback, got %q", cfg.Redis.Host)
	}
}

func TestValidate(t *testing.T) {
	valid := AppConfig{
		Auth:      AuthSettings{JWTSecret: "secret"},
		RateLimit: RateLimitSettings{Enabled: true, Limit: 1, Window: time.Second},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	cases := map[string]func(*AppConfig){
		"missing secret": func(c *AppConfig) { c.Auth.JWTSecret = " " },
		"zero limit":     func(c *AppConfig) { c.RateLimit.Limit = 0 },
		"short window":   func(c *AppConfig) { c.RateLimit.Window = 500 * time.Millisecond },
	}
	for name, mutate := range cases {
		cfg := valid
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}

	disabled := valid
	disabled.RateLimit = RateLimitSettings{Enabled: false}
	if err := disabled.Validate(); err != nil {
		t.Fatalf("disabled limiter should skip limit checks, got %v", err)
	}
}
