package config

import (
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	var c AppConfig
	applyDefaults(&c)

	if c.AppPort != "8080" {
		t.Errorf("default port: got %q", c.AppPort)
	}
	if c.BodyLimitBytes != 10*1024 {
		t.Errorf("default body limit: got %d", c.BodyLimitBytes)
	}
	if c.DedupWindowSec != 60 {
		t.Errorf("default dedup window: got %d", c.DedupWindowSec)
	}
	if len(c.AllowedOrigins) != 1 || c.AllowedOrigins[0] != "*" {
		t.Errorf("default cors origins: got %v", c.AllowedOrigins)
	}
	if c.APIKey != "" {
		t.Error("API key must not default to a value")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ORIGIN", "https://a.example, https://b.example")
	t.Setenv("API_KEY", "sekrit")
	t.Setenv("DEDUP_WINDOW_SEC", "120")
	t.Setenv("BODY_LIMIT_BYTES", "2048")
	t.Setenv("DATABASE_URI", "user:pw@tcp(db:3306)/visits?parseTime=True")

	var c AppConfig
	applyDefaults(&c)
	applyEnvOverrides(&c)

	if c.AppPort != "9090" {
		t.Errorf("PORT override: got %q", c.AppPort)
	}
	if len(c.AllowedOrigins) != 2 || c.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("CORS_ORIGIN override: got %v", c.AllowedOrigins)
	}
	if c.APIKey != "sekrit" {
		t.Errorf("API_KEY override: got %q", c.APIKey)
	}
	if c.DedupWindow() != 2*time.Minute {
		t.Errorf("dedup window: got %v", c.DedupWindow())
	}
	if c.BodyLimitBytes != 2048 {
		t.Errorf("body limit override: got %d", c.BodyLimitBytes)
	}
	if c.DatabaseURI == "" {
		t.Error("DATABASE_URI override not applied")
	}
}

func TestEnvOverridesKeepDefaultsOnBadIntegers(t *testing.T) {
	t.Setenv("BODY_LIMIT_BYTES", "abc")
	t.Setenv("DEDUP_WINDOW_SEC", "oops")
	t.Setenv("STATS_CACHE_TTL_SEC", "9s")

	var c AppConfig
	applyDefaults(&c)
	applyEnvOverrides(&c)

	if c.BodyLimitBytes != 10*1024 {
		t.Errorf("bad BODY_LIMIT_BYTES must keep default, got %d", c.BodyLimitBytes)
	}
	if c.DedupWindowSec != 60 {
		t.Errorf("bad DEDUP_WINDOW_SEC must keep default, got %d", c.DedupWindowSec)
	}
	if c.StatsCacheTTLSec != 0 {
		t.Errorf("bad STATS_CACHE_TTL_SEC must keep default, got %d", c.StatsCacheTTLSec)
	}
}

func TestCacheEnabled(t *testing.T) {
	var c AppConfig
	if c.CacheEnabled() {
		t.Error("cache must be disabled by default")
	}
	c.RedisHost = "127.0.0.1"
	if c.CacheEnabled() {
		t.Error("cache needs a TTL, not just a host")
	}
	c.StatsCacheTTLSec = 30
	if !c.CacheEnabled() {
		t.Error("cache should enable with host and TTL")
	}
	if c.StatsCacheTTL() != 30*time.Second {
		t.Errorf("unexpected ttl %v", c.StatsCacheTTL())
	}
}
