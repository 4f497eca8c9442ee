package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CacheTTL != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", cfg.CacheTTL)
	}
	if cfg.RedisAddr() != "localhost:6379" {
		t.Fatalf("unexpected redis addr %q", cfg.RedisAddr())
	}
	if cfg.TimelineMaxDays != 0 {
		t.Fatalf("expected unbounded timeline, got %d", cfg.TimelineMaxDays)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("REDIS_HOST", "cache.internal")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("CACHE_TTL", "60")
	t.Setenv("COALESCE_FETCHES", "true")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("CIRCUIT_FAIL_LIMIT", "many")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8")
	t.Setenv("CACHE_RETRY_BACKOFF", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RedisAddr() != "cache.internal:6380" {
		t.Fatalf("unexpected redis addr %q", cfg.RedisAddr())
	}
	if cfg.CacheTTL != time.Minute {
		t.Fatalf("expected 60s ttl, got %v", cfg.CacheTTL)
	}
	if !cfg.CoalesceFetches {
		t.Fatal("expected coalescing enabled")
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.CircuitFailLimit != 3 {
		t.Fatalf("expected invalid int to keep default, got %d", cfg.CircuitFailLimit)
	}
	if len(cfg.TrustedProxies) != 1 || cfg.TrustedProxies[0] != "10.0.0.0/8" {
		t.Fatalf("unexpected trusted proxies %v", cfg.TrustedProxies)
	}
	if cfg.CacheRetryBackoff != 5*time.Second {
		t.Fatalf("expected 5s retry backoff, got %v", cfg.CacheRetryBackoff)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := "origin_host: db.internal:9000\ncache_ttl: 120\ntimeline_max_days: 30\nlog_level: debug\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OriginHost != "db.internal:9000" {
		t.Fatalf("expected file origin host, got %q", cfg.OriginHost)
	}
	if cfg.CacheTTL != 2*time.Minute {
		t.Fatalf("expected 120s ttl from file, got %v", cfg.CacheTTL)
	}
	if cfg.TimelineMaxDays != 30 {
		t.Fatalf("expected 30 days, got %d", cfg.TimelineMaxDays)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("expected env to win, got %q", cfg.LogLevel)
	}
	if cfg.RedisPort != 6379 {
		t.Fatalf("expected default port kept, got %d", cfg.RedisPort)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
