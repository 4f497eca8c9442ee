package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port                string        `yaml:"port"`
	OriginHost          string        `yaml:"origin_host"`
	RedisHost           string        `yaml:"redis_host"`
	RedisPort           int           `yaml:"redis_port"`
	CacheBackend        string        `yaml:"cache_backend"`
	CacheTTL            time.Duration `yaml:"-"`
	CacheConnectTimeout time.Duration `yaml:"-"`
	CacheWriteTimeout   time.Duration `yaml:"-"`
	CacheRetryBackoff   time.Duration `yaml:"-"`
	OriginTimeout       time.Duration `yaml:"-"`
	CircuitFailLimit    int           `yaml:"circuit_fail_limit"`
	CircuitCooldown     time.Duration `yaml:"-"`
	RateLimitPerMin     int           `yaml:"rate_limit_per_min"`
	TokenPath           string        `yaml:"sa_token_path"`
	InternalClient      string        `yaml:"internal_client"`
	TimelineMaxDays     int           `yaml:"timeline_max_days"`
	CoalesceFetches     bool          `yaml:"coalesce_fetches"`
	LogLevel            string        `yaml:"log_level"`
	AllowedOrigins      []string      `yaml:"allowed_origins"`
	TrustedProxies      []string      `yaml:"trusted_proxies"`
}

// fileConfig carries the durations as plain seconds, the same unit the
// environment uses.
type fileConfig struct {
	Config              `yaml:",inline"`
	CacheTTL            int `yaml:"cache_ttl"`
	CacheConnectTimeout int `yaml:"cache_connect_timeout"`
	CacheWriteTimeout   int `yaml:"cache_write_timeout"`
	CacheRetryBackoff   int `yaml:"cache_retry_backoff"`
	OriginTimeout       int `yaml:"origin_timeout"`
	CircuitCooldown     int `yaml:"circuit_cooldown"`
}

func Defaults() Config {
	return Config{
		Port:                "8080",
		OriginHost:          "localhost:8000",
		RedisHost:           "localhost",
		RedisPort:           6379,
		CacheBackend:        "redis",
		CacheTTL:            3600 * time.Second,
		CacheConnectTimeout: 2 * time.Second,
		CacheWriteTimeout:   5 * time.Second,
		CacheRetryBackoff:   time.Second,
		OriginTimeout:       10 * time.Second,
		CircuitFailLimit:    3,
		CircuitCooldown:     20 * time.Second,
		RateLimitPerMin:     120,
		TokenPath:           "/var/run/secrets/kubernetes.io/serviceaccount/token",
		InternalClient:      "Frontend",
		LogLevel:            "info",
		AllowedOrigins:      []string{"*"},
	}
}

// Load builds the config from defaults, the optional CONFIG_FILE overlay and
// finally the environment.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		var err error
		cfg, err = overlayFile(cfg, path)
		if err != nil {
			return cfg, err
		}
	}
	return overlayEnv(cfg), nil
}

func overlayFile(cfg Config, path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	fc := fileConfig{Config: cfg}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return cfg, err
	}
	out := fc.Config
	if fc.CacheTTL > 0 {
		out.CacheTTL = time.Duration(fc.CacheTTL) * time.Second
	}
	if fc.CacheConnectTimeout > 0 {
		out.CacheConnectTimeout = time.Duration(fc.CacheConnectTimeout) * time.Second
	}
	if fc.CacheWriteTimeout > 0 {
		out.CacheWriteTimeout = time.Duration(fc.CacheWriteTimeout) * time.Second
	}
	if fc.CacheRetryBackoff > 0 {
		out.CacheRetryBackoff = time.Duration(fc.CacheRetryBackoff) * time.Second
	}
	if fc.OriginTimeout > 0 {
		out.OriginTimeout = time.Duration(fc.OriginTimeout) * time.Second
	}
	if fc.CircuitCooldown > 0 {
		out.CircuitCooldown = time.Duration(fc.CircuitCooldown) * time.Second
	}
	return out, nil
}

func overlayEnv(cfg Config) Config {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.OriginHost = getEnv("DB_SERVER_HOST", cfg.OriginHost)
	cfg.RedisHost = getEnv("REDIS_HOST", cfg.RedisHost)
	cfg.RedisPort = getEnvInt("REDIS_PORT", cfg.RedisPort)
	cfg.CacheBackend = strings.ToLower(getEnv("CACHE_BACKEND", cfg.CacheBackend))
	cfg.CacheTTL = getEnvDuration("CACHE_TTL", cfg.CacheTTL)
	cfg.CacheConnectTimeout = getEnvDuration("CACHE_CONNECT_TIMEOUT", cfg.CacheConnectTimeout)
	cfg.CacheWriteTimeout = getEnvDuration("CACHE_WRITE_TIMEOUT", cfg.CacheWriteTimeout)
	cfg.CacheRetryBackoff = getEnvDuration("CACHE_RETRY_BACKOFF", cfg.CacheRetryBackoff)
	cfg.OriginTimeout = getEnvDuration("ORIGIN_TIMEOUT", cfg.OriginTimeout)
	cfg.CircuitFailLimit = getEnvInt("CIRCUIT_FAIL_LIMIT", cfg.CircuitFailLimit)
	cfg.CircuitCooldown = getEnvDuration("CIRCUIT_COOLDOWN", cfg.CircuitCooldown)
	cfg.RateLimitPerMin = getEnvInt("RATE_LIMIT_PER_MIN", cfg.RateLimitPerMin)
	cfg.TokenPath = getEnv("SA_TOKEN_PATH", cfg.TokenPath)
	cfg.InternalClient = getEnv("INTERNAL_CLIENT", cfg.InternalClient)
	cfg.TimelineMaxDays = getEnvInt("TIMELINE_MAX_DAYS", cfg.TimelineMaxDays)
	cfg.CoalesceFetches = getEnvBool("COALESCE_FETCHES", cfg.CoalesceFetches)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("TRUSTED_PROXIES"); v != "" {
		cfg.TrustedProxies = splitList(v)
	}
	return cfg
}

// RedisAddr is the host:port pair handed to the redis client.
func (c Config) RedisAddr() string {
	return c.RedisHost + ":" + strconv.Itoa(c.RedisPort)
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return time.Duration(i) * time.Second
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
