package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Cache backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Network  string
	APIURL   string
	Timeout  time.Duration
	Anchor   string
	PoolTTL  time.Duration
	QuoteTTL time.Duration
	Debounce time.Duration

	BackoffStep time.Duration
	BackoffCap  time.Duration
	MaxFailures int

	CacheBackend  string
	CacheFile     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PGDSN         string
	RecordHistory bool

	Out      string
	LogLevel string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SELLIMPACT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("network", "world-chain")
	v.SetDefault("api-url", "https://api.geckoterminal.com/api/v2")
	v.SetDefault("timeout", 10*time.Second)
	v.SetDefault("anchor", "USDC.e")
	v.SetDefault("pool-ttl", 30*time.Second)
	v.SetDefault("quote-ttl", 8*time.Second)
	v.SetDefault("debounce", 300*time.Millisecond)
	v.SetDefault("backoff-step", 500*time.Millisecond)
	v.SetDefault("backoff-cap", 2500*time.Millisecond)
	v.SetDefault("max-failures", 6)
	v.SetDefault("cache-backend", BackendMemory)
	v.SetDefault("cache-file", "./data/cache.json")
	v.SetDefault("redis-addr", "localhost:6379")
	v.SetDefault("redis-db", 0)
	v.SetDefault("record-history", false)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Network:       strings.TrimSpace(v.GetString("network")),
		APIURL:        strings.TrimSpace(v.GetString("api-url")),
		Timeout:       v.GetDuration("timeout"),
		Anchor:        strings.TrimSpace(v.GetString("anchor")),
		PoolTTL:       v.GetDuration("pool-ttl"),
		QuoteTTL:      v.GetDuration("quote-ttl"),
		Debounce:      v.GetDuration("debounce"),
		BackoffStep:   v.GetDuration("backoff-step"),
		BackoffCap:    v.GetDuration("backoff-cap"),
		MaxFailures:   v.GetInt("max-failures"),
		CacheBackend:  strings.ToLower(strings.TrimSpace(v.GetString("cache-backend"))),
		CacheFile:     v.GetString("cache-file"),
		RedisAddr:     v.GetString("redis-addr"),
		RedisPassword: v.GetString("redis-password"),
		RedisDB:       v.GetInt("redis-db"),
		PGDSN:         v.GetString("pg-dsn"),
		RecordHistory: v.GetBool("record-history"),
		Out:           v.GetString("out"),
		LogLevel:      v.GetString("log-level"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at first use.
func (c Config) Validate() error {
	if c.Network == "" {
		return fmt.Errorf("network is required")
	}
	if c.PoolTTL <= 0 || c.QuoteTTL <= 0 {
		return fmt.Errorf("cache ttls must be positive")
	}
	switch c.CacheBackend {
	case BackendMemory:
	case BackendFile:
		if c.CacheFile == "" {
			return fmt.Errorf("cache-file is required for the file backend")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis-addr is required for the redis backend")
		}
	case BackendPostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg-dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.CacheBackend)
	}
	if c.RecordHistory && c.PGDSN == "" {
		return fmt.Errorf("pg-dsn is required to record history")
	}
	return nil
}

// ParseParts parses a comma-separated list of split part counts.
func ParseParts(input string) ([]int, error) {
	items := splitAndClean(input)
	if len(items) == 0 {
		return nil, fmt.Errorf("parts list is empty")
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		var n int
		if _, err := fmt.Sscanf(item, "%d", &n); err != nil || n < 1 || fmt.Sprint(n) != item {
			return nil, fmt.Errorf("invalid part count %q", item)
		}
		out = append(out, n)
	}
	return out, nil
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, item := range parts {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
