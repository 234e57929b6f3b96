package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config top-level struct
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
	Cache     CacheConfig     `yaml:"cache"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type RateLimitConfig struct {
	RPS   int `yaml:"rps"`
	Burst int `yaml:"burst"`
}

// CacheConfig bounds the in-memory stores. All state is process-lifetime
// only; the capacities are the sole pressure-relief mechanism.
type CacheConfig struct {
	MaxRecords     int `yaml:"max_records"`
	MaxIndexKeys   int `yaml:"max_index_keys"`
	MaxLocks       int `yaml:"max_locks"`
	LockTTLSeconds int `yaml:"lock_ttl_seconds"`
}

// LockTTL returns the lock-entry idle expiry as a duration.
func (c CacheConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// Load reads the yaml file and fills in defaults for zero values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.RateLimit.RPS == 0 {
		cfg.RateLimit.RPS = 100
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 200
	}
	if cfg.Cache.MaxRecords == 0 {
		cfg.Cache.MaxRecords = 10000
	}
	if cfg.Cache.MaxIndexKeys == 0 {
		cfg.Cache.MaxIndexKeys = 1000
	}
	if cfg.Cache.MaxLocks == 0 {
		cfg.Cache.MaxLocks = 1000
	}
	if cfg.Cache.LockTTLSeconds == 0 {
		cfg.Cache.LockTTLSeconds = 60
	}
	return &cfg, nil
}
