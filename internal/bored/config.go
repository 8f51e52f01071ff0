package bored

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendFile    = "file"
	BackendLevelDB = "leveldb"
	BackendSQLite  = "sqlite"
)

type Config struct {
	Fetch struct {
		UserAgent    string `yaml:"userAgent"`
		HTTPVersion  string `yaml:"httpVersion"`
		MaxRedirects int    `yaml:"maxRedirects"`
	} `yaml:"fetch"`

	Cache struct {
		Dir     string `yaml:"dir"`
		Backend string `yaml:"backend"`
		// TTL is a Go duration string applied at insert time. Empty means
		// entries never expire.
		TTL           string `yaml:"ttl"`
		EnforceExpiry bool   `yaml:"enforceExpiry"`
	} `yaml:"cache"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`

	// compiled
	cacheTTL time.Duration
}

func DefaultConfig() Config {
	var cfg Config
	cfg.Fetch.UserAgent = "Bored Browser"
	cfg.Fetch.HTTPVersion = "1.1"
	cfg.Fetch.MaxRedirects = 5
	cfg.Cache.Dir = ".cache"
	cfg.Cache.Backend = BackendFile
	cfg.Cache.EnforceExpiry = true
	cfg.Logging.Level = "info"
	return cfg
}

func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.compile(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) compile() error {
	if c.Fetch.MaxRedirects < 1 {
		return fmt.Errorf("fetch.maxRedirects must be at least 1")
	}
	switch c.Cache.Backend {
	case BackendFile, BackendLevelDB, BackendSQLite:
	default:
		return fmt.Errorf("cache.backend must be one of %s|%s|%s, got %q",
			BackendFile, BackendLevelDB, BackendSQLite, c.Cache.Backend)
	}
	if c.Cache.TTL != "" {
		d, err := time.ParseDuration(c.Cache.TTL)
		if err != nil {
			return fmt.Errorf("cache.ttl: %w", err)
		}
		if d < 0 {
			return fmt.Errorf("cache.ttl must not be negative")
		}
		c.cacheTTL = d
	}
	return nil
}
