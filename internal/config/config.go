// Package config loads the configuration of the catalog client and the stub API.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var _ Validator = (*Config)(nil)

const (
	envPrefix      = "CATALOG_"
	defaultEnvFile = ".env"
	configFile     = "config.yaml"
)

// Config is the catalog client configuration.
type Config struct {
	API            APIConfig            `koanf:"api"`
	Session        SessionConfig        `koanf:"session"`
	Compose        ComposeConfig        `koanf:"compose"`
	CircuitBreaker CircuitBreakerConfig `koanf:"circuitbreaker"`
	Search         SearchConfig         `koanf:"search"`
	Log            LogConfig            `koanf:"log"`
	Telemetry      TelemetryConfig      `koanf:"telemetry"`
}

type APIConfig struct {
	BaseURL string        `koanf:"baseurl"`
	Timeout time.Duration `koanf:"timeout"`
}

// SessionConfig selects where the bearer token is persisted.
type SessionConfig struct {
	Backend string `koanf:"backend"`
	Redis   struct {
		Addr     string        `koanf:"addr"`
		Password string        `koanf:"password"`
		Key      string        `koanf:"key"`
		TTL      time.Duration `koanf:"ttl"`
	} `koanf:"redis"`
	SQLite struct {
		Dir string `koanf:"dir"`
	} `koanf:"sqlite"`
}

type ComposeConfig struct {
	FetchTimeout time.Duration `koanf:"fetchtimeout"`
	Concurrency  int           `koanf:"concurrency"`
}

// CircuitBreakerConfig guards the catalog API transport. Zero ConsecutiveFailures disables it.
type CircuitBreakerConfig struct {
	ConsecutiveFailures uint32        `koanf:"consecutivefailures"`
	OpenTimeout         time.Duration `koanf:"opentimeout"`
}

type SearchConfig struct {
	Ordering string `koanf:"ordering"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

// TelemetryConfig enables tracing of catalog API calls, exported over OTLP/HTTP.
type TelemetryConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Endpoint string        `koanf:"endpoint"`
	Insecure bool          `koanf:"insecure"`
	Timeout  time.Duration `koanf:"timeout"`
}

const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
	SessionSQLite = "sqlite"
)

const (
	OrderingLastResolved = "last-resolved"
	OrderingLastIssued   = "last-issued"
)

// Defaults returns the lowest-priority configuration values.
func Defaults() map[string]any {
	return map[string]any{
		"api.baseurl":                        "http://127.0.0.1:8000",
		"api.timeout":                        "15s",
		"session.backend":                    SessionSQLite,
		"session.redis.addr":                 "127.0.0.1:6379",
		"session.redis.key":                  "token",
		"session.sqlite.dir":                 defaultStateDir(),
		"compose.fetchtimeout":               "20s",
		"compose.concurrency":                4,
		"circuitbreaker.consecutivefailures": 5,
		"circuitbreaker.opentimeout":         "10s",
		"search.ordering":                    OrderingLastResolved,
		"log.level":                          "info",
		"telemetry.enabled":                  false,
		"telemetry.endpoint":                 "127.0.0.1:4318",
		"telemetry.insecure":                 true,
		"telemetry.timeout":                  "5s",
	}
}

// Load reads the client configuration.
func Load() (*Config, error) {
	return LoadFrom[*Config](Source{
		File:      configFile,
		EnvFile:   defaultEnvFile,
		EnvPrefix: envPrefix,
		Defaults:  Defaults(),
	})
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("\n--- API ---\n")
	b.WriteString(fmt.Sprintf("  baseurl: %s\n", c.API.BaseURL))
	b.WriteString(fmt.Sprintf("  timeout: %v\n", c.API.Timeout))
	b.WriteString("\n--- Session ---\n")
	b.WriteString(fmt.Sprintf("  backend: %s\n", c.Session.Backend))
	b.WriteString(fmt.Sprintf("  redis.addr: %s\n", c.Session.Redis.Addr))
	b.WriteString(fmt.Sprintf("  redis.password: %s\n", mask(c.Session.Redis.Password)))
	b.WriteString(fmt.Sprintf("  redis.key: %s\n", c.Session.Redis.Key))
	b.WriteString(fmt.Sprintf("  sqlite.dir: %s\n", c.Session.SQLite.Dir))
	b.WriteString("\n--- Compose ---\n")
	b.WriteString(fmt.Sprintf("  fetchtimeout: %v\n", c.Compose.FetchTimeout))
	b.WriteString(fmt.Sprintf("  concurrency: %d\n", c.Compose.Concurrency))
	b.WriteString("\n--- Circuit Breaker ---\n")
	b.WriteString(fmt.Sprintf("  consecutivefailures: %d\n", c.CircuitBreaker.ConsecutiveFailures))
	b.WriteString(fmt.Sprintf("  opentimeout: %v\n", c.CircuitBreaker.OpenTimeout))
	b.WriteString("\n--- Search ---\n")
	b.WriteString(fmt.Sprintf("  ordering: %s\n", c.Search.Ordering))
	b.WriteString("\n--- Log ---\n")
	b.WriteString(fmt.Sprintf("  level: %s\n", c.Log.Level))
	b.WriteString("\n--- Telemetry ---\n")
	b.WriteString(fmt.Sprintf("  enabled: %t\n", c.Telemetry.Enabled))
	b.WriteString(fmt.Sprintf("  endpoint: %s\n", c.Telemetry.Endpoint))
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.baseurl is not configured")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api.baseurl must be an absolute http(s) URL: %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("invalid api timeout: %v", c.API.Timeout)
	}
	switch c.Session.Backend {
	case SessionMemory:
	case SessionRedis:
		if c.Session.Redis.Addr == "" {
			return fmt.Errorf("session.redis.addr is required for the redis backend")
		}
		if c.Session.Redis.Key == "" {
			return fmt.Errorf("session.redis.key cannot be empty")
		}
	case SessionSQLite:
		if c.Session.SQLite.Dir == "" {
			return fmt.Errorf("session.sqlite.dir is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown session backend: %q", c.Session.Backend)
	}
	if c.Compose.FetchTimeout <= 0 {
		return fmt.Errorf("invalid compose fetch timeout: %v", c.Compose.FetchTimeout)
	}
	if c.Compose.Concurrency <= 0 {
		return fmt.Errorf("compose.concurrency must be greater than 0")
	}
	if c.CircuitBreaker.ConsecutiveFailures > 0 && c.CircuitBreaker.OpenTimeout <= 0 {
		return fmt.Errorf("circuitbreaker.opentimeout must be greater than 0")
	}
	switch c.Search.Ordering {
	case OrderingLastResolved, OrderingLastIssued:
	default:
		return fmt.Errorf("unknown search ordering: %q", c.Search.Ordering)
	}
	if c.Telemetry.Enabled {
		if c.Telemetry.Endpoint == "" {
			return fmt.Errorf("OTel endpoint is not configured")
		}
		if c.Telemetry.Timeout <= 0 {
			return fmt.Errorf("telemetry timeout must be greater than 0")
		}
	}
	return nil
}

func mask(secret string) string {
	if secret == "" {
		return "<not configured>"
	}
	return "****"
}

// defaultStateDir is where the sqlite session store keeps its file.
func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".vroomvault"
	}
	return filepath.Join(dir, "vroomvault")
}
