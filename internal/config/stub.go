package config

import (
	"fmt"
	"strings"
	"time"
)

var _ Validator = (*StubConfig)(nil)

const stubEnvPrefix = "CATALOG_STUB_"

// StubConfig configures the stub catalog API.
type StubConfig struct {
	HTTPServer struct {
		Port           int `koanf:"port"`
		MaxHeaderBytes int `koanf:"maxheaderbytes"`
		Timeout        struct {
			Read       time.Duration `koanf:"read"`
			Write      time.Duration `koanf:"write"`
			Idle       time.Duration `koanf:"idle"`
			ReadHeader time.Duration `koanf:"readheader"`
		} `koanf:"timeout"`
	} `koanf:"server"`

	Auth struct {
		Secret   string        `koanf:"secret"`
		TokenTTL time.Duration `koanf:"tokenttl"`
	} `koanf:"auth"`

	Shutdown struct {
		Timeout time.Duration `koanf:"timeout"`
	} `koanf:"shutdown"`

	Log LogConfig `koanf:"log"`
}

// StubDefaults returns the lowest-priority stub configuration values.
func StubDefaults() map[string]any {
	return map[string]any{
		"server.port":               8000,
		"server.maxheaderbytes":     1 << 20,
		"server.timeout.read":       "30s",
		"server.timeout.write":      "30s",
		"server.timeout.idle":       "60s",
		"server.timeout.readheader": "5s",
		"auth.tokenttl":             "30m",
		"shutdown.timeout":          "10s",
		"log.level":                 "info",
	}
}

// LoadStub reads the stub API configuration.
func LoadStub() (*StubConfig, error) {
	return LoadFrom[*StubConfig](Source{
		File:      configFile,
		EnvFile:   defaultEnvFile,
		EnvPrefix: stubEnvPrefix,
		Defaults:  StubDefaults(),
	})
}

func (c *StubConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Server ---\n")
	b.WriteString(fmt.Sprintf("  port: %d\n", c.HTTPServer.Port))
	b.WriteString(fmt.Sprintf("  maxheaderbytes: %d\n", c.HTTPServer.MaxHeaderBytes))
	b.WriteString(fmt.Sprintf("  timeout.read: %v\n", c.HTTPServer.Timeout.Read))
	b.WriteString(fmt.Sprintf("  timeout.write: %v\n", c.HTTPServer.Timeout.Write))
	b.WriteString(fmt.Sprintf("  timeout.idle: %v\n", c.HTTPServer.Timeout.Idle))
	b.WriteString(fmt.Sprintf("  timeout.readheader: %v\n", c.HTTPServer.Timeout.ReadHeader))
	b.WriteString("\n--- Auth ---\n")
	b.WriteString(fmt.Sprintf("  secret: %s\n", mask(c.Auth.Secret)))
	b.WriteString(fmt.Sprintf("  tokenttl: %v\n", c.Auth.TokenTTL))
	b.WriteString("\n--- Shutdown ---\n")
	b.WriteString(fmt.Sprintf("  timeout: %v\n", c.Shutdown.Timeout))
	b.WriteString("\n--- Log ---\n")
	b.WriteString(fmt.Sprintf("  level: %s\n", c.Log.Level))
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *StubConfig) Validate() error {
	if c.HTTPServer.Port <= 0 || c.HTTPServer.Port > 65535 {
		return fmt.Errorf("invalid HTTP server port: %d", c.HTTPServer.Port)
	}
	if c.HTTPServer.Timeout.Read <= 0 {
		return fmt.Errorf("invalid HTTP server read timeout: %v", c.HTTPServer.Timeout.Read)
	}
	if c.HTTPServer.Timeout.Write <= 0 {
		return fmt.Errorf("invalid HTTP server write timeout: %v", c.HTTPServer.Timeout.Write)
	}
	if c.HTTPServer.Timeout.Idle <= 0 {
		return fmt.Errorf("invalid HTTP server idle timeout: %v", c.HTTPServer.Timeout.Idle)
	}
	if c.HTTPServer.Timeout.ReadHeader <= 0 {
		return fmt.Errorf("invalid HTTP server read header timeout: %v", c.HTTPServer.Timeout.ReadHeader)
	}
	if len(c.Auth.Secret) < 16 {
		return fmt.Errorf("auth.secret must be at least 16 characters")
	}
	if c.Auth.TokenTTL < 0 {
		return fmt.Errorf("auth.tokenttl cannot be negative")
	}
	if c.Shutdown.Timeout <= 0 {
		return fmt.Errorf("invalid shutdown timeout: %v", c.Shutdown.Timeout)
	}
	return nil
}
